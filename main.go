package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/howeyc/fsnotify"
	emubridge "github.com/user-none/emgf/bridge/ebiten"
	"github.com/user-none/emgf/cli"
	"github.com/user-none/emgf/emu"
	"github.com/user-none/emgf/monitor"
	"github.com/user-none/emgf/ui"
)

type options struct {
	romPath    string
	region     string
	cfg        emu.Config
	p2         bool
	watch      bool
	headless   bool
	frames     int
	screenshot string
	scale      int
	monitor    bool
	mute       bool
}

func main() {
	var o options
	flag.StringVar(&o.romPath, "rom", "", "path to board image (required)")
	flag.StringVar(&o.region, "region", "auto", "region: auto, ntsc, or pal")
	flag.IntVar(&o.cfg.Width, "width", emu.ScreenWidth, "display width in pixels")
	flag.IntVar(&o.cfg.Height, "height", emu.DefaultScreenHeight, "display height in pixels")
	flag.IntVar(&o.cfg.DPI, "dpi", 0, "display density reported to the guest (0 for default)")
	flag.BoolVar(&o.p2, "p2", true, "report a joypad in port 2")
	flag.BoolVar(&o.watch, "watch", false, "reload the image when the file changes")
	flag.BoolVar(&o.headless, "headless", false, "run without a window")
	flag.IntVar(&o.frames, "frames", 60, "frames to run in headless mode")
	flag.StringVar(&o.screenshot, "screenshot", "", "headless: write the final frame to this PNG")
	flag.IntVar(&o.scale, "scale", 1, "screenshot scale factor")
	flag.BoolVar(&o.monitor, "monitor", false, "show the register monitor in the terminal")
	flag.BoolVar(&o.mute, "mute", false, "disable audio")
	flag.BoolVar(&o.cfg.TraceFB, "trace", false, "log every framebuffer register access")
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix(emu.Name + ": ")

	if o.romPath == "" {
		log.Fatal("image path is required. Usage: emgf -rom <path>")
	}

	romData, err := os.ReadFile(o.romPath)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	region, err := pickRegion(o.region, romData)
	if err != nil {
		log.Fatal(err)
	}

	if o.headless {
		if err := runHeadless(o, romData, region); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := runWindowed(o, romData, region); err != nil {
		log.Fatal(err)
	}
}

func pickRegion(flagValue string, rom []byte) (emu.Region, error) {
	switch strings.ToLower(flagValue) {
	case "auto":
		region, _ := emu.DetectRegion(rom)
		return region, nil
	case "ntsc":
		return emu.RegionNTSC, nil
	case "pal":
		return emu.RegionPAL, nil
	}
	return emu.RegionNTSC, fmt.Errorf("invalid region: %s (use auto, ntsc, or pal)", flagValue)
}

func runHeadless(o options, rom []byte, region emu.Region) error {
	e, err := emu.NewEmulatorWithConfig(rom, region, o.cfg)
	if err != nil {
		return fmt.Errorf("initialize emulator: %w", err)
	}
	defer e.Close()
	e.SetP2Connected(o.p2)

	start := time.Now()
	for range o.frames {
		e.RunFrame()
	}
	s := e.Status()
	log.Printf("ran %d frames in %v; pc=%06x base=%08x irq=%t int_status=%08x",
		o.frames, time.Since(start).Round(time.Millisecond), s.PC,
		s.Controller.Base, s.Controller.IRQ, s.Controller.IntStatus)

	if o.screenshot != "" {
		if err := ui.SaveScreenshot(o.screenshot, e.Image(), o.scale); err != nil {
			return err
		}
		log.Printf("screenshot saved to %s", o.screenshot)
	}
	return nil
}

func runWindowed(o options, rom []byte, region emu.Region) error {
	var status *ui.SharedStatus
	if o.monitor {
		status = &ui.SharedStatus{}
		mon := monitor.New(status, 0)
		log.SetOutput(mon.LogWriter())
		go func() {
			if err := mon.Run(); err != nil {
				log.SetOutput(os.Stderr)
				log.Printf("monitor: %v", err)
				return
			}
			log.SetOutput(os.Stderr)
		}()
		defer mon.Stop()
	}

	g := &game{
		opts: cli.Options{
			Status:          status,
			ScreenshotDir:   filepath.Dir(o.romPath),
			ScreenshotScale: o.scale,
			Mute:            o.mute,
		},
		cfg:    o.cfg,
		region: region,
		p2:     o.p2,
	}
	if err := g.load(rom); err != nil {
		return err
	}
	defer g.close()

	if o.watch {
		stop, err := watchImage(o.romPath, g.load)
		if err != nil {
			return err
		}
		defer stop()
	}

	title := emu.Name
	if t := emu.Title(rom); t != "" {
		title += " - " + t
	}
	ebiten.SetWindowSize(o.cfg.Width*2, o.cfg.Height*2)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	return ebiten.RunGame(g)
}

// game is the ebiten.Game for the direct runner. It owns the current
// cli.Runner and lets the image be swapped underneath it.
type game struct {
	mu       sync.Mutex
	runner   *cli.Runner
	emulator *emubridge.Emulator

	opts   cli.Options
	cfg    emu.Config
	region emu.Region
	p2     bool
}

// load boots rom on a fresh emulator and retires the previous one.
// An image that fails to boot leaves the running one in place.
func (g *game) load(rom []byte) error {
	e, err := emubridge.NewEmulator(rom, g.region, g.cfg)
	if err != nil {
		return fmt.Errorf("initialize emulator: %w", err)
	}
	e.SetP2Connected(g.p2)
	r := cli.NewRunner(e, g.opts)

	g.mu.Lock()
	oldRunner, oldEmu := g.runner, g.emulator
	g.runner, g.emulator = r, e
	g.mu.Unlock()

	if oldRunner != nil {
		oldRunner.Close()
		oldEmu.Close()
	}
	return nil
}

func (g *game) current() *cli.Runner {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runner
}

func (g *game) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.runner != nil {
		g.runner.Close()
		g.emulator.Close()
		g.runner, g.emulator = nil, nil
	}
}

func (g *game) Update() error { return g.current().Update() }

func (g *game) Draw(screen *ebiten.Image) { g.current().Draw(screen) }

func (g *game) Layout(w, h int) (int, int) { return g.current().Layout(w, h) }

// watchImage calls reload with the new contents whenever path changes.
// Bursts of events are coalesced. The returned func stops watching.
func watchImage(path string, reload func([]byte) error) (func(), error) {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var fire <-chan time.Time
		for {
			select {
			case <-done:
				return
			case ev := <-watcher.Event:
				if ev == nil {
					return
				}
				if filepath.Clean(ev.Name) == path && !ev.IsAttrib() && !ev.IsDelete() {
					fire = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				if err == nil {
					return
				}
				log.Printf("watch: %v", err)
			case <-fire:
				fire = nil
				rom, err := os.ReadFile(path)
				if err != nil {
					log.Printf("watch: %v", err)
					break
				}
				if err := emu.ValidateImage(rom); err != nil {
					log.Printf("watch: %s: %v", filepath.Base(path), err)
					break
				}
				if err := reload(rom); err != nil {
					log.Printf("watch: %v", err)
					break
				}
				log.Printf("reloaded %s", filepath.Base(path))
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
