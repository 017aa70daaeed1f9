// Package monitor shows the framebuffer controller's registers live in a
// terminal while the board runs.
package monitor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/user-none/emgf/emu"
	"github.com/user-none/emgf/goldfish"
)

// Source supplies board snapshots. ok is false until the board has run.
type Source interface {
	Status() (s emu.Status, ok bool)
}

// Monitor is a tview application with a register pane, a board pane and a
// scrolling log.
type Monitor struct {
	src      Source
	interval time.Duration

	regs  *tview.TextView
	board *tview.TextView
	log   *tview.TextView
	line  *tview.TextView
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	done chan struct{}
}

// New builds a monitor polling src every interval.
func New(src Source, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	m := &Monitor{
		src:      src,
		interval: interval,
		regs: tview.NewTextView().
			SetWrap(false),
		board: tview.NewTextView().
			SetWrap(false),
		log: tview.NewTextView().
			SetMaxLines(500),
		line: tview.NewTextView().
			SetWrap(false),
		cols: tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app:  tview.NewApplication(),
		done: make(chan struct{}),
	}
	m.regs.SetBorder(true).SetTitle(" goldfish_fb ")
	m.board.SetBorder(true).SetTitle(" " + emu.Name + " ")
	m.log.SetChangedFunc(func() { m.app.Draw() })
	m.line.SetBackgroundColor(tcell.ColorDarkGrey)
	m.cols.
		AddItem(m.regs, 0, 1, false).
		AddItem(m.board, 0, 1, false)
	m.rows.
		AddItem(m.cols, 14, 0, false).
		AddItem(m.log, 0, 1, false).
		AddItem(m.line, 1, 0, false)
	m.app.SetRoot(m.rows, true)
	return m
}

// LogWriter returns a writer that appends to the log pane. Pass it to
// log.SetOutput while the monitor runs.
func (m *Monitor) LogWriter() io.Writer { return m.log }

// Run blocks until the terminal is closed with Ctrl-C or Stop is called.
func (m *Monitor) Run() error {
	go m.poll()
	defer close(m.done)
	return m.app.Run()
}

// Stop ends Run.
func (m *Monitor) Stop() { m.app.Stop() }

func (m *Monitor) poll() {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
		}
		s, ok := m.src.Status()
		if !ok {
			continue
		}
		regs, board, line := FormatRegisters(s.Controller), FormatBoard(s), FormatLine(s)
		m.app.QueueUpdateDraw(func() {
			m.regs.SetText(regs)
			m.board.SetText(board)
			if s.Controller.IRQ {
				m.line.SetTextColor(tcell.ColorYellow)
			} else {
				m.line.SetTextColor(tcell.ColorWhite)
			}
			m.line.SetText(line)
		})
	}
}

// FormatRegisters renders the controller's register file. INT_STATUS is
// shown from the snapshot so viewing it never clears pending bits.
func FormatRegisters(st goldfish.State) string {
	var b strings.Builder
	row := func(off uint32, name, value string) {
		fmt.Fprintf(&b, "%02x %-12s %s\n", off, name, value)
	}
	row(goldfish.RegIntStatus, "INT_STATUS", fmt.Sprintf("%08x %s", st.IntStatus, intNames(st.IntStatus)))
	row(goldfish.RegIntEnable, "INT_ENABLE", fmt.Sprintf("%08x %s", st.IntEnable, intNames(st.IntEnable)))
	base := fmt.Sprintf("%08x", st.Base)
	if !st.BaseValid {
		base += " (unset)"
	}
	row(goldfish.RegSetBase, "SET_BASE", base)
	row(goldfish.RegSetRotate, "SET_ROTATE", fmt.Sprintf("%d (active %d)", st.RequestedRotation, st.Rotation))
	row(goldfish.RegSetBlank, "SET_BLANK", fmt.Sprintf("%t", st.Blank))
	fmt.Fprintf(&b, "\ndpi %d  need_update %t  need_interrupt %t", st.DPI, st.NeedUpdate, st.NeedInterrupt)
	return b.String()
}

// FormatBoard renders the board-level view of the last frame.
func FormatBoard(s emu.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame   %d\n", s.Frame)
	fmt.Fprintf(&b, "pc      %06x\n", s.PC)
	fmt.Fprintf(&b, "surface %dx%d\n", s.Width, s.Height)
	fmt.Fprintf(&b, "updates %d\n", s.Updates)
	if s.Dirty.Empty() {
		b.WriteString("dirty   -")
	} else {
		fmt.Fprintf(&b, "dirty   y %d-%d", s.Dirty.Min.Y, s.Dirty.Max.Y)
	}
	return b.String()
}

// FormatLine renders the one-line status bar.
func FormatLine(s emu.Status) string {
	irq := "low"
	if s.Controller.IRQ {
		irq = "HIGH"
	}
	return fmt.Sprintf("frame %d  irq %s  base %08x", s.Frame, irq, s.Controller.Base)
}

func intNames(bits uint32) string {
	var names []string
	if bits&goldfish.IntVSync != 0 {
		names = append(names, "VSYNC")
	}
	if bits&goldfish.IntBaseUpdateDone != 0 {
		names = append(names, "BASE_UPDATE_DONE")
	}
	if len(names) == 0 {
		return ""
	}
	return "[" + strings.Join(names, " ") + "]"
}
