package ui

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestAudioRingBuffer_ReadWrite(t *testing.T) {
	rb := NewAudioRingBuffer(8)
	rb.Write([]byte{1, 2, 3})
	if rb.Buffered() != 3 {
		t.Fatalf("expected 3 buffered, got %d", rb.Buffered())
	}

	p := make([]byte, 2)
	n, err := rb.Read(p)
	if err != nil || n != 2 || !bytes.Equal(p, []byte{1, 2}) {
		t.Fatalf("expected [1 2], got %v (n=%d, err=%v)", p[:n], n, err)
	}
	if rb.Buffered() != 1 {
		t.Errorf("expected 1 buffered, got %d", rb.Buffered())
	}
}

func TestAudioRingBuffer_Wraparound(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	rb.Write([]byte{1, 2, 3})
	p := make([]byte, 2)
	rb.Read(p)
	rb.Write([]byte{4, 5, 6})

	p = make([]byte, 4)
	n, _ := rb.Read(p)
	if !bytes.Equal(p[:n], []byte{3, 4, 5, 6}) {
		t.Errorf("expected [3 4 5 6], got %v", p[:n])
	}
}

func TestAudioRingBuffer_OverflowDropsOldest(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	rb.Write([]byte{1, 2, 3})
	rb.Write([]byte{4, 5, 6})
	if rb.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", rb.Dropped())
	}

	p := make([]byte, 4)
	n, _ := rb.Read(p)
	if !bytes.Equal(p[:n], []byte{3, 4, 5, 6}) {
		t.Errorf("expected newest bytes [3 4 5 6], got %v", p[:n])
	}

	rb.Write([]byte{7, 8, 9, 10, 11, 12})
	n, _ = rb.Read(p)
	if !bytes.Equal(p[:n], []byte{9, 10, 11, 12}) {
		t.Errorf("oversized write: expected [9 10 11 12], got %v", p[:n])
	}
	if rb.Dropped() != 4 {
		t.Errorf("expected 4 dropped, got %d", rb.Dropped())
	}
}

func TestAudioRingBuffer_Clear(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	rb.Write([]byte{1, 2})
	rb.Clear()
	if rb.Buffered() != 0 {
		t.Errorf("expected empty buffer after Clear, got %d", rb.Buffered())
	}
}

func TestAudioRingBuffer_CloseUnblocksReader(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	done := make(chan error, 1)
	go func() {
		_, err := rb.Read(make([]byte, 1))
		done <- err
	}()

	rb.Close()
	select {
	case err := <-done:
		if err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not return after Close")
	}
}

func TestAudioRingBuffer_CloseDrains(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	rb.Write([]byte{1})
	rb.Close()

	p := make([]byte, 2)
	if n, err := rb.Read(p); n != 1 || err != nil {
		t.Errorf("expected remaining byte before EOF, got n=%d err=%v", n, err)
	}
	if _, err := rb.Read(p); err != io.EOF {
		t.Errorf("expected io.EOF once drained, got %v", err)
	}
}

func TestEncodePCM(t *testing.T) {
	got := encodePCM(nil, []int16{0x0102, -1})
	want := []byte{0x02, 0x01, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
