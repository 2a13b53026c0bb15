// command_stream_test.go - clamped cursor behavior.

package main

import "testing"

func TestCommandStreamReads(t *testing.T) {
	s := NewCommandStream([]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77})
	if got := s.U8(); got != 0x11 {
		t.Errorf("U8 = 0x%02X, want 0x11", got)
	}
	if got := s.U16(); got != 0x3322 {
		t.Errorf("U16 = 0x%04X, want 0x3322", got)
	}
	if got := s.U32(); got != 0x77665544 {
		t.Errorf("U32 = 0x%08X, want 0x77665544", got)
	}
	if s.Pos() != 7 {
		t.Errorf("Pos = %d, want 7", s.Pos())
	}
}

func TestCommandStreamPastEnd(t *testing.T) {
	s := NewCommandStream([]byte{0xAB})
	s.U8()

	// Every accessor past the end returns zero and keeps the cursor
	// clamped at the length.
	if got := s.U8(); got != 0 {
		t.Errorf("U8 past end = 0x%02X, want 0", got)
	}
	if got := s.U16(); got != 0 {
		t.Errorf("U16 past end = 0x%04X, want 0", got)
	}
	if got := s.U32(); got != 0 {
		t.Errorf("U32 past end = 0x%08X, want 0", got)
	}
	if s.Pos() != 1 {
		t.Errorf("Pos = %d, want clamp at 1", s.Pos())
	}
}

func TestCommandStreamStraddlingRead(t *testing.T) {
	// A multi-byte read that starts in range and runs off the end
	// zero-fills the missing bytes.
	s := NewCommandStream([]byte{0xCD})
	if got := s.U16(); got != 0x00CD {
		t.Errorf("U16 = 0x%04X, want 0x00CD", got)
	}
	if s.Pos() != 1 {
		t.Errorf("Pos = %d, want clamp at 1", s.Pos())
	}
}

func TestCommandStreamSkipClamps(t *testing.T) {
	s := NewCommandStream(make([]byte, 10))
	s.Skip(4)
	if s.Pos() != 4 {
		t.Errorf("Pos = %d, want 4", s.Pos())
	}
	s.Skip(0xFFFFFFFF)
	if s.Pos() != 10 {
		t.Errorf("Pos = %d, want clamp at 10", s.Pos())
	}
	s.Skip(1)
	if s.Pos() != 10 {
		t.Errorf("Pos = %d, want clamp at 10", s.Pos())
	}
}
