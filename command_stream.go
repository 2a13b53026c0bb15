// command_stream.go - bounds-clamped cursor over the VGM command data.

package main

// CommandStream is an immutable byte buffer with a monotonic read cursor.
// Reads past the end are not errors: they return zero and clamp the cursor
// to the end of the buffer, so a truncated file degrades instead of
// crashing. The zero fill eventually surfaces as an unknown command byte
// and stops the interpreter.
type CommandStream struct {
	buf []byte
	pos int
}

func NewCommandStream(data []byte) *CommandStream {
	return &CommandStream{buf: data}
}

// Pos returns the current cursor position in bytes from the start of the
// command data.
func (s *CommandStream) Pos() int {
	return s.pos
}

// Len returns the total length of the command data.
func (s *CommandStream) Len() int {
	return len(s.buf)
}

// U8 reads one byte and advances the cursor. Past the end it returns 0.
func (s *CommandStream) U8() uint8 {
	if s.pos >= len(s.buf) {
		s.pos = len(s.buf)
		return 0
	}
	v := s.buf[s.pos]
	s.pos++
	return v
}

// U16 reads a little-endian 16-bit value. Bytes past the end read as 0.
func (s *CommandStream) U16() uint16 {
	lo := uint16(s.U8())
	hi := uint16(s.U8())
	return lo | hi<<8
}

// U32 reads a little-endian 32-bit value. Bytes past the end read as 0.
func (s *CommandStream) U32() uint32 {
	lo := uint32(s.U16())
	hi := uint32(s.U16())
	return lo | hi<<16
}

// Skip advances the cursor by n bytes, clamping at the end of the buffer.
func (s *CommandStream) Skip(n uint32) {
	if n > uint32(len(s.buf)-s.pos) {
		s.pos = len(s.buf)
		return
	}
	s.pos += int(n)
}
