// interpreter.go - VGM command-stream interpreter.
//
// Consumes one command at a time from a CommandStream and drives the
// DelayTimer for timing commands and the SoundSink for hardware writes.
// Only two chip paths produce sound here: SN76489 writes (0x50) go to
// the modeled chip's write port, and AY-3-8910 writes (0xA0) are treated
// as a placeholder for the PC speaker — the only VGM files observed with
// that arrangement come from the Tandy 1000 version of Castlevania.
// Every other chip command is skipped by its fixed width.

package main

import "fmt"

// ParseError reports an unrecognized opcode or a failed marker check.
// It terminates interpretation of the current stream; the process and
// any later streams are unaffected.
type ParseError struct {
	Offset int
	Opcode uint8
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s (command 0x%02X)",
		e.Offset, e.Reason, e.Opcode)
}

// ChipState shadows the one piece of AY state needed to reconstruct the
// speaker frequency: the 12-bit channel A tone period. The low byte and
// high nibble arrive in separate register writes.
type ChipState struct {
	period uint16 // bits 0-11 only
}

type Interpreter struct {
	stream  *CommandStream
	chip    ChipState
	sink    SoundSink
	timer   DelayTimer
	clockHz uint32
	logf    func(format string, args ...any)
}

// NewInterpreter prepares a single playback run. clockHz is the AY chip
// clock from the file header, used for the speaker tone frequency.
func NewInterpreter(stream *CommandStream, sink SoundSink, timer DelayTimer, clockHz uint32) *Interpreter {
	return &Interpreter{
		stream:  stream,
		sink:    sink,
		timer:   timer,
		clockHz: clockHz,
		logf:    func(string, ...any) {},
	}
}

// SetLogf routes skip/ignore diagnostics somewhere visible. The default
// discards them.
func (in *Interpreter) SetLogf(logf func(format string, args ...any)) {
	in.logf = logf
}

// Run interprets commands until the end-of-data command, an unrecognized
// command, or a failed marker check. A nil return means the stream
// completed; otherwise the error is a *ParseError. The hardware is
// silenced on every exit path.
func (in *Interpreter) Run() error {
	defer func() {
		in.sink.SilenceAll()
		in.sink.StopTone()
	}()

	for {
		off := in.stream.Pos()
		op := in.stream.U8()
		switch {
		case op == 0x66:
			// End of sound data.
			return nil

		case op == 0x50:
			in.sink.WriteRegister(in.stream.U8())

		case op == 0xA0:
			in.writeAY(in.stream.U8(), in.stream.U8())

		case op == 0x61:
			in.timer.Wait(in.stream.U16())

		case op == 0x62:
			// One NTSC frame.
			in.timer.Wait(735)

		case op == 0x63:
			// One PAL frame.
			in.timer.Wait(882)

		case op >= 0x70 && op <= 0x7F:
			in.timer.Wait(uint16(op&0x0F) + 1)

		case op >= 0x80 && op <= 0x8F:
			// The wire format defines these as a YM2612 bank-data write
			// plus a low-nibble wait. This player has never consumed
			// the data or waited here; preserved as observed rather
			// than silently corrected.
			in.logf("ignoring command 0x%02X at offset %d\n", op, off)

		case op == 0x67:
			if m := in.stream.U8(); m != 0x66 {
				return &ParseError{Offset: off, Opcode: op,
					Reason: fmt.Sprintf("bad data block marker 0x%02X", m)}
			}
			in.stream.U8() // block type, unused
			in.stream.Skip(in.stream.U32())

		case op == 0x68:
			if m := in.stream.U8(); m != 0x66 {
				return &ParseError{Offset: off, Opcode: op,
					Reason: fmt.Sprintf("bad PCM RAM write marker 0x%02X", m)}
			}
			in.stream.Skip(13)

		default:
			w, ok := reservedWidth(op)
			if !ok {
				return &ParseError{Offset: off, Opcode: op,
					Reason: "unrecognized command"}
			}
			in.logf("skipping command 0x%02X at offset %d\n", op, off)
			in.stream.Skip(w)
		}
	}
}

// reservedWidth returns the operand byte count for commands that are
// recognized but have no effect on this hardware.
func reservedWidth(op uint8) (uint32, bool) {
	switch {
	case op >= 0x30 && op <= 0x3F:
		// Reserved one-operand commands, second-chip SN76489 writes.
		return 1, true
	case op >= 0x40 && op <= 0x4E:
		// Reserved two-operand commands.
		return 2, true
	case op == 0x4F:
		// Game Gear PSG stereo.
		return 1, true
	case op >= 0x51 && op <= 0x5F:
		// YM2413 through YMZ280B register writes.
		return 2, true
	case op == 0x90 || op == 0x91 || op == 0x95:
		// DAC stream setup / set data / start fast.
		return 4, true
	case op == 0x92:
		// DAC stream set frequency.
		return 5, true
	case op == 0x93:
		// DAC stream start.
		return 10, true
	case op == 0x94:
		// DAC stream stop.
		return 1, true
	case op >= 0xA1 && op <= 0xBF:
		// Second-chip and two-operand chip writes.
		return 2, true
	case op >= 0xC0 && op <= 0xDF:
		// Three-operand chip writes.
		return 3, true
	case op >= 0xE0:
		// Seek and other four-operand commands.
		return 4, true
	}
	return 0, false
}

// writeAY applies one AY-3-8910 register write to the speaker model.
func (in *Interpreter) writeAY(reg, val uint8) {
	switch reg {
	case 0:
		in.chip.period = in.chip.period&0x0F00 | uint16(val)
	case 1:
		in.chip.period = in.chip.period&0x00FF | uint16(val&0x0F)<<8
		in.startTone()
	case 7:
		// Mixer: channel A tone enable retriggers the speaker.
		if val&0x01 != 0 && in.chip.period != 0 {
			in.startTone()
		}
	case 8:
		// Channel A amplitude: bit 0 clear mutes the speaker.
		if val&0x01 == 0 {
			in.sink.StopTone()
		}
	default:
		in.logf("ignoring AY register %d write\n", reg)
	}
}

func (in *Interpreter) startTone() {
	if in.chip.period == 0 {
		return
	}
	in.sink.StartTone(in.clockHz / (16 * uint32(in.chip.period)))
}
