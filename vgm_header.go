// vgm_header.go - VGM file header extraction and validation.
//
// Only version 1.50 and newer files are accepted. The header is a fixed
// layout of little-endian fields, one clock per supported sound chip;
// this player drives exactly one chip path, so every other nonzero clock
// is merely reported.

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VGMHeader carries the fields this player consumes plus every chip
// clock, so unsupported chips can be named in the report.
type VGMHeader struct {
	Version      uint32
	EOFOffset    uint32
	GD3Offset    uint32
	TotalSamples uint32
	LoopOffset   uint32
	LoopSamples  uint32
	Rate         uint32
	DataOffset   uint32

	SN76489Clock    uint32
	SN76489Feedback uint16
	SN76489FSRWidth uint8
	SN76489Flags    uint8

	AY8910Clock uint32
	AY8910Type  uint8
	AY8910Flags [3]uint8
}

// chipField names one unsupported-chip clock slot and the header version
// that introduced it.
type chipField struct {
	offset     uint32
	name       string
	minVersion uint32
}

var unsupportedChips = []chipField{
	{0x2C, "YM2612", 0x150},
	{0x30, "YM2151", 0x150},
	{0x38, "Sega PCM", 0x151},
	{0x40, "RF5C68", 0x151},
	{0x44, "YM2203", 0x151},
	{0x48, "YM2608", 0x151},
	{0x4C, "YM2610", 0x151},
	{0x50, "YM3812", 0x151},
	{0x54, "YM3526", 0x151},
	{0x58, "Y8950", 0x151},
	{0x5C, "YMF262", 0x151},
	{0x60, "YMF278b", 0x151},
	{0x64, "YMF271", 0x151},
	{0x68, "YMZ280b", 0x151},
	{0x6C, "RF5C164", 0x151},
	{0x70, "PWM", 0x151},
	{0x80, "Gameboy DMG", 0x161},
	{0x84, "NES APU", 0x161},
	{0x88, "Multi PCM", 0x161},
	{0x8C, "uPD7759", 0x161},
	{0x90, "OKIM6258", 0x161},
	{0x98, "OKIM6295", 0x161},
	{0x9C, "K051649", 0x161},
	{0xA0, "K054539", 0x161},
	{0xA4, "HuC6280", 0x161},
	{0xA8, "C140", 0x161},
	{0xAC, "K053260", 0x161},
	{0xB0, "Pokey", 0x161},
	{0xB4, "Qsound", 0x161},
	{0xB8, "SCSP", 0x171},
	{0xC0, "WonderSwan", 0x171},
	{0xC4, "VSU", 0x171},
	{0xC8, "SAA1099", 0x171},
	{0xCC, "ES5503", 0x171},
	{0xD0, "ES5506", 0x171},
	{0xD8, "X1-010", 0x171},
	{0xDC, "C352", 0x171},
	{0xE0, "GA20", 0x171},
	{0xE4, "Mikey", 0x172},
}

// headerU32 reads a little-endian field, treating anything past the end
// of the file as zero. Old files have short headers.
func headerU32(data []byte, off uint32) uint32 {
	if uint32(len(data)) < off+4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data[off : off+4])
}

func headerU16(data []byte, off uint32) uint16 {
	if uint32(len(data)) < off+2 {
		return 0
	}
	return binary.LittleEndian.Uint16(data[off : off+2])
}

func headerU8(data []byte, off uint32) uint8 {
	if uint32(len(data)) < off+1 {
		return 0
	}
	return data[off]
}

// ParseVGMHeader validates the identifier and version and extracts the
// fields above. data is the whole (already decompressed) file.
func ParseVGMHeader(data []byte) (*VGMHeader, error) {
	if len(data) < 0x40 {
		return nil, fmt.Errorf("file too short for a VGM header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[0:4], []byte("Vgm ")) {
		if data[0] == 0x1F && data[1] == 0x8B {
			return nil, fmt.Errorf("header identifier does not match: file appears to be GZIP data")
		}
		return nil, fmt.Errorf("header identifier does not match expected value")
	}

	h := &VGMHeader{
		Version:      headerU32(data, 0x08),
		EOFOffset:    headerU32(data, 0x04),
		GD3Offset:    headerU32(data, 0x14),
		TotalSamples: headerU32(data, 0x18),
		LoopOffset:   headerU32(data, 0x1C),
		LoopSamples:  headerU32(data, 0x20),
		Rate:         headerU32(data, 0x24),
		DataOffset:   headerU32(data, 0x34),

		SN76489Clock:    headerU32(data, 0x0C),
		SN76489Feedback: headerU16(data, 0x28),
		SN76489FSRWidth: headerU8(data, 0x2A),
		SN76489Flags:    headerU8(data, 0x2B),

		AY8910Clock: headerU32(data, 0x74),
		AY8910Type:  headerU8(data, 0x78),
	}
	h.AY8910Flags[0] = headerU8(data, 0x79)
	h.AY8910Flags[1] = headerU8(data, 0x7A)
	h.AY8910Flags[2] = headerU8(data, 0x7B)

	if h.Version < 0x150 {
		return nil, fmt.Errorf("header version %x too old, at least 150 is required", h.Version)
	}
	if h.Version < 0x151 {
		// Fields introduced in 1.51 hold garbage in 1.50 files.
		h.SN76489Flags = 0
		h.AY8910Clock = 0
		h.AY8910Type = 0
		h.AY8910Flags = [3]uint8{}
	}

	return h, nil
}

// DataStart returns the absolute file offset of the command stream.
func (h *VGMHeader) DataStart() uint32 {
	if h.DataOffset == 0 {
		return 0x40
	}
	return 0x34 + h.DataOffset
}

// GD3Start returns the absolute file offset of the GD3 block, or 0 if
// the file has none.
func (h *VGMHeader) GD3Start() uint32 {
	if h.GD3Offset == 0 {
		return 0
	}
	return 0x14 + h.GD3Offset
}

// UnsupportedChips lists the chips with a nonzero clock that this player
// cannot drive, honoring the version each field first appeared in.
func (h *VGMHeader) UnsupportedChips(data []byte) []string {
	var names []string
	for _, c := range unsupportedChips {
		if h.Version >= c.minVersion && headerU32(data, c.offset) != 0 {
			names = append(names, c.name)
		}
	}
	return names
}
