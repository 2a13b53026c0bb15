// gd3.go - GD3 metadata block parsing and display.
//
// GD3 is a fixed sequence of eleven null-terminated UTF-16LE strings:
// track name (EN/JP), game name (EN/JP), system name (EN/JP), author
// (EN/JP), release date, ripper, and notes.

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const gd3Version = 0x00000100

type GD3 struct {
	Version uint32
	Fields  []string
}

var gd3FieldNames = []string{
	"Track", "Track (JP)", "Game", "Game (JP)", "System", "System (JP)",
	"Author", "Author (JP)", "Date", "Ripper", "Notes",
}

// ParseGD3 reads the GD3 block starting at the given absolute file
// offset. A malformed block is an error here, but callers treat the
// whole block as optional decoration.
func ParseGD3(data []byte, offset uint32) (*GD3, error) {
	if uint32(len(data)) < offset+12 {
		return nil, fmt.Errorf("could not read GD3 header")
	}
	hdr := data[offset:]
	if !bytes.Equal(hdr[0:4], []byte("Gd3 ")) {
		return nil, fmt.Errorf("GD3 identifier does not match expected value")
	}
	version := binary.LittleEndian.Uint32(hdr[4:8])
	length := binary.LittleEndian.Uint32(hdr[8:12])
	if uint32(len(data))-offset-12 < length {
		return nil, fmt.Errorf("could not read %d bytes of GD3 data", length)
	}

	g := &GD3{Version: version}
	payload := hdr[12 : 12+length]
	units := make([]uint16, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(payload[i:i+2]))
	}

	start := 0
	for i, u := range units {
		if u == 0 {
			g.Fields = append(g.Fields, string(utf16.Decode(units[start:i])))
			start = i + 1
		}
	}
	return g, nil
}

func (g *GD3) field(i int) string {
	if i < len(g.Fields) {
		return g.Fields[i]
	}
	return ""
}

// Title returns the English track name.
func (g *GD3) Title() string { return g.field(0) }

// Author returns the English composer credit.
func (g *GD3) Author() string { return g.field(6) }

// Dump prints every populated field.
func (g *GD3) Dump() {
	if g.Version != gd3Version {
		fmt.Printf("Unknown GD3 version %x\n", g.Version)
	}
	fmt.Printf("\n--- Start of GD3 data ---\n")
	for i, name := range gd3FieldNames {
		if v := g.field(i); v != "" {
			fmt.Printf("%s: %s\n", name, v)
		}
	}
	fmt.Printf("--- End of GD3 data ---\n")
}
