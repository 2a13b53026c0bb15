// main.go - vgmplay entry point: load, report, calibrate, play.

package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

func main() {
	var (
		infoOnly bool
		noGD3    bool
		verbose  bool
		outRate  int
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&infoOnly, "info", false, "Dump header and metadata without playing")
	flagSet.BoolVar(&noGD3, "no-gd3", false, "Skip the GD3 metadata dump")
	flagSet.BoolVar(&verbose, "verbose", false, "Log skipped and ignored commands")
	flagSet.IntVar(&outRate, "rate", sampleRate, "Output sample rate in Hz")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: vgmplay [-info] [-no-gd3] [-verbose] [-rate n] filename")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	filename := flagSet.Arg(0)
	if filename == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	data, err := readVGMData(filename)
	if err != nil {
		fmt.Printf("Could not open file \"%s\": %v\n", filename, err)
		os.Exit(1)
	}

	header, err := ParseVGMHeader(data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	reportHeader(header, data)

	var gd3 *GD3
	if off := header.GD3Start(); off != 0 {
		gd3, err = ParseGD3(data, off)
		if err != nil {
			fmt.Printf("%v\n", err)
		} else if !noGD3 {
			gd3.Dump()
		}
	}

	if infoOnly {
		return
	}

	if gd3 != nil && (gd3.Title() != "" || gd3.Author() != "") {
		fmt.Printf("\nPlaying: %s - %s\n", gd3.Title(), gd3.Author())
	} else {
		fmt.Printf("\nPlaying: %s\n", filename)
	}

	dataStart := header.DataStart()
	if dataStart >= uint32(len(data)) {
		fmt.Println("Error: VGM data offset out of range")
		os.Exit(1)
	}

	ayClock := header.AY8910Clock
	if ayClock == 0 {
		ayClock = defaultAYClock
	}

	if outRate <= 0 {
		fmt.Println("Error: output sample rate must be positive")
		os.Exit(1)
	}

	synth := NewTandySynth(header.SN76489Clock, outRate)
	out, err := NewSpeakerOutput(synth, outRate)
	if err != nil {
		fmt.Printf("Failed to initialize sound: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	out.Start()

	sched := NewDelayScheduler(NewHostClock())
	if interactive() {
		fmt.Println("Calibrating delay loop...")
	}
	if err := sched.Calibrate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	stream := NewCommandStream(data[dataStart:])
	interp := NewInterpreter(stream, synth, sched, ayClock)
	if verbose {
		interp.SetLogf(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		})
	}

	if err := interp.Run(); err != nil {
		fmt.Printf("Playback stopped: %v\n", err)
		os.Exit(1)
	}
}

// interactive reports whether stdout is a terminal; piped output gets no
// progress chatter.
func interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// reportHeader prints the chip summary and unsupported-chip notices.
func reportHeader(h *VGMHeader, data []byte) {
	fmt.Printf("header version = %x\n", h.Version)

	fmt.Printf("SN76489 clock = %d\n", h.SN76489Clock)
	fmt.Printf("SN76489 feedback = 0x%x\n", h.SN76489Feedback)
	fmt.Printf("SN76489 FSR width = %d\n", h.SN76489FSRWidth)
	fmt.Printf("SN76489 flags = 0x%x\n", h.SN76489Flags)

	if h.AY8910Clock != 0 {
		fmt.Printf("AY-8910 clock = %d\n", h.AY8910Clock)
		fmt.Printf("AY-8910 chip type = %d\n", h.AY8910Type)
		fmt.Printf("AY-8910 flags = 0x%02x 0x%02x 0x%02x\n",
			h.AY8910Flags[0], h.AY8910Flags[1], h.AY8910Flags[2])

		// The only VGM files observed with this quirk are from the
		// Tandy 1000 version of Castlevania.
		fmt.Printf("\nAY-8910 is assumed to be placeholder for PC speaker.\n")
	}

	for _, name := range h.UnsupportedChips(data) {
		fmt.Printf("Sound chip %s not supported by this player.\n", name)
	}
}

// readVGMData loads a VGM file, transparently decompressing VGZ.
func readVGMData(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 2)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if header[0] == 0x1F && header[1] == 0x8B {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}

	return io.ReadAll(f)
}
