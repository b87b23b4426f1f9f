// Command gbheadless runs a ROM with no display or audio output,
// watching the serial port for blargg-style "Passed"/"Failed N tests"
// markers. It exits 0 on a detected pass, 1 on a detected failure, 2 on
// timeout, and 3 if the run exhausts -frames without either.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/greyhollow-dev/gbcore/internal/machine"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb/.gbc)")
	bootPath := flag.String("bootrom", "", "optional boot ROM")
	model := flag.String("model", "dmg", "dmg, mgb, sgb, sgb2, cgb, or agb")
	steps := flag.Int("frames", 10_000, "max frames to run before giving up")
	trace := flag.Bool("trace", false, "log every undefined-opcode trap and load warning")
	until := flag.String("until", "", "stop when serial output contains this substring (case-insensitive); empty disables")
	auto := flag.Bool("auto", true, "auto-detect 'Passed' or 'Failed N tests' in serial output")
	timeout := flag.Duration("timeout", 30*time.Second, "wall-clock timeout; 0 disables")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	m := machine.New(machine.Config{Model: parseModel(*model), Trace: *trace})
	m.SetLogger(stderrLogger{trace: *trace})

	if *bootPath != "" {
		boot, err := os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
		m.SetBIOSLoader(fixedBIOS{data: boot})
	}

	var ser bytes.Buffer
	m.SetSerialSink(serialTee{buf: &ser})

	if err := m.LoadCartridge(*romPath, rom); err != nil {
		log.Fatalf("load cartridge: %v", err)
	}

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	for i := 0; i < *steps; i++ {
		m.RunFrame()

		if *auto || *until != "" {
			s := ser.String()
			low := strings.ToLower(s)
			if *auto && strings.Contains(low, "passed") {
				fmt.Printf("PASS after %d frames, %s\n", i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if *auto {
				if mm := failRe.FindStringSubmatch(low); mm != nil {
					fmt.Printf("FAIL (%s) after %d frames\n%s\n", mm[0], i+1, s)
					os.Exit(1)
				}
			}
			if *until != "" && strings.Contains(low, strings.ToLower(*until)) {
				fmt.Printf("matched %q after %d frames\n", *until, i+1)
				os.Exit(0)
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("timeout after %s\nserial so far:\n%s\n", time.Since(start).Truncate(time.Millisecond), ser.String())
			os.Exit(2)
		}
	}
	fmt.Printf("exhausted -frames without a verdict\nserial so far:\n%s\n", ser.String())
	os.Exit(3)
}

func parseModel(s string) machine.Model {
	switch strings.ToLower(s) {
	case "mgb":
		return machine.MGB
	case "sgb":
		return machine.SGB
	case "sgb2":
		return machine.SGB2
	case "cgb":
		return machine.CGB
	case "agb":
		return machine.AGB
	default:
		return machine.DMG
	}
}

type fixedBIOS struct{ data []byte }

func (b fixedBIOS) LoadBIOS(string) ([]byte, bool) { return b.data, len(b.data) > 0 }

type serialTee struct{ buf *bytes.Buffer }

func (s serialTee) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return s.buf.Write(p)
}

type stderrLogger struct{ trace bool }

func (l stderrLogger) Log(level machine.LogLevel, text string) {
	if level == machine.LogError || l.trace {
		fmt.Fprintln(os.Stderr, text)
	}
}
