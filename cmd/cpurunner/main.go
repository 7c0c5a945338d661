package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/coreboy/gbcore/gbcore"
)

// writerFunc adapts a function to io.Writer.
type writerFunc func(p []byte) (n int, err error)

func (f writerFunc) Write(p []byte) (n int, err error) { return f(p) }

func main() {
	app := cli.NewApp()
	app.Name = "cpurunner"
	app.Usage = "run a ROM against the CPU/bus core and report serial pass/fail"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "path to ROM (.gb)"},
		cli.StringFlag{Name: "bootrom", Usage: "optional DMG boot ROM to run from 0x0000 until FF50 disables it"},
		cli.IntFlag{Name: "steps", Value: 5_000_000, Usage: "max CPU steps to run"},
		cli.IntFlag{Name: "pc", Value: 0x0100, Usage: "override initial PC (ignored when -bootrom is set)"},
		cli.BoolFlag{Name: "trace", Usage: "print PC/opcodes"},
		cli.StringFlag{Name: "until", Value: "Passed", Usage: "stop when serial output contains this substring (case-insensitive); empty to disable"},
		cli.BoolFlag{Name: "auto", Usage: "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1"},
		cli.DurationFlag{Name: "timeout", Usage: "optional wall-clock timeout (e.g. 30s, 2m); 0 disables"},
		cli.BoolFlag{Name: "traceOnFail", Usage: "when -auto detects failure, print a recent trace window (slows down)"},
		cli.IntFlag{Name: "traceWindow", Value: 200, Usage: "number of recent instructions to include in 'traceOnFail' dump"},
		cli.IntFlag{Name: "serialWindow", Value: 8192, Usage: "number of recent serial bytes to retain for diagnostics on fail"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// traceEntry captures one instruction boundary for the -traceOnFail ring
// buffer.
type traceEntry struct {
	line string
	cyc  int
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		return fmt.Errorf("-rom is required")
	}
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}

	var boot []byte
	if bootPath := c.String("bootrom"); bootPath != "" {
		boot, err = os.ReadFile(bootPath)
		if err != nil {
			return fmt.Errorf("read bootrom: %w", err)
		}
	}

	m, err := gbcore.New(rom, boot)
	if err != nil {
		return fmt.Errorf("construct machine: %w", err)
	}
	if boot == nil {
		if pc := c.Int("pc"); pc != 0x0100 {
			m.CPU().PC = uint16(pc)
		}
	}

	serialWindow := c.Int("serialWindow")
	if serialWindow < 256 {
		serialWindow = 256
	}
	serRing := make([]byte, serialWindow)
	serRingIdx, serRingFill := 0, 0

	var ser bytes.Buffer
	until, auto := c.String("until"), c.Bool("auto")
	w := io.Writer(os.Stdout)
	if until != "" || auto {
		w = io.MultiWriter(os.Stdout, &ser, writerFunc(func(p []byte) (int, error) {
			for _, ch := range p {
				serRing[serRingIdx] = ch
				serRingIdx = (serRingIdx + 1) % serialWindow
				if serRingFill < serialWindow {
					serRingFill++
				}
			}
			return len(p), nil
		}))
	}
	m.SetSerialWriter(w)

	start := time.Now()
	var deadline time.Time
	if timeout := c.Duration("timeout"); timeout > 0 {
		deadline = start.Add(timeout)
	}

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	lastStage := ""

	trace, traceOnFail := c.Bool("trace"), c.Bool("traceOnFail")
	traceWindow := c.Int("traceWindow")
	ring := make([]traceEntry, traceWindow)
	ringIdx, ringFill := 0, 0

	steps := c.Int("steps")
	var cycles int
	for i := 0; i < steps; i++ {
		var line string
		if trace || traceOnFail {
			line = m.Trace()
		}
		cyc := m.Step()
		cycles += cyc
		if trace {
			fmt.Printf("%s cyc=%d\n", line, cyc)
		}
		if traceOnFail && traceWindow > 0 {
			ring[ringIdx] = traceEntry{line: line, cyc: cyc}
			ringIdx = (ringIdx + 1) % traceWindow
			if ringFill < traceWindow {
				ringFill++
			}
		}

		if auto {
			s := ser.String()
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\n")
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if mm := failRe.FindStringSubmatch(s); mm != nil {
				fmt.Printf("\nDetected %s in serial output.\n", mm[0])
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
				if traceOnFail && ringFill > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ringFill)
					startIdx := (ringIdx - ringFill + traceWindow) % traceWindow
					for j := 0; j < ringFill; j++ {
						te := ring[(startIdx+j)%traceWindow]
						fmt.Printf("%s cyc=%d\n", te.line, te.cyc)
					}
					fmt.Printf("--- end trace ---\n")
				}
				printSerialRing(serRing, serRingIdx, serRingFill, serialWindow)
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				os.Exit(1)
			}
		} else if until != "" {
			if strings.Contains(strings.ToLower(ser.String()), strings.ToLower(until)) {
				fmt.Printf("\nDetected '%s' in serial output.\n", until)
				fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
				return nil
			}
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}

	fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", steps, cycles, time.Since(start).Truncate(time.Millisecond))
	return nil
}

func printSerialRing(ring []byte, idx, fill, size int) {
	if fill == 0 {
		return
	}
	fmt.Printf("\n--- recent serial (last %d bytes) ---\n", fill)
	start := (idx - fill + size) % size
	for j := 0; j < fill; j++ {
		fmt.Printf("%c", ring[(start+j)%size])
	}
	fmt.Printf("\n--- end serial ---\n")
}
