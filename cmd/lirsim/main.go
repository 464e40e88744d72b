// Command lirsim drives a YAML-described circuit through a YAML
// stimulus script of poke/cycle/peek/expect steps, the same role
// zeonica/samples/*/main.go's little per-kernel main()s play for the
// CGRA core, generalized here into one driver that takes both the
// circuit and the stimulus as data instead of as Go source.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/lirsim/blackbox"
	"github.com/sarchlab/lirsim/blackbox/sample"
	"github.com/sarchlab/lirsim/engine"
	"github.com/sarchlab/lirsim/lir"
)

func main() {
	circuitPath := flag.String("circuit", "", "path to a circuit YAML fixture")
	stimulusPath := flag.String("stimulus", "", "path to a poke/cycle/peek/expect YAML script")
	vcdPath := flag.String("vcd", "", "path to write a VCD dump to (optional)")
	vcdNames := flag.String("vcd-names", "", "comma-separated symbol names to trace (default: every input/output port and register)")
	allowCycles := flag.Bool("allow-cycles", false, "allow combinational cycles instead of rejecting them at compile time")
	rollback := flag.Int("rollback-buffers", 2, "number of rollback buffers (earlier_value depth)")
	verbose := flag.Bool("verbose", false, "trace every assigner execution at LevelTrace")
	flag.Parse()

	if *circuitPath == "" || *stimulusPath == "" {
		fmt.Fprintln(os.Stderr, "lirsim: -circuit and -stimulus are required")
		atexit.Exit(2)
		return
	}

	if err := run(*circuitPath, *stimulusPath, *vcdPath, *vcdNames, *allowCycles, *rollback, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "lirsim:", err)
		atexit.Exit(1)
		return
	}

	atexit.Exit(0)
}

func run(circuitPath, stimulusPath, vcdPath, vcdNames string, allowCycles bool, rollback int, verbose bool) error {
	circuit, err := lir.LoadCircuitYAML(circuitPath)
	if err != nil {
		return err
	}

	script, err := loadStimulus(stimulusPath)
	if err != nil {
		return err
	}

	registry := blackbox.NewRegistry()
	registry.Register("And", sample.NewAndFactory())

	e, err := engine.NewBuilder().
		WithCircuit(circuit).
		WithBlackBoxRegistry(registry).
		WithAllowCycles(allowCycles).
		WithRollbackBuffers(rollback).
		WithVerbose(verbose).
		Build()
	if err != nil {
		return err
	}

	if vcdPath != "" {
		names := traceNames(e, vcdNames)
		e.MakeVCDLogger(names)
		atexit.Register(func() {
			if werr := e.WriteVCD(vcdPath); werr != nil {
				fmt.Fprintln(os.Stderr, "lirsim: writing vcd:", werr)
			}
		})
	}

	for i, s := range script.Steps {
		if err := runStep(e, s); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if e.Stopped() {
			r := e.LastStopResult()
			slog.Info("circuit stopped", "name", r.Name, "result_code", r.ResultCode)
			break
		}
	}

	return nil
}

func runStep(e *engine.Engine, s step) error {
	switch {
	case s.Poke != nil:
		return e.SetValue(s.Poke.Name, bigFromInt64(s.Poke.Value))
	case s.Cycle != nil:
		e.DoCycles(*s.Cycle)
		return nil
	case s.Peek != nil:
		v, err := e.GetValue(*s.Peek)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", *s.Peek, v.String())
		return nil
	case s.Expect != nil:
		v, err := e.GetValue(s.Expect.Name)
		if err != nil {
			return err
		}
		if v.Cmp(bigFromInt64(s.Expect.Value)) != 0 {
			return fmt.Errorf("expect %s: want %d, got %s", s.Expect.Name, s.Expect.Value, v.String())
		}
		return nil
	default:
		return fmt.Errorf("empty step")
	}
}

func traceNames(e *engine.Engine, csv string) []string {
	if csv != "" {
		return strings.Split(csv, ",")
	}
	var names []string
	names = append(names, e.GetInputPortNames()...)
	names = append(names, e.GetOutputPortNames()...)
	names = append(names, e.GetRegisterNames()...)
	return names
}
