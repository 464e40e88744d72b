package engine

import (
	"fmt"

	"github.com/sarchlab/lirsim/blackbox"
	"github.com/sarchlab/lirsim/compile"
	"github.com/sarchlab/lirsim/lir"
	"github.com/sarchlab/lirsim/sched"
)

// Options is the environment record spec §6 describes: everything a
// circuit needs to become a runnable Engine.
type Options struct {
	Circuit          *lir.Circuit
	BlackBoxRegistry *blackbox.Registry
	AllowCycles      bool
	RollbackBuffers  int
	Verbose          bool
	ValidIfIsRandom  bool
}

// Builder assembles Options through chained With* calls and produces
// an Engine, matching zeonica/config.DeviceBuilder and
// zeonica/core.Builder's fluent, by-value-receiver construction style.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder with the defaults spec.md names: two
// rollback buffers (two earlier_value steps kept beside the current
// value) and tracing off.
func NewBuilder() Builder {
	return Builder{opts: Options{RollbackBuffers: 2}}
}

func (b Builder) WithCircuit(c *lir.Circuit) Builder {
	b.opts.Circuit = c
	return b
}

func (b Builder) WithBlackBoxRegistry(r *blackbox.Registry) Builder {
	b.opts.BlackBoxRegistry = r
	return b
}

func (b Builder) WithAllowCycles(v bool) Builder {
	b.opts.AllowCycles = v
	return b
}

func (b Builder) WithRollbackBuffers(n int) Builder {
	b.opts.RollbackBuffers = n
	return b
}

func (b Builder) WithVerbose(v bool) Builder {
	b.opts.Verbose = v
	return b
}

func (b Builder) WithValidIfIsRandom(v bool) Builder {
	b.opts.ValidIfIsRandom = v
	return b
}

// Build compiles Circuit, schedules its assigners, runs the one-shot
// orphan list, and returns a ready-to-cycle Engine.
func (b Builder) Build() (*Engine, error) {
	if b.opts.Circuit == nil {
		panic("engine: Builder.Build called with no circuit (WithCircuit was never called)")
	}

	result, err := compile.Compile(b.opts.Circuit, compile.Options{
		AllowCycles:      b.opts.AllowCycles,
		RollbackBuffers:  b.opts.RollbackBuffers,
		BlackBoxRegistry: b.opts.BlackBoxRegistry,
		ValidIfIsRandom:  b.opts.ValidIfIsRandom,
		Verbose:          b.opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: compiling circuit: %w", err)
	}

	scheduler, err := sched.New(result, result.Table)
	if err != nil {
		return nil, fmt.Errorf("engine: scheduling circuit: %w", err)
	}

	e := &Engine{
		table: result.Table, store: result.Store, env: result.Env,
		result: result, sched: scheduler, verbose: b.opts.Verbose,
		bbClockHooks: make(map[string][]func(blackbox.Transition)),
	}

	if id, ok := findPrimaryClock(result.Table); ok {
		e.toggler = namedClockToggler{id: id}
	} else {
		e.toggler = nullClockToggler{}
	}

	for _, binding := range result.BlackBoxes {
		for pin, id := range binding.ClockPins {
			name := result.Table.Symbol(id).Name
			pin, binding := pin, binding
			e.bbClockHooks[name] = append(e.bbClockHooks[name], func(t blackbox.Transition) {
				binding.Instance.ClockChanged(t, pin)
			})
		}
	}

	scheduler.ExecuteOrphans(result.Env)
	e.inputsDirty = true
	e.evaluateCircuit()

	return e, nil
}
