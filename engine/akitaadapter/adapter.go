// Package akitaadapter wraps an *engine.Engine as an akita
// sim.TickingComponent, so a circuit can be driven by akita's
// discrete-event engine alongside other simulated components instead
// of by a bare for-loop — the same role cgra-new/builder.go's
// FuncUnit and core/builder.go's Core play for their own ticking
// state machines.
package akitaadapter

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/lirsim/engine"
)

// Comp is one tick-driven circuit instance.
type Comp struct {
	*sim.TickingComponent

	eng *engine.Engine
}

// Engine returns the wrapped circuit, for callers that want to
// poke/peek it directly alongside letting akita drive its clock.
func (c *Comp) Engine() *engine.Engine { return c.eng }

// Tick runs one Cycle, matching spec §4.5's cycle() boundary to
// akita's Tick contract. It reports no further progress once the
// circuit has latched a stop, so the surrounding sim.Engine can let
// this component go idle.
func (c *Comp) Tick(_ sim.VTimeInSec) bool {
	if c.eng.Stopped() {
		return false
	}
	c.eng.Cycle()
	return true
}

// Builder constructs a Comp, following the fluent
// WithEngine/WithFreq/Build shape every akita component builder in
// this codebase's domain dependencies uses (core.Builder,
// cgra.FUBuilder, config.DeviceBuilder).
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	monitor *monitoring.Monitor
	target  *engine.Engine
}

// MakeBuilder returns a Builder defaulted to 1GHz, the frequency every
// zeonica sample drives its tiles at.
func MakeBuilder() Builder {
	return Builder{freq: 1 * sim.GHz}
}

func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithTarget sets the already-built circuit Engine this component
// will cycle once per tick.
func (b Builder) WithTarget(target *engine.Engine) Builder {
	b.target = target
	return b
}

// Build wires up the TickingComponent. Called with no target engine,
// this is a malformed-setup error and panics, matching
// core.Builder.WithDirections's convention.
func (b Builder) Build(name string) *Comp {
	if b.target == nil {
		panic("akitaadapter: Builder.Build called with no target engine (WithTarget was never called)")
	}

	c := &Comp{eng: b.target}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	if b.monitor != nil {
		b.monitor.RegisterComponent(c)
	}

	return c
}
