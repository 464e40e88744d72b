// Package engine is the facade spec §6 describes: the single object a
// driver (a test, cmd/lirsim, or the akita adapter) pokes, cycles, and
// peeks. It owns the compiled compile.Result and sched.Scheduler and
// implements the raise-clock/evaluate/lower-clock cycle protocol of
// spec §4.5.
//
// Grounded on zeonica/core/emu.go's Emulator (the single object
// samples/*/main.go drive cycle by cycle) and its Builder-produced
// construction story.
package engine

import (
	"math/big"
	"sort"

	"github.com/sarchlab/lirsim/blackbox"
	"github.com/sarchlab/lirsim/compile"
	"github.com/sarchlab/lirsim/sched"
	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
	"github.com/sarchlab/lirsim/vcd"
)

// Engine is a compiled, runnable circuit.
type Engine struct {
	table  *symtab.SymbolTable
	store  *store.DataStore
	env    *compile.EvalEnv
	result *compile.Result
	sched  *sched.Scheduler

	toggler clockToggler

	bbClockHooks map[string][]func(blackbox.Transition)

	time        int64
	inputsDirty bool
	verbose     bool

	stopLatch *StopResult
	rec       *vcd.Recorder
}

// GetValue reads any declared symbol by its fully-qualified name —
// register, port, wire, or memory slot `offset` — for debugging and
// for reading a circuit's outputs. Unlike SetValue it places no
// restriction on which symbols are readable, per spec §6's "peek
// supports arbitrary internal names." If any input is still dirty
// (a SetValue happened since the last Cycle/evaluate), the
// input-sensitive list is run first so the read reflects that poke,
// per spec §6's "propagates input-sensitive assigners first."
// offset indexes into the symbol's own slot range — 0 for scalars,
// a memory address for a memory symbol — and defaults to 0.
func (e *Engine) GetValue(name string, offset ...int) (*big.Int, error) {
	sym, ok := e.table.Get(name)
	if !ok {
		return nil, runtimeErrorf("get_value", name, "no such symbol")
	}
	off := firstOrZero(offset)
	if off < 0 || off >= sym.SlotCount {
		return nil, runtimeErrorf("get_value", name, "offset %d out of range [0,%d)", off, sym.SlotCount)
	}
	if e.inputsDirty {
		e.sched.ExecuteInputSensitive(e.env)
		e.inputsDirty = false
	}
	return e.readSymbolAt(sym.ID, off), nil
}

// PokeOptions carries set_value's optional force/register_poke/offset
// parameters from spec §6.
type PokeOptions struct {
	// Force allows writing a non-top-level-input symbol, re-running
	// the forward transitive subgraph rooted at it afterward.
	Force bool
	// RegisterPoke additionally writes straight through to a
	// register's `/prev` shadow, so the poke survives the register's
	// own next natural commit instead of being overwritten by it —
	// the same raw-write idiom namedClockToggler.lower() uses to reset
	// a clock's shadow.
	RegisterPoke bool
	// Offset indexes into the symbol's own slot range (a memory
	// address); 0 for scalars.
	Offset int
}

// SetValue pokes a top-level input port or the primary clock with
// force=false, register_poke=false, offset=0; equivalent to
// SetValueWithOptions(name, v, PokeOptions{}).
func (e *Engine) SetValue(name string, v *big.Int) error {
	return e.SetValueWithOptions(name, v, PokeOptions{})
}

// SetValueWithOptions implements spec §6's full set_value. Writing an
// internal wire, a register, or a nested instance's port directly
// would bypass the combinational network that is supposed to produce
// it, so it is rejected as a runtime-fatal *bad-target* error unless
// opts.Force is set, in which case the write goes through and the
// forward transitive subgraph rooted at the symbol (SymbolTable's own
// ReachableFrom) is re-run so the poke's consequences are visible
// immediately, per spec §6.
func (e *Engine) SetValueWithOptions(name string, v *big.Int, opts PokeOptions) error {
	sym, ok := e.table.Get(name)
	if !ok {
		return runtimeErrorf("set_value", name, "no such symbol")
	}
	if opts.Offset < 0 || opts.Offset >= sym.SlotCount {
		return runtimeErrorf("set_value", name, "offset %d out of range [0,%d)", opts.Offset, sym.SlotCount)
	}

	topLevelInput := e.table.IsTopLevel(sym.ID) && (sym.Kind == symtab.KindInputPort || sym.Kind == symtab.KindClock)
	if !topLevelInput && !opts.Force {
		return runtimeErrorf("set_value", name, "not a top-level input port or clock (pass PokeOptions.Force to override)")
	}

	e.writeSymbolAt(sym.ID, opts.Offset, v)
	if sym.Kind == symtab.KindInputPort {
		e.inputsDirty = true
	}
	if !topLevelInput && opts.Force {
		assigners := e.table.GetAssigners(e.table.ReachableFrom(sym.ID))
		sched.ExecuteAssigners(e.env, assigners)
	}
	// RegisterPoke is applied last so it pins /prev to the forced value
	// even when the forward re-run above just recomputed /prev from the
	// register's own next-state expression — otherwise the upcoming
	// commit would write that recomputed next state (the poked value
	// advanced once) instead of the poked value itself.
	if opts.RegisterPoke && sym.PrevID != symtab.NoID {
		e.writeSymbolAt(sym.PrevID, opts.Offset, v)
	}
	return nil
}

func firstOrZero(offset []int) int {
	if len(offset) == 0 {
		return 0
	}
	return offset[0]
}

func (e *Engine) readSymbol(id symtab.ID) *big.Int { return e.readSymbolAt(id, 0) }

func (e *Engine) readSymbolAt(id symtab.ID, offset int) *big.Int {
	sym := e.table.Symbol(id)
	return e.store.ReadAtIndex(sym.Class, sym.DataIndex+offset, 0, sym.Width, sym.Signed)
}

func (e *Engine) writeSymbol(id symtab.ID, v *big.Int) { e.writeSymbolAt(id, 0, v) }

func (e *Engine) writeSymbolAt(id symtab.ID, offset int, v *big.Int) {
	sym := e.table.Symbol(id)
	norm := store.Normalize(v, sym.Width, sym.Signed)
	e.store.WriteAtIndex(sym.Class, sym.DataIndex+offset, sym.Width, sym.Signed, norm)
}

// EarlierValue reads name's value k cycles ago (k=0 is the current
// value), bounded by the rollback depth the Engine was built with.
func (e *Engine) EarlierValue(name string, k int) (*big.Int, error) {
	sym, ok := e.table.Get(name)
	if !ok {
		return nil, runtimeErrorf("earlier_value", name, "no such symbol")
	}
	if k < 0 || k >= e.store.NumBuffers() {
		return nil, runtimeErrorf("earlier_value", name, "k=%d exceeds rollback depth %d", k, e.store.NumBuffers())
	}
	return e.store.ReadAtIndex(sym.Class, sym.DataIndex, k, sym.Width, sym.Signed), nil
}

// evaluateCircuit is spec §4.5's evaluate_circuit: advance buffers,
// run the triggered bucket of every clock that rose (and notify
// black-box clock hooks of any edge), then — if any input was marked
// dirty — run the input-sensitive list once, and only then check the
// stop specs of the clocks that rose.
func (e *Engine) evaluateCircuit() {
	e.store.AdvanceBuffers()

	var transitionedClocks []string
	for _, clk := range e.result.Clocks {
		cur := e.readSymbol(clk.ID)
		prev := e.readSymbol(clk.Prev)

		transition := blackbox.NoTransition
		switch {
		case cur.Sign() != 0 && prev.Sign() == 0:
			transition = blackbox.PosEdge
		case cur.Sign() == 0 && prev.Sign() != 0:
			transition = blackbox.NegEdge
		}

		if transition == blackbox.PosEdge {
			e.sched.ExecuteTriggered(e.env, clk.Name)
			transitionedClocks = append(transitionedClocks, clk.Name)
		}
		if transition != blackbox.NoTransition {
			for _, hook := range e.bbClockHooks[clk.Name] {
				hook(transition)
			}
		}

		e.writeSymbol(clk.Prev, cur)
	}

	if e.inputsDirty {
		e.sched.ExecuteInputSensitive(e.env)
		e.inputsDirty = false
	}

	// The stop latch is checked last, after the input-sensitive pass has
	// recomputed every stop condition against the register values just
	// committed this cycle — checking it any earlier would see each
	// condition one cycle stale.
	for _, name := range transitionedClocks {
		e.checkStops(name)
	}

	if e.rec != nil {
		e.rec.Sample(e.time)
	}
}

func (e *Engine) checkStops(clock string) {
	if e.stopLatch != nil {
		return
	}
	for _, sp := range e.result.Stops {
		if sp.Clock != clock {
			continue
		}
		if e.readSymbol(sp.CondSymbol).Sign() != 0 {
			e.stopLatch = &StopResult{Name: sp.Name, ResultCode: sp.ResultCode}
			return
		}
	}
}

// Cycle runs the raise-clock / evaluate / lower-clock protocol of
// spec §4.5 once. It does nothing while a stop is latched.
func (e *Engine) Cycle() {
	if e.Stopped() {
		return
	}
	e.time++
	e.toggler.raise(e)
	e.inputsDirty = true
	e.evaluateCircuit()
	e.toggler.lower(e)
}

// DoCycles runs Cycle n times, stopping early the moment a `stop`
// primitive latches.
func (e *Engine) DoCycles(n int) {
	for i := 0; i < n && !e.Stopped(); i++ {
		e.Cycle()
	}
}

// RerunOrphans re-executes the one-shot orphan assigner list (constants,
// primary inputs, clock-triggered writes). It does not advance time or
// touch the stop latch; it exists for selfcheck's orphan-idempotence
// audit, which expects rerunning to be a no-op on a correct circuit.
func (e *Engine) RerunOrphans() { e.sched.ExecuteOrphans(e.env) }

// Stopped reports whether a `stop` primitive has latched.
func (e *Engine) Stopped() bool { return e.stopLatch != nil }

// LastStopResult returns the latched stop, or nil if none has fired.
func (e *Engine) LastStopResult() *StopResult { return e.stopLatch }

// ClearStop un-latches the stop condition, letting DoCycles/Cycle
// proceed again — spec §4.7's explicit reset operation, since a
// latched stop is sticky by design.
func (e *Engine) ClearStop() { e.stopLatch = nil }

// StoppedErr returns a *StopError view of the latched stop, or nil.
func (e *Engine) StoppedErr() error {
	if e.stopLatch == nil {
		return nil
	}
	return &StopError{Result: *e.stopLatch}
}

// MakeVCDLogger starts (or replaces) VCD recording over the given
// symbol names.
func (e *Engine) MakeVCDLogger(names []string) {
	e.rec = vcd.New(e.table, e.store, names)
}

// DisableVCD stops recording without discarding history already
// collected (Recorder.Disable), mirroring make_vcd_logger/disable_vcd
// spec §6 names as a pair.
func (e *Engine) DisableVCD() {
	if e.rec != nil {
		e.rec.Disable()
	}
}

// WriteVCD flushes recorded history to path. A no-op, successfully,
// when no logger was ever started.
func (e *Engine) WriteVCD(path string) error {
	if e.rec == nil {
		return nil
	}
	return e.rec.WriteFile(path)
}

// IsRegister, IsInputPort, and IsOutputPort classify a name for
// driver/test code that wants to branch on a symbol's role without
// importing symtab itself.
func (e *Engine) IsRegister(name string) bool  { return e.kindOf(name) == symtab.KindRegister }
func (e *Engine) IsInputPort(name string) bool { return e.kindOf(name) == symtab.KindInputPort }
func (e *Engine) IsOutputPort(name string) bool { return e.kindOf(name) == symtab.KindOutputPort }

func (e *Engine) kindOf(name string) symtab.Kind {
	sym, ok := e.table.Get(name)
	if !ok {
		return -1
	}
	return sym.Kind
}

// GetRegisterNames lists every register in the flattened circuit,
// nested instances included, sorted for deterministic output.
func (e *Engine) GetRegisterNames() []string { return e.namesOfKind(symtab.KindRegister, false) }

// GetInputPortNames and GetOutputPortNames list the top module's own
// ports: the pokeable/peekable public interface spec §6 describes.
// Input names include the top module's clock inputs.
func (e *Engine) GetInputPortNames() []string {
	names := append(e.namesOfKind(symtab.KindInputPort, true), e.namesOfKind(symtab.KindClock, true)...)
	sort.Strings(names)
	return names
}
func (e *Engine) GetOutputPortNames() []string { return e.namesOfKind(symtab.KindOutputPort, true) }

func (e *Engine) namesOfKind(kind symtab.Kind, topLevelOnly bool) []string {
	var out []string
	for _, s := range e.table.Symbols() {
		if s.Kind != kind {
			continue
		}
		if topLevelOnly && !e.table.IsTopLevel(s.ID) {
			continue
		}
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

// ValidNames lists every declared symbol name, the full surface
// GetValue/EarlierValue/RenderComputation accept.
func (e *Engine) ValidNames() []string {
	out := make([]string, 0, len(e.table.Symbols()))
	for _, s := range e.table.Symbols() {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

// Symbols exposes the full flattened symbol table for tooling
// (selfcheck, the akita adapter) that needs more than name/kind.
func (e *Engine) Symbols() []symtab.Symbol { return e.table.Symbols() }

// Table returns the underlying SymbolTable, for packages (selfcheck)
// that need direct dependency-graph access the facade doesn't expose.
func (e *Engine) Table() *symtab.SymbolTable { return e.table }

// Store returns the underlying DataStore, for the same reason.
func (e *Engine) Store() *store.DataStore { return e.store }
