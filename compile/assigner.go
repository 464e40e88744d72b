package compile

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
)

// Assigner is the compiled, immutable unit spec §3 describes: it owns
// an output symbol and an expression tree over operands, and knows how
// to evaluate that tree and write the result. Kept deliberately small:
// its only side effects are the one DataStore write and, for a
// black-box input pin, the postWrite notification. It is not modified
// after compilation, matching spec's "Assigners are immutable after
// compilation."
type Assigner struct {
	Output  symtab.ID
	expr    *node
	verbose bool

	outWidth  int
	outSigned bool
	outClass  store.SizeClass
	outIndex  int

	// postWrite, when set, notifies a black box that one of its input
	// pins just changed — spec §4.6's input_changed hook. Only the
	// handful of Assigners compiled from a Connect feeding a black box
	// instance's pin carry one.
	postWrite func(*big.Int)
}

// OutputSymbolID implements symtab.AssignerRef.
func (a *Assigner) OutputSymbolID() symtab.ID { return a.Output }

// SetVerbose toggles per-assigner tracing, used by sched.Scheduler's
// lean/traced list split (spec §4.4 set_lean_mode).
func (a *Assigner) SetVerbose(v bool) { a.verbose = v }

// Execute reads operands at buffer offset 0, evaluates the expression,
// normalizes to the output's declared width, and writes the output
// slot — spec §3's Assigner evaluation contract.
func (a *Assigner) Execute(ctx *EvalEnv) {
	val := a.expr.eval(ctx.context())
	norm := store.Normalize(val, a.outWidth, a.outSigned)
	ctx.DataStore.WriteAtIndex(a.outClass, a.outIndex, a.outWidth, a.outSigned, norm)
	if a.postWrite != nil {
		a.postWrite(norm)
	}
	if a.verbose {
		slog.Log(context.Background(), LevelTrace, "assigner executed", "output", a.Output, "value", norm.String())
	}
}

// EvalEnv bundles the live SymbolTable/DataStore/black-box state an
// Assigner needs at execution time. One EvalEnv is shared by every
// assigner in a circuit.
type EvalEnv struct {
	Table     *symtab.SymbolTable
	DataStore *store.DataStore
	BlackBox  func(inst, pin string) *big.Int
	DivByZero func()
	// MemOOB is invoked whenever a memory read or write address falls
	// outside [0, depth), spec §8's "memory index at depth-1 and depth"
	// boundary case. The offending address is clamped into range (the
	// same record-and-clamp treatment as DivByZero) rather than
	// aborting evaluation.
	MemOOB func(mem symtab.ID, addr int64, depth int)

	// ValidIfIsRandom and RandomBits implement spec §6's
	// valid_if_is_random option: when a valid_if condition is false and
	// ValidIfIsRandom is set, RandomBits supplies the garbage value an
	// invalid signal reads as, instead of the deterministic-zero
	// fallback used when the option is unset.
	ValidIfIsRandom bool
	RandomBits      func(width int, signed bool) *big.Int
}

func (e *EvalEnv) context() *evalContext {
	return &evalContext{
		ds: e.DataStore,
		symWidth: func(id symtab.ID) (int, bool, store.SizeClass, int) {
			s := e.Table.Symbol(id)
			return s.Width, s.Signed, s.Class, s.DataIndex
		},
		blackBox:        e.BlackBox,
		divByZero:       e.DivByZero,
		memOOB:          e.MemOOB,
		validIfIsRandom: e.ValidIfIsRandom,
		randomBits:      e.RandomBits,
	}
}

// clampMemAddr reduces addr into [0, depth) by wraparound, reporting
// the original out-of-range address via report (when non-nil and the
// address was actually out of bounds) before returning the clamped
// index to use.
func clampMemAddr(mem symtab.ID, addr int64, depth int, report func(symtab.ID, int64, int)) int {
	if addr >= 0 && addr < int64(depth) {
		return int(addr)
	}
	if report != nil {
		report(mem, addr, depth)
	}
	m := int64(depth)
	clamped := addr % m
	if clamped < 0 {
		clamped += m
	}
	return int(clamped)
}

// MemWriteAssigner is a clock-triggered assigner for a memory write
// port: unlike Assigner, its destination slot index is computed at
// evaluation time from the address expression rather than being fixed
// at compile time, per spec §4.3 ("write ports emit triggered
// assigners gated by the clock's positive edge and a write-enable
// signal").
type MemWriteAssigner struct {
	Mem     symtab.ID // the memory symbol; OutputSymbolID reports this
	addr    *node
	data    *node
	enable  *node
	class   store.SizeClass
	base    int
	depth   int
	width   int
	signed  bool
	verbose bool
}

// OutputSymbolID implements symtab.AssignerRef. Two write ports on the
// same memory both legitimately report the memory's ID; spec's
// single-writer-per-slot rule is about the dynamic address, not the
// static symbol, so this is exempted the same way register
// next-state/commit pairs are (spec §5).
func (a *MemWriteAssigner) OutputSymbolID() symtab.ID { return a.Mem }

func (a *MemWriteAssigner) SetVerbose(v bool) { a.verbose = v }

// Execute writes Data into the memory slot Addr selects, if Enable
// (when present) is non-zero.
func (a *MemWriteAssigner) Execute(env *EvalEnv) {
	ctx := env.context()
	if a.enable != nil && a.enable.eval(ctx).Sign() == 0 {
		return
	}
	rawAddr := a.addr.eval(ctx).Int64()
	addr := clampMemAddr(a.Mem, rawAddr, a.depth, env.MemOOB)
	val := store.Normalize(a.data.eval(ctx), a.width, a.signed)
	env.DataStore.WriteAtIndex(a.class, a.base+addr, a.width, a.signed, val)
	if a.verbose {
		slog.Log(context.Background(), LevelTrace, "memory write", "mem", a.Mem, "addr", addr, "value", val.String())
	}
}

// LevelTrace is the slog level used for per-assigner execution tracing,
// one notch above slog.LevelInfo, the same way zeonica/core/util.go
// defines LevelTrace/LevelWaveform for its own cycle tracing.
const LevelTrace = slog.LevelInfo + 1

// LevelWaveform is reserved for per-cycle waveform/VCD bookkeeping.
const LevelWaveform = slog.LevelInfo + 2
