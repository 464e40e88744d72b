package engine

import (
	"math/big"

	"github.com/sarchlab/lirsim/symtab"
)

// clockToggler drives the single primary clock a cycle() raises and
// lowers. findPrimaryClock resolves spec §9's open question — which
// top-level symbol plays this role — by name, the same "look for the
// conventional name, fall back to doing nothing" shape
// zeonica/core/emu.go uses when resolving its register file aliases.
type clockToggler interface {
	raise(e *Engine)
	lower(e *Engine)
}

// namedClockToggler drives a single top-level clock symbol found by
// name.
type namedClockToggler struct {
	id symtab.ID
}

func (t namedClockToggler) raise(e *Engine) { e.writeSymbol(t.id, big.NewInt(1)) }

// lower writes the clock low and, since evaluate_circuit only ever
// runs after a raise (Engine.Cycle never evaluates after a lower),
// also writes the /prev shadow low
// directly so the next raise's evaluate_circuit sees a clean 0->1
// transition instead of comparing against a shadow still holding the
// value from the last time evaluate_circuit ran.
func (t namedClockToggler) lower(e *Engine) {
	e.writeSymbol(t.id, big.NewInt(0))
	e.writeSymbol(e.table.Symbol(t.id).PrevID, big.NewInt(0))
}

// nullClockToggler is used when no top-level symbol named "clock" or
// "clk" exists: cycle() still advances buffers and evaluates the
// circuit, it just never drives an external clock edge itself — any
// clock-typed signal in the design must then be poked directly by the
// caller, per spec §9's decided resolution (search "clock" then "clk";
// absent either, the engine does not invent one).
type nullClockToggler struct{}

func (nullClockToggler) raise(*Engine) {}
func (nullClockToggler) lower(*Engine) {}

// findPrimaryClock looks for a top-level clock-typed symbol named
// "clock", then "clk". Returns ok=false if neither exists.
func findPrimaryClock(table *symtab.SymbolTable) (symtab.ID, bool) {
	for _, name := range []string{"clock", "clk"} {
		if sym, ok := table.Get(name); ok && sym.Kind == symtab.KindClock && table.IsTopLevel(sym.ID) {
			return sym.ID, true
		}
	}
	return symtab.NoID, false
}
