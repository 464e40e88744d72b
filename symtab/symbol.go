// Package symtab flattens an already-lowered lir.Circuit into a single
// namespace of Symbols, allocates their DataStore slots, and tracks the
// forward/reverse dependency edges the scheduler sorts over.
//
// Grounded on zeonica/core/program.go's Program/EntryBlock containers
// (a single owning table that other packages refer to by lightweight
// IDs) and on zeonica/cgra/cgra.go's Side registry (name -> small int,
// with an Add/Name pair) for the id-indirection technique spec.md's
// design notes call for ("give SymbolTable sole ownership of Symbol
// records keyed by stable integer IDs").
package symtab

import "github.com/sarchlab/lirsim/store"

// Kind classifies what role a symbol plays in the circuit.
type Kind int

const (
	KindWire Kind = iota
	KindRegister
	KindInputPort
	KindOutputPort
	KindMemory
	KindLiteral
	KindBlackBoxOutput
	KindStop
	KindClock
	KindClockPrevious
)

func (k Kind) String() string {
	switch k {
	case KindWire:
		return "wire"
	case KindRegister:
		return "register"
	case KindInputPort:
		return "input-port"
	case KindOutputPort:
		return "output-port"
	case KindMemory:
		return "memory"
	case KindLiteral:
		return "literal"
	case KindBlackBoxOutput:
		return "black-box-output"
	case KindStop:
		return "stop"
	case KindClock:
		return "clock"
	case KindClockPrevious:
		return "clock-previous"
	default:
		return "unknown"
	}
}

// ID is a stable handle into SymbolTable, used everywhere else in the
// interpreter instead of a *Symbol pointer or a name string.
type ID int

// Symbol is the metadata record spec §3 describes for one named entity
// in the flattened circuit.
type Symbol struct {
	ID        ID
	Name      string // fully-qualified, dotted instance path
	Width     int
	Signed    bool
	Kind      Kind
	Class     store.SizeClass
	DataIndex int
	SlotCount int // 1 for scalars, depth for memories

	// PrevID points at a register's `r/prev` shadow symbol (and vice
	// versa); zero value (no prev) is represented as -1.
	PrevID ID
}

const NoID ID = -1
