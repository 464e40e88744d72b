package symtab

import (
	"fmt"

	"github.com/sarchlab/lirsim/store"
)

// AssignerRef is the minimal view SymbolTable needs of a compiled
// assigner: which symbol it writes. compile.Assigner implements this;
// symtab never imports compile, so the dependency only runs one way.
type AssignerRef interface {
	OutputSymbolID() ID
}

// SymbolTable owns every Symbol in the flattened circuit and the
// dependency edges between them.
type SymbolTable struct {
	symbols []Symbol
	byName  map[string]ID

	// children_of[x] = symbols whose assigner reads x (forward edges);
	// parents_of[x] = symbols that x's assigner reads (reverse edges).
	children map[ID]map[ID]bool
	parents  map[ID]map[ID]bool

	// assignerOrder is populated by the scheduler after compilation and
	// topological sort; GetAssigners/InputChildrenAssigners read it.
	assignerOrder []AssignerRef

	topLevel map[ID]bool

	allowCycles bool
}

// New creates an empty SymbolTable.
func New(allowCycles bool) *SymbolTable {
	return &SymbolTable{
		byName:      make(map[string]ID),
		children:    make(map[ID]map[ID]bool),
		parents:     make(map[ID]map[ID]bool),
		topLevel:    make(map[ID]bool),
		allowCycles: allowCycles,
	}
}

// MarkTopLevel records id as one of the top module's own ports, the
// only symbols set_value/get_value (spec §6) may name directly.
func (t *SymbolTable) MarkTopLevel(id ID) { t.topLevel[id] = true }

// IsTopLevel reports whether id was declared on the top module itself,
// as opposed to some nested instance's port.
func (t *SymbolTable) IsTopLevel(id ID) bool { return t.topLevel[id] }

// Declare allocates a new Symbol. Duplicate names are fatal per spec §4.1.
func (t *SymbolTable) Declare(name string, width int, signed bool, kind Kind, slots int) ID {
	if _, exists := t.byName[name]; exists {
		panic(fmt.Sprintf("symtab: duplicate symbol name %q", name))
	}
	if slots < 1 {
		slots = 1
	}
	id := ID(len(t.symbols))
	t.symbols = append(t.symbols, Symbol{
		ID: id, Name: name, Width: width, Signed: signed, Kind: kind,
		Class: store.ClassifyWidth(width), SlotCount: slots, PrevID: NoID,
	})
	t.byName[name] = id
	return id
}

// DeclareRegisterPair declares a register symbol plus its `<name>/prev`
// shadow sibling, wiring PrevID both ways, per the register-shadow
// invariant of spec §3.
func (t *SymbolTable) DeclareRegisterPair(name string, width int, signed bool) (reg, prev ID) {
	reg = t.Declare(name, width, signed, KindRegister, 1)
	prev = t.Declare(name+"/prev", width, signed, KindClockPrevious, 1)
	t.symbols[reg].PrevID = prev
	t.symbols[prev].PrevID = reg
	return reg, prev
}

// Contains reports whether name has been declared.
func (t *SymbolTable) Contains(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Get looks up a symbol by name. The second return is false when the
// name is absent, per spec §4.1 ("get yields nothing when absent").
func (t *SymbolTable) Get(name string) (Symbol, bool) {
	id, ok := t.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[id], true
}

// MustGet looks up a symbol by name, panicking (an unresolved-reference
// compile-time fatal, per spec §7(i)) when absent.
func (t *SymbolTable) MustGet(name string) Symbol {
	s, ok := t.Get(name)
	if !ok {
		panic(fmt.Sprintf("symtab: unresolved reference %q", name))
	}
	return s
}

// Symbol returns the Symbol for an ID.
func (t *SymbolTable) Symbol(id ID) Symbol { return t.symbols[id] }

// Symbols returns every declared symbol, in declaration order (which
// allocate_data also uses, making both deterministic across runs).
func (t *SymbolTable) Symbols() []Symbol { return t.symbols }

// AllocateData assigns DataIndex to every symbol by iterating in
// declaration order and bumping the destination arena's cursor,
// per spec §4.1 allocate_data.
func (t *SymbolTable) AllocateData(ds *store.DataStore) {
	for i := range t.symbols {
		s := &t.symbols[i]
		s.DataIndex = ds.Reserve(s.Class, s.SlotCount)
	}
}

// AddEdge records that the assigner computing `child` reads `parent`.
func (t *SymbolTable) AddEdge(parent, child ID) {
	if t.children[parent] == nil {
		t.children[parent] = make(map[ID]bool)
	}
	t.children[parent][child] = true
	if t.parents[child] == nil {
		t.parents[child] = make(map[ID]bool)
	}
	t.parents[child][parent] = true
}

// ChildrenOf returns the symbols whose assigner directly reads id.
func (t *SymbolTable) ChildrenOf(id ID) []ID { return keys(t.children[id]) }

// ParentsOf returns the symbols id's assigner directly reads.
func (t *SymbolTable) ParentsOf(id ID) []ID { return keys(t.parents[id]) }

func keys(m map[ID]bool) []ID {
	out := make([]ID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ReachableFrom performs a breadth-first transitive closure over the
// forward (children) edges starting at id: every symbol that must
// re-run after id changes.
func (t *SymbolTable) ReachableFrom(id ID) map[ID]bool {
	visited := map[ID]bool{}
	queue := []ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for child := range t.children[cur] {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return visited
}

// ReachableFromSet unions ReachableFrom over a set of roots.
func (t *SymbolTable) ReachableFromSet(ids []ID) map[ID]bool {
	out := map[ID]bool{}
	for _, id := range ids {
		for k := range t.ReachableFrom(id) {
			out[k] = true
		}
	}
	return out
}

// Orphans returns symbols with no dependency parents: driven only by
// constants, primary inputs, or clock-triggered writes.
func (t *SymbolTable) Orphans() []ID {
	var out []ID
	for _, s := range t.symbols {
		if len(t.parents[s.ID]) == 0 {
			out = append(out, s.ID)
		}
	}
	return out
}

// SetAssignerOrder records the compiled assigner list (sched.New
// records it topologically sorted) so GetAssigners/InputChildrenAssigners can be served from it.
func (t *SymbolTable) SetAssignerOrder(order []AssignerRef) { t.assignerOrder = order }

// GetAssigners maps a symbol set to the assigners whose output is in
// that set, preserving topological order.
func (t *SymbolTable) GetAssigners(symbols map[ID]bool) []AssignerRef {
	var out []AssignerRef
	for _, a := range t.assignerOrder {
		if symbols[a.OutputSymbolID()] {
			out = append(out, a)
		}
	}
	return out
}

// InputChildrenAssigners returns every assigner whose output is
// transitively reachable from any input port or register: the set of
// combinational logic that can produce a new value this cycle, either
// because a primary input was poked or because a register just
// committed a new value. Registers root their own reachability set
// here (rather than only the literal/primary-input set spec's own
// prose names) because a register's next-state assigner reads the
// register itself, not a primary input, and still must be recomputed
// every cycle — otherwise a register with no external operand (a bare
// counter) would never advance past its reset value.
func (t *SymbolTable) InputChildrenAssigners() []AssignerRef {
	var roots []ID
	for _, s := range t.symbols {
		if s.Kind == KindInputPort || s.Kind == KindRegister {
			roots = append(roots, s.ID)
		}
	}
	return t.GetAssigners(t.ReachableFromSet(roots))
}

// HasCombinationalCycle reports whether the dependency graph, excluding
// register-input-to-register-output edges, contains a cycle. Callers
// that did not set allow-cycles should treat a true result as fatal.
func (t *SymbolTable) HasCombinationalCycle() (bool, []ID) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ID]int, len(t.symbols))
	var stack []ID
	var cyclePath []ID

	var visit func(id ID) bool
	visit = func(id ID) bool {
		color[id] = gray
		stack = append(stack, id)
		for child := range t.children[id] {
			if t.symbols[child].Kind == KindClockPrevious {
				continue // register commit edge, excluded per spec §3
			}
			switch color[child] {
			case white:
				if visit(child) {
					return true
				}
			case gray:
				cyclePath = append(append([]ID{}, stack...), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, s := range t.symbols {
		if color[s.ID] == white {
			if visit(s.ID) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}
