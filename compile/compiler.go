package compile

import (
	"fmt"
	"math/big"
	"math/rand"
	"sort"

	"github.com/sarchlab/lirsim/blackbox"
	"github.com/sarchlab/lirsim/lir"
	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
)

// Options mirrors the environment record spec §6 describes.
type Options struct {
	AllowCycles      bool
	RollbackBuffers  int
	BlackBoxRegistry *blackbox.Registry
	ValidIfIsRandom  bool
	Verbose          bool
}

// StopSpec is a compiled `stop` primitive: the engine checks CondSymbol
// after running Clock's triggered bucket and, if it reads non-zero,
// latches ResultCode.
type StopSpec struct {
	Name       string
	CondSymbol symtab.ID
	Clock      string
	ResultCode int
}

// BlackBoxBinding ties a constructed blackbox.BlackBox to the symbols
// that carry its pin values in the flattened circuit.
type BlackBoxBinding struct {
	Instance   blackbox.BlackBox
	InputPins  map[string]symtab.ID
	ClockPins  map[string]symtab.ID
	OutputPins map[string]symtab.ID
}

// ClockInfo names a clock-typed symbol and its `/prev` shadow.
type ClockInfo struct {
	Name string
	ID   symtab.ID
	Prev symtab.ID
}

// Result is everything Compile produces: the populated SymbolTable and
// DataStore, every combinational Assigner (for sched to partition into
// orphan/input-sensitive lists), every triggered assigner keyed by the
// clock that fires it, and the black-box/stop bookkeeping sched/engine
// need.
type Result struct {
	Table     *symtab.SymbolTable
	Store     *store.DataStore
	Env       *EvalEnv
	Assigners []symtab.AssignerRef // combinational only

	// TriggeredByClock holds register-commit and memory-write assigners,
	// keyed by the (qualified) clock symbol name that fires them.
	TriggeredByClock map[string][]symtab.AssignerRef

	Stops      []StopSpec
	BlackBoxes map[string]*BlackBoxBinding
	Clocks     []ClockInfo
}

type pendingStmt struct {
	prefix string
	stmt   lir.Statement
}

type compiler struct {
	circuit *lir.Circuit
	opts    Options
	table   *symtab.SymbolTable
	pending []pendingStmt
	bb      map[string]*BlackBoxBinding
	stops   []StopSpec
	clocks  map[string]symtab.ID // name -> clock symbol ID
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Compile flattens circuit starting at its top module and produces a
// Result ready for sched.Scheduler to partition and order.
func Compile(circuit *lir.Circuit, opts Options) (*Result, error) {
	c := &compiler{
		circuit: circuit,
		opts:    opts,
		table:   symtab.New(opts.AllowCycles),
		bb:      make(map[string]*BlackBoxBinding),
		clocks:  make(map[string]symtab.ID),
	}

	if opts.BlackBoxRegistry == nil {
		opts.BlackBoxRegistry = blackbox.NewRegistry()
		c.opts = opts
	}

	if err := c.declareModule(circuit.TopModule, ""); err != nil {
		return nil, err
	}

	ds := store.New(opts.RollbackBuffers + 1)
	c.table.AllocateData(ds)

	var divergences, memOutOfBounds int
	env := &EvalEnv{Table: c.table, DataStore: ds}
	env.DivByZero = func() { divergences++ }
	env.MemOOB = func(mem symtab.ID, addr int64, depth int) { memOutOfBounds++ }
	env.ValidIfIsRandom = opts.ValidIfIsRandom
	if opts.ValidIfIsRandom {
		rng := rand.New(rand.NewSource(1))
		env.RandomBits = func(width int, signed bool) *big.Int {
			bits := make([]byte, (width+7)/8)
			rng.Read(bits)
			return store.Normalize(new(big.Int).SetBytes(bits), width, signed)
		}
	}
	env.BlackBox = func(inst, pin string) *big.Int {
		b := c.bb[inst]
		if b == nil {
			return big.NewInt(0)
		}
		return b.Instance.GetOutput(pin)
	}

	triggered := make(map[string][]symtab.AssignerRef)
	var assigners []symtab.AssignerRef

	for _, p := range c.pending {
		combAssigners, trig, trigClock, err := c.compileStatement(p.prefix, p.stmt)
		if err != nil {
			return nil, err
		}
		assigners = append(assigners, combAssigners...)
		if trig != nil {
			triggered[trigClock] = append(triggered[trigClock], trig)
		}
	}

	c.table.SetAssignerOrder(assigners)

	if !opts.AllowCycles {
		if has, cycle := c.table.HasCombinationalCycle(); has {
			return nil, fmt.Errorf("compile: disallowed combinational cycle through %v", cycle)
		}
	}

	var clockInfos []ClockInfo
	for name, id := range c.clocks {
		sym := c.table.Symbol(id)
		clockInfos = append(clockInfos, ClockInfo{Name: name, ID: id, Prev: sym.PrevID})
	}
	sort.Slice(clockInfos, func(i, j int) bool { return clockInfos[i].Name < clockInfos[j].Name })

	return &Result{
		Table: c.table, Store: ds, Env: env, Assigners: assigners,
		TriggeredByClock: triggered, Stops: c.stops, BlackBoxes: c.bb, Clocks: clockInfos,
	}, nil
}

// declareSymbol declares name and, when its type says clock, also
// declares its `/prev` shadow and registers it for edge detection.
func (c *compiler) declareSymbol(name string, t lir.Type, kind symtab.Kind, slots int) symtab.ID {
	if t.IsClock {
		kind = symtab.KindClock
	}
	id := c.table.Declare(name, int(t.Width), t.Signed, kind, slots)
	if t.IsClock {
		c.table.Declare(name+"/prev", 1, false, symtab.KindClockPrevious, 1)
		prev, _ := c.table.Get(name + "/prev")
		sym := c.table.Symbol(id)
		sym.PrevID = prev.ID
		c.table.Symbols()[id] = sym
		c.clocks[name] = id
	}
	return id
}

func pinType(widths map[string]lir.Type, pin string) lir.Type {
	if widths != nil {
		if t, ok := widths[pin]; ok {
			return t
		}
	}
	return lir.UInt(32)
}

func (c *compiler) declareModule(moduleName, prefix string) error {
	mod, ok := c.circuit.Modules[moduleName]
	if !ok {
		return fmt.Errorf("compile: unknown module %q", moduleName)
	}
	qualify := func(n string) string { return join(prefix, n) }

	for _, p := range mod.Ports {
		kind := symtab.KindInputPort
		if p.Direction == lir.Output {
			kind = symtab.KindOutputPort
		}
		id := c.declareSymbol(qualify(p.Name), p.Type, kind, 1)
		if prefix == "" {
			c.table.MarkTopLevel(id)
		}
	}

	for _, stmt := range mod.Statements {
		switch s := stmt.(type) {
		case lir.Node:
			c.declareSymbol(qualify(s.Name), s.Type, symtab.KindWire, 1)
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Connect:
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Reg:
			c.table.DeclareRegisterPair(qualify(s.Name), int(s.Type.Width), s.Type.Signed)
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Mem:
			c.table.Declare(qualify(s.Name), int(s.Type.Width), s.Type.Signed, symtab.KindMemory, s.Depth)
			for _, rp := range s.ReadPorts {
				c.table.Declare(qualify(s.Name+"."+rp.Name), int(s.Type.Width), s.Type.Signed, symtab.KindWire, 1)
			}
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Inst:
			if err := c.declareModule(s.Module, qualify(s.Name)); err != nil {
				return err
			}

		case lir.BlackBoxInst:
			fullName := qualify(s.Name)
			inst, err := c.opts.BlackBoxRegistry.Create(s.Defname, fullName)
			if err != nil {
				return err
			}
			binding := &BlackBoxBinding{
				Instance: inst, InputPins: map[string]symtab.ID{},
				ClockPins: map[string]symtab.ID{}, OutputPins: map[string]symtab.ID{},
			}
			for _, pin := range s.InputPins {
				t := pinType(s.PinWidths, pin)
				binding.InputPins[pin] = c.table.Declare(qualify(s.Name+"."+pin), int(t.Width), t.Signed, symtab.KindWire, 1)
			}
			for _, pin := range s.ClockPins {
				binding.ClockPins[pin] = c.declareSymbol(qualify(s.Name+"."+pin), lir.Clock(), symtab.KindClock, 1)
			}
			for _, pin := range s.OutputPins {
				t := pinType(s.PinWidths, pin)
				binding.OutputPins[pin] = c.table.Declare(qualify(s.Name+"."+pin), int(t.Width), t.Signed, symtab.KindBlackBoxOutput, 1)
			}
			c.bb[fullName] = binding
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Stop:
			id := c.table.Declare(qualify(s.Name+".cond"), 1, false, symtab.KindStop, 1)
			c.stops = append(c.stops, StopSpec{
				Name: qualify(s.Name), CondSymbol: id, Clock: qualify(s.Clock), ResultCode: s.ResultCode,
			})
			c.pending = append(c.pending, pendingStmt{prefix, stmt})

		case lir.Print:
			// compileStatement produces no assigner for a Print, and
			// the engine never formats or emits Msg/Args: a Print has
			// no effect on simulation.
			c.pending = append(c.pending, pendingStmt{prefix, stmt})
		}
	}
	return nil
}

func (c *compiler) newAssigner(outputID symtab.ID, n *node) *Assigner {
	sym := c.table.Symbol(outputID)
	return &Assigner{
		Output: outputID, expr: n, verbose: c.opts.Verbose,
		outWidth: sym.Width, outSigned: sym.Signed, outClass: sym.Class, outIndex: sym.DataIndex,
	}
}

// wireDeps records parents_of/children_of edges for every operand node
// contributes to outputID, including the black-box declared relation
// and a memory read port's address/enable operands.
func (c *compiler) wireDeps(outputID symtab.ID, n *node) {
	switch n.kind {
	case lir.RefExpr:
		c.table.AddEdge(n.ref, outputID)
	case lir.BlackBoxOutputExpr:
		if b := c.bb[n.bbInst]; b != nil {
			for _, inputPin := range b.Instance.OutputDependencies(n.bbPin) {
				if id, ok := b.InputPins[inputPin]; ok {
					c.table.AddEdge(id, outputID)
				}
			}
		}
	case kindMemRead:
		c.wireDeps(outputID, n.addr)
		if n.enable != nil {
			c.wireDeps(outputID, n.enable)
		}
	case lir.LitExpr:
	default:
		for _, a := range n.args {
			c.wireDeps(outputID, a)
		}
	}
}

// bbWidth is the resolver.bbWidth callback for the current compiler
// state: the declared width of a black-box instance's output pin.
func (c *compiler) bbWidth(inst, pin string) (int, bool) {
	b := c.bb[inst]
	if b == nil {
		return 0, false
	}
	if id, ok := b.OutputPins[pin]; ok {
		return c.table.Symbol(id).Width, true
	}
	return 0, false
}

// compileStatement compiles one flattened statement, returning its
// combinational assigners (possibly none), and — for Reg/Mem write
// ports — exactly one triggered assigner plus the clock name that
// fires it.
func (c *compiler) compileStatement(prefix string, stmt lir.Statement) ([]symtab.AssignerRef, symtab.AssignerRef, string, error) {
	qualify := func(n string) string { return join(prefix, n) }
	r := &resolver{table: c.table, qualify: qualify, bbWidth: c.bbWidth}

	switch s := stmt.(type) {
	case lir.Node:
		out := c.table.MustGet(qualify(s.Name))
		n := r.resolve(s.Expr)
		c.wireDeps(out.ID, n)
		return []symtab.AssignerRef{c.newAssigner(out.ID, n)}, nil, "", nil

	case lir.Connect:
		out := c.table.MustGet(qualify(s.Dest))
		n := r.resolve(s.Source)
		c.wireDeps(out.ID, n)
		a := c.newAssigner(out.ID, n)
		if bind, pin := c.findBlackBoxInputPin(out.ID); bind != nil {
			a.postWrite = func(v *big.Int) { bind.Instance.InputChanged(pin, v) }
		}
		return []symtab.AssignerRef{a}, nil, "", nil

	case lir.Reg:
		reg := c.table.MustGet(qualify(s.Name))
		prev := c.table.Symbol(reg.PrevID)

		nextExpr := s.Next
		if s.ResetCond != nil {
			nextExpr = lir.Op(lir.OpMux, s.ResetCond, s.ResetVal, s.Next)
		}
		nNext := r.resolve(nextExpr)
		c.wireDeps(prev.ID, nNext)
		nextAssigner := c.newAssigner(prev.ID, nNext)

		commit := c.newAssigner(reg.ID, &node{kind: lir.RefExpr, ref: prev.ID, width: prev.Width, signed: prev.Signed})
		return []symtab.AssignerRef{nextAssigner}, commit, qualify(s.Clock), nil

	case lir.Mem:
		mem := c.table.MustGet(qualify(s.Name))
		var comb []symtab.AssignerRef
		for _, rp := range s.ReadPorts {
			out := c.table.MustGet(qualify(s.Name + "." + rp.Name))
			n := &node{
				kind: kindMemRead, memID: mem.ID, memClass: mem.Class, memBase: mem.DataIndex, memDepth: mem.SlotCount,
				addr: r.resolve(rp.Addr), width: mem.Width, signed: mem.Signed,
			}
			if rp.Enable != nil {
				n.enable = r.resolve(rp.Enable)
			}
			c.wireDeps(out.ID, n)
			comb = append(comb, c.newAssigner(out.ID, n))
		}
		// Each write port becomes its own triggered assigner; since
		// compileStatement returns a single triggered assigner, a
		// memory with multiple write ports folds them into one
		// fan-out assigner that runs every port in turn.
		if len(s.WritePorts) == 0 {
			return comb, nil, "", nil
		}
		writes := make([]*MemWriteAssigner, len(s.WritePorts))
		clock := qualify(s.WritePorts[0].Clock)
		for i, wp := range s.WritePorts {
			var en *node
			if wp.Enable != nil {
				en = r.resolve(wp.Enable)
			}
			writes[i] = &MemWriteAssigner{
				Mem: mem.ID, addr: r.resolve(wp.Addr), data: r.resolve(wp.Data), enable: en,
				class: mem.Class, base: mem.DataIndex, depth: mem.SlotCount, width: mem.Width, signed: mem.Signed,
			}
		}
		return comb, &fanOutWrite{mem: mem.ID, writes: writes}, clock, nil

	case lir.BlackBoxInst:
		return nil, nil, "", nil

	case lir.Stop:
		cond := c.table.MustGet(qualify(s.Name + ".cond"))
		n := r.resolve(s.Cond)
		c.wireDeps(cond.ID, n)
		return []symtab.AssignerRef{c.newAssigner(cond.ID, n)}, nil, "", nil

	case lir.Print:
		return nil, nil, "", nil

	default:
		return nil, nil, "", fmt.Errorf("compile: unsupported statement %T", stmt)
	}
}

func (c *compiler) findBlackBoxInputPin(symbolID symtab.ID) (*BlackBoxBinding, string) {
	for _, b := range c.bb {
		for pin, id := range b.InputPins {
			if id == symbolID {
				return b, pin
			}
		}
	}
	return nil, ""
}

// fanOutWrite runs several MemWriteAssigners for the same memory as
// one triggered-bucket entry, so a multi-write-port memory still
// occupies a single slot in TriggeredByClock.
type fanOutWrite struct {
	mem    symtab.ID
	writes []*MemWriteAssigner
}

func (f *fanOutWrite) OutputSymbolID() symtab.ID { return f.mem }

func (f *fanOutWrite) Execute(env *EvalEnv) {
	for _, w := range f.writes {
		w.Execute(env)
	}
}
