package symtab_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
)

// fakeAssigner is the minimal AssignerRef a compiled assigner would
// be; symtab never needs more than this to order and partition.
type fakeAssigner struct{ out symtab.ID }

func (f fakeAssigner) OutputSymbolID() symtab.ID { return f.out }

var _ = Describe("SymbolTable", func() {
	It("panics on a duplicate symbol name", func() {
		t := symtab.New(false)
		t.Declare("a", 8, false, symtab.KindWire, 1)
		Expect(func() { t.Declare("a", 8, false, symtab.KindWire, 1) }).To(Panic())
	})

	It("panics resolving an unregistered name", func() {
		t := symtab.New(false)
		Expect(func() { t.MustGet("nope") }).To(Panic())
	})

	It("wires a register's /prev shadow both ways", func() {
		t := symtab.New(false)
		reg, prev := t.DeclareRegisterPair("counter", 8, false)
		Expect(t.Symbol(reg).PrevID).To(Equal(prev))
		Expect(t.Symbol(prev).PrevID).To(Equal(reg))
		Expect(t.Symbol(prev).Kind).To(Equal(symtab.KindClockPrevious))
	})

	It("allocates dense, non-overlapping data indices in declaration order", func() {
		t := symtab.New(false)
		t.Declare("a", 8, false, symtab.KindWire, 1)
		t.Declare("b", 8, false, symtab.KindWire, 1)
		ds := store.New(1)
		t.AllocateData(ds)
		a, _ := t.Get("a")
		b, _ := t.Get("b")
		Expect(a.DataIndex).NotTo(Equal(b.DataIndex))
	})

	It("reports a symbol with no parents as an orphan", func() {
		t := symtab.New(false)
		t.Declare("const", 8, false, symtab.KindWire, 1)
		orphans := t.Orphans()
		Expect(orphans).To(HaveLen(1))
	})

	It("finds every assigner transitively reachable from an input port", func() {
		t := symtab.New(false)
		in := t.Declare("in", 8, false, symtab.KindInputPort, 1)
		mid := t.Declare("mid", 8, false, symtab.KindWire, 1)
		out := t.Declare("out", 8, false, symtab.KindWire, 1)
		unrelated := t.Declare("unrelated", 8, false, symtab.KindWire, 1)

		t.AddEdge(in, mid)
		t.AddEdge(mid, out)

		t.SetAssignerOrder([]symtab.AssignerRef{
			fakeAssigner{mid}, fakeAssigner{out}, fakeAssigner{unrelated},
		})

		reachable := t.InputChildrenAssigners()
		var outs []symtab.ID
		for _, a := range reachable {
			outs = append(outs, a.OutputSymbolID())
		}
		Expect(outs).To(ContainElements(mid, out))
		Expect(outs).NotTo(ContainElement(unrelated))
	})

	It("detects a combinational cycle", func() {
		t := symtab.New(true)
		a := t.Declare("a", 8, false, symtab.KindWire, 1)
		b := t.Declare("b", 8, false, symtab.KindWire, 1)
		t.AddEdge(a, b)
		t.AddEdge(b, a)

		has, path := t.HasCombinationalCycle()
		Expect(has).To(BeTrue())
		Expect(path).NotTo(BeEmpty())
	})

	It("does not report an acyclic graph as cyclic", func() {
		t := symtab.New(false)
		a := t.Declare("a", 8, false, symtab.KindWire, 1)
		b := t.Declare("b", 8, false, symtab.KindWire, 1)
		t.AddEdge(a, b)

		has, _ := t.HasCombinationalCycle()
		Expect(has).To(BeFalse())
	})

	It("marks and reports top-level symbols", func() {
		t := symtab.New(false)
		id := t.Declare("clock", 1, false, symtab.KindClock, 1)
		t.MarkTopLevel(id)
		Expect(t.IsTopLevel(id)).To(BeTrue())

		nested := t.Declare("sub.clock", 1, false, symtab.KindClock, 1)
		Expect(t.IsTopLevel(nested)).To(BeFalse())
	})
})
