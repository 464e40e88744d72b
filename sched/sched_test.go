package sched_test

import (
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lirsim/compile"
	"github.com/sarchlab/lirsim/lir"
	"github.com/sarchlab/lirsim/sched"
)

func chainCircuit() *lir.Circuit {
	top := &lir.Module{
		Name: "Top",
		Ports: []lir.Port{
			{Name: "in", Direction: lir.Input, Type: lir.UInt(8)},
			{Name: "out", Direction: lir.Output, Type: lir.UInt(8)},
		},
		Statements: []lir.Statement{
			// declared out of dependency order on purpose: c depends on
			// b depends on a depends on in, so a correct topological sort
			// must still place them a, b, c regardless of source order.
			lir.Node{Name: "c", Type: lir.UInt(8), Expr: lir.Ref("b")},
			lir.Node{Name: "b", Type: lir.UInt(8), Expr: lir.Ref("a")},
			lir.Node{Name: "a", Type: lir.UInt(8), Expr: lir.Ref("in")},
			lir.Connect{Dest: "out", Source: lir.Ref("c")},
		},
	}
	return &lir.Circuit{TopModule: "Top", Modules: map[string]*lir.Module{"Top": top}}
}

func counterCircuit() *lir.Circuit {
	top := &lir.Module{
		Name: "Top",
		Ports: []lir.Port{
			{Name: "clock", Direction: lir.Input, Type: lir.Clock()},
		},
		Statements: []lir.Statement{
			lir.Reg{
				Name:  "counter",
				Type:  lir.UInt(8),
				Clock: "clock",
				Next:  lir.Op(lir.OpAdd, lir.Ref("counter"), lir.Lit(big.NewInt(1), lir.UInt(8))),
			},
		},
	}
	return &lir.Circuit{TopModule: "Top", Modules: map[string]*lir.Module{"Top": top}}
}

var _ = Describe("Scheduler", func() {
	It("orders a dependency chain regardless of declaration order", func() {
		res, err := compile.Compile(chainCircuit(), compile.Options{})
		Expect(err).NotTo(HaveOccurred())

		s, err := sched.New(res, res.Table)
		Expect(err).NotTo(HaveOccurred())

		var names []string
		for _, a := range s.InputSensitive {
			names = append(names, res.Table.Symbol(a.OutputSymbolID()).Name)
		}
		Expect(names).To(Equal([]string{"a", "b", "c", "out"}))
	})

	It("buckets a register commit under its clock's triggered list", func() {
		res, err := compile.Compile(counterCircuit(), compile.Options{})
		Expect(err).NotTo(HaveOccurred())

		s, err := sched.New(res, res.Table)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.ClockOrder).To(ConsistOf("clock"))
		Expect(s.Triggered["clock"]).To(HaveLen(1))
	})

	It("executes the orphan list once to seed constant-driven wires", func() {
		res, err := compile.Compile(chainCircuit(), compile.Options{})
		Expect(err).NotTo(HaveOccurred())

		s, err := sched.New(res, res.Table)
		Expect(err).NotTo(HaveOccurred())

		Expect(func() { s.ExecuteOrphans(res.Env) }).NotTo(Panic())
	})

	It("toggles lean mode without error", func() {
		res, err := compile.Compile(chainCircuit(), compile.Options{})
		Expect(err).NotTo(HaveOccurred())

		s, err := sched.New(res, res.Table)
		Expect(err).NotTo(HaveOccurred())

		s.SetLeanMode(true)
		Expect(s.IsLean()).To(BeTrue())
		s.SetLeanMode(false)
		Expect(s.IsLean()).To(BeFalse())
	})
})
