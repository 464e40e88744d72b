package akitaadapter_test

import (
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/lirsim/engine"
	"github.com/sarchlab/lirsim/engine/akitaadapter"
	"github.com/sarchlab/lirsim/lir"
)

func counterCircuit() *lir.Circuit {
	top := &lir.Module{
		Name: "Top",
		Ports: []lir.Port{
			{Name: "clock", Direction: lir.Input, Type: lir.Clock()},
			{Name: "count", Direction: lir.Output, Type: lir.UInt(8)},
		},
		Statements: []lir.Statement{
			lir.Reg{
				Name:  "counter",
				Type:  lir.UInt(8),
				Clock: "clock",
				Next:  lir.Op(lir.OpAdd, lir.Ref("counter"), lir.Lit(big.NewInt(1), lir.UInt(8))),
			},
			lir.Connect{Dest: "count", Source: lir.Ref("counter")},
		},
	}
	return &lir.Circuit{TopModule: "Top", Modules: map[string]*lir.Module{"Top": top}}
}

var _ = Describe("Builder", func() {
	It("panics building with no target engine", func() {
		Expect(func() { akitaadapter.MakeBuilder().Build("top") }).To(Panic())
	})

	It("wraps a circuit engine as a ticking component that advances it once per tick", func() {
		target, err := engine.NewBuilder().WithCircuit(counterCircuit()).Build()
		Expect(err).NotTo(HaveOccurred())

		simEngine := sim.NewSerialEngine()
		comp := akitaadapter.MakeBuilder().
			WithEngine(simEngine).
			WithTarget(target).
			Build("top")

		Expect(comp.Engine()).To(BeIdenticalTo(target))

		progressed := comp.Tick(0)
		Expect(progressed).To(BeTrue())

		v, err := comp.Engine().GetValue("count")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Int64()).To(Equal(int64(1)))
	})

	It("reports no further progress once the circuit has stopped", func() {
		target, err := engine.NewBuilder().WithCircuit(stopCircuit()).Build()
		Expect(err).NotTo(HaveOccurred())

		comp := akitaadapter.MakeBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithTarget(target).
			Build("top")

		for i := 0; i < 10 && comp.Tick(0); i++ {
		}

		Expect(target.Stopped()).To(BeTrue())
		Expect(comp.Tick(0)).To(BeFalse())
	})
})

func stopCircuit() *lir.Circuit {
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
			lir.Stop{
				Name:       "done",
				Clock:      "clock",
				Cond:       lir.Op(lir.OpEq, lir.Ref("counter"), lir.Lit(big.NewInt(2), lir.UInt(8))),
				ResultCode: 0,
			},
		},
	}
	return &lir.Circuit{TopModule: "Top", Modules: map[string]*lir.Module{"Top": top}}
}
