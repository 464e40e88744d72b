package lir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lirsim/lir"
)

var _ = Describe("LoadCircuitYAML", func() {
	It("loads a register-with-reset circuit from testdata/counter.yaml", func() {
		c, err := lir.LoadCircuitYAML("testdata/counter.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.TopModule).To(Equal("Top"))

		top, ok := c.Modules["Top"]
		Expect(ok).To(BeTrue())
		Expect(top.Ports).To(HaveLen(3))

		var reg lir.Reg
		var found bool
		for _, s := range top.Statements {
			if r, ok := s.(lir.Reg); ok {
				reg, found = r, true
			}
		}
		Expect(found).To(BeTrue())
		Expect(reg.Name).To(Equal("cnt"))
		Expect(reg.Type.Width).To(Equal(lir.Width(32)))
		Expect(reg.Clock).To(Equal("clock"))
		Expect(reg.ResetCond).NotTo(BeNil())
		Expect(reg.ResetVal).NotTo(BeNil())
		Expect(reg.Next.Op).To(Equal(lir.OpAdd))
	})

	It("loads a black-box instance and its pin wiring from testdata/blackbox_and.yaml", func() {
		c, err := lir.LoadCircuitYAML("testdata/blackbox_and.yaml")
		Expect(err).NotTo(HaveOccurred())

		top := c.Modules["Top"]
		var bb lir.BlackBoxInst
		var found bool
		for _, s := range top.Statements {
			if b, ok := s.(lir.BlackBoxInst); ok {
				bb, found = b, true
			}
		}
		Expect(found).To(BeTrue())
		Expect(bb.Defname).To(Equal("And"))
		Expect(bb.InputPins).To(ConsistOf("a", "b"))
		Expect(bb.OutputPins).To(ConsistOf("result"))

		var resultConnect lir.Connect
		for _, s := range top.Statements {
			if cn, ok := s.(lir.Connect); ok && cn.Dest == "result" {
				resultConnect = cn
			}
		}
		Expect(resultConnect.Source.Kind).To(Equal(lir.OpExpr))
		Expect(resultConnect.Source.Op).To(Equal(lir.OpAsUInt))
		Expect(resultConnect.Source.Args[0].Kind).To(Equal(lir.BlackBoxOutputExpr))
		Expect(resultConnect.Source.Args[0].BlackBoxInst).To(Equal("g0"))
	})

	It("loads a memory with read and write ports from testdata/memory.yaml", func() {
		c, err := lir.LoadCircuitYAML("testdata/memory.yaml")
		Expect(err).NotTo(HaveOccurred())

		top := c.Modules["Top"]
		var mem lir.Mem
		var found bool
		for _, s := range top.Statements {
			if m, ok := s.(lir.Mem); ok {
				mem, found = m, true
			}
		}
		Expect(found).To(BeTrue())
		Expect(mem.Depth).To(Equal(4))
		Expect(mem.ReadPorts).To(HaveLen(1))
		Expect(mem.WritePorts).To(HaveLen(1))
		Expect(mem.WritePorts[0].Clock).To(Equal("clock"))
	})

	It("errors on a missing fixture file", func() {
		_, err := lir.LoadCircuitYAML("testdata/does-not-exist.yaml")
		Expect(err).To(HaveOccurred())
	})

	It("errors on an unknown primitive op name", func() {
		_, err := lir.LoadCircuitYAML("testdata/bad_op.yaml")
		Expect(err).To(HaveOccurred())
	})
})
