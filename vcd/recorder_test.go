package vcd_test

import (
	"bytes"
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
	"github.com/sarchlab/lirsim/vcd"
)

func newTraced() (*symtab.SymbolTable, *store.DataStore, symtab.ID) {
	t := symtab.New(false)
	id := t.Declare("counter", 8, false, symtab.KindWire, 1)
	ds := store.New(1)
	t.AllocateData(ds)
	return t, ds, id
}

var _ = Describe("Recorder", func() {
	It("panics building over an unknown symbol name", func() {
		t, ds, _ := newTraced()
		Expect(func() { vcd.New(t, ds, []string{"nope"}) }).To(Panic())
	})

	It("records an event only when a sampled value actually changes", func() {
		tbl, ds, id := newTraced()
		r := vcd.New(tbl, ds, []string{"counter"})

		sym := tbl.Symbol(id)
		ds.WriteAtIndex(sym.Class, sym.DataIndex, sym.Width, sym.Signed, big.NewInt(5))
		r.Sample(0)

		r.Sample(1) // unchanged

		ds.WriteAtIndex(sym.Class, sym.DataIndex, sym.Width, sym.Signed, big.NewInt(9))
		r.Sample(2)

		var buf bytes.Buffer
		Expect(r.Write(&buf)).To(Succeed())
		out := buf.String()

		Expect(out).To(ContainSubstring("#0"))
		Expect(out).To(ContainSubstring("#2"))
		Expect(out).NotTo(ContainSubstring("#1\n"))
	})

	It("skips sampling entirely while disabled", func() {
		tbl, ds, id := newTraced()
		r := vcd.New(tbl, ds, []string{"counter"})
		r.Disable()
		Expect(r.Enabled()).To(BeFalse())

		sym := tbl.Symbol(id)
		ds.WriteAtIndex(sym.Class, sym.DataIndex, sym.Width, sym.Signed, big.NewInt(1))
		r.Sample(0)

		var buf bytes.Buffer
		Expect(r.Write(&buf)).To(Succeed())
		Expect(buf.String()).NotTo(ContainSubstring("#0"))
	})

	It("renders a debug table with every traced symbol's current value", func() {
		tbl, ds, id := newTraced()
		r := vcd.New(tbl, ds, []string{"counter"})
		sym := tbl.Symbol(id)
		ds.WriteAtIndex(sym.Class, sym.DataIndex, sym.Width, sym.Signed, big.NewInt(42))

		out := r.Table()
		Expect(out).To(ContainSubstring("counter"))
		Expect(out).To(ContainSubstring("42"))
	})
})
