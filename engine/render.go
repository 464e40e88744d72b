package engine

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/lirsim/symtab"
)

var titleCaser = cases.Title(language.English)

// RenderComputation renders one symbol's current value alongside its
// kind, width, and immediate operand (parent) and dependent (child)
// names, as a go-pretty table — the debugging view spec §6's
// render_computation describes, grounded on zeonica/core/util.go's
// PrintState, which renders the whole CGRA core's state the same way.
func (e *Engine) RenderComputation(name string) (string, error) {
	sym, ok := e.table.Get(name)
	if !ok {
		return "", runtimeErrorf("render_computation", name, "no such symbol")
	}

	v := e.readSymbol(sym.ID)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Name", sym.Name})
	t.AppendRow(table.Row{"Kind", titleCaser.String(sym.Kind.String())})
	t.AppendRow(table.Row{"Width", fmt.Sprintf("%d%s", sym.Width, signSuffix(sym.Signed))})
	t.AppendRow(table.Row{"Value", v.String()})
	t.AppendRow(table.Row{"Parents", namesOf(e.table, e.table.ParentsOf(sym.ID))})
	t.AppendRow(table.Row{"Children", namesOf(e.table, e.table.ChildrenOf(sym.ID))})

	return t.Render(), nil
}

func signSuffix(signed bool) string {
	if signed {
		return " (signed)"
	}
	return ""
}

func namesOf(t *symtab.SymbolTable, ids []symtab.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += t.Symbol(id).Name
	}
	return out
}
