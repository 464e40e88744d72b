// Package compile lowers each lir.Statement of a flattened circuit into
// a compiled Assigner: a closure that reads a handful of operand slots
// from a store.DataStore, evaluates a primitive expression, normalizes
// the result, and writes one symtab.Symbol's slot.
//
// Grounded on zeonica/instr's Inst/ISA split (a tagged-behavior record
// plus operand list) and zeonica/core/emu.go's instEmulator, which the
// same way matches an opcode string against a big switch and pulls
// operands out of coreState; node.go replaces the opcode string with a
// typed PrimOp tag per spec.md design note §9 ("dynamic dispatch over
// primitive operations... become a tagged variant").
package compile

import (
	"math/big"

	"github.com/sarchlab/lirsim/lir"
	"github.com/sarchlab/lirsim/store"
	"github.com/sarchlab/lirsim/symtab"
)

// node is a resolved expression: like lir.Expr, but every name has been
// turned into a symtab.ID and every sub-tree carries its inferred
// width/signedness so ops like head/tail/cat/as_uint don't need to
// re-walk the tree to find out how wide their operand is.
type node struct {
	kind lir.ExprKind

	ref ID

	lit    *big.Int
	litW   int
	litS   bool

	op   lir.PrimOp
	args []*node
	hi   int
	lo   int

	bbInst string
	bbPin  string

	// memory read fields, used when kind == kindMemRead.
	memID    symtab.ID
	memClass store.SizeClass
	memBase  int
	memDepth int
	addr     *node
	enable   *node

	width  int
	signed bool
}

// kindMemRead is a package-internal extension of lir.ExprKind for a
// combinational memory read port: ExprKind is a plain int, so reserving
// a value outside lir's own enum range is safe.
const kindMemRead lir.ExprKind = 1000

// ID is re-exported for readability inside this package.
type ID = symtab.ID

// resolver turns lir.Expr trees into node trees, resolving Refs via a
// name-qualification function supplied by the compiler (join current
// instance prefix with the authored name).
type resolver struct {
	table   *symtab.SymbolTable
	qualify func(string) string
	bbWidth func(inst, pin string) (int, bool)
}

func (r *resolver) resolve(e *lir.Expr) *node {
	switch e.Kind {
	case lir.RefExpr:
		sym := r.table.MustGet(r.qualify(e.Ref))
		return &node{kind: lir.RefExpr, ref: sym.ID, width: sym.Width, signed: sym.Signed}
	case lir.LitExpr:
		return &node{
			kind: lir.LitExpr, lit: e.Literal,
			litW: int(e.LiteralType.Width), litS: e.LiteralType.Signed,
			width: int(e.LiteralType.Width), signed: e.LiteralType.Signed,
		}
	case lir.BlackBoxOutputExpr:
		w, signed := 32, false
		if r.bbWidth != nil {
			if bw, ok := r.bbWidth(e.BlackBoxInst, e.OutputPin); ok {
				w = bw
			}
		}
		return &node{kind: lir.BlackBoxOutputExpr, bbInst: e.BlackBoxInst, bbPin: e.OutputPin, width: w, signed: signed}
	default:
		args := make([]*node, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.resolve(a)
		}
		n := &node{kind: lir.OpExpr, op: e.Op, args: args, hi: e.Hi, lo: e.Lo}
		n.width, n.signed = inferWidth(n)
		return n
	}
}

func inferWidth(n *node) (int, bool) {
	a := n.args
	switch n.op {
	case lir.OpBits:
		return n.hi - n.lo + 1, false
	case lir.OpCat:
		return a[0].width + a[1].width, false
	case lir.OpHead:
		return n.hi, false
	case lir.OpTail:
		return n.hi, false
	case lir.OpAsUInt:
		return a[0].width, false
	case lir.OpAsSInt:
		return a[0].width, true
	case lir.OpAsClock:
		return 1, false
	case lir.OpNot:
		return a[0].width, a[0].signed
	case lir.OpEq, lir.OpNeq, lir.OpLtU, lir.OpLtS, lir.OpLeU, lir.OpLeS,
		lir.OpGtU, lir.OpGtS, lir.OpGeU, lir.OpGeS:
		return 1, false
	case lir.OpMux:
		w := maxInt(a[1].width, a[2].width)
		return w, a[1].signed && a[2].signed
	case lir.OpValidIf:
		return a[1].width, a[1].signed
	case lir.OpShl:
		return a[0].width + int(a[1].lit.Int64()), a[0].signed
	case lir.OpShr:
		w := a[0].width - int(a[1].lit.Int64())
		if w < 1 {
			w = 1
		}
		return w, a[0].signed
	case lir.OpDynShl, lir.OpDynShr:
		return a[0].width, a[0].signed
	case lir.OpAdd, lir.OpSub, lir.OpMul:
		w := maxInt(a[0].width, a[1].width) + 1
		return w, a[0].signed || a[1].signed
	default: // And/Or/Xor/DivU/DivS/RemU/RemS
		w := a[0].width
		if len(a) > 1 && a[1].width > w {
			w = a[1].width
		}
		return w, a[0].signed || (len(a) > 1 && a[1].signed)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
