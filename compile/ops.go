package compile

import (
	"math/big"

	"github.com/sarchlab/lirsim/lir"
	"github.com/sarchlab/lirsim/store"
)

// evalContext supplies everything a node's evaluation needs besides
// the node tree itself.
type evalContext struct {
	ds        *store.DataStore
	symWidth  func(ID) (int, bool, store.SizeClass, int) // width, signed, class, dataIndex
	blackBox        func(inst, pin string) *big.Int
	divByZero       func()                              // hook invoked on divide/remainder by zero
	memOOB          func(mem ID, addr int64, depth int) // hook invoked on an out-of-range memory address
	validIfIsRandom bool
	randomBits      func(width int, signed bool) *big.Int
}

func (n *node) eval(ctx *evalContext) *big.Int {
	switch n.kind {
	case lir.RefExpr:
		w, signed, class, idx := ctx.symWidth(n.ref)
		return ctx.ds.ReadAtIndex(class, idx, 0, w, signed)
	case lir.LitExpr:
		return store.Normalize(n.lit, n.litW, n.litS)
	case lir.BlackBoxOutputExpr:
		v := ctx.blackBox(n.bbInst, n.bbPin)
		if v == nil {
			return big.NewInt(0)
		}
		return store.Normalize(v, n.width, n.signed)
	case kindMemRead:
		if n.enable != nil && n.enable.eval(ctx).Sign() == 0 {
			return big.NewInt(0)
		}
		rawAddr := n.addr.eval(ctx).Int64()
		addr := clampMemAddr(n.memID, rawAddr, n.memDepth, ctx.memOOB)
		return ctx.ds.ReadAtIndex(n.memClass, n.memBase+addr, 0, n.width, n.signed)
	default:
		return n.evalOp(ctx)
	}
}

var zero = big.NewInt(0)
var one = big.NewInt(1)

func boolBig(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func (n *node) evalOp(ctx *evalContext) *big.Int {
	a := n.args
	switch n.op {
	case lir.OpAnd:
		return new(big.Int).And(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpOr:
		return new(big.Int).Or(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpXor:
		return new(big.Int).Xor(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpNot:
		mask := new(big.Int).Sub(new(big.Int).Lsh(one, uint(a[0].width)), one)
		return new(big.Int).Xor(a[0].eval(ctx), mask)
	case lir.OpShl:
		amt := a[1].lit.Int64()
		return new(big.Int).Lsh(a[0].eval(ctx), uint(amt))
	case lir.OpShr:
		amt := a[1].lit.Int64()
		return new(big.Int).Rsh(a[0].eval(ctx), uint(amt))
	case lir.OpDynShl:
		amt := a[1].eval(ctx)
		return new(big.Int).Lsh(a[0].eval(ctx), uint(amt.Uint64()))
	case lir.OpDynShr:
		amt := a[1].eval(ctx)
		return new(big.Int).Rsh(a[0].eval(ctx), uint(amt.Uint64()))
	case lir.OpAdd:
		return new(big.Int).Add(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpSub:
		return new(big.Int).Sub(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpMul:
		return new(big.Int).Mul(a[0].eval(ctx), a[1].eval(ctx))
	case lir.OpDivU, lir.OpDivS:
		x, y := a[0].eval(ctx), a[1].eval(ctx)
		if y.Sign() == 0 {
			if ctx.divByZero != nil {
				ctx.divByZero()
			}
			return big.NewInt(0)
		}
		return new(big.Int).Quo(x, y)
	case lir.OpRemU, lir.OpRemS:
		x, y := a[0].eval(ctx), a[1].eval(ctx)
		if y.Sign() == 0 {
			if ctx.divByZero != nil {
				ctx.divByZero()
			}
			return big.NewInt(0)
		}
		return new(big.Int).Rem(x, y)
	case lir.OpEq:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) == 0)
	case lir.OpNeq:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) != 0)
	case lir.OpLtU, lir.OpLtS:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) < 0)
	case lir.OpLeU, lir.OpLeS:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) <= 0)
	case lir.OpGtU, lir.OpGtS:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) > 0)
	case lir.OpGeU, lir.OpGeS:
		return boolBig(a[0].eval(ctx).Cmp(a[1].eval(ctx)) >= 0)
	case lir.OpBits:
		v := a[0].eval(ctx)
		shifted := new(big.Int).Rsh(v, uint(n.lo))
		mask := new(big.Int).Sub(new(big.Int).Lsh(one, uint(n.hi-n.lo+1)), one)
		return new(big.Int).And(shifted, mask)
	case lir.OpCat:
		x, y := a[0].eval(ctx), a[1].eval(ctx)
		shifted := new(big.Int).Lsh(x, uint(a[1].width))
		return new(big.Int).Or(shifted, y)
	case lir.OpHead:
		v := a[0].eval(ctx)
		shifted := new(big.Int).Rsh(v, uint(a[0].width-n.hi))
		mask := new(big.Int).Sub(new(big.Int).Lsh(one, uint(n.hi)), one)
		return new(big.Int).And(shifted, mask)
	case lir.OpTail:
		v := a[0].eval(ctx)
		mask := new(big.Int).Sub(new(big.Int).Lsh(one, uint(n.hi)), one)
		return new(big.Int).And(v, mask)
	case lir.OpMux:
		sel := a[0].eval(ctx)
		if sel.Sign() != 0 {
			return a[1].eval(ctx)
		}
		return a[2].eval(ctx)
	case lir.OpAsUInt, lir.OpAsSInt, lir.OpAsClock:
		return a[0].eval(ctx)
	case lir.OpValidIf:
		if a[0].eval(ctx).Sign() != 0 {
			return a[1].eval(ctx)
		}
		if ctx.validIfIsRandom && ctx.randomBits != nil {
			return ctx.randomBits(n.width, n.signed)
		}
		return zero
	default:
		return zero
	}
}
