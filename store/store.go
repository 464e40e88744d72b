// Package store implements the flat, typed data arena spec.md's
// DataStore describes: three parallel arenas keyed by size class,
// each with N rollback buffers, reachable by raw (class, index) pairs.
//
// Grounded on zeonica/operand-impl/register.go's per-width register
// implementations (URegister/IRegister/FRegister each own their storage
// and normalize on Push/Retrieve the same way); DataStore generalizes
// that one-register-per-type idea into a shared arena so the compiler
// can allocate a dense, contiguous index space instead of one struct
// per symbol.
package store

import "math/big"

// SizeClass partitions symbols by how much storage their width needs.
type SizeClass int

const (
	Narrow    SizeClass = iota // width <= 64: a plain uint64 word
	Wide                       // 64 < width <= 128: two uint64 words
	Arbitrary                  // width > 128: math/big.Int
)

const (
	narrowMaxWidth = 64
	wideMaxWidth   = 128
)

// ClassifyWidth picks the size class a symbol of the given width
// belongs in.
func ClassifyWidth(width int) SizeClass {
	switch {
	case width <= narrowMaxWidth:
		return Narrow
	case width <= wideMaxWidth:
		return Wide
	default:
		return Arbitrary
	}
}

type wideWord struct{ lo, hi uint64 }

// arena is one size class's rollback ring: numBuffers slices of slots.
type arena struct {
	narrow [][]uint64
	wide   [][]wideWord
	big    [][]*big.Int
}

// DataStore is the engine's flat arena of typed integer slots.
//
// Buffer 0 is always "current". AdvanceBuffers rotates which physical
// slice that logical index maps to and copies the outgoing current
// buffer's values into the newly-exposed one, so every slot's value
// carries forward unchanged until something writes it again; only the
// identity of the physical buffer backing each logical offset moves.
// This keeps earlier_value(k) O(1) per read while guaranteeing that a
// value written in one cycle and never rewritten is still visible at
// offset 0 in the next.
type DataStore struct {
	numBuffers int
	current    int // physical index of the logical-current buffer

	narrow [][]uint64
	wide   [][]wideWord
	big    [][]*big.Int

	narrowLen, wideLen, bigLen int
}

// New creates a DataStore with the given rollback depth. numBuffers
// must be >= 1; buffer depth 1 means no rollback history at all.
func New(numBuffers int) *DataStore {
	if numBuffers < 1 {
		numBuffers = 1
	}
	return &DataStore{numBuffers: numBuffers}
}

// Reserve grows the named size class's arenas by n slots and returns
// the base index of the newly reserved run. Called once per symbol
// during SymbolTable.allocate_data.
func (d *DataStore) Reserve(class SizeClass, n int) int {
	switch class {
	case Narrow:
		base := d.narrowLen
		d.growNarrow(n)
		return base
	case Wide:
		base := d.wideLen
		d.growWide(n)
		return base
	default:
		base := d.bigLen
		d.growBig(n)
		return base
	}
}

func (d *DataStore) growNarrow(n int) {
	if d.narrow == nil {
		d.narrow = make([][]uint64, d.numBuffers)
	}
	for i := range d.narrow {
		d.narrow[i] = append(d.narrow[i], make([]uint64, n)...)
	}
	d.narrowLen += n
}

func (d *DataStore) growWide(n int) {
	if d.wide == nil {
		d.wide = make([][]wideWord, d.numBuffers)
	}
	for i := range d.wide {
		d.wide[i] = append(d.wide[i], make([]wideWord, n)...)
	}
	d.wideLen += n
}

func (d *DataStore) growBig(n int) {
	if d.big == nil {
		d.big = make([][]*big.Int, d.numBuffers)
	}
	fresh := make([]*big.Int, n)
	for i := range fresh {
		fresh[i] = new(big.Int)
	}
	for i := range d.big {
		row := append(d.big[i], fresh...)
		// every buffer needs its own big.Int instances, not shared ones
		if i > 0 {
			for j := d.bigLen; j < len(row); j++ {
				row[j] = new(big.Int)
			}
		}
		d.big[i] = row
	}
	d.bigLen += n
}

// NumBuffers reports the configured rollback depth.
func (d *DataStore) NumBuffers() int { return d.numBuffers }

// CurrentBufferIndex reports which physical buffer is logically current.
func (d *DataStore) CurrentBufferIndex() int { return d.current }

// PreviousBufferIndex reports the physical buffer that was current
// before the last AdvanceBuffers call.
func (d *DataStore) PreviousBufferIndex() int { return d.physical(1) }

func (d *DataStore) physical(offset int) int {
	return (d.current + offset) % d.numBuffers
}

// AdvanceBuffers rotates the logical buffer indices: the current
// buffer becomes buffer 1 (yesterday), and a previously-oldest buffer
// is exposed as the new current buffer 0. The outgoing current
// buffer's values are copied into the newly-exposed one so a slot
// that nothing writes this cycle still reads back its last value at
// offset 0; history at offsets >= 1 is left untouched.
func (d *DataStore) AdvanceBuffers() {
	outgoing := d.current
	d.current = (d.current - 1 + d.numBuffers) % d.numBuffers
	if d.current == outgoing {
		return
	}

	if d.narrow != nil {
		copy(d.narrow[d.current], d.narrow[outgoing])
	}
	if d.wide != nil {
		copy(d.wide[d.current], d.wide[outgoing])
	}
	if d.big != nil {
		for i, v := range d.big[outgoing] {
			d.big[d.current][i].Set(v)
		}
	}
}

// ReadAtIndex reads slot index of the given size class at buffer
// offset k (0 = current), normalized to width/signed.
func (d *DataStore) ReadAtIndex(class SizeClass, index, k int, width int, signed bool) *big.Int {
	buf := d.physical(k)
	switch class {
	case Narrow:
		return normalize(new(big.Int).SetUint64(d.narrow[buf][index]), width, signed)
	case Wide:
		w := d.wide[buf][index]
		v := new(big.Int).Lsh(new(big.Int).SetUint64(w.hi), 64)
		v.Or(v, new(big.Int).SetUint64(w.lo))
		return normalize(v, width, signed)
	default:
		return normalize(new(big.Int).Set(d.big[buf][index]), width, signed)
	}
}

// WriteAtIndex writes value into slot index of the given size class
// in the current buffer, masked and normalized to width/signed.
func (d *DataStore) WriteAtIndex(class SizeClass, index int, width int, signed bool, value *big.Int) {
	masked := mask(value, width)
	switch class {
	case Narrow:
		d.narrow[d.current][index] = masked.Uint64()
	case Wide:
		lo := new(big.Int).And(masked, maxUint64)
		hi := new(big.Int).Rsh(masked, 64)
		d.wide[d.current][index] = wideWord{lo: lo.Uint64(), hi: hi.Uint64()}
	default:
		d.big[d.current][index].Set(masked)
	}
}

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// mask reduces v to its canonical unsigned representation in [0, 2^w).
func mask(v *big.Int, width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	r := new(big.Int).Mod(v, m)
	if r.Sign() < 0 {
		r.Add(r, m)
	}
	return r
}

// normalize reduces v to [0, 2^w) and, if signed, re-expresses values
// with the top bit set as negative two's-complement.
func normalize(v *big.Int, width int, signed bool) *big.Int {
	masked := mask(v, width)
	if !signed {
		return masked
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	if masked.Cmp(half) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(width))
		masked.Sub(masked, full)
	}
	return masked
}

// Normalize exposes the width/signedness normalization rule used
// throughout the arena so compile and engine can apply it to freshly
// computed values before writing them, per spec's "normalizes it to
// the output's width" requirement.
func Normalize(v *big.Int, width int, signed bool) *big.Int {
	return normalize(new(big.Int).Set(v), width, signed)
}
