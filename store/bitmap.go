package store

import "github.com/bits-and-blooms/bitset"

// Bitmap is a dense, growable set of EntityIDs, backing the presence
// tracking every shared and per-system kind needs. It wraps
// bits-and-blooms/bitset rather than hand-rolling a word array.
type Bitmap struct {
	bits *bitset.BitSet
}

// NewBitmap returns an empty bitmap sized to hold at least n entity
// ids without an immediate grow.
func NewBitmap(n uint) *Bitmap {
	return &Bitmap{bits: bitset.New(n)}
}

// Set marks id present.
func (b *Bitmap) Set(id EntityID) { b.bits.Set(uint(id)) }

// Clear marks id absent.
func (b *Bitmap) Clear(id EntityID) { b.bits.Clear(uint(id)) }

// Test reports whether id is present.
func (b *Bitmap) Test(id EntityID) bool { return b.bits.Test(uint(id)) }

// Count returns the number of set bits.
func (b *Bitmap) Count() uint { return b.bits.Count() }

// Clone returns an independent copy.
func (b *Bitmap) Clone() *Bitmap { return &Bitmap{bits: b.bits.Clone()} }

// Each calls f once per set bit, in ascending EntityID order, stopping
// early if f returns false. This is the ordered-enumeration primitive
// the OnTrue query in queries.go builds on.
func (b *Bitmap) Each(f func(EntityID) bool) {
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		if !f(EntityID(i)) {
			return
		}
	}
}

// And returns the bitwise AND of b and other, padding the shorter
// operand with zero bits so neither set silently truncates the other.
func (b *Bitmap) And(other *Bitmap) *Bitmap {
	return &Bitmap{bits: b.bits.Intersection(other.bits)}
}

// Or returns the bitwise OR of b and other.
func (b *Bitmap) Or(other *Bitmap) *Bitmap {
	return &Bitmap{bits: b.bits.Union(other.bits)}
}

// Xor returns the bitwise XOR of b and other.
func (b *Bitmap) Xor(other *Bitmap) *Bitmap {
	return &Bitmap{bits: b.bits.SymmetricDifference(other.bits)}
}

// Not returns the complement of b up to length bits.
func (b *Bitmap) Not(length uint) *Bitmap {
	out := bitset.New(length)
	for i := uint(0); i < length; i++ {
		if !b.bits.Test(i) {
			out.Set(i)
		}
	}
	return &Bitmap{bits: out}
}
