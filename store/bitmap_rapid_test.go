package store

import (
	"testing"

	"pgregory.net/rapid"
)

const rapidUniverse = 256

func genBitmap(t *rapid.T, label string) *Bitmap {
	count := rapid.IntRange(0, rapidUniverse).Draw(t, label+"Count").(int)
	b := NewBitmap(rapidUniverse)
	for i := 0; i < count; i++ {
		id := rapid.IntRange(0, rapidUniverse-1).Draw(t, label).(int)
		b.Set(EntityID(id))
	}
	return b
}

// TestBitmapOrIsCommutative checks a ∨ b == b ∨ a across random sets,
// the minimal sanity property for the boolean algebra OnTrue/queries.go
// builds on.
func TestBitmapOrIsCommutative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genBitmap(t, "a")
		b := genBitmap(t, "b")

		left := a.Or(b)
		right := b.Or(a)
		for i := EntityID(0); i < rapidUniverse; i++ {
			if left.Test(i) != right.Test(i) {
				t.Fatalf("Or not commutative at id %d", i)
			}
		}
	})
}

// TestBitmapAndIsSubsetOfBoth checks a ∧ b is always a subset of both
// a and b.
func TestBitmapAndIsSubsetOfBoth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genBitmap(t, "a")
		b := genBitmap(t, "b")

		and := a.And(b)
		for i := EntityID(0); i < rapidUniverse; i++ {
			if and.Test(i) && (!a.Test(i) || !b.Test(i)) {
				t.Fatalf("And(%d) set but not present in both operands", i)
			}
		}
	})
}

// TestBitmapXorMatchesDeMorgan checks a ⊕ b == (a ∨ b) ∧ ¬(a ∧ b).
func TestBitmapXorMatchesDeMorgan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genBitmap(t, "a")
		b := genBitmap(t, "b")

		xor := a.Xor(b)
		want := a.Or(b).And(a.And(b).Not(rapidUniverse))
		for i := EntityID(0); i < rapidUniverse; i++ {
			if xor.Test(i) != want.Test(i) {
				t.Fatalf("Xor disagreed with De Morgan expansion at id %d", i)
			}
		}
	})
}

// TestBitmapNotIsInvolutive checks ¬¬a == a over the same universe
// length.
func TestBitmapNotIsInvolutive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genBitmap(t, "a")
		doubleNot := a.Not(rapidUniverse).Not(rapidUniverse)
		for i := EntityID(0); i < rapidUniverse; i++ {
			if a.Test(i) != doubleNot.Test(i) {
				t.Fatalf("double negation disagreed at id %d", i)
			}
		}
	})
}
