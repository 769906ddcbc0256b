package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mezzolang/mezzo/core"
)

func intPair() core.Type {
	intApp := core.AppType{Head: HeadInt}
	return core.TupleType{Fields: []core.Type{intApp, intApp}}
}

// TestScenario3ArrowContravariance is spec.md §8 scenario 3:
// sub_type(Arrow(Tuple[int;int], int), Arrow(Tuple[int;int], unknown))
// succeeds; swapping the two sides fails, since an arrow only widens
// its codomain and narrows its domain, never the reverse.
func TestScenario3ArrowContravariance(t *testing.T) {
	e := NewCheckingEnv()

	narrow := core.ArrowType{Domain: intPair(), Codomain: core.AppType{Head: HeadInt}}
	wide := core.ArrowType{Domain: intPair(), Codomain: core.UnknownType{}}

	_, ok := SubType(e, narrow, wide)
	assert.True(t, ok, "an arrow returning int should be a sub-permission of one returning unknown")

	_, ok = SubType(e, wide, narrow)
	assert.False(t, ok, "an arrow returning unknown must not be a sub-permission of one returning int")
}

// TestUnknownIsTop exercises the "T <: Unknown" universal invariant
// (§8's "T is Top") that scenario 3's codomain widening relies on.
func TestUnknownIsTop(t *testing.T) {
	e := NewCheckingEnv()
	_, ok := SubType(e, core.AppType{Head: HeadBool}, core.UnknownType{})
	assert.True(t, ok)
}

// TestSubTypeIncompatiblePrimitivesFails guards the termination of
// rule 9 (the add_sub dance): two structurally-incompatible plain
// values that reach the bottom of the rule list must fail, not loop.
func TestSubTypeIncompatiblePrimitivesFails(t *testing.T) {
	e := NewCheckingEnv()
	_, ok := SubType(e, core.AppType{Head: HeadInt}, core.AppType{Head: HeadBool})
	assert.False(t, ok)
}

// TestAsBarDecomposesStarIntoPerm is the narrow regression for the
// asBar fix: a StarPerm carries no value of its own, so it must land
// entirely in Perm position, never re-wrapped as its own Value (which
// would make addSubDance's first SubType call recurse on the same star
// forever).
func TestAsBarDecomposesStarIntoPerm(t *testing.T) {
	star := core.StarPerm{Left: core.EmptyPerm{}, Right: core.EmptyPerm{}}
	bar, ok := asBar(star)
	assert.True(t, ok)
	assert.Equal(t, core.Type(core.EmptyPerm{}), bar.Value)
}

// TestSubTypeBareStarTerminates guards rule 9 against a bare StarPerm
// on either side (e.g. a `.mzi` val annotated `empty * empty`, with no
// Bar wrapping it at all, as reached by the driver's interface
// post-check). t1 and t2 differ enough that rule 2's trivial-equality
// shortcut cannot fire, so this only terminates if asBar actually
// decomposes the star instead of re-presenting the same star as its
// own Value on every recursive call.
func TestSubTypeBareStarTerminates(t *testing.T) {
	e := NewCheckingEnv()
	t1 := core.StarPerm{Left: core.EmptyPerm{}, Right: core.EmptyPerm{}}
	t2 := core.Type(core.EmptyPerm{})

	_, ok := SubType(e, t1, t2)
	assert.True(t, ok)
}
