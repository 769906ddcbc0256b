package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezzolang/mezzo/core"
)

// declareListGroup registers the single-parameter self-recursive
// `list` data group: Nil | Cons {head:a; tail:list a}.
func declareListGroup(e *Env) (*Env, core.VarID) {
	next, head := e.BindRigid("list", core.TypeKind{})
	next = next.BindName("list", head)
	def := &core.DataDefinition{
		Name:   "list",
		Head:   head,
		Params: []core.Param{{Binding: core.Binding{NameHint: "a", Kind: core.TypeKind{}}}},
		Flavor: core.DataImmutable,
		Branches: []core.ConcreteType{
			{Datacon: "Nil"},
			{Datacon: "Cons", Fields: []core.Field{
				{Name: "head", Type: core.BoundType{Index: 0}},
				{Name: "tail", Type: core.AppType{Head: head, Args: []core.Type{core.BoundType{Index: 0}}}},
			}},
		},
	}
	next = next.DeclareDataDefinition(head, def)
	defs := map[core.VarID]*core.DataDefinition{head: def}
	next = InferGroupFacts(next, []core.VarID{head}, defs)
	InferVariance(next, []core.VarID{head}, defs)
	return next, head
}

// declareRefGroup registers `mutable data ref a = Ref {contents:a}`.
func declareRefGroup(e *Env) (*Env, core.VarID) {
	next, head := e.BindRigid("ref", core.TypeKind{})
	next = next.BindName("ref", head)
	def := &core.DataDefinition{
		Name:   "ref",
		Head:   head,
		Params: []core.Param{{Binding: core.Binding{NameHint: "a", Kind: core.TypeKind{}}}},
		Flavor: core.DataExclusive,
		Branches: []core.ConcreteType{
			{Datacon: "Ref", Fields: []core.Field{
				{Name: "contents", Type: core.BoundType{Index: 0}},
			}},
		},
	}
	next = next.DeclareDataDefinition(head, def)
	defs := map[core.VarID]*core.DataDefinition{head: def}
	next = InferGroupFacts(next, []core.VarID{head}, defs)
	InferVariance(next, []core.VarID{head}, defs)
	return next, head
}

// TestScenario1DuplicableList is spec.md §8 scenario 1: `list` is
// duplicable-if-(a); list int is duplicable, list (ref int) is affine.
func TestScenario1DuplicableList(t *testing.T) {
	e := NewCheckingEnv()
	e, listHead := declareListGroup(e)
	e, refHead := declareRefGroup(e)

	def, found := e.DataDefinition(listHead)
	require.True(t, found)
	require.Len(t, def.Params, 1)
	assert.Equal(t, core.Covariant, def.Params[0].Variance, "list should be covariant in its element")

	listInt := core.AppType{Head: listHead, Args: []core.Type{core.AppType{Head: HeadInt}}}
	assert.True(t, IsDuplicable(e, listInt), "list int should be duplicable")

	listRefInt := core.AppType{Head: listHead, Args: []core.Type{
		core.AppType{Head: refHead, Args: []core.Type{core.AppType{Head: HeadInt}}},
	}}
	assert.False(t, IsDuplicable(e, listRefInt), "list (ref int) should be affine")
}

// TestFactOfBoundTypeIsMasked is the narrower regression this scenario
// depends on: a bare reference to a group's own parameter must record
// a mask bit, not collapse the whole group to Affine.
func TestFactOfBoundTypeIsMasked(t *testing.T) {
	e := NewCheckingEnv()
	f := FactOf(e, core.BoundType{Index: 2})
	require.Equal(t, FactDuplicable, f.Kind)
	require.NotNil(t, f.Mask)
	assert.True(t, f.Mask.Contains(2))
	assert.Equal(t, 1, f.Mask.Size())
}

// TestInferGroupFactsExclusiveSkipsWorklist covers the mutable-data
// half of scenario 2: a `mutable data` group is Exclusive outright,
// independent of its field types.
func TestInferGroupFactsExclusiveSkipsWorklist(t *testing.T) {
	e := NewCheckingEnv()
	e, refHead := declareRefGroup(e)
	assert.True(t, IsExclusive(e, core.AppType{Head: refHead, Args: []core.Type{core.AppType{Head: HeadInt}}}))
}

// TestInferGroupFactsConvergesWithinBound is the §8 universal
// invariant "F's fact table is monotone under rounds and reaches a
// fixed point in <= (|defs| x max-arity + 1) rounds" for the
// self-recursive list group, checked by re-running the worklist and
// requiring it to be idempotent (a fixed point, once reached, is
// stable).
func TestInferGroupFactsConvergesWithinBound(t *testing.T) {
	e := NewCheckingEnv()
	e, listHead := declareListGroup(e)
	def, _ := e.DataDefinition(listHead)
	defs := map[core.VarID]*core.DataDefinition{listHead: def}

	again := InferGroupFacts(e, []core.VarID{listHead}, defs)
	f1, ok1 := e.facts.Get(listHead)
	f2, ok2 := again.facts.Get(listHead)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.True(t, factEqual(f1, f2), "re-running the worklist at a fixed point must not change the result")
}
