package checker_test

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezzolang/mezzo/checker"
	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/frontend"
	"github.com/mezzolang/mezzo/parser"
)

// builtins mirrors driver/builtins/core.mz's ref declaration, plus a
// nullary unit type these tests use as ref's payload — the pipeline
// has no name bound for the "int" surface type outside a real compiled
// module (only its literal-expression head is pre-registered), so a
// self-declared type stands in for it here.
const builtins = `
data unit = Unit
mutable data ref a = Ref {contents:a}
`

// checkSource parses src (prefixed with builtins) and runs it through
// KindCheck, Translate and Check, returning the errors Translate
// accumulated over every val declared in src (nil when all checked).
func checkSource(t *testing.T, src string) *ilerr.Errors {
	t.Helper()
	fset := token.NewFileSet()
	file, perrs := parser.Parse(fset, "test.mz", builtins+src)
	require.Nilf(t, perrs, "parse error: %v", perrs)

	kinded, errs := frontend.KindCheck(file, nil)
	require.Falsef(t, errs.HasError(), "kind-check error: %v", errs.Errors())

	_, errs = frontend.Translate(checker.NewCheckingEnv(), kinded)
	return errs
}

// TestScenario2ExclusiveRefCapture is spec.md §8 scenario 2: reading
// and sequentially mutating an exclusive ref through its own name
// succeeds, but capturing that same exclusive permission inside a
// closure fails, since a lambda's body only keeps the duplicable part
// of its enclosing environment.
func TestScenario2ExclusiveRefCapture(t *testing.T) {
	t.Run("read then mutate", func(t *testing.T) {
		res := checkSource(t, `
val ok1 = let r = Ref{contents=Unit{}} in let x = r.contents in r.contents <- Unit{}
`)
		assert.False(t, res.HasError(), "%v", res.Errors())
	})

	t.Run("sequential mutation", func(t *testing.T) {
		res := checkSource(t, `
val ok2 = let r = Ref{contents=Unit{}} in (r.contents <- Unit{}; r.contents <- Unit{})
`)
		assert.False(t, res.HasError(), "%v", res.Errors())
	})

	t.Run("closure capture fails", func(t *testing.T) {
		res := checkSource(t, `
val bad = let r = Ref{contents=Unit{}} in let f = fun () -> r.contents <- Unit{} in f()
`)
		assert.True(t, res.HasError(), "capturing an exclusive ref in a closure must be rejected")
	})
}

// TestScenario5AdoptTakeCycle is spec.md §8 scenario 5: a type that
// adopts ref unit can give a ref unit away, consuming r's own
// permission, and later take it back from y, recovering
// r @ ref unit.
func TestScenario5AdoptTakeCycle(t *testing.T) {
	res := checkSource(t, `
mutable data box = Box adopts ref(unit)
val ok = let y = Box{} in let r = Ref{contents=Unit{}} in (give r to y; take r from y)
`)
	assert.False(t, res.HasError(), "%v", res.Errors())
}

// TestScenario5GiveWithoutAdoptsClauseFails guards the negative side:
// giving to a value whose type declares no adopts clause must be
// rejected, not silently accepted.
func TestScenario5GiveWithoutAdoptsClauseFails(t *testing.T) {
	res := checkSource(t, `
val bad = let y = Unit{} in let r = Ref{contents=Unit{}} in give r to y
`)
	assert.True(t, res.HasError(), "giving to a non-adopting value must fail")
}

// TestDataFieldArrowResolvesGroupParameter guards a data field whose
// type reaches the group's own parameter through a compound form
// rather than a bare reference or a TypeApp/tuple. Previously only
// TypeApp and tuple field types threaded the group's parameters
// through to BoundType; any other form (here, an arrow on both sides
// of the field list) fell through to a lookup against the checking
// environment, which has never heard of the group's own parameter
// name, and failed with a spurious undefined-variable error on an
// otherwise valid declaration.
func TestDataFieldArrowResolvesGroupParameter(t *testing.T) {
	res := checkSource(t, `
data cell a = Cell {get: () -> a; set: a -> ()}
`)
	assert.False(t, res.HasError(), "%v", res.Errors())
}

// TestUnknownAscriptionIsTop is the surface-syntax side of "T <: Unknown":
// a value ascribed `unknown` must check. Check does not subtract an
// ascription from its value, so this exercises parsing and resolving
// `unknown` as a type; `checker.TestUnknownIsTop` covers the
// subtraction rule for core.UnknownType directly.
func TestUnknownAscriptionIsTop(t *testing.T) {
	res := checkSource(t, `
val u = (Unit{} : unknown)
`)
	assert.False(t, res.HasError(), "%v", res.Errors())
}
