// Package backend is the small tree-walking interpreter the checker's
// static discipline sits in front of: it erases every permission and
// simply runs a checked expression to a value. Nothing here re-checks
// anything the checker already decided.
package backend

import (
	"fmt"

	"github.com/mezzolang/mezzo/core"
	"github.com/mezzolang/mezzo/frontend/ast"
)

// Expr and Pattern are the surface-tree types the evaluator walks;
// aliased here so the rest of this package reads as backend-native
// vocabulary rather than importing ast and core everywhere.
type Expr = core.Expr
type Pattern = ast.Pattern

// Value is the tagged sum of runtime values a checked program can
// produce. Like core.Type, it is a closed variant set inspected by
// type-switch rather than a deep interface hierarchy.
type Value interface {
	isValue()
	String() string
}

var (
	_ Value = IntValue(0)
	_ Value = BoolValue(false)
	_ Value = StringValue("")
	_ Value = UnitValue{}
	_ Value = (*TupleValue)(nil)
	_ Value = (*RecordValue)(nil)
	_ Value = (*ClosureValue)(nil)
)

type IntValue int64

func (IntValue) isValue()          {}
func (v IntValue) String() string  { return fmt.Sprintf("%d", int64(v)) }

type BoolValue bool

func (BoolValue) isValue()         {}
func (v BoolValue) String() string { return fmt.Sprintf("%t", bool(v)) }

type StringValue string

func (StringValue) isValue()         {}
func (v StringValue) String() string { return string(v) }

// UnitValue is the value of the empty tuple, `()`.
type UnitValue struct{}

func (UnitValue) isValue()       {}
func (UnitValue) String() string { return "()" }

// TupleValue is a heap-allocated tuple; allocated as a pointer so an
// AssignExpr on one of its fields (permitted only through a wrapping
// RecordValue in practice, since tuples themselves have no Exclusive
// facts) would still observe shared aliasing if ever reached that way.
type TupleValue struct {
	Elems []Value
}

func (*TupleValue) isValue() {}
func (v *TupleValue) String() string {
	s := "("
	for i, e := range v.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// RecordValue is a data-constructor value. Fields is mutable so
// AssignExpr on an Exclusive-fact record is a real in-place write:
// every alias of the same *RecordValue observes the write, matching
// the permission discipline's notion of a single exclusive owner.
type RecordValue struct {
	Datacon string
	Fields  map[string]Value
	// Adopted holds every value currently given to this record via
	// GiveExpr; TakeExpr removes from it, OwnsExpr queries it.
	Adopted map[Value]bool
}

func (*RecordValue) isValue() {}
func (v *RecordValue) String() string {
	s := v.Datacon + "{"
	first := true
	for name, val := range v.Fields {
		if !first {
			s += "; "
		}
		first = false
		s += name + "=" + val.String()
	}
	return s + "}"
}

// ClosureValue is a function value: the lambda's declared parameter
// pattern and body, closed over the environment it was built in.
type ClosureValue struct {
	Param Pattern
	Body  Expr
	Env   *RuntimeEnv
}

func (*ClosureValue) isValue()       {}
func (*ClosureValue) String() string { return "<closure>" }
