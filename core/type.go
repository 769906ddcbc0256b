package core

import (
	"fmt"
	"strings"
)

// VarID identifies a variable bound in a checker.Env. The core package
// treats it as an opaque handle; only checker.Env knows what a VarID's
// kind, names, locations or permission list are (§3 "Variables").
type VarID uint64

func (id VarID) String() string { return fmt.Sprintf("v%d", uint64(id)) }

// Type is the tagged sum of §3: leaves, quantifiers, application,
// structurals, singleton, arrow, and permissions. All of kind Type or
// Perm. There is deliberately no Go interface hierarchy beyond this one
// marker method — every operation on Type is a free function doing a
// type-switch (§9 "Variant types vs deep inheritance").
type Type interface {
	isType()
	String() string
}

var (
	_ Type = UnknownType{}
	_ Type = DynamicType{}
	_ Type = BoundType{}
	_ Type = OpenType{}
	_ Type = ForallType{}
	_ Type = ExistsType{}
	_ Type = AppType{}
	_ Type = TupleType{}
	_ Type = ConcreteType{}
	_ Type = SingletonType{}
	_ Type = ArrowType{}
	_ Type = AnchoredPerm{}
	_ Type = StarPerm{}
	_ Type = EmptyPerm{}
	_ Type = BarType{}
	_ Type = AndType{}
	_ Type = ImplyType{}
)

// ---- leaves ----

// UnknownType is Top: every type is a sub-permission of Unknown.
type UnknownType struct{}

func (UnknownType) isType()        {}
func (UnknownType) String() string { return "unknown" }

// DynamicType witnesses a value whose run-time identity is known but
// whose static type has been forgotten (used by take/owns, §4.7).
type DynamicType struct{}

func (DynamicType) isType()        {}
func (DynamicType) String() string { return "dynamic" }

// BoundType is a de-Bruijn index. It must never appear in a fully
// opened permission (§3 invariant 5).
type BoundType struct{ Index int }

func (BoundType) isType()        {}
func (t BoundType) String() string { return fmt.Sprintf("#%d", t.Index) }

// OpenType references a variable already bound in the environment.
type OpenType struct{ Var VarID }

func (OpenType) isType()        {}
func (t OpenType) String() string { return t.Var.String() }

// ---- quantifiers ----

// Flavor controls whether a user type application may instantiate a
// quantifier's bound variable (§3).
type Flavor uint8

const (
	CanInstantiate Flavor = iota
	CannotInstantiate
)

// Binding is the name hint, kind, and flavor carried by a quantifier.
type Binding struct {
	NameHint string
	Kind     Kind
	Flavor   Flavor
}

type ForallType struct {
	Binding Binding
	Body    Type
}

func (ForallType) isType() {}
func (t ForallType) String() string {
	return fmt.Sprintf("forall %s: %s. %s", t.Binding.NameHint, t.Binding.Kind, t.Body)
}

type ExistsType struct {
	Binding Binding
	Body    Type
}

func (ExistsType) isType() {}
func (t ExistsType) String() string {
	return fmt.Sprintf("exists %s: %s. %s", t.Binding.NameHint, t.Binding.Kind, t.Body)
}

// ---- application ----

// AppType is a defined type applied to arguments; Head names a
// type-kinded variable carrying a DataDefinition.
type AppType struct {
	Head VarID
	Args []Type
}

func (AppType) isType() {}
func (t AppType) String() string {
	if len(t.Args) == 0 {
		return t.Head.String()
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Head, strings.Join(parts, ", "))
}

// ---- structurals ----

type TupleType struct {
	Fields []Type
}

func (TupleType) isType() {}
func (t TupleType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Field is either a named value-field of some type, or an anonymous
// permission carried alongside the data-constructor's fields.
type Field struct {
	Name         string
	Type         Type
	IsPermission bool
}

func (f Field) String() string {
	if f.IsPermission {
		return f.Type.String()
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// ConcreteType is a fully-applied data-constructor permission:
// "this value is a Datacon with these fields", optionally adopting a
// heap object of type Adopts.
type ConcreteType struct {
	Datacon string
	Fields  []Field
	Adopts  Type // nil when there is no adopts clause
}

func (ConcreteType) isType() {}
func (t ConcreteType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	s := fmt.Sprintf("%s{%s}", t.Datacon, strings.Join(parts, "; "))
	if t.Adopts != nil {
		s += fmt.Sprintf(" adopts %s", t.Adopts)
	}
	return s
}

// ---- singleton ----

// SingletonType, of kind Type when Value is of kind Term, means
// "the value equal to Value".
type SingletonType struct {
	Value Type
}

func (SingletonType) isType()        {}
func (t SingletonType) String() string { return "=" + t.Value.String() }

// ---- arrow ----

type ArrowType struct {
	Domain, Codomain Type
}

func (ArrowType) isType() {}
func (t ArrowType) String() string {
	return fmt.Sprintf("(%s -> %s)", t.Domain, t.Codomain)
}

// ---- permissions ----

// AnchoredPerm is "x has type T".
type AnchoredPerm struct {
	Var  VarID
	Type Type
}

func (AnchoredPerm) isType() {}
func (t AnchoredPerm) String() string {
	return fmt.Sprintf("%s @ %s", t.Var, t.Type)
}

type StarPerm struct {
	Left, Right Type
}

func (StarPerm) isType() {}
func (t StarPerm) String() string {
	return fmt.Sprintf("(%s * %s)", t.Left, t.Right)
}

type EmptyPerm struct{}

func (EmptyPerm) isType()        {}
func (EmptyPerm) String() string { return "empty" }

// BarType combines a value type with an attached permission:
// "T, with the extra permission p available alongside it".
type BarType struct {
	Value, Perm Type
}

func (BarType) isType() {}
func (t BarType) String() string {
	return fmt.Sprintf("(%s | %s)", t.Value, t.Perm)
}

// ConstraintKind is Duplicable or Exclusive, the two kinds of fact
// constraint an And/Imply type may request of a type.
type ConstraintKind uint8

const (
	ConstraintDuplicable ConstraintKind = iota
	ConstraintExclusive
)

func (k ConstraintKind) String() string {
	if k == ConstraintExclusive {
		return "exclusive"
	}
	return "duplicable"
}

type Constraint struct {
	Kind ConstraintKind
	Type Type
}

func (c Constraint) String() string { return fmt.Sprintf("%s %s", c.Kind, c.Type) }

type AndType struct {
	Constraints []Constraint
	Body        Type
}

func (AndType) isType() {}
func (t AndType) String() string {
	parts := make([]string, len(t.Constraints))
	for i, c := range t.Constraints {
		parts[i] = c.String()
	}
	return fmt.Sprintf("(%s and %s)", t.Body, strings.Join(parts, ", "))
}

type ImplyType struct {
	Constraints []Constraint
	Body        Type
}

func (ImplyType) isType() {}
func (t ImplyType) String() string {
	parts := make([]string, len(t.Constraints))
	for i, c := range t.Constraints {
		parts[i] = c.String()
	}
	return fmt.Sprintf("(%s => %s)", strings.Join(parts, ", "), t.Body)
}
