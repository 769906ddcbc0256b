package ast

import (
	"encoding/binary"
	"hash/fnv"
	"strings"
)

var (
	_ Type = (*TypeVarRef)(nil)
	_ Type = (*TypeApp)(nil)
	_ Type = (*TupleTypeExpr)(nil)
	_ Type = (*ArrowTypeExpr)(nil)
	_ Type = (*ForallTypeExpr)(nil)
	_ Type = (*ExistsTypeExpr)(nil)
	_ Type = (*AnchoredTypeExpr)(nil)
	_ Type = (*StarTypeExpr)(nil)
	_ Type = (*EmptyTypeExpr)(nil)
	_ Type = (*AndTypeExpr)(nil)
	_ Type = (*ImplyTypeExpr)(nil)
	_ Type = (*DynamicTypeExpr)(nil)
	_ Type = (*UnknownTypeExpr)(nil)
)

// TypeVarRef names a type variable in scope: a quantifier's bound
// name, a data-type's own parameter, or an abstract type name.
type TypeVarRef struct {
	Range
	Name string
}

func (TypeVarRef) typeNode() {}
func (t *TypeVarRef) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("TypeVarRef" + t.Name))
	return h.Sum64()
}

// TypeApp is a named type applied to arguments, e.g. `list(int)`.
type TypeApp struct {
	Range
	Name string
	Args []Type
}

func (TypeApp) typeNode() {}
func (t *TypeApp) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("TypeApp" + t.Name)
	for _, a := range t.Args {
		arr = binary.LittleEndian.AppendUint64(arr, a.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

type TupleTypeExpr struct {
	Range
	Fields []Type
}

func (TupleTypeExpr) typeNode() {}
func (t *TupleTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("TupleTypeExpr")
	for _, f := range t.Fields {
		arr = binary.LittleEndian.AppendUint64(arr, f.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

type ArrowTypeExpr struct {
	Range
	Domain, Codomain Type
}

func (ArrowTypeExpr) typeNode() {}
func (t *ArrowTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("ArrowTypeExpr"), t.Domain.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, t.Codomain.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// QuantifierKind distinguishes Term/Type/Perm kind annotations written
// on a quantifier, §2/§3.
type QuantifierKind string

const (
	KindTerm QuantifierKind = "term"
	KindType QuantifierKind = "type"
	KindPerm QuantifierKind = "perm"
)

type ForallTypeExpr struct {
	Range
	VarName string
	Kind    QuantifierKind
	Body    Type
}

func (ForallTypeExpr) typeNode() {}
func (t *ForallTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ForallTypeExpr" + t.VarName + string(t.Kind))
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type ExistsTypeExpr struct {
	Range
	VarName string
	Kind    QuantifierKind
	Body    Type
}

func (ExistsTypeExpr) typeNode() {}
func (t *ExistsTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ExistsTypeExpr" + t.VarName + string(t.Kind))
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// AnchoredTypeExpr is `x @ T`, a permission anchored on a program
// variable rather than a core.VarID (resolved to one during translation).
type AnchoredTypeExpr struct {
	Range
	VarName string
	Type    Type
}

func (AnchoredTypeExpr) typeNode() {}
func (t *AnchoredTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("AnchoredTypeExpr" + t.VarName)
	arr = binary.LittleEndian.AppendUint64(arr, t.Type.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type StarTypeExpr struct {
	Range
	Left, Right Type
}

func (StarTypeExpr) typeNode() {}
func (t *StarTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("StarTypeExpr"), t.Left.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, t.Right.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type EmptyTypeExpr struct{ Range }

func (EmptyTypeExpr) typeNode() {}
func (t *EmptyTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("EmptyTypeExpr"))
	return h.Sum64()
}

type DynamicTypeExpr struct{ Range }

func (DynamicTypeExpr) typeNode() {}
func (t *DynamicTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("DynamicTypeExpr"))
	return h.Sum64()
}

// UnknownTypeExpr is the surface `unknown` keyword: the Top leaf of
// the subtyping lattice, distinct from `dynamic`.
type UnknownTypeExpr struct{ Range }

func (UnknownTypeExpr) typeNode() {}
func (t *UnknownTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("UnknownTypeExpr"))
	return h.Sum64()
}

// ConstraintExpr is one `duplicable T` / `exclusive T` clause of an
// `and`/`=>` type.
type ConstraintExpr struct {
	Range
	Exclusive bool
	Type      Type
}

func (c ConstraintExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ConstraintExpr")
	if c.Exclusive {
		arr = append(arr, 1)
	}
	arr = binary.LittleEndian.AppendUint64(arr, c.Type.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type AndTypeExpr struct {
	Range
	Constraints []ConstraintExpr
	Body        Type
}

func (AndTypeExpr) typeNode() {}
func (t *AndTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("AndTypeExpr")
	for _, c := range t.Constraints {
		arr = binary.LittleEndian.AppendUint64(arr, c.Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type ImplyTypeExpr struct {
	Range
	Constraints []ConstraintExpr
	Body        Type
}

func (ImplyTypeExpr) typeNode() {}
func (t *ImplyTypeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ImplyTypeExpr")
	for _, c := range t.Constraints {
		arr = binary.LittleEndian.AppendUint64(arr, c.Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// String renders a type expression approximately, for diagnostics; not
// used by the checker itself, which renders core.Type instead.
func (t *TypeApp) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		if s, ok := a.(interface{ String() string }); ok {
			parts[i] = s.String()
		}
	}
	return t.Name + "(" + strings.Join(parts, ", ") + ")"
}
