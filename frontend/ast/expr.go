package ast

import (
	"encoding/binary"
	"hash/fnv"
)

var (
	_ Expr = (*VarExpr)(nil)
	_ Expr = (*IntLit)(nil)
	_ Expr = (*BoolLit)(nil)
	_ Expr = (*StringLit)(nil)
	_ Expr = (*TupleExpr)(nil)
	_ Expr = (*ConstructExpr)(nil)
	_ Expr = (*FieldAccessExpr)(nil)
	_ Expr = (*AssignExpr)(nil)
	_ Expr = (*AppExpr)(nil)
	_ Expr = (*LambdaExpr)(nil)
	_ Expr = (*LetExpr)(nil)
	_ Expr = (*LetRecExpr)(nil)
	_ Expr = (*SeqExpr)(nil)
	_ Expr = (*IfExpr)(nil)
	_ Expr = (*MatchExpr)(nil)
	_ Expr = (*GiveExpr)(nil)
	_ Expr = (*TakeExpr)(nil)
	_ Expr = (*OwnsExpr)(nil)
	_ Expr = (*FailExpr)(nil)
	_ Expr = (*TypeAscExpr)(nil)
)

type VarExpr struct {
	Range
	Name string
}

func (VarExpr) exprNode() {}
func (e *VarExpr) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("VarExpr" + e.Name))
	return h.Sum64()
}

type IntLit struct {
	Range
	Value int64
}

func (IntLit) exprNode() {}
func (e *IntLit) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("IntLit"))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, uint64(e.Value)))
	return h.Sum64()
}

type BoolLit struct {
	Range
	Value bool
}

func (BoolLit) exprNode() {}
func (e *BoolLit) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("BoolLit"))
	if e.Value {
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

type StringLit struct {
	Range
	Value string
}

func (StringLit) exprNode() {}
func (e *StringLit) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("StringLit" + e.Value))
	return h.Sum64()
}

type TupleExpr struct {
	Range
	Elems []Expr
}

func (TupleExpr) exprNode() {}
func (e *TupleExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("TupleExpr")
	for _, el := range e.Elems {
		arr = binary.LittleEndian.AppendUint64(arr, el.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// ConstructExpr builds a value of a data-constructor: `Datacon { f1 = e1; f2 = e2 }`.
type ConstructExpr struct {
	Range
	Datacon string
	Fields  []FieldInit
}

type FieldInit struct {
	Name  string
	Value Expr
}

func (ConstructExpr) exprNode() {}
func (e *ConstructExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ConstructExpr" + e.Datacon)
	for _, f := range e.Fields {
		arr = append(arr, []byte(f.Name)...)
		arr = binary.LittleEndian.AppendUint64(arr, f.Value.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// FieldAccessExpr reads x.field, requiring a permission for x with that field.
type FieldAccessExpr struct {
	Range
	Receiver Expr
	Field    string
}

func (FieldAccessExpr) exprNode() {}
func (e *FieldAccessExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("FieldAccessExpr"+e.Field), e.Receiver.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// AssignExpr writes x.field <- value, requiring an Exclusive permission
// on x's structural type (§4.7 "assign").
type AssignExpr struct {
	Range
	Receiver Expr
	Field    string
	Value    Expr
}

func (AssignExpr) exprNode() {}
func (e *AssignExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("AssignExpr"+e.Field), e.Receiver.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Value.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type AppExpr struct {
	Range
	Func Expr
	Arg  Expr
}

func (AppExpr) exprNode() {}
func (e *AppExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("AppExpr"), e.Func.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Arg.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// LambdaExpr is `fun (p: T | perm) : Codomain = Body`, §2.
type LambdaExpr struct {
	Range
	Param       Pattern
	ParamType   Type // nil if the parameter is unannotated (to be inferred as flexible)
	ParamPerm   Type // nil when no extra permission is requested alongside Param
	ReturnType  Type // nil when inferred
	Body        Expr
}

func (LambdaExpr) exprNode() {}
func (e *LambdaExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("LambdaExpr"), e.Param.Hash())
	if e.ParamType != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.ParamType.Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, e.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type LetExpr struct {
	Range
	Pattern Pattern
	Value   Expr
	Body    Expr
}

func (LetExpr) exprNode() {}
func (e *LetExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("LetExpr"), e.Pattern.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Value.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// LetRecExpr is `let rec f = fun ... and g = fun ... in Body`, a group
// of mutually-recursive function bindings (§4.7).
type LetRecExpr struct {
	Range
	Names  []string
	Values []Expr
	Body   Expr
}

func (LetRecExpr) exprNode() {}
func (e *LetRecExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("LetRecExpr")
	for i, n := range e.Names {
		arr = append(arr, []byte(n)...)
		arr = binary.LittleEndian.AppendUint64(arr, e.Values[i].Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, e.Body.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type SeqExpr struct {
	Range
	First, Second Expr
}

func (SeqExpr) exprNode() {}
func (e *SeqExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("SeqExpr"), e.First.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Second.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

type IfExpr struct {
	Range
	Cond, Then, Else Expr
}

func (IfExpr) exprNode() {}
func (e *IfExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("IfExpr"), e.Cond.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Then.Hash())
	if e.Else != nil {
		arr = binary.LittleEndian.AppendUint64(arr, e.Else.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

type MatchCase struct {
	Pattern Pattern
	Body    Expr
}

type MatchExpr struct {
	Range
	Scrutinee Expr
	Cases     []MatchCase
}

func (MatchExpr) exprNode() {}
func (e *MatchExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("MatchExpr"), e.Scrutinee.Hash())
	for _, c := range e.Cases {
		arr = binary.LittleEndian.AppendUint64(arr, c.Pattern.Hash())
		arr = binary.LittleEndian.AppendUint64(arr, c.Body.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// GiveExpr is `give x to y`: x, an adoptable permission, is consumed and
// folded into y's adopts-clause set (§4.7).
type GiveExpr struct {
	Range
	Adoptee, Adopter Expr
}

func (GiveExpr) exprNode() {}
func (e *GiveExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("GiveExpr"), e.Adoptee.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Adopter.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// TakeExpr is `take x from y`: dynamically checked, y must currently
// have adopted x; x's type becomes Dynamic until refined by a match.
type TakeExpr struct {
	Range
	Adoptee, Adopter Expr
}

func (TakeExpr) exprNode() {}
func (e *TakeExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("TakeExpr"), e.Adoptee.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Adopter.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// OwnsExpr is `x owns y`, a boolean runtime test of adoption (§4.7).
type OwnsExpr struct {
	Range
	Adopter, Adoptee Expr
}

func (OwnsExpr) exprNode() {}
func (e *OwnsExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("OwnsExpr"), e.Adopter.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Adoptee.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// FailExpr is `fail`: an expression of type Bottom, never returns.
type FailExpr struct{ Range }

func (FailExpr) exprNode() {}
func (e *FailExpr) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("FailExpr"))
	return h.Sum64()
}

// TypeAscExpr is `(Expr : Type)`; the checker resolves Type and passes
// it down as Expr's expected type (§4.7 "check").
type TypeAscExpr struct {
	Range
	Value Expr
	Type  Type
}

func (TypeAscExpr) exprNode() {}
func (e *TypeAscExpr) Hash() uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte("TypeAscExpr"), e.Value.Hash())
	arr = binary.LittleEndian.AppendUint64(arr, e.Type.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}
