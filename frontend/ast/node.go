package ast

import (
	"encoding/binary"
	"hash/fnv"
)

// Node is the base interface for all surface AST nodes.
type Node interface {
	Positioner
	Hash() uint64
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// Type is a surface type or permission expression, §2: value types,
// anchored/structural permissions, function arrows, quantifiers, and
// the `and`/`=>` constraint forms, before translation into core.Type.
type Type interface {
	Node
	typeNode()
}

// Pattern is a match/let-binding pattern: a variable, a data
// constructor with sub-patterns, or a wildcard.
type Pattern interface {
	Node
	patternNode()
}

// File is one parsed module: its declarations in source order.
type File struct {
	Range
	ModuleName   string
	Opens        []Open
	Declarations []Declaration
}

func (f *File) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("File")
	_, _ = h.Write([]byte(f.ModuleName))
	arr = binary.LittleEndian.AppendUint64(arr, f.Range.Hash())
	for _, o := range f.Opens {
		arr = binary.LittleEndian.AppendUint64(arr, o.Hash())
	}
	for _, d := range f.Declarations {
		arr = binary.LittleEndian.AppendUint64(arr, d.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// Open is a module dependency: `open Module.Path`.
type Open struct {
	Range
	ModuleName string
}

func (o Open) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("Open"))
	_, _ = h.Write([]byte(o.ModuleName))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, o.Range.Hash()))
	return h.Sum64()
}

// Declaration is a top-level binding: a value (`val`), a data-type
// group (`data ... and ...`), an abstract type, or an interface
// signature block (§2, §6).
type Declaration interface {
	Node
	declNode()
	Hash() uint64
}

// ValDecl is `val name [: Type] = Expr`.
type ValDecl struct {
	Range
	Name    string
	TypeAnn Type // nil when omitted
	Value   Expr
}

func (ValDecl) declNode() {}
func (d *ValDecl) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ValDecl")
	_, _ = h.Write([]byte(d.Name))
	arr = binary.LittleEndian.AppendUint64(arr, d.Range.Hash())
	if d.TypeAnn != nil {
		arr = binary.LittleEndian.AppendUint64(arr, d.TypeAnn.Hash())
	}
	if d.Value != nil {
		arr = binary.LittleEndian.AppendUint64(arr, d.Value.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// DataBranch is one data-constructor of a data-type definition, §4.3.
type DataBranch struct {
	Range
	Datacon    string
	Fields     []FieldDecl
	Mutable    bool
}

func (b DataBranch) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("DataBranch" + b.Datacon)
	for _, f := range b.Fields {
		arr = binary.LittleEndian.AppendUint64(arr, f.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

type FieldDecl struct {
	Range
	Name string
	Type Type
}

func (f FieldDecl) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("FieldDecl" + f.Name)
	if f.Type != nil {
		arr = binary.LittleEndian.AppendUint64(arr, f.Type.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// DataDecl is one `data Name(params) = Branch1 | Branch2 ...`, possibly
// mutually recursive with other DataDecls sharing the `Group` id.
type DataDecl struct {
	Range
	Name      string
	Params    []string
	Abstract  bool // `abstract` data type: no branches given here
	Exclusive bool // declared exclusive/mutable
	AdoptsClause Type // nil if the group does not adopt
	Branches  []DataBranch
	Group     int // declarations sharing a `and` form share a Group id
}

func (DataDecl) declNode() {}
func (d *DataDecl) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("DataDecl" + d.Name)
	for _, p := range d.Params {
		_, _ = h.Write([]byte(p))
	}
	for _, b := range d.Branches {
		arr = binary.LittleEndian.AppendUint64(arr, b.Hash())
	}
	if d.AdoptsClause != nil {
		arr = binary.LittleEndian.AppendUint64(arr, d.AdoptsClause.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// AbstractTypeDecl declares a type with no known representation,
// carrying only a fact (§4.2).
type AbstractTypeDecl struct {
	Range
	Name   string
	Arity  int
	Fact   string // "duplicable", "exclusive", "affine", or "" (unknown -> defaults to affine)
}

func (AbstractTypeDecl) declNode() {}
func (d *AbstractTypeDecl) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("AbstractTypeDecl" + d.Name + d.Fact))
	_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, uint64(d.Arity)))
	return h.Sum64()
}

// InterfaceDecl declares the signature block a module's implementation
// must be checked against (§6): one TypeAnn per exported name.
type InterfaceDecl struct {
	Range
	Signatures []ValDecl
}

func (InterfaceDecl) declNode() {}
func (d *InterfaceDecl) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("InterfaceDecl")
	for _, s := range d.Signatures {
		arr = binary.LittleEndian.AppendUint64(arr, s.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}
