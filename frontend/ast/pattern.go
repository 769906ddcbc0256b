package ast

import (
	"encoding/binary"
	"hash/fnv"
)

var (
	_ Pattern = (*VarPattern)(nil)
	_ Pattern = (*WildcardPattern)(nil)
	_ Pattern = (*TuplePattern)(nil)
	_ Pattern = (*ConstructPattern)(nil)
)

type VarPattern struct {
	Range
	Name string
}

func (VarPattern) patternNode() {}
func (p *VarPattern) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("VarPattern" + p.Name))
	return h.Sum64()
}

// WildcardPattern is `_`: the final, mandatory discard case of a
// `when`/`match` (§7 non-exhaustiveness check).
type WildcardPattern struct{ Range }

func (WildcardPattern) patternNode() {}
func (p *WildcardPattern) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("WildcardPattern"))
	return h.Sum64()
}

type TuplePattern struct {
	Range
	Elems []Pattern
}

func (TuplePattern) patternNode() {}
func (p *TuplePattern) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("TuplePattern")
	for _, e := range p.Elems {
		arr = binary.LittleEndian.AppendUint64(arr, e.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// ConstructPattern matches a specific data-constructor, binding each
// field sub-pattern; matching refines the scrutinee's permission to
// ConcreteType(Datacon, ...) in each case branch (§4.7 "match").
type ConstructPattern struct {
	Range
	Datacon string
	Fields  []FieldPattern
}

type FieldPattern struct {
	Name    string
	Pattern Pattern
}

func (ConstructPattern) patternNode() {}
func (p *ConstructPattern) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("ConstructPattern" + p.Datacon)
	for _, f := range p.Fields {
		arr = append(arr, []byte(f.Name)...)
		arr = binary.LittleEndian.AppendUint64(arr, f.Pattern.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}
