package core

// Flavor declared on a data-type definition itself (§4.3): whether the
// group is immutable, with duplicability following its fields (the
// "bitwise" case), or exclusive — `mutable` in source translates to
// DataExclusive, the heap-allocated, always-Exclusive, always-Invariant
// concept.
type DataFlavor uint8

const (
	DataImmutable DataFlavor = iota
	DataExclusive
)

// Variance records how a data-type group's parameter position relates
// to subtyping of the whole (§4.4 rule 7, "Application vs application").
type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
	Bivariant
)

// Param is one of a data-type group's own parameters: its kind (almost
// always Type) and its variance, computed once per group by
// checker.InferVariance, after the group's facts are inferred (§9
// "composition of variances").
type Param struct {
	Binding  Binding
	Variance Variance
}

// DataDefinition is a data-type group: one or more branches sharing a
// name and parameter list, §4.3. The branches are stored as plain
// ConcreteTypes, with BoundType referencing each of the group's
// parameters by position inside each branch.
type DataDefinition struct {
	Name     string
	Head     VarID
	Params   []Param
	Flavor   DataFlavor
	Branches []ConcreteType
	AdoptsOk bool // declares "adopts" on at least one branch
}

func (d *DataDefinition) String() string {
	return d.Name
}

// Instantiate substitutes args for the group's parameters (outermost
// first) across every branch, producing the branch set as it is seen at
// an AppType(d.Head, args).
func (d *DataDefinition) Instantiate(args []Type) []ConcreteType {
	out := make([]ConcreteType, len(d.Branches))
	for i, branch := range d.Branches {
		t := Type(branch)
		for j := len(args) - 1; j >= 0; j-- {
			t = Subst(t, j, args[j])
		}
		out[i] = t.(ConcreteType)
	}
	return out
}
