package ilerr

import "strings"

// Derivation records one step of an attempted sub_type derivation
// (§4.4): the rule that was tried, the type it was tried against, and
// the sub-derivations for its premises. A failed leaf has no
// premises; its Expected/Actual describe the specific mismatch. §7
// requires derivation trees to be "optionally" rendered; RenderDerivation
// is the plain-text renderer the --explain flag turns on.
type Derivation struct {
	Rule     string
	Expected string
	Actual   string
	Premises []Derivation
}

// HasDerivation is implemented by the error kinds that can attach an
// S-derivation tree to their diagnostic; the driver's --explain
// formatting checks for it with a type assertion.
type HasDerivation interface {
	DerivationTree() Derivation
}

// RenderDerivation writes d as an indented plain-text tree, one rule
// per line, most specific failure first.
func RenderDerivation(d Derivation) string {
	var b strings.Builder
	renderDerivation(&b, d, 0)
	return b.String()
}

func renderDerivation(b *strings.Builder, d Derivation, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(d.Rule)
	if d.Expected != "" || d.Actual != "" {
		b.WriteString(": expected ")
		b.WriteString(d.Expected)
		b.WriteString(", have ")
		b.WriteString(d.Actual)
	}
	b.WriteString("\n")
	for _, p := range d.Premises {
		renderDerivation(b, p, depth+1)
	}
}
