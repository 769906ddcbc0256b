package driver

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/mezzolang/mezzo/checker/ilerr"
)

// FormatDiagnostic renders one user-visible line for an error: its
// resolved source span, its code, and its message (§7 "one diagnostic
// per error, with source span, the rule that fired ..."). When explain
// is set and e carries a non-empty derivation tree, the tree is
// appended beneath it.
func FormatDiagnostic(fset *token.FileSet, e ilerr.IleError, explain bool) string {
	pos := fset.Position(e.Pos())
	line := fmt.Sprintf("%s: %s", pos, ilerr.FormatWithCode(e))
	if !explain {
		return line
	}
	hasDerivation, ok := e.(ilerr.HasDerivation)
	if !ok {
		return line
	}
	d := hasDerivation.DerivationTree()
	if d.Rule == "" {
		return line
	}
	return line + "\n" + indent(ilerr.RenderDerivation(d), "  ")
}

// FormatDiagnostics renders every error in errs, one per line (plus
// any derivation trees), for the driver's top-level error report.
func FormatDiagnostics(fset *token.FileSet, errs *ilerr.Errors, explain bool) string {
	var b strings.Builder
	for _, e := range errs.Errors() {
		b.WriteString(FormatDiagnostic(fset, e, explain))
		b.WriteString("\n")
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
