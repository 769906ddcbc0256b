package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mezzolang/mezzo/frontend/ast"
)

// Transpile renders expr as a Go expression string against the helper
// vocabulary in Preamble, so an end-to-end test can run the same
// checked program through both Eval and `yaegi.Interp` on the
// transpiled source and compare the two results. It exists solely for
// that cross-check; nothing in the type-and-permission core calls it.
func Transpile(expr Expr) (string, error) {
	var b strings.Builder
	if err := transpile(&b, expr); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Preamble is the Go source yaegi must have in scope before evaluating
// a Transpile result: a tiny runtime built on interface{}/map[string]
// interface{}/[]interface{} values, mirroring the shapes Eval itself
// produces (UnitValue, TupleValue, RecordValue) so the two evaluators
// are comparing like with like rather than two unrelated encodings.
const Preamble = `
type mzRecord struct {
	Datacon string
	Fields  map[string]interface{}
	Adopted map[interface{}]bool
}

func mzGive(adoptee, adopter interface{}) interface{} {
	adopter.(*mzRecord).Adopted[adoptee] = true
	return struct{}{}
}

func mzTake(adoptee, adopter interface{}) interface{} {
	delete(adopter.(*mzRecord).Adopted, adoptee)
	return struct{}{}
}

func mzOwns(adopter, adoptee interface{}) interface{} {
	return adopter.(*mzRecord).Adopted[adoptee]
}
`

func transpile(b *strings.Builder, expr Expr) error {
	switch e := expr.(type) {
	case *ast.IntLit:
		fmt.Fprintf(b, "int64(%d)", e.Value)
	case *ast.BoolLit:
		fmt.Fprintf(b, "%t", e.Value)
	case *ast.StringLit:
		fmt.Fprintf(b, "%s", strconv.Quote(e.Value))

	case *ast.VarExpr:
		fmt.Fprintf(b, "%s", mzIdent(e.Name))

	case *ast.TupleExpr:
		if len(e.Elems) == 0 {
			b.WriteString("struct{}{}")
			return nil
		}
		b.WriteString("[]interface{}{")
		for i, el := range e.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := transpile(b, el); err != nil {
				return err
			}
		}
		b.WriteString("}")

	case *ast.ConstructExpr:
		fmt.Fprintf(b, "&mzRecord{Datacon: %s, Adopted: map[interface{}]bool{}, Fields: map[string]interface{}{", strconv.Quote(e.Datacon))
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", strconv.Quote(f.Name))
			if err := transpile(b, f.Value); err != nil {
				return err
			}
		}
		b.WriteString("}}")

	case *ast.FieldAccessExpr:
		b.WriteString("(")
		if err := transpile(b, e.Receiver); err != nil {
			return err
		}
		fmt.Fprintf(b, ").(*mzRecord).Fields[%s]", strconv.Quote(e.Field))

	case *ast.AssignExpr:
		b.WriteString("func() interface{} { (")
		if err := transpile(b, e.Receiver); err != nil {
			return err
		}
		fmt.Fprintf(b, ").(*mzRecord).Fields[%s] = ", strconv.Quote(e.Field))
		if err := transpile(b, e.Value); err != nil {
			return err
		}
		b.WriteString("; return struct{}{} }()")

	case *ast.AppExpr:
		b.WriteString("(interface{}(")
		if err := transpile(b, e.Func); err != nil {
			return err
		}
		b.WriteString(")).(func(interface{}) interface{})(")
		if err := transpile(b, e.Arg); err != nil {
			return err
		}
		b.WriteString(")")

	case *ast.LambdaExpr:
		name, ok := simplePatternName(e.Param)
		if !ok {
			return fmt.Errorf("backend: transpile only supports a simple variable or wildcard lambda parameter")
		}
		fmt.Fprintf(b, "func(%s interface{}) interface{} { _ = %s; return ", name, name)
		if err := transpile(b, e.Body); err != nil {
			return err
		}
		b.WriteString(" }")

	case *ast.LetExpr:
		name, ok := simplePatternName(e.Pattern)
		if !ok {
			return fmt.Errorf("backend: transpile only supports a simple variable or wildcard let pattern")
		}
		fmt.Fprintf(b, "func() interface{} { %s := ", name)
		if err := transpile(b, e.Value); err != nil {
			return err
		}
		fmt.Fprintf(b, "; _ = %s; return ", name)
		if err := transpile(b, e.Body); err != nil {
			return err
		}
		b.WriteString(" }()")

	case *ast.LetRecExpr:
		b.WriteString("func() interface{} {\n")
		for _, name := range e.Names {
			fmt.Fprintf(b, "var %s interface{}\n", mzIdent(name))
		}
		for i, name := range e.Names {
			fmt.Fprintf(b, "%s = ", mzIdent(name))
			if err := transpile(b, e.Values[i]); err != nil {
				return err
			}
			b.WriteString("\n")
		}
		b.WriteString("return ")
		if err := transpile(b, e.Body); err != nil {
			return err
		}
		b.WriteString("\n}()")

	case *ast.SeqExpr:
		b.WriteString("func() interface{} { _ = ")
		if err := transpile(b, e.First); err != nil {
			return err
		}
		b.WriteString("; return ")
		if err := transpile(b, e.Second); err != nil {
			return err
		}
		b.WriteString(" }()")

	case *ast.IfExpr:
		b.WriteString("func() interface{} { if interface{}(")
		if err := transpile(b, e.Cond); err != nil {
			return err
		}
		b.WriteString(").(bool) { return ")
		if err := transpile(b, e.Then); err != nil {
			return err
		}
		b.WriteString(" }; return ")
		if err := transpile(b, e.Else); err != nil {
			return err
		}
		b.WriteString(" }()")

	case *ast.MatchExpr:
		return fmt.Errorf("backend: transpile does not support match; cross-check covers match-free programs only")

	case *ast.GiveExpr:
		b.WriteString("mzGive(")
		if err := transpile(b, e.Adoptee); err != nil {
			return err
		}
		b.WriteString(", ")
		if err := transpile(b, e.Adopter); err != nil {
			return err
		}
		b.WriteString(")")

	case *ast.TakeExpr:
		b.WriteString("mzTake(")
		if err := transpile(b, e.Adoptee); err != nil {
			return err
		}
		b.WriteString(", ")
		if err := transpile(b, e.Adopter); err != nil {
			return err
		}
		b.WriteString(")")

	case *ast.OwnsExpr:
		b.WriteString("mzOwns(")
		if err := transpile(b, e.Adopter); err != nil {
			return err
		}
		b.WriteString(", ")
		if err := transpile(b, e.Adoptee); err != nil {
			return err
		}
		b.WriteString(")")

	case *ast.FailExpr:
		b.WriteString(`func() interface{} { panic("fail") }()`)

	case *ast.TypeAscExpr:
		return transpile(b, e.Value)

	default:
		return fmt.Errorf("backend: transpile does not support %T", expr)
	}
	return nil
}

// simplePatternName reports the bound name of a pattern Transpile can
// render directly as a Go parameter or local variable: transpiled code
// runs flat Go functions, which have no destructuring-bind syntax for
// the tuple and constructor patterns Eval's matchPattern handles.
func simplePatternName(p ast.Pattern) (string, bool) {
	switch p := p.(type) {
	case *ast.VarPattern:
		return mzIdent(p.Name), true
	case *ast.WildcardPattern:
		return "_mzUnused", true
	default:
		return "", false
	}
}

// mzIdent prefixes a surface name so it can never collide with a Go
// keyword or one of the preamble's own identifiers.
func mzIdent(name string) string {
	return "mz_" + name
}
