package backend

import (
	"testing"

	"github.com/mezzolang/mezzo/frontend/ast"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
)

// crossCheck runs expr through both Eval and Transpile+yaegi and
// asserts the two independent evaluators agree on the same well-typed
// input.
func crossCheck(t *testing.T, expr Expr, wantGo interface{}) {
	t.Helper()

	gotEval, err := Eval(expr, nil)
	require.NoError(t, err)

	src, err := Transpile(expr)
	require.NoError(t, err)

	i := interp.New(interp.Options{})
	_, err = i.Eval(Preamble)
	require.NoError(t, err)

	res, err := i.Eval(src)
	require.NoError(t, err, "transpiled source:\n%s", src)

	require.Equal(t, wantGo, res.Interface())
	require.Equal(t, wantGo, goValueOf(t, gotEval))
}

// goValueOf converts an Eval result to the plain Go value the
// equivalent transpiled expression produces under yaegi, so the two
// sides of crossCheck can be compared with a single require.Equal.
func goValueOf(t *testing.T, v Value) interface{} {
	t.Helper()
	switch v := v.(type) {
	case IntValue:
		return int64(v)
	case BoolValue:
		return bool(v)
	case StringValue:
		return string(v)
	default:
		t.Fatalf("goValueOf: unsupported value %T", v)
		return nil
	}
}

func TestCrossCheckLiterals(t *testing.T) {
	crossCheck(t, &ast.IntLit{Value: 3}, int64(3))
	crossCheck(t, &ast.BoolLit{Value: true}, true)
	crossCheck(t, &ast.StringLit{Value: "hi"}, "hi")
}

func TestCrossCheckIf(t *testing.T) {
	expr := &ast.IfExpr{
		Cond: &ast.BoolLit{Value: false},
		Then: &ast.IntLit{Value: 1},
		Else: &ast.IntLit{Value: 2},
	}
	crossCheck(t, expr, int64(2))
}

func TestCrossCheckLet(t *testing.T) {
	expr := &ast.LetExpr{
		Pattern: &ast.VarPattern{Name: "x"},
		Value:   &ast.BoolLit{Value: true},
		Body:    &ast.VarExpr{Name: "x"},
	}
	crossCheck(t, expr, true)
}

func TestCrossCheckLambdaApp(t *testing.T) {
	expr := &ast.AppExpr{
		Func: &ast.LambdaExpr{Param: &ast.VarPattern{Name: "x"}, Body: &ast.VarExpr{Name: "x"}},
		Arg:  &ast.StringLit{Value: "hello"},
	}
	crossCheck(t, expr, "hello")
}

func TestCrossCheckSeq(t *testing.T) {
	expr := &ast.SeqExpr{
		First:  &ast.BoolLit{Value: false},
		Second: &ast.IntLit{Value: 9},
	}
	crossCheck(t, expr, int64(9))
}

func TestCrossCheckLetRec(t *testing.T) {
	expr := &ast.LetRecExpr{
		Names: []string{"id"},
		Values: []ast.Expr{
			&ast.LambdaExpr{Param: &ast.VarPattern{Name: "x"}, Body: &ast.VarExpr{Name: "x"}},
		},
		Body: &ast.AppExpr{Func: &ast.VarExpr{Name: "id"}, Arg: &ast.IntLit{Value: 5}},
	}
	crossCheck(t, expr, int64(5))
}
