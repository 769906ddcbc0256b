package backend

import (
	"testing"

	"github.com/mezzolang/mezzo/frontend/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalLiterals(t *testing.T) {
	v, err := Eval(&ast.IntLit{Value: 42}, nil)
	require.NoError(t, err)
	assert.Equal(t, IntValue(42), v)

	v, err = Eval(&ast.BoolLit{Value: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)

	v, err = Eval(&ast.StringLit{Value: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, StringValue("hi"), v)
}

func TestEvalUnitAndTuple(t *testing.T) {
	v, err := Eval(&ast.TupleExpr{}, nil)
	require.NoError(t, err)
	assert.Equal(t, UnitValue{}, v)

	v, err = Eval(&ast.TupleExpr{Elems: []ast.Expr{
		&ast.IntLit{Value: 1},
		&ast.BoolLit{Value: false},
	}}, nil)
	require.NoError(t, err)
	tup, ok := v.(*TupleValue)
	require.True(t, ok)
	assert.Equal(t, []Value{IntValue(1), BoolValue(false)}, tup.Elems)
}

func TestEvalRecordConstructAccessAssign(t *testing.T) {
	// let r = Ref{contents=1} in r.contents <- 2; r.contents
	body := &ast.SeqExpr{
		First: &ast.AssignExpr{
			Receiver: &ast.VarExpr{Name: "r"},
			Field:    "contents",
			Value:    &ast.IntLit{Value: 2},
		},
		Second: &ast.FieldAccessExpr{
			Receiver: &ast.VarExpr{Name: "r"},
			Field:    "contents",
		},
	}
	let := &ast.LetExpr{
		Pattern: &ast.VarPattern{Name: "r"},
		Value: &ast.ConstructExpr{
			Datacon: "Ref",
			Fields:  []ast.FieldInit{{Name: "contents", Value: &ast.IntLit{Value: 1}}},
		},
		Body: body,
	}
	v, err := Eval(let, nil)
	require.NoError(t, err)
	assert.Equal(t, IntValue(2), v)
}

func TestEvalIf(t *testing.T) {
	v, err := Eval(&ast.IfExpr{
		Cond: &ast.BoolLit{Value: true},
		Then: &ast.IntLit{Value: 1},
		Else: &ast.IntLit{Value: 0},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, IntValue(1), v)
}

func TestEvalLambdaApp(t *testing.T) {
	// (fun (x) -> x)(true)
	lam := &ast.LambdaExpr{
		Param: &ast.VarPattern{Name: "x"},
		Body:  &ast.VarExpr{Name: "x"},
	}
	app := &ast.AppExpr{Func: lam, Arg: &ast.BoolLit{Value: true}}
	v, err := Eval(app, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestEvalMatch(t *testing.T) {
	scrutinee := &ast.ConstructExpr{
		Datacon: "Cons",
		Fields: []ast.FieldInit{
			{Name: "head", Value: &ast.BoolLit{Value: true}},
			{Name: "tail", Value: &ast.TupleExpr{}},
		},
	}
	match := &ast.MatchExpr{
		Scrutinee: scrutinee,
		Cases: []ast.MatchCase{
			{
				Pattern: &ast.ConstructPattern{Datacon: "Nil"},
				Body:    &ast.BoolLit{Value: false},
			},
			{
				Pattern: &ast.ConstructPattern{Datacon: "Cons", Fields: []ast.FieldPattern{
					{Name: "head", Pattern: &ast.VarPattern{Name: "h"}},
					{Name: "tail", Pattern: &ast.WildcardPattern{}},
				}},
				Body: &ast.VarExpr{Name: "h"},
			},
		},
	}
	v, err := Eval(match, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestEvalGiveTakeOwns(t *testing.T) {
	// let r = Box{} in give true to r; let owned = r owns true in take true from r; owned
	// (Box adopts bool, so r adopts the literal true here)
	program := &ast.LetExpr{
		Pattern: &ast.VarPattern{Name: "r"},
		Value:   &ast.ConstructExpr{Datacon: "Box"},
		Body: &ast.SeqExpr{
			First: &ast.GiveExpr{
				Adoptee: &ast.BoolLit{Value: true},
				Adopter: &ast.VarExpr{Name: "r"},
			},
			Second: &ast.LetExpr{
				Pattern: &ast.VarPattern{Name: "owned"},
				Value: &ast.OwnsExpr{
					Adopter: &ast.VarExpr{Name: "r"},
					Adoptee: &ast.BoolLit{Value: true},
				},
				Body: &ast.SeqExpr{
					First: &ast.TakeExpr{
						Adoptee: &ast.BoolLit{Value: true},
						Adopter: &ast.VarExpr{Name: "r"},
					},
					Second: &ast.VarExpr{Name: "owned"},
				},
			},
		},
	}
	v, err := Eval(program, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestEvalLetRec(t *testing.T) {
	// let rec loop = fun (x) -> x in loop(true)
	program := &ast.LetRecExpr{
		Names: []string{"loop"},
		Values: []ast.Expr{
			&ast.LambdaExpr{
				Param: &ast.VarPattern{Name: "x"},
				Body:  &ast.VarExpr{Name: "x"},
			},
		},
		Body: &ast.AppExpr{Func: &ast.VarExpr{Name: "loop"}, Arg: &ast.BoolLit{Value: true}},
	}
	v, err := Eval(program, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestEvalMutualLetRec(t *testing.T) {
	// let rec isTrue = fun (x) -> x and pick = fun (x) -> isTrue(x) in pick(true)
	program := &ast.LetRecExpr{
		Names: []string{"isTrue", "pick"},
		Values: []ast.Expr{
			&ast.LambdaExpr{Param: &ast.VarPattern{Name: "x"}, Body: &ast.VarExpr{Name: "x"}},
			&ast.LambdaExpr{
				Param: &ast.VarPattern{Name: "x"},
				Body:  &ast.AppExpr{Func: &ast.VarExpr{Name: "isTrue"}, Arg: &ast.VarExpr{Name: "x"}},
			},
		},
		Body: &ast.AppExpr{Func: &ast.VarExpr{Name: "pick"}, Arg: &ast.BoolLit{Value: true}},
	}
	v, err := Eval(program, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolValue(true), v)
}

func TestEvalFail(t *testing.T) {
	_, err := Eval(&ast.FailExpr{}, nil)
	assert.ErrorIs(t, err, ErrFail)
}

func TestEvalTypeAscErased(t *testing.T) {
	v, err := Eval(&ast.TypeAscExpr{
		Value: &ast.IntLit{Value: 7},
		Type:  &ast.TypeVarRef{Name: "int"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, IntValue(7), v)
}

func TestEvalUnboundVariable(t *testing.T) {
	_, err := Eval(&ast.VarExpr{Name: "nope"}, nil)
	assert.Error(t, err)
}
