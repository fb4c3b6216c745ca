package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinaryOperator(t *testing.T) {
	for op, sym := range binarySymbols {
		got, ok := ParseBinaryOperator(sym)
		require.True(t, ok, sym)
		assert.Equal(t, op, got)
		assert.Equal(t, sym, op.String())
	}

	_, ok := ParseBinaryOperator("%")
	assert.False(t, ok)
	assert.Equal(t, "BinaryOperator(99)", BinaryOperator(99).String())
}

func TestParseUnaryOperator(t *testing.T) {
	op, ok := ParseUnaryOperator("not")
	require.True(t, ok)
	assert.Equal(t, Not, op)

	op, ok = ParseUnaryOperator("-")
	require.True(t, ok)
	assert.Equal(t, USub, op)

	_, ok = ParseUnaryOperator("!")
	assert.False(t, ok)
}

func TestOperatorClasses(t *testing.T) {
	classes := map[BinaryOperator][4]bool{
		// arithmetic, logical, ordering, equality
		Add:       {true, false, false, false},
		Sub:       {true, false, false, false},
		Mul:       {true, false, false, false},
		And:       {false, true, false, false},
		Or:        {false, true, false, false},
		Less:      {false, false, true, false},
		LessEq:    {false, false, true, false},
		Greater:   {false, false, true, false},
		GreaterEq: {false, false, true, false},
		Eq:        {false, false, false, true},
		NotEq:     {false, false, false, true},
	}
	for op, want := range classes {
		got := [4]bool{op.IsArithmetic(), op.IsLogical(), op.IsOrdering(), op.IsEquality()}
		assert.Equal(t, want, got, op.String())
	}
}

func TestNewIdent_NFC(t *testing.T) {
	decomposed := NewIdent("cafe\u0301")
	composed := NewIdent("caf\u00e9")
	assert.Equal(t, composed, decomposed)
	assert.Equal(t, "caf\u00e9", decomposed.String())
}

func TestTypeOf(t *testing.T) {
	ty, ok := TypeOf(NotVoid{Ty: Int})
	assert.True(t, ok)
	assert.Equal(t, Int, ty)

	_, ok = TypeOf(Void{})
	assert.False(t, ok)
	_, ok = TypeOf(nil)
	assert.False(t, ok)
	_, ok = TypeOf(NotVoid{})
	assert.False(t, ok)

	assert.Equal(t, "bool", NotVoid{Ty: Bool}.String())
	assert.Equal(t, "void", Void{}.String())
	assert.Equal(t, "Type(7)", Type(7).String())
}

func TestAnnotate(t *testing.T) {
	e := NewBinOp(Pos{Path: "stmts[0].expr"}, NewIntConst(Pos{}, 1), Add, NewIntConst(Pos{}, 2))
	assert.Nil(t, e.Ty())

	e.Annotate(NotVoid{Ty: Int})
	assert.Equal(t, NotVoid{Ty: Int}, e.Ty())
	assert.Equal(t, "stmts[0].expr", e.Pos().String())
}

func TestPosString(t *testing.T) {
	tests := []struct {
		pos  Pos
		want string
		ok   bool
	}{
		{Pos{File: "a.cue", Path: "stmts[1]"}, "a.cue:stmts[1]", true},
		{Pos{File: "a.cue"}, "a.cue", true},
		{Pos{Path: "stmts[1]"}, "stmts[1]", true},
		{Pos{}, "-", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pos.String())
		assert.Equal(t, tt.ok, tt.pos.IsValid())
	}
}

type countingVisitor struct{ stmts map[string]int }

func (c *countingVisitor) VisitStmtExp(*StmtExp) error { c.stmts["expr"]++; return nil }
func (c *countingVisitor) VisitAssign(*Assign) error   { c.stmts["assign"]++; return nil }
func (c *countingVisitor) VisitIf(*IfStmt) error       { c.stmts["if"]++; return nil }
func (c *countingVisitor) VisitWhile(*WhileStmt) error { c.stmts["while"]++; return nil }

func TestStmtAccept(t *testing.T) {
	stmts := []Stmt{
		NewAssign(Pos{}, "x", NewIntConst(Pos{}, 1)),
		NewStmtExp(Pos{}, NewCall(Pos{}, "print", NewName(Pos{}, "x"))),
		NewIf(Pos{}, NewBoolConst(Pos{}, true), nil, nil),
		NewWhile(Pos{}, NewBoolConst(Pos{}, false), nil),
	}
	v := &countingVisitor{stmts: map[string]int{}}
	for _, s := range stmts {
		require.NoError(t, s.Accept(v))
	}
	assert.Equal(t, map[string]int{"expr": 1, "assign": 1, "if": 1, "while": 1}, v.stmts)
}
