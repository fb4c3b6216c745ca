package ast

// Stmt is a statement node.
type Stmt interface {
	Pos() Pos
	Accept(StmtVisitor) error
}

// StmtVisitor has one method per statement variant.
type StmtVisitor interface {
	VisitStmtExp(*StmtExp) error
	VisitAssign(*Assign) error
	VisitIf(*IfStmt) error
	VisitWhile(*WhileStmt) error
}

type stmtNode struct {
	At Pos
}

func (n *stmtNode) Pos() Pos { return n.At }

// StmtExp evaluates an expression for its effect. Only calls that produce
// no value may appear here.
type StmtExp struct {
	stmtNode
	E Expr
}

// Assign stores the value of Value into the variable Target.
type Assign struct {
	stmtNode
	Target Ident
	Value  Expr
}

// IfStmt is a two-armed conditional. Else may be empty.
type IfStmt struct {
	stmtNode
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// WhileStmt is a pre-tested loop.
type WhileStmt struct {
	stmtNode
	Cond Expr
	Body []Stmt
}

func (s *StmtExp) Accept(v StmtVisitor) error   { return v.VisitStmtExp(s) }
func (s *Assign) Accept(v StmtVisitor) error    { return v.VisitAssign(s) }
func (s *IfStmt) Accept(v StmtVisitor) error    { return v.VisitIf(s) }
func (s *WhileStmt) Accept(v StmtVisitor) error { return v.VisitWhile(s) }

// NewStmtExp builds an expression statement.
func NewStmtExp(pos Pos, e Expr) *StmtExp {
	return &StmtExp{stmtNode: stmtNode{At: pos}, E: e}
}

// NewAssign builds an assignment.
func NewAssign(pos Pos, target Ident, value Expr) *Assign {
	return &Assign{stmtNode: stmtNode{At: pos}, Target: target, Value: value}
}

// NewIf builds a conditional.
func NewIf(pos Pos, cond Expr, then, els []Stmt) *IfStmt {
	return &IfStmt{stmtNode: stmtNode{At: pos}, Cond: cond, Then: then, Else: els}
}

// NewWhile builds a loop.
func NewWhile(pos Pos, cond Expr, body []Stmt) *WhileStmt {
	return &WhileStmt{stmtNode: stmtNode{At: pos}, Cond: cond, Body: body}
}

// Module is a whole program: a block of top-level statements.
type Module struct {
	File  string
	Stmts []Stmt
}
