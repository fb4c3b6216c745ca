package ast

// Expr is an expression node.
type Expr interface {
	// Pos returns the source location of the node.
	Pos() Pos
	// Ty returns the oracle's annotation, or nil before the oracle has run.
	Ty() ResultType
	// Annotate records the oracle's answer for this node.
	Annotate(ResultType)
	// Accept dispatches to the matching visitor method.
	Accept(ExprVisitor) error
}

// ExprVisitor has one method per expression variant.
type ExprVisitor interface {
	VisitIntConst(*IntConst) error
	VisitBoolConst(*BoolConst) error
	VisitName(*Name) error
	VisitUnOp(*UnOp) error
	VisitBinOp(*BinOp) error
	VisitCall(*Call) error
}

type exprNode struct {
	At  Pos
	ann ResultType
}

func (n *exprNode) Pos() Pos              { return n.At }
func (n *exprNode) Ty() ResultType        { return n.ann }
func (n *exprNode) Annotate(r ResultType) { n.ann = r }

// IntConst is an integer literal.
type IntConst struct {
	exprNode
	Value int64
}

// BoolConst is a boolean literal.
type BoolConst struct {
	exprNode
	Value bool
}

// Name is a variable reference.
type Name struct {
	exprNode
	ID Ident
}

// UnOp applies a prefix operator.
type UnOp struct {
	exprNode
	Op  UnaryOperator
	Arg Expr
}

// BinOp applies an infix operator.
type BinOp struct {
	exprNode
	Left  Expr
	Op    BinaryOperator
	Right Expr
}

// Call invokes a builtin function.
type Call struct {
	exprNode
	Name Ident
	Args []Expr
}

func (e *IntConst) Accept(v ExprVisitor) error  { return v.VisitIntConst(e) }
func (e *BoolConst) Accept(v ExprVisitor) error { return v.VisitBoolConst(e) }
func (e *Name) Accept(v ExprVisitor) error      { return v.VisitName(e) }
func (e *UnOp) Accept(v ExprVisitor) error      { return v.VisitUnOp(e) }
func (e *BinOp) Accept(v ExprVisitor) error     { return v.VisitBinOp(e) }
func (e *Call) Accept(v ExprVisitor) error      { return v.VisitCall(e) }

// NewIntConst builds an integer literal.
func NewIntConst(pos Pos, v int64) *IntConst {
	return &IntConst{exprNode: exprNode{At: pos}, Value: v}
}

// NewBoolConst builds a boolean literal.
func NewBoolConst(pos Pos, v bool) *BoolConst {
	return &BoolConst{exprNode: exprNode{At: pos}, Value: v}
}

// NewName builds a variable reference.
func NewName(pos Pos, id Ident) *Name {
	return &Name{exprNode: exprNode{At: pos}, ID: id}
}

// NewUnOp builds a unary operation.
func NewUnOp(pos Pos, op UnaryOperator, arg Expr) *UnOp {
	return &UnOp{exprNode: exprNode{At: pos}, Op: op, Arg: arg}
}

// NewBinOp builds a binary operation.
func NewBinOp(pos Pos, left Expr, op BinaryOperator, right Expr) *BinOp {
	return &BinOp{exprNode: exprNode{At: pos}, Left: left, Op: op, Right: right}
}

// NewCall builds a call.
func NewCall(pos Pos, name Ident, args ...Expr) *Call {
	return &Call{exprNode: exprNode{At: pos}, Name: name, Args: args}
}
