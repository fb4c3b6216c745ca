package tycheck

import (
	"github.com/roach88/loopc/internal/ast"
)

// Binding is one variable of the module with its static type.
type Binding struct {
	ID ast.Ident
	Ty ast.Type
}

// signature describes a builtin. Result is nil for builtins without a value.
type signature struct {
	arity  int
	result ast.ResultType
}

var builtins = map[ast.Ident]signature{
	"print":     {arity: 1, result: ast.Void{}},
	"input_int": {arity: 0, result: ast.NotVoid{Ty: ast.Int}},
}

// Checker is the bundled type oracle.
type Checker struct{}

// CheckModule implements the oracle contract used by the code generator.
func (Checker) CheckModule(m *ast.Module) ([]Binding, error) {
	return Check(m)
}

// Check annotates m in place and returns its variables in discovery order.
// The first type error aborts the check.
//
// Calls to names outside the builtin set are annotated Void; rejecting them
// is left to the code generator, which owns the import table.
func Check(m *ast.Module) ([]Binding, error) {
	c := &checker{env: make(map[ast.Ident]ast.Type)}
	if err := c.block(m.Stmts); err != nil {
		return nil, err
	}
	return c.order, nil
}

type checker struct {
	env   map[ast.Ident]ast.Type
	order []Binding
	last  ast.ResultType
}

func (c *checker) block(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := s.Accept(c); err != nil {
			return err
		}
	}
	return nil
}

// expr checks e and returns its annotation.
func (c *checker) expr(e ast.Expr) (ast.ResultType, error) {
	if err := e.Accept(c); err != nil {
		return nil, err
	}
	e.Annotate(c.last)
	return c.last, nil
}

// value checks e and requires it to produce a value.
func (c *checker) value(e ast.Expr) (ast.Type, error) {
	r, err := c.expr(e)
	if err != nil {
		return 0, err
	}
	t, ok := ast.TypeOf(r)
	if !ok {
		return 0, errorf(e.Pos(), ErrVoidValue, "expression of type %s used as a value", r)
	}
	return t, nil
}

func (c *checker) want(e ast.Expr, want ast.Type, op string) error {
	t, err := c.value(e)
	if err != nil {
		return err
	}
	if t != want {
		return errorf(e.Pos(), ErrOperandType, "operator %s expects %s, found %s", op, want, t)
	}
	return nil
}

func (c *checker) VisitIntConst(*ast.IntConst) error {
	c.last = ast.NotVoid{Ty: ast.Int}
	return nil
}

func (c *checker) VisitBoolConst(*ast.BoolConst) error {
	c.last = ast.NotVoid{Ty: ast.Bool}
	return nil
}

func (c *checker) VisitName(e *ast.Name) error {
	t, ok := c.env[e.ID]
	if !ok {
		return errorf(e.Pos(), ErrUnboundVariable, "variable %s used before assignment", e.ID)
	}
	c.last = ast.NotVoid{Ty: t}
	return nil
}

func (c *checker) VisitUnOp(e *ast.UnOp) error {
	want := ast.Int
	if e.Op == ast.Not {
		want = ast.Bool
	}
	if err := c.want(e.Arg, want, e.Op.String()); err != nil {
		return err
	}
	c.last = ast.NotVoid{Ty: want}
	return nil
}

func (c *checker) VisitBinOp(e *ast.BinOp) error {
	switch {
	case e.Op.IsArithmetic(), e.Op.IsOrdering():
		if err := c.want(e.Left, ast.Int, e.Op.String()); err != nil {
			return err
		}
		if err := c.want(e.Right, ast.Int, e.Op.String()); err != nil {
			return err
		}
		if e.Op.IsArithmetic() {
			c.last = ast.NotVoid{Ty: ast.Int}
		} else {
			c.last = ast.NotVoid{Ty: ast.Bool}
		}
	case e.Op.IsLogical():
		if err := c.want(e.Left, ast.Bool, e.Op.String()); err != nil {
			return err
		}
		if err := c.want(e.Right, ast.Bool, e.Op.String()); err != nil {
			return err
		}
		c.last = ast.NotVoid{Ty: ast.Bool}
	case e.Op.IsEquality():
		lt, err := c.value(e.Left)
		if err != nil {
			return err
		}
		rt, err := c.value(e.Right)
		if err != nil {
			return err
		}
		if lt != rt {
			return errorf(e.Pos(), ErrTypeMismatch, "cannot compare %s %s %s", lt, e.Op, rt)
		}
		c.last = ast.NotVoid{Ty: ast.Bool}
	default:
		return errorf(e.Pos(), ErrOperandType, "unknown operator %s", e.Op)
	}
	return nil
}

func (c *checker) VisitCall(e *ast.Call) error {
	for _, arg := range e.Args {
		if _, err := c.value(arg); err != nil {
			return err
		}
	}
	sig, known := builtins[e.Name]
	if !known {
		c.last = ast.Void{}
		return nil
	}
	if len(e.Args) != sig.arity {
		return errorf(e.Pos(), ErrArity, "%s expects %d argument(s), got %d", e.Name, sig.arity, len(e.Args))
	}
	c.last = sig.result
	return nil
}

func (c *checker) VisitStmtExp(s *ast.StmtExp) error {
	r, err := c.expr(s.E)
	if err != nil {
		return err
	}
	if _, isValue := ast.TypeOf(r); isValue {
		return errorf(s.Pos(), ErrDiscardedValue, "value of type %s is discarded", r)
	}
	return nil
}

func (c *checker) VisitAssign(s *ast.Assign) error {
	t, err := c.value(s.Value)
	if err != nil {
		return err
	}
	prev, bound := c.env[s.Target]
	if !bound {
		c.env[s.Target] = t
		c.order = append(c.order, Binding{ID: s.Target, Ty: t})
		return nil
	}
	if prev != t {
		return errorf(s.Pos(), ErrReassignType, "variable %s has type %s, cannot assign %s", s.Target, prev, t)
	}
	return nil
}

func (c *checker) condition(e ast.Expr) error {
	t, err := c.value(e)
	if err != nil {
		return err
	}
	if t != ast.Bool {
		return errorf(e.Pos(), ErrConditionType, "condition must be bool, found %s", t)
	}
	return nil
}

func (c *checker) VisitIf(s *ast.IfStmt) error {
	if err := c.condition(s.Cond); err != nil {
		return err
	}
	if err := c.block(s.Then); err != nil {
		return err
	}
	return c.block(s.Else)
}

func (c *checker) VisitWhile(s *ast.WhileStmt) error {
	if err := c.condition(s.Cond); err != nil {
		return err
	}
	return c.block(s.Body)
}
