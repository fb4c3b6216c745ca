package source

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/roach88/loopc/internal/ast"
)

// Decode converts a generic document tree into a module. raw is the result
// of unmarshaling a document into an `any`.
func Decode(file string, raw any) (*ast.Module, error) {
	d := &decoder{file: file}
	root, err := d.object(raw, "")
	if err != nil {
		return nil, err
	}
	stmtsRaw, ok := root["stmts"]
	if !ok {
		return nil, d.fail(ErrCodeShape, "", "missing field stmts")
	}
	stmts, err := d.block(stmtsRaw, "stmts")
	if err != nil {
		return nil, err
	}
	return &ast.Module{File: file, Stmts: stmts}, nil
}

type decoder struct {
	file string
}

func (d *decoder) fail(code, path, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, File: d.file, Path: path, Message: fmt.Sprintf(format, args...)}
}

func (d *decoder) pos(path string) ast.Pos {
	return ast.Pos{File: d.file, Path: path}
}

func (d *decoder) object(raw any, path string) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, d.fail(ErrCodeShape, path, "non-string key %v", k)
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, d.fail(ErrCodeShape, path, "expected an object, found %s", describe(raw))
	}
}

func (d *decoder) list(raw any, path string) ([]any, error) {
	if raw == nil {
		return nil, nil
	}
	l, ok := raw.([]any)
	if !ok {
		return nil, d.fail(ErrCodeShape, path, "expected a list, found %s", describe(raw))
	}
	return l, nil
}

// variant unpacks a single-key object {kind: body}.
func (d *decoder) variant(raw any, path string) (string, any, error) {
	m, err := d.object(raw, path)
	if err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, d.fail(ErrCodeShape, path, "expected exactly one node kind, found [%s]", strings.Join(keys, " "))
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}

func (d *decoder) field(m map[string]any, name, path string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, d.fail(ErrCodeShape, path, "missing field %s", name)
	}
	return v, nil
}

func (d *decoder) str(raw any, path string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", d.fail(ErrCodeShape, path, "expected a string, found %s", describe(raw))
	}
	return s, nil
}

func (d *decoder) ident(raw any, path string) (ast.Ident, error) {
	s, err := d.str(raw, path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", d.fail(ErrCodeShape, path, "empty identifier")
	}
	return ast.NewIdent(s), nil
}

func (d *decoder) block(raw any, path string) ([]ast.Stmt, error) {
	items, err := d.list(raw, path)
	if err != nil {
		return nil, err
	}
	stmts := make([]ast.Stmt, 0, len(items))
	for i, item := range items {
		s, err := d.stmt(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (d *decoder) stmt(raw any, path string) (ast.Stmt, error) {
	kind, body, err := d.variant(raw, path)
	if err != nil {
		return nil, err
	}
	at := path + "." + kind
	pos := d.pos(path)

	switch kind {
	case "expr":
		e, err := d.expr(body, at)
		if err != nil {
			return nil, err
		}
		return ast.NewStmtExp(pos, e), nil

	case "assign":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		targetRaw, err := d.field(m, "target", at)
		if err != nil {
			return nil, err
		}
		target, err := d.ident(targetRaw, at+".target")
		if err != nil {
			return nil, err
		}
		valueRaw, err := d.field(m, "value", at)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(valueRaw, at+".value")
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(pos, target, value), nil

	case "if":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		condRaw, err := d.field(m, "cond", at)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(condRaw, at+".cond")
		if err != nil {
			return nil, err
		}
		then, err := d.block(m["then"], at+".then")
		if err != nil {
			return nil, err
		}
		els, err := d.block(m["else"], at+".else")
		if err != nil {
			return nil, err
		}
		return ast.NewIf(pos, cond, then, els), nil

	case "while":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		condRaw, err := d.field(m, "cond", at)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(condRaw, at+".cond")
		if err != nil {
			return nil, err
		}
		loopBody, err := d.block(m["body"], at+".body")
		if err != nil {
			return nil, err
		}
		return ast.NewWhile(pos, cond, loopBody), nil

	default:
		return nil, d.fail(ErrCodeShape, path, "unknown statement kind %q", kind)
	}
}

func (d *decoder) expr(raw any, path string) (ast.Expr, error) {
	kind, body, err := d.variant(raw, path)
	if err != nil {
		return nil, err
	}
	at := path + "." + kind
	pos := d.pos(path)

	switch kind {
	case "int":
		n, err := d.integer(body, at)
		if err != nil {
			return nil, err
		}
		return ast.NewIntConst(pos, n), nil

	case "bool":
		b, ok := body.(bool)
		if !ok {
			return nil, d.fail(ErrCodeShape, at, "expected a boolean, found %s", describe(body))
		}
		return ast.NewBoolConst(pos, b), nil

	case "var":
		id, err := d.ident(body, at)
		if err != nil {
			return nil, err
		}
		return ast.NewName(pos, id), nil

	case "unary":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		opRaw, err := d.field(m, "op", at)
		if err != nil {
			return nil, err
		}
		sym, err := d.str(opRaw, at+".op")
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseUnaryOperator(sym)
		if !ok {
			return nil, d.fail(ErrCodeUnknownOperator, at+".op", "unknown unary operator %q", sym)
		}
		argRaw, err := d.field(m, "arg", at)
		if err != nil {
			return nil, err
		}
		arg, err := d.expr(argRaw, at+".arg")
		if err != nil {
			return nil, err
		}
		return ast.NewUnOp(pos, op, arg), nil

	case "binary":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		opRaw, err := d.field(m, "op", at)
		if err != nil {
			return nil, err
		}
		sym, err := d.str(opRaw, at+".op")
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseBinaryOperator(sym)
		if !ok {
			return nil, d.fail(ErrCodeUnknownOperator, at+".op", "unknown binary operator %q", sym)
		}
		leftRaw, err := d.field(m, "left", at)
		if err != nil {
			return nil, err
		}
		left, err := d.expr(leftRaw, at+".left")
		if err != nil {
			return nil, err
		}
		rightRaw, err := d.field(m, "right", at)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(rightRaw, at+".right")
		if err != nil {
			return nil, err
		}
		return ast.NewBinOp(pos, left, op, right), nil

	case "call":
		m, err := d.object(body, at)
		if err != nil {
			return nil, err
		}
		nameRaw, err := d.field(m, "name", at)
		if err != nil {
			return nil, err
		}
		name, err := d.ident(nameRaw, at+".name")
		if err != nil {
			return nil, err
		}
		argsRaw, err := d.list(m["args"], at+".args")
		if err != nil {
			return nil, err
		}
		args := make([]ast.Expr, 0, len(argsRaw))
		for i, a := range argsRaw {
			arg, err := d.expr(a, fmt.Sprintf("%s.args[%d]", at, i))
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return ast.NewCall(pos, name, args...), nil

	default:
		return nil, d.fail(ErrCodeShape, path, "unknown expression kind %q", kind)
	}
}

// integer accepts the integer representations produced by the CUE and YAML
// decoders.
func (d *decoder) integer(raw any, path string) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, d.fail(ErrCodeShape, path, "integer %d out of range", n)
		}
		return int64(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, d.fail(ErrCodeShape, path, "integer %s out of range", n)
		}
		return n.Int64(), nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, d.fail(ErrCodeShape, path, "expected an integer, found %v", n)
		}
		return int64(n), nil
	default:
		return 0, d.fail(ErrCodeShape, path, "expected an integer, found %s", describe(raw))
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "object"
	case int, int64, uint64, float64, *big.Int:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
