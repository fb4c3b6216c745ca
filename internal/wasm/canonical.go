package wasm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON for a module.
// This is the only encoding used for content-addressed identity.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Optional fields are omitted rather than null
func MarshalCanonical(m *Module) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("canonical: nil module")
	}
	tree, err := moduleTree(m)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(tree)
}

// MarshalInstrs encodes a bare instruction sequence canonically.
func MarshalInstrs(seq []Instr) ([]byte, error) {
	tree, err := instrsTree(seq)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(tree)
}

func moduleTree(m *Module) (map[string]any, error) {
	imports := make([]any, 0, len(m.Imports))
	for _, imp := range m.Imports {
		entry := map[string]any{"module": imp.Module, "name": imp.Name}
		switch d := imp.Desc.(type) {
		case *ImportFunc:
			entry["func"] = map[string]any{
				"id":      string(d.ID),
				"params":  valTypesTree(d.Params),
				"results": valTypesTree(d.Results),
			}
		case *ImportMemory:
			entry["memory"] = map[string]any{
				"id":  string(d.ID),
				"min": int64(d.Min),
				"max": int64(d.Max),
			}
		}
		imports = append(imports, entry)
	}

	exports := make([]any, 0, len(m.Exports))
	for _, e := range m.Exports {
		exports = append(exports, map[string]any{"name": e.Name, "func": string(e.Func)})
	}

	globals := make([]any, 0, len(m.Globals))
	for _, g := range m.Globals {
		globals = append(globals, map[string]any{
			"id": string(g.ID), "type": g.Ty.String(), "mutable": g.Mutable, "init": g.Init,
		})
	}

	data := make([]any, 0, len(m.Data))
	for _, d := range m.Data {
		data = append(data, map[string]any{"offset": int64(d.Offset), "bytes": fmt.Sprintf("%x", d.Bytes)})
	}

	table := make([]any, 0, len(m.FuncTable))
	for _, id := range m.FuncTable {
		table = append(table, string(id))
	}

	funcs := make([]any, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		body, err := instrsTree(f.Body)
		if err != nil {
			return nil, fmt.Errorf("func %s: %w", f.ID, err)
		}
		entry := map[string]any{
			"id":     string(f.ID),
			"params": localsTree(f.Params),
			"locals": localsTree(f.Locals),
			"body":   body,
		}
		if f.Result != nil {
			entry["result"] = f.Result.String()
		}
		funcs = append(funcs, entry)
	}

	return map[string]any{
		"imports":    imports,
		"exports":    exports,
		"globals":    globals,
		"data":       data,
		"func_table": table,
		"funcs":      funcs,
	}, nil
}

func valTypesTree(ts []ValType) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func localsTree(ls []Local) []any {
	out := make([]any, len(ls))
	for i, l := range ls {
		out[i] = map[string]any{"id": string(l.ID), "type": l.Ty.String()}
	}
	return out
}

// treeBuilder converts instructions into plain maps and slices.
type treeBuilder struct {
	out []any
}

func instrsTree(seq []Instr) ([]any, error) {
	b := &treeBuilder{out: make([]any, 0, len(seq))}
	for _, in := range seq {
		if err := in.Accept(b); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

func (b *treeBuilder) emit(op string, fields map[string]any) error {
	fields["op"] = op
	b.out = append(b.out, fields)
	return nil
}

func (b *treeBuilder) VisitConst(i *Const) error {
	return b.emit(i.Ty.String()+".const", map[string]any{"value": i.Value})
}

func (b *treeBuilder) VisitLocalGet(i *LocalGet) error {
	return b.emit("local.get", map[string]any{"local": string(i.Local)})
}

func (b *treeBuilder) VisitLocalSet(i *LocalSet) error {
	return b.emit("local.set", map[string]any{"local": string(i.Local)})
}

func (b *treeBuilder) VisitNumBinOp(i *NumBinOp) error {
	return b.emit(i.Ty.String()+"."+i.Op.String(), map[string]any{})
}

func (b *treeBuilder) VisitRelOp(i *RelOpInstr) error {
	return b.emit(i.Ty.String()+"."+i.Op.String(), map[string]any{})
}

func (b *treeBuilder) VisitCall(i *Call) error {
	return b.emit("call", map[string]any{"func": string(i.Func)})
}

func (b *treeBuilder) VisitIf(i *If) error {
	then, err := instrsTree(i.Then)
	if err != nil {
		return err
	}
	els, err := instrsTree(i.Else)
	if err != nil {
		return err
	}
	fields := map[string]any{"then": then, "else": els}
	if i.Result != nil {
		fields["result"] = i.Result.String()
	}
	return b.emit("if", fields)
}

func (b *treeBuilder) VisitLoop(i *Loop) error {
	body, err := instrsTree(i.Body)
	if err != nil {
		return err
	}
	return b.emit("loop", map[string]any{"label": string(i.Label), "body": body})
}

func (b *treeBuilder) VisitBranch(i *Branch) error {
	op := "br"
	if i.Conditional {
		op = "br_if"
	}
	return b.emit(op, map[string]any{"label": string(i.Label)})
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case int:
		return []byte(strconv.Itoa(val)), nil
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString escapes only quote, backslash and control
// characters, after NFC normalization.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// encoding/json escapes U+2028 and U+2029; RFC 8785 keeps them literal.
	out = unescapeLineSeparators(out)
	return out, nil
}

func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		if data[i] == '\\' && i+1 < len(data) {
			// Copy escape pairs whole so "\\u2028" stays escaped.
			out = append(out, data[i], data[i+1])
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysUTF16 orders keys by UTF-16 code units as RFC 8785 requires.
// Go's string comparison orders by UTF-8 bytes, which differs above U+FFFF.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
