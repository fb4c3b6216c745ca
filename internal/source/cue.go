package source

import (
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/loopc/internal/ast"
)

// FromCUE compiles a CUE document and decodes it into a module.
func FromCUE(file string, data []byte) (*ast.Module, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(file, ErrCodeSyntax, err)
	}
	return FromCUEValue(file, v)
}

// FromCUEValue decodes an already built CUE value. If the value has a
// `program` field, that field is the program root.
func FromCUEValue(file string, v cue.Value) (*ast.Module, error) {
	if p := v.LookupPath(cue.ParsePath("program")); p.Exists() {
		v = p
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(file, ErrCodeShape, err)
	}

	var raw any
	if err := v.Decode(&raw); err != nil {
		return nil, formatCUEError(file, ErrCodeShape, err)
	}
	return Decode(file, raw)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(file, code string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &DecodeError{Code: code, File: file, Message: err.Error()}
	}

	first := errs[0]
	de := &DecodeError{Code: code, File: file, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		de.Line = positions[0].Line()
	}
	if path := first.Path(); len(path) > 0 {
		de.Path = strings.Join(path, ".")
	}
	return de
}
