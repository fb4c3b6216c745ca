package source

import (
	"gopkg.in/yaml.v3"

	"github.com/roach88/loopc/internal/ast"
)

// FromYAML decodes a YAML document into a module. JSON documents are valid
// YAML and go through the same path.
func FromYAML(file string, data []byte) (*ast.Module, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		de := &DecodeError{Code: ErrCodeSyntax, File: file, Message: err.Error()}
		if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
			de.Message = te.Errors[0]
		}
		return nil, de
	}
	if raw == nil {
		return nil, &DecodeError{Code: ErrCodeShape, File: file, Message: "empty document"}
	}
	return Decode(file, raw)
}
