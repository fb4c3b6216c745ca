package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/loopc/internal/ast"
)

// Format identifies a document encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the document format implied by a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// Parse decodes data in the given format.
func Parse(file string, format Format, data []byte) (*ast.Module, error) {
	switch format {
	case FormatCUE:
		return FromCUE(file, data)
	case FormatYAML, FormatJSON:
		return FromYAML(file, data)
	default:
		return nil, &DecodeError{Code: ErrCodeFormat, File: file, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

// LoadFile reads and decodes a program file. The raw bytes are returned
// alongside the module so callers can hash the source.
func LoadFile(path string) (*ast.Module, []byte, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, nil, &DecodeError{
			Code:    ErrCodeFormat,
			File:    path,
			Message: fmt.Sprintf("unsupported file extension %q (want .cue, .yaml, .yml or .json)", filepath.Ext(path)),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	m, err := Parse(path, format, data)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}
