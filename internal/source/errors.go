package source

import "fmt"

// Source error codes (E400-E499)
const (
	ErrCodeSyntax          = "E401" // document is not valid CUE/YAML/JSON
	ErrCodeShape           = "E402" // document does not have the expected AST shape
	ErrCodeUnknownOperator = "E403" // operator symbol not recognized
	ErrCodeFormat          = "E404" // unsupported file extension
)

// DecodeError reports a problem at a document path.
type DecodeError struct {
	Code    string
	File    string
	Path    string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Path != "" {
		if loc != "" {
			loc += ":"
		}
		loc += e.Path
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
}
