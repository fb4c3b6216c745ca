package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/loopc/internal/ast"
)

// Kind classifies compile errors. Every kind is fatal for the whole module.
type Kind string

const (
	// KindUnknownFunction: call target outside the builtin set.
	KindUnknownFunction Kind = "UnknownFunction"
	// KindTypeDispatch: an operand reached width selection without a usable
	// static type. Unreachable when the type oracle has run.
	KindTypeDispatch Kind = "TypeDispatchFailure"
	// KindUnsupported: construct outside the configured capabilities.
	KindUnsupported Kind = "UnsupportedFeature"
)

// Compile error codes (E200-E299)
const (
	ErrCodeUnknownFunction = "E201"
	ErrCodeTypeDispatch    = "E202"
	ErrCodeUnsupported     = "E203"
)

// Sentinels for errors.Is.
var (
	ErrUnknownFunction     = errors.New("unknown function")
	ErrTypeDispatchFailure = errors.New("type dispatch failure")
	ErrUnsupportedFeature  = errors.New("unsupported feature")
)

// Code returns the stable error code of the kind.
func (k Kind) Code() string {
	switch k {
	case KindUnknownFunction:
		return ErrCodeUnknownFunction
	case KindTypeDispatch:
		return ErrCodeTypeDispatch
	case KindUnsupported:
		return ErrCodeUnsupported
	default:
		return "E200"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownFunction:
		return ErrUnknownFunction
	case KindTypeDispatch:
		return ErrTypeDispatchFailure
	case KindUnsupported:
		return ErrUnsupportedFeature
	default:
		return nil
	}
}

// CompileError reports the AST node that stopped compilation.
// Subject names the operator or call at fault.
type CompileError struct {
	Kind    Kind
	Pos     ast.Pos
	Subject string
	Message string
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Kind.Code(), e.Kind)
	if e.Subject != "" {
		msg += ": " + e.Subject
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + msg
	}
	return msg
}

// Unwrap exposes the kind's sentinel so callers can use errors.Is.
func (e *CompileError) Unwrap() error {
	return e.Kind.sentinel()
}

func newError(kind Kind, pos ast.Pos, subject, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Pos:     pos,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}
