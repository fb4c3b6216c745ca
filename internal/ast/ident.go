package ast

import "golang.org/x/text/unicode/norm"

// Ident is a variable or function name.
type Ident string

// NewIdent builds an identifier from source text. Names are NFC normalized so
// that canonically equivalent spellings denote the same variable and map to
// the same local slot.
func NewIdent(name string) Ident {
	return Ident(norm.NFC.String(name))
}

// String returns the identifier text.
func (i Ident) String() string {
	return string(i)
}
