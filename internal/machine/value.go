package machine

import (
	"fmt"

	"github.com/roach88/loopc/internal/wasm"
)

// Value is a typed operand. I32 values hold a sign-extended int32 in Bits.
type Value struct {
	Ty   wasm.ValType
	Bits int64
}

// I64 builds a wide value.
func I64(v int64) Value {
	return Value{Ty: wasm.I64, Bits: v}
}

// I32 builds a narrow value.
func I32(v int32) Value {
	return Value{Ty: wasm.I32, Bits: int64(v)}
}

// Bool builds the narrow encoding of a boolean.
func Bool(b bool) Value {
	if b {
		return I32(1)
	}
	return I32(0)
}

// Zero returns the zero value of t.
func Zero(t wasm.ValType) Value {
	return Value{Ty: t}
}

func (v Value) String() string {
	return fmt.Sprintf("%s:%d", v.Ty, v.Bits)
}
