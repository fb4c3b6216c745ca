package machine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/loopc/internal/wasm"
)

// HostFuncs is a Host backed by a map keyed by "module.name".
type HostFuncs map[string]HostFunc

// Lookup implements Host.
func (h HostFuncs) Lookup(module, name string) (HostFunc, bool) {
	f, ok := h[module+"."+name]
	return f, ok
}

// StdHost implements the builtin console imports. Integers print in
// decimal, booleans as True/False, one value per line. Input is read one
// integer per line.
type StdHost struct {
	funcs HostFuncs
	in    *bufio.Scanner
	out   io.Writer
}

// NewStdHost creates a host reading input from in and printing to out.
func NewStdHost(in io.Reader, out io.Writer) *StdHost {
	if in == nil {
		in = strings.NewReader("")
	}
	h := &StdHost{in: bufio.NewScanner(in), out: out}
	h.funcs = HostFuncs{
		console(wasm.PrintI32):  h.printInt,
		console(wasm.PrintI64):  h.printInt,
		console(wasm.PrintBool): h.printBool,
		console(wasm.InputI32):  h.inputI32,
		console(wasm.InputI64):  h.inputI64,
		console(wasm.InputBool): h.inputBool,
	}
	return h
}

func console(id wasm.ID) string {
	return wasm.ImportModuleConsole + "." + string(id)
}

// Lookup implements Host.
func (h *StdHost) Lookup(module, name string) (HostFunc, bool) {
	return h.funcs.Lookup(module, name)
}

func (h *StdHost) printInt(args []Value) ([]Value, error) {
	_, err := fmt.Fprintln(h.out, args[0].Bits)
	return nil, err
}

func (h *StdHost) printBool(args []Value) ([]Value, error) {
	s := "False"
	if args[0].Bits != 0 {
		s = "True"
	}
	_, err := fmt.Fprintln(h.out, s)
	return nil, err
}

func (h *StdHost) readLine() (string, error) {
	if !h.in.Scan() {
		if err := h.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputExhausted
	}
	return strings.TrimSpace(h.in.Text()), nil
}

func (h *StdHost) inputI64(_ []Value) ([]Value, error) {
	line, err := h.readLine()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer input %q: %w", line, err)
	}
	return []Value{I64(n)}, nil
}

func (h *StdHost) inputI32(_ []Value) ([]Value, error) {
	line, err := h.readLine()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(line, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid integer input %q: %w", line, err)
	}
	return []Value{I32(int32(n))}, nil
}

func (h *StdHost) inputBool(_ []Value) ([]Value, error) {
	line, err := h.readLine()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(line) {
	case "true", "1":
		return []Value{Bool(true)}, nil
	case "false", "0":
		return []Value{Bool(false)}, nil
	default:
		return nil, fmt.Errorf("invalid boolean input %q", line)
	}
}
