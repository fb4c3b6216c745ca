package wasm

// Names of the fixed runtime imports. Builtin calls are linked against these
// by name: "{operation}_{widthTag}".
const (
	ImportModuleConsole = "console"
	ImportModuleMemory  = "js"

	PrintI32  ID = "print_i32"
	PrintI64  ID = "print_i64"
	PrintBool ID = "print_bool"
	InputI32  ID = "input_i32"
	InputI64  ID = "input_i64"
	InputBool ID = "input_bool"

	MemoryID ID = "@memory"
)

// DefaultMaxMemSize is the memory limit, in pages, used when none is given.
const DefaultMaxMemSize = 100

// BuiltinImports returns the fixed import list of every generated module.
// maxMemSize bounds the imported linear memory, in pages.
func BuiltinImports(maxMemSize uint32) []Import {
	fn := func(id ID, params, results []ValType) Import {
		return Import{
			Module: ImportModuleConsole,
			Name:   string(id),
			Desc:   &ImportFunc{ID: id, Params: params, Results: results},
		}
	}
	return []Import{
		{
			Module: ImportModuleMemory,
			Name:   "mem",
			Desc:   &ImportMemory{ID: MemoryID, Min: 1, Max: maxMemSize},
		},
		fn(PrintI32, []ValType{I32}, nil),
		fn(PrintI64, []ValType{I64}, nil),
		fn(PrintBool, []ValType{I32}, nil),
		fn(InputI32, nil, []ValType{I32}),
		fn(InputI64, nil, []ValType{I64}),
		fn(InputBool, nil, []ValType{I32}),
	}
}
