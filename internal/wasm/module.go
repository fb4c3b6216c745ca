package wasm

// Module is a complete WebAssembly module as produced by the assembler.
type Module struct {
	Imports   []Import
	Exports   []Export
	Globals   []Global
	Data      []DataSegment
	FuncTable []ID
	Funcs     []Func
}

// Import brings an external function or memory into the module.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// ImportDesc is either *ImportFunc or *ImportMemory.
type ImportDesc interface {
	isImportDesc()
}

// ImportFunc declares an imported function and its signature.
type ImportFunc struct {
	ID      ID
	Params  []ValType
	Results []ValType
}

// ImportMemory declares an imported linear memory, sized in 64KiB pages.
type ImportMemory struct {
	ID  ID
	Min uint32
	Max uint32
}

func (*ImportFunc) isImportDesc()   {}
func (*ImportMemory) isImportDesc() {}

// Export publishes a function under an external name.
type Export struct {
	Name string
	Func ID
}

// Global is a module-level variable. The generator never emits globals; the
// type exists so the module shape is complete.
type Global struct {
	ID      ID
	Ty      ValType
	Mutable bool
	Init    int64
}

// DataSegment initializes a region of linear memory. Never emitted by the
// generator.
type DataSegment struct {
	Offset uint32
	Bytes  []byte
}

// Local is a function-local variable slot.
type Local struct {
	ID ID
	Ty ValType
}

// Func is a defined function.
type Func struct {
	ID     ID
	Params []Local
	Result *ValType
	Locals []Local
	Body   []Instr
}

// FuncByID returns the defined function named id.
func (m *Module) FuncByID(id ID) (*Func, bool) {
	for i := range m.Funcs {
		if m.Funcs[i].ID == id {
			return &m.Funcs[i], true
		}
	}
	return nil, false
}

// ImportedFunc returns the imported function named id.
func (m *Module) ImportedFunc(id ID) (*ImportFunc, *Import, bool) {
	for i := range m.Imports {
		if f, ok := m.Imports[i].Desc.(*ImportFunc); ok && f.ID == id {
			return f, &m.Imports[i], true
		}
	}
	return nil, nil, false
}

// ExportedFunc resolves an export name to its function.
func (m *Module) ExportedFunc(name string) (*Func, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return m.FuncByID(e.Func)
		}
	}
	return nil, false
}
