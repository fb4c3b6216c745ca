package wasm

// Instr is a single instruction. Structured instructions (If, Loop) own their
// nested sequences.
type Instr interface {
	Accept(InstrVisitor) error
}

// InstrVisitor has one method per instruction variant.
type InstrVisitor interface {
	VisitConst(*Const) error
	VisitLocalGet(*LocalGet) error
	VisitLocalSet(*LocalSet) error
	VisitNumBinOp(*NumBinOp) error
	VisitRelOp(*RelOpInstr) error
	VisitCall(*Call) error
	VisitIf(*If) error
	VisitLoop(*Loop) error
	VisitBranch(*Branch) error
}

// Const pushes a constant of type Ty.
type Const struct {
	Ty    ValType
	Value int64
}

// LocalGet pushes the value of a local.
type LocalGet struct {
	Local ID
}

// LocalSet pops a value into a local.
type LocalSet struct {
	Local ID
}

// NumBinOp pops two operands of type Ty and pushes the result of Op.
type NumBinOp struct {
	Ty ValType
	Op NumOp
}

// RelOpInstr pops two operands of type Ty and pushes an i32 0 or 1.
type RelOpInstr struct {
	Ty ValType
	Op RelOp
}

// Call invokes a function by name.
type Call struct {
	Func ID
}

// If pops an i32 condition and runs Then when it is non-zero, Else
// otherwise. Result is nil for a statement-level conditional, or the type of
// the single value both arms leave on the stack.
type If struct {
	Result *ValType
	Then   []Instr
	Else   []Instr
}

// Loop runs Body; a branch to Label restarts it, falling off the end exits.
type Loop struct {
	Label ID
	Body  []Instr
}

// Branch jumps to Label. A conditional branch pops an i32 and only jumps
// when it is non-zero (br_if).
type Branch struct {
	Label       ID
	Conditional bool
}

func (i *Const) Accept(v InstrVisitor) error      { return v.VisitConst(i) }
func (i *LocalGet) Accept(v InstrVisitor) error   { return v.VisitLocalGet(i) }
func (i *LocalSet) Accept(v InstrVisitor) error   { return v.VisitLocalSet(i) }
func (i *NumBinOp) Accept(v InstrVisitor) error   { return v.VisitNumBinOp(i) }
func (i *RelOpInstr) Accept(v InstrVisitor) error { return v.VisitRelOp(i) }
func (i *Call) Accept(v InstrVisitor) error       { return v.VisitCall(i) }
func (i *If) Accept(v InstrVisitor) error         { return v.VisitIf(i) }
func (i *Loop) Accept(v InstrVisitor) error       { return v.VisitLoop(i) }
func (i *Branch) Accept(v InstrVisitor) error     { return v.VisitBranch(i) }

// ResultOf returns a pointer suitable for If.Result.
func ResultOf(t ValType) *ValType {
	return &t
}

// Walk visits every instruction in seq depth first, nested sequences after
// their owner. fn returning false stops descent into that instruction.
func Walk(seq []Instr, fn func(Instr) bool) {
	for _, in := range seq {
		if !fn(in) {
			continue
		}
		switch n := in.(type) {
		case *If:
			Walk(n.Then, fn)
			Walk(n.Else, fn)
		case *Loop:
			Walk(n.Body, fn)
		}
	}
}

// Count returns the total number of instructions in seq, nested ones included.
func Count(seq []Instr) int {
	n := 0
	Walk(seq, func(Instr) bool {
		n++
		return true
	})
	return n
}

// Mnemonic returns the text-format opcode of in, e.g. "i64.add" or "br_if".
func Mnemonic(in Instr) string {
	switch i := in.(type) {
	case *Const:
		return i.Ty.String() + ".const"
	case *LocalGet:
		return "local.get"
	case *LocalSet:
		return "local.set"
	case *NumBinOp:
		return i.Ty.String() + "." + i.Op.String()
	case *RelOpInstr:
		return i.Ty.String() + "." + i.Op.String()
	case *Call:
		return "call"
	case *If:
		return "if"
	case *Loop:
		return "loop"
	case *Branch:
		if i.Conditional {
			return "br_if"
		}
		return "br"
	default:
		return "unknown"
	}
}
