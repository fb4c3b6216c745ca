package ast

// Pos locates a node inside its source document.
// Path is a document path such as "stmts[2].assign.value"; File is optional.
type Pos struct {
	File string
	Path string
}

// IsValid reports whether the position carries any information.
func (p Pos) IsValid() bool {
	return p.File != "" || p.Path != ""
}

func (p Pos) String() string {
	switch {
	case p.File != "" && p.Path != "":
		return p.File + ":" + p.Path
	case p.File != "":
		return p.File
	case p.Path != "":
		return p.Path
	default:
		return "-"
	}
}
