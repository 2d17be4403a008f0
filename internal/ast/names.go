package ast

// FunctionName returns the declared name of fn, or "" for anonymous functions.
func FunctionName(fn *FunctionLiteral) string {
	if fn == nil || fn.Name == nil {
		return ""
	}
	return fn.Name.Value
}

// VarNames collects the names declared by var statements in stmts,
// descending into nested blocks but not into nested functions.
func VarNames(stmts []Statement) []string {
	var out []string
	var walk func(Statement)
	walk = func(s Statement) {
		switch n := s.(type) {
		case *VarStatement:
			if n.Token.Literal != "var" {
				return
			}
			for _, d := range n.Declarations {
				out = append(out, d.Name.Value)
			}
		case *ExportStatement:
			if n.Decl != nil {
				walk(n.Decl)
			}
		case *BlockStatement:
			for _, inner := range n.Statements {
				walk(inner)
			}
		case *IfStatement:
			walk(n.Consequence)
			if n.Alternative != nil {
				walk(n.Alternative)
			}
		case *WhileStatement:
			walk(n.Body)
		case *ForStatement:
			if n.Init != nil {
				walk(n.Init)
			}
			walk(n.Body)
		case *TryStatement:
			walk(n.TryBlock)
			if n.CatchBlock != nil {
				walk(n.CatchBlock)
			}
			if n.FinallyBlock != nil {
				walk(n.FinallyBlock)
			}
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return out
}
