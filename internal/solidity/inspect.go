package solidity

// Inspect traverses the tree rooted at n in source order, calling fn for each
// node. If fn returns false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// Children returns the direct children of n in source order. Nodes of an
// unknown type have no children.
func Children(n Node) []Node {
	var out []Node
	expr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	stmt := func(s Stmt) {
		if s != nil {
			out = append(out, s)
		}
	}
	typ := func(t TypeName) {
		if t != nil {
			out = append(out, t)
		}
	}
	ident := func(id *Ident) {
		if id != nil {
			out = append(out, id)
		}
	}
	decls := func(ds []*VariableDeclaration) {
		for _, d := range ds {
			if d != nil {
				out = append(out, d)
			}
		}
	}
	block := func(b *Block) {
		if b != nil {
			out = append(out, b)
		}
	}

	switch n := n.(type) {
	case *SourceUnit:
		for _, p := range n.Parts {
			out = append(out, p)
		}
	case *ContractDefinition:
		ident(n.Name)
		layoutFirst := n.Layout != nil && (len(n.Bases) == 0 || n.Layout.Pos() < n.Bases[0].Pos())
		if layoutFirst {
			expr(n.Layout)
		}
		for _, b := range n.Bases {
			out = append(out, b)
		}
		if !layoutFirst {
			expr(n.Layout)
		}
		for _, p := range n.Parts {
			out = append(out, p)
		}
	case *InheritanceSpecifier:
		expr(n.Name)
		for _, a := range n.Args {
			expr(a)
		}
	case *FunctionDefinition:
		ident(n.Name)
		decls(n.Params)
		for _, m := range n.Modifiers {
			out = append(out, m)
		}
		decls(n.Returns)
		block(n.Body)
	case *ModifierInvocation:
		expr(n.Name)
		for _, a := range n.Args {
			expr(a)
		}
	case *VariableDeclaration:
		typ(n.Type)
		ident(n.Name)
	case *VariableDefinition:
		typ(n.Type)
		ident(n.Name)
		expr(n.Value)
	case *StructDefinition:
		ident(n.Name)
		decls(n.Fields)
	case *EnumDefinition:
		ident(n.Name)
		for _, v := range n.Values {
			ident(v)
		}
	case *EventDefinition:
		ident(n.Name)
		decls(n.Params)
	case *ErrorDefinition:
		ident(n.Name)
		decls(n.Params)
	case *UserValueTypeDefinition:
		ident(n.Name)
		typ(n.Underlying)

	case *MappingTypeName:
		typ(n.Key)
		typ(n.Value)
	case *ArrayTypeName:
		typ(n.Elem)
		expr(n.Len)
	case *FunctionTypeName:
		decls(n.Params)
		decls(n.Returns)

	case *Block:
		for _, s := range n.Stmts {
			stmt(s)
		}
	case *VariableDeclarationStatement:
		decls(n.Decls)
		expr(n.Value)
	case *ExpressionStatement:
		expr(n.X)
	case *IfStatement:
		expr(n.Cond)
		stmt(n.Then)
		stmt(n.Else)
	case *ForStatement:
		stmt(n.Init)
		expr(n.Cond)
		expr(n.Post)
		stmt(n.Body)
	case *WhileStatement:
		expr(n.Cond)
		stmt(n.Body)
	case *DoWhileStatement:
		stmt(n.Body)
		expr(n.Cond)
	case *ReturnStatement:
		expr(n.X)
	case *EmitStatement:
		expr(n.Call)
	case *RevertStatement:
		expr(n.Call)
	case *TryStatement:
		expr(n.Call)
		decls(n.Returns)
		block(n.Body)
		for _, c := range n.Catches {
			out = append(out, c)
		}
	case *CatchClause:
		decls(n.Params)
		block(n.Body)

	case *MemberAccess:
		expr(n.X)
		ident(n.Member)
	case *IndexAccess:
		expr(n.X)
		expr(n.Index)
	case *IndexRangeAccess:
		expr(n.X)
		expr(n.From)
		expr(n.To)
	case *CallExpr:
		expr(n.Fun)
		for _, a := range n.Args {
			expr(a)
		}
	case *CallOptions:
		expr(n.X)
		for _, v := range n.Values {
			expr(v)
		}
	case *UnaryExpr:
		expr(n.X)
	case *BinaryExpr:
		expr(n.X)
		expr(n.Y)
	case *AssignExpr:
		expr(n.LHS)
		expr(n.RHS)
	case *ConditionalExpr:
		expr(n.Cond)
		expr(n.Then)
		expr(n.Else)
	case *ParenExpr:
		expr(n.X)
	case *TupleExpr:
		for _, e := range n.Elems {
			expr(e)
		}
	case *ArrayLiteral:
		for _, e := range n.Elems {
			expr(e)
		}
	case *NewExpr:
		typ(n.Type)
	case *TypeExpr:
		typ(n.Type)
	}
	return out
}
