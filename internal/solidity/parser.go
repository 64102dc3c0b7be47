package solidity

import (
	"fmt"
	"strings"
)

// SyntaxError reports a lexing or parsing failure. Line and Column are set
// when the error comes from ParseFile.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// bailout unwinds the parser on the first error.
type bailout struct{ err *SyntaxError }

type parser struct {
	src  string
	toks []Token
	pos  int
}

// Parse builds the syntax tree for one Solidity source file.
func Parse(src string) (unit *SourceUnit, err error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			unit, err = nil, b.err
		}
	}()
	return p.parseSourceUnit(), nil
}

// ---- token helpers

func (p *parser) tok() Token { return p.toks[p.pos] }

func (p *parser) peek(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// prevEnd is the end offset of the last consumed token.
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].Hi
}

func isText(t Token, text string) bool {
	return (t.Kind == TokOp || t.Kind == TokIdent) && t.Text == text
}

func (p *parser) is(text string) bool         { return isText(p.tok(), text) }
func (p *parser) isOp(text string) bool       { t := p.tok(); return t.Kind == TokOp && t.Text == text }
func (p *parser) isKw(text string) bool       { t := p.tok(); return t.Kind == TokIdent && t.Text == text }
func (p *parser) peekIs(n int, s string) bool { return isText(p.peek(n), s) }

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) Token {
	if !p.is(text) {
		p.errorf("expected %q, found %s", text, p.describe())
	}
	return p.next()
}

func (p *parser) expectIdent() *Ident {
	t := p.tok()
	if t.Kind != TokIdent {
		p.errorf("expected identifier, found %s", p.describe())
	}
	p.next()
	return &Ident{Span: Span{t.Lo, t.Hi}, Name: t.Text}
}

func (p *parser) describe() string {
	t := p.tok()
	if t.Kind == TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", p.src[t.Lo:t.Hi])
}

func (p *parser) errorf(format string, args ...any) {
	panic(bailout{&SyntaxError{Offset: p.tok().Lo, Msg: fmt.Sprintf(format, args...)}})
}

// try runs f speculatively, rewinding on failure.
func (p *parser) try(f func()) (ok bool) {
	start := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			p.pos = start
			ok = false
		}
	}()
	f()
	return true
}

func (p *parser) skipBalanced(open, close string) {
	p.expect(open)
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.Kind == TokEOF:
			p.errorf("unbalanced %q", open)
		case t.Kind == TokOp && t.Text == open:
			depth++
		case t.Kind == TokOp && t.Text == close:
			depth--
		}
	}
}

// ---- source unit

func (p *parser) parseSourceUnit() *SourceUnit {
	u := &SourceUnit{Span: Span{0, len(p.src)}}
	for p.tok().Kind != TokEOF {
		if p.accept(";") {
			continue
		}
		u.Parts = append(u.Parts, p.parseSourceUnitPart())
	}
	return u
}

func (p *parser) parseSourceUnitPart() SourceUnitPart {
	t := p.tok()
	if t.Kind == TokIdent {
		switch t.Text {
		case "pragma":
			return p.parsePragma()
		case "import":
			return p.parseImport()
		case "abstract", "contract", "interface", "library":
			return p.parseContract()
		case "function":
			return p.parseFunction()
		case "struct":
			return p.parseStruct()
		case "enum":
			return p.parseEnum()
		case "event":
			return p.parseEvent()
		case "error":
			if p.peek(1).Kind == TokIdent && p.peekIs(2, "(") {
				return p.parseError()
			}
		case "using":
			return p.parseUsing()
		case "type":
			if p.peek(1).Kind == TokIdent && p.peekIs(2, "is") {
				return p.parseUserValueType()
			}
		}
	}
	return p.parseVariableDefinition()
}

func (p *parser) parsePragma() *PragmaDirective {
	lo := p.next().Lo
	d := &PragmaDirective{Name: p.expectIdent().Name}
	valueLo := p.tok().Lo
	for !p.isOp(";") {
		if p.tok().Kind == TokEOF {
			p.errorf("unterminated pragma")
		}
		p.next()
	}
	if end := p.prevEnd(); end > valueLo {
		d.Value = strings.TrimSpace(p.src[valueLo:end])
	}
	p.next()
	d.Span = Span{lo, p.prevEnd()}
	return d
}

func (p *parser) parseImport() *ImportDirective {
	lo := p.next().Lo
	d := &ImportDirective{}
	for !p.isOp(";") {
		t := p.next()
		switch {
		case t.Kind == TokEOF:
			p.errorf("unterminated import")
		case t.Kind == TokString && d.Path == "":
			d.Path = t.Text
		}
	}
	p.next()
	d.Span = Span{lo, p.prevEnd()}
	return d
}

func (p *parser) parseContract() *ContractDefinition {
	lo := p.tok().Lo
	c := &ContractDefinition{}
	if p.accept("abstract") {
		c.Abstract = true
	}
	c.Kind = p.next().Text
	c.Name = p.expectIdent()
	// The inheritance list and the storage layout specifier may appear in
	// either order, each at most once.
	for {
		switch {
		case c.Bases == nil && p.accept("is"):
			for {
				c.Bases = append(c.Bases, p.parseInheritance())
				if !p.accept(",") {
					break
				}
			}
			continue
		case c.Layout == nil && p.isKw("layout") && p.peekIs(1, "at"):
			p.next()
			p.next()
			c.Layout = p.parseExpr()
			continue
		}
		break
	}
	p.expect("{")
	for !p.isOp("}") {
		if p.tok().Kind == TokEOF {
			p.errorf("unexpected end of file in %s %s", c.Kind, c.Name.Name)
		}
		if p.accept(";") {
			continue
		}
		c.Parts = append(c.Parts, p.parseContractPart())
	}
	p.next()
	c.Span = Span{lo, p.prevEnd()}
	return c
}

func (p *parser) parseInheritance() *InheritanceSpecifier {
	lo := p.tok().Lo
	s := &InheritanceSpecifier{Name: p.parseIdentPath()}
	if p.isOp("(") {
		s.Args, _ = p.parseCallArgs()
		s.HasArgs = true
	}
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseIdentPath() Expr {
	id := p.expectIdent()
	var e Expr = id
	for p.isOp(".") {
		p.next()
		m := p.expectIdent()
		e = &MemberAccess{Span: Span{id.Lo, m.Hi}, X: e, Member: m}
	}
	return e
}

func (p *parser) parseContractPart() ContractPart {
	t := p.tok()
	if t.Kind == TokIdent {
		switch t.Text {
		case "function", "constructor", "modifier":
			return p.parseFunction()
		case "fallback", "receive":
			if p.peekIs(1, "(") {
				return p.parseFunction()
			}
		case "struct":
			return p.parseStruct()
		case "enum":
			return p.parseEnum()
		case "event":
			return p.parseEvent()
		case "error":
			if p.peek(1).Kind == TokIdent && p.peekIs(2, "(") {
				return p.parseError()
			}
		case "using":
			return p.parseUsing()
		case "type":
			if p.peek(1).Kind == TokIdent && p.peekIs(2, "is") {
				return p.parseUserValueType()
			}
		}
	}
	return p.parseVariableDefinition()
}

func (p *parser) parseFunction() *FunctionDefinition {
	lo := p.tok().Lo
	f := &FunctionDefinition{Kind: FunctionKind(p.next().Text)}
	switch f.Kind {
	case KindFunction:
		if p.tok().Kind == TokIdent {
			f.Name = p.expectIdent()
		}
	case KindModifier:
		f.Name = p.expectIdent()
	}
	if p.isOp("(") {
		f.Params = p.parseParams()
	} else if f.Kind != KindModifier {
		p.errorf("expected parameter list, found %s", p.describe())
	}
	for !p.isOp("{") && !p.isOp(";") {
		t := p.tok()
		if t.Kind != TokIdent {
			p.errorf("unexpected %s in function header", p.describe())
		}
		switch t.Text {
		case "public", "private", "internal", "external":
			f.Visibility = p.next().Text
		case "pure", "view", "payable", "constant":
			f.Mutability = p.next().Text
		case "virtual":
			p.next()
			f.Virtual = true
		case "override":
			p.next()
			f.Override = true
			if p.isOp("(") {
				p.skipBalanced("(", ")")
			}
		case "returns":
			p.next()
			f.Returns = p.parseParams()
		default:
			f.Modifiers = append(f.Modifiers, p.parseModifierInvocation())
		}
	}
	if p.isOp("{") {
		f.Body = p.parseBlock()
	} else {
		p.next()
	}
	f.Span = Span{lo, p.prevEnd()}
	return f
}

func (p *parser) parseModifierInvocation() *ModifierInvocation {
	lo := p.tok().Lo
	m := &ModifierInvocation{Name: p.parseIdentPath()}
	if p.isOp("(") {
		m.Args, _ = p.parseCallArgs()
		m.HasArgs = true
	}
	m.Span = Span{lo, p.prevEnd()}
	return m
}

func (p *parser) parseParams() []*VariableDeclaration {
	p.expect("(")
	var out []*VariableDeclaration
	if p.accept(")") {
		return out
	}
	for {
		out = append(out, p.parseParam())
		if p.accept(")") {
			return out
		}
		p.expect(",")
	}
}

func (p *parser) parseParam() *VariableDeclaration {
	lo := p.tok().Lo
	d := &VariableDeclaration{Type: p.parseType()}
	for p.tok().Kind == TokIdent {
		switch p.tok().Text {
		case "memory", "storage", "calldata":
			d.Storage = p.next().Text
			continue
		case "indexed":
			p.next()
			d.Indexed = true
			continue
		}
		d.Name = p.expectIdent()
		break
	}
	d.Span = Span{lo, p.prevEnd()}
	return d
}

func (p *parser) parseVariableDefinition() *VariableDefinition {
	lo := p.tok().Lo
	v := &VariableDefinition{Type: p.parseType()}
attrs:
	for p.tok().Kind == TokIdent {
		switch p.tok().Text {
		case "public", "private", "internal", "external":
			v.Visibility = p.next().Text
		case "constant":
			p.next()
			v.Constant = true
		case "immutable":
			p.next()
			v.Immutable = true
		case "transient":
			p.next()
			v.Transient = true
		case "override":
			p.next()
			v.Override = true
			if p.isOp("(") {
				p.skipBalanced("(", ")")
			}
		default:
			break attrs
		}
	}
	v.Name = p.expectIdent()
	if p.accept("=") {
		v.Value = p.parseExpr()
	}
	p.expect(";")
	v.Span = Span{lo, p.prevEnd()}
	return v
}

func (p *parser) parseStruct() *StructDefinition {
	lo := p.next().Lo
	s := &StructDefinition{Name: p.expectIdent()}
	p.expect("{")
	for !p.isOp("}") {
		s.Fields = append(s.Fields, p.parseParam())
		p.expect(";")
	}
	p.next()
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseEnum() *EnumDefinition {
	lo := p.next().Lo
	e := &EnumDefinition{Name: p.expectIdent()}
	p.expect("{")
	for !p.isOp("}") {
		e.Values = append(e.Values, p.expectIdent())
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	e.Span = Span{lo, p.prevEnd()}
	return e
}

func (p *parser) parseEvent() *EventDefinition {
	lo := p.next().Lo
	e := &EventDefinition{Name: p.expectIdent()}
	e.Params = p.parseParams()
	if p.accept("anonymous") {
		e.Anonymous = true
	}
	p.expect(";")
	e.Span = Span{lo, p.prevEnd()}
	return e
}

func (p *parser) parseError() *ErrorDefinition {
	lo := p.next().Lo
	e := &ErrorDefinition{Name: p.expectIdent()}
	e.Params = p.parseParams()
	p.expect(";")
	e.Span = Span{lo, p.prevEnd()}
	return e
}

func (p *parser) parseUsing() *UsingDirective {
	lo := p.next().Lo
	u := &UsingDirective{}
	libLo := p.tok().Lo
	if p.isOp("{") {
		p.skipBalanced("{", "}")
	} else {
		p.parseIdentPath()
	}
	u.Library = p.src[libLo:p.prevEnd()]
	p.expect("for")
	targetLo := p.tok().Lo
	if !p.accept("*") {
		p.parseType()
	}
	u.Target = p.src[targetLo:p.prevEnd()]
	if p.accept("global") {
		u.Global = true
	}
	p.expect(";")
	u.Span = Span{lo, p.prevEnd()}
	return u
}

func (p *parser) parseUserValueType() *UserValueTypeDefinition {
	lo := p.next().Lo
	u := &UserValueTypeDefinition{Name: p.expectIdent()}
	p.expect("is")
	u.Underlying = p.parseType()
	p.expect(";")
	u.Span = Span{lo, p.prevEnd()}
	return u
}

// ---- types

var reservedWords = map[string]bool{
	"delete": true, "new": true, "return": true, "emit": true, "if": true,
	"else": true, "for": true, "while": true, "do": true, "break": true,
	"continue": true, "true": true, "false": true, "try": true, "catch": true,
	"assembly": true, "unchecked": true, "type": true, "payable": true,
}

func isElementaryType(name string) bool {
	switch name {
	case "address", "bool", "string", "bytes", "byte", "int", "uint", "fixed", "ufixed":
		return true
	}
	for _, prefix := range []string{"uint", "int", "bytes"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" && allDigits(rest) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func (p *parser) parseType() TypeName {
	lo := p.tok().Lo
	tok := p.tok()
	if tok.Kind != TokIdent || reservedWords[tok.Text] {
		p.errorf("expected type name, found %s", p.describe())
	}
	var t TypeName
	switch {
	case tok.Text == "mapping":
		p.next()
		p.expect("(")
		key := p.parseType()
		if p.tok().Kind == TokIdent {
			p.next()
		}
		p.expect("=>")
		val := p.parseType()
		if p.tok().Kind == TokIdent {
			p.next()
		}
		p.expect(")")
		t = &MappingTypeName{Span: Span{lo, p.prevEnd()}, Key: key, Value: val}
	case tok.Text == "function":
		t = p.parseFunctionType()
	case isElementaryType(tok.Text):
		p.next()
		et := &ElementaryTypeName{Name: tok.Text}
		if tok.Text == "address" && p.isKw("payable") {
			p.next()
			et.Payable = true
		}
		et.Span = Span{lo, p.prevEnd()}
		t = et
	default:
		path := []string{p.next().Text}
		for p.isOp(".") && p.peek(1).Kind == TokIdent {
			p.next()
			path = append(path, p.next().Text)
		}
		t = &UserDefinedTypeName{Span: Span{lo, p.prevEnd()}, Path: path}
	}
	for p.isOp("[") {
		p.next()
		var n Expr
		if !p.isOp("]") {
			n = p.parseExpr()
		}
		p.expect("]")
		t = &ArrayTypeName{Span: Span{lo, p.prevEnd()}, Elem: t, Len: n}
	}
	return t
}

func (p *parser) parseFunctionType() *FunctionTypeName {
	lo := p.next().Lo
	ft := &FunctionTypeName{Params: p.parseParams()}
attrs:
	for p.tok().Kind == TokIdent {
		switch p.tok().Text {
		case "internal", "external", "public", "private":
			ft.Visibility = p.next().Text
		case "pure", "view", "payable":
			ft.Mutability = p.next().Text
		case "returns":
			p.next()
			ft.Returns = p.parseParams()
		default:
			break attrs
		}
	}
	ft.Span = Span{lo, p.prevEnd()}
	return ft
}

// ---- statements

func (p *parser) parseBlock() *Block {
	lo := p.tok().Lo
	p.expect("{")
	b := &Block{}
	for !p.isOp("}") {
		if p.tok().Kind == TokEOF {
			p.errorf("unexpected end of file in block")
		}
		b.Stmts = append(b.Stmts, p.parseStatement())
	}
	p.next()
	b.Span = Span{lo, p.prevEnd()}
	return b
}

func (p *parser) parseStatement() Stmt {
	t := p.tok()
	lo := t.Lo
	if t.Kind == TokOp && t.Text == "{" {
		return p.parseBlock()
	}
	if t.Kind == TokIdent {
		switch t.Text {
		case "unchecked":
			if p.peekIs(1, "{") {
				p.next()
				b := p.parseBlock()
				b.Unchecked = true
				b.Lo = lo
				return b
			}
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			p.next()
			p.expect("(")
			s := &WhileStatement{Cond: p.parseExpr()}
			p.expect(")")
			s.Body = p.parseStatement()
			s.Span = Span{lo, p.prevEnd()}
			return s
		case "do":
			p.next()
			s := &DoWhileStatement{Body: p.parseStatement()}
			p.expect("while")
			p.expect("(")
			s.Cond = p.parseExpr()
			p.expect(")")
			p.expect(";")
			s.Span = Span{lo, p.prevEnd()}
			return s
		case "return":
			p.next()
			s := &ReturnStatement{}
			if !p.isOp(";") {
				s.X = p.parseExpr()
			}
			p.expect(";")
			s.Span = Span{lo, p.prevEnd()}
			return s
		case "emit":
			p.next()
			s := &EmitStatement{Call: p.parseExpr()}
			p.expect(";")
			s.Span = Span{lo, p.prevEnd()}
			return s
		case "revert":
			if p.peek(1).Kind == TokIdent {
				p.next()
				s := &RevertStatement{Call: p.parseExpr()}
				p.expect(";")
				s.Span = Span{lo, p.prevEnd()}
				return s
			}
		case "try":
			return p.parseTry()
		case "continue":
			p.next()
			p.expect(";")
			return &ContinueStatement{Span{lo, p.prevEnd()}}
		case "break":
			p.next()
			p.expect(";")
			return &BreakStatement{Span{lo, p.prevEnd()}}
		case "assembly":
			return p.parseAssembly()
		case "_":
			if p.peekIs(1, ";") {
				p.next()
				p.next()
				return &PlaceholderStatement{Span{lo, p.prevEnd()}}
			}
		}
	}
	return p.parseSimpleStatement()
}

// parseSimpleStatement parses a variable declaration or an expression
// statement, trying the declaration forms first.
func (p *parser) parseSimpleStatement() Stmt {
	lo := p.tok().Lo
	var decl Stmt
	switch t := p.tok(); {
	case t.Kind == TokOp && t.Text == "(":
		if p.try(func() { decl = p.parseTupleDeclaration(lo) }) {
			return decl
		}
	case t.Kind == TokIdent && !reservedWords[t.Text]:
		if p.try(func() { decl = p.parseDeclaration(lo) }) {
			return decl
		}
	}
	x := p.parseExpr()
	p.expect(";")
	return &ExpressionStatement{Span: Span{lo, p.prevEnd()}, X: x}
}

func (p *parser) parseLocalVar() *VariableDeclaration {
	lo := p.tok().Lo
	d := &VariableDeclaration{Type: p.parseType()}
	if t := p.tok(); t.Kind == TokIdent && (t.Text == "memory" || t.Text == "storage" || t.Text == "calldata") {
		d.Storage = p.next().Text
	}
	d.Name = p.expectIdent()
	d.Span = Span{lo, p.prevEnd()}
	return d
}

func (p *parser) parseDeclaration(lo int) Stmt {
	s := &VariableDeclarationStatement{Decls: []*VariableDeclaration{p.parseLocalVar()}}
	if p.accept("=") {
		s.Value = p.parseExpr()
	}
	p.expect(";")
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseTupleDeclaration(lo int) Stmt {
	p.expect("(")
	s := &VariableDeclarationStatement{}
	named := 0
	for {
		var d *VariableDeclaration
		if !p.isOp(",") && !p.isOp(")") {
			d = p.parseLocalVar()
			named++
		}
		s.Decls = append(s.Decls, d)
		if p.accept(")") {
			break
		}
		p.expect(",")
	}
	if named == 0 {
		p.errorf("empty tuple declaration")
	}
	p.expect("=")
	s.Value = p.parseExpr()
	p.expect(";")
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseIf() *IfStatement {
	lo := p.next().Lo
	p.expect("(")
	s := &IfStatement{Cond: p.parseExpr()}
	p.expect(")")
	s.Then = p.parseStatement()
	if p.accept("else") {
		s.Else = p.parseStatement()
	}
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseFor() *ForStatement {
	lo := p.next().Lo
	p.expect("(")
	s := &ForStatement{}
	if !p.accept(";") {
		s.Init = p.parseSimpleStatement()
	}
	if !p.isOp(";") {
		s.Cond = p.parseExpr()
	}
	p.expect(";")
	if !p.isOp(")") {
		s.Post = p.parseExpr()
	}
	p.expect(")")
	s.Body = p.parseStatement()
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseTry() *TryStatement {
	lo := p.next().Lo
	s := &TryStatement{Call: p.parseExpr()}
	if p.accept("returns") {
		s.Returns = p.parseParams()
	}
	s.Body = p.parseBlock()
	for p.isKw("catch") {
		clo := p.next().Lo
		c := &CatchClause{}
		if p.tok().Kind == TokIdent {
			c.Kind = p.next().Text
		}
		if p.isOp("(") {
			c.Params = p.parseParams()
		}
		c.Body = p.parseBlock()
		c.Span = Span{clo, p.prevEnd()}
		s.Catches = append(s.Catches, c)
	}
	s.Span = Span{lo, p.prevEnd()}
	return s
}

func (p *parser) parseAssembly() *InlineAssembly {
	lo := p.next().Lo
	a := &InlineAssembly{}
	if p.tok().Kind == TokString {
		a.Dialect = p.next().Text
	}
	if p.isOp("(") {
		p.next()
		for !p.isOp(")") {
			t := p.next()
			switch t.Kind {
			case TokEOF:
				p.errorf("unterminated assembly flags")
			case TokString:
				a.Flags = append(a.Flags, t.Text)
			}
		}
		p.next()
	}
	bodyLo := p.tok().Lo
	p.skipBalanced("{", "}")
	a.Body = p.src[bodyLo:p.prevEnd()]
	a.Span = Span{lo, p.prevEnd()}
	return a
}

// ---- expressions

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4,
	"|":  5,
	"^":  6,
	"&":  7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "|=", "&=", "^=", "<<=", ">>=", ">>>=":
		return true
	}
	return false
}

func isUnit(s string) bool {
	switch s {
	case "wei", "gwei", "ether", "szabo", "finney",
		"seconds", "minutes", "hours", "days", "weeks", "years":
		return true
	}
	return false
}

func (p *parser) parseExpr() Expr {
	lo := p.tok().Lo
	x := p.parseConditional()
	if t := p.tok(); t.Kind == TokOp && isAssignOp(t.Text) {
		p.next()
		rhs := p.parseExpr()
		return &AssignExpr{Span: Span{lo, p.prevEnd()}, Op: t.Text, LHS: x, RHS: rhs}
	}
	return x
}

func (p *parser) parseConditional() Expr {
	lo := p.tok().Lo
	cond := p.parseBinary(1)
	if !p.accept("?") {
		return cond
	}
	then := p.parseExpr()
	p.expect(":")
	els := p.parseExpr()
	return &ConditionalExpr{Span: Span{lo, p.prevEnd()}, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseBinary(minPrec int) Expr {
	lo := p.tok().Lo
	x := p.parseUnary()
	for {
		t := p.tok()
		if t.Kind != TokOp {
			return x
		}
		prec, ok := binaryPrec[t.Text]
		if !ok || prec < minPrec {
			return x
		}
		p.next()
		nextMin := prec + 1
		if t.Text == "**" {
			nextMin = prec
		}
		y := p.parseBinary(nextMin)
		x = &BinaryExpr{Span: Span{lo, p.prevEnd()}, Op: t.Text, X: x, Y: y}
	}
}

func (p *parser) parseUnary() Expr {
	t := p.tok()
	prefix := t.Kind == TokOp && (t.Text == "!" || t.Text == "~" || t.Text == "-" || t.Text == "+" || t.Text == "++" || t.Text == "--")
	if prefix || (t.Kind == TokIdent && t.Text == "delete") {
		p.next()
		x := p.parseUnary()
		return &UnaryExpr{Span: Span{t.Lo, p.prevEnd()}, Op: t.Text, X: x}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(x Expr) Expr {
	lo := x.Pos()
	for {
		t := p.tok()
		if t.Kind != TokOp {
			return x
		}
		switch t.Text {
		case ".":
			p.next()
			m := p.expectIdent()
			x = &MemberAccess{Span: Span{lo, p.prevEnd()}, X: x, Member: m}
		case "[":
			p.next()
			if p.accept("]") {
				x = &IndexAccess{Span: Span{lo, p.prevEnd()}, X: x}
				continue
			}
			var start Expr
			if !p.isOp(":") {
				start = p.parseExpr()
			}
			if p.accept(":") {
				var end Expr
				if !p.isOp("]") {
					end = p.parseExpr()
				}
				p.expect("]")
				x = &IndexRangeAccess{Span: Span{lo, p.prevEnd()}, X: x, From: start, To: end}
				continue
			}
			p.expect("]")
			x = &IndexAccess{Span: Span{lo, p.prevEnd()}, X: x, Index: start}
		case "(":
			args, names := p.parseCallArgs()
			x = &CallExpr{Span: Span{lo, p.prevEnd()}, Fun: x, Args: args, Names: names}
		case "{":
			if p.peek(1).Kind != TokIdent || !p.peekIs(2, ":") {
				return x
			}
			p.next()
			opts := &CallOptions{X: x}
			for !p.isOp("}") {
				opts.Names = append(opts.Names, p.expectIdent())
				p.expect(":")
				opts.Values = append(opts.Values, p.parseExpr())
				if !p.accept(",") {
					break
				}
			}
			p.expect("}")
			opts.Span = Span{lo, p.prevEnd()}
			x = opts
		case "++", "--":
			p.next()
			x = &UnaryExpr{Span: Span{lo, p.prevEnd()}, Op: t.Text, X: x, Postfix: true}
		default:
			return x
		}
	}
}

func (p *parser) parseCallArgs() (args []Expr, names []*Ident) {
	p.expect("(")
	if p.isOp("{") {
		p.next()
		for !p.isOp("}") {
			names = append(names, p.expectIdent())
			p.expect(":")
			args = append(args, p.parseExpr())
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		p.expect(")")
		return args, names
	}
	if p.accept(")") {
		return nil, nil
	}
	for {
		args = append(args, p.parseExpr())
		if p.accept(")") {
			return args, nil
		}
		p.expect(",")
	}
}

func (p *parser) parsePrimary() Expr {
	t := p.tok()
	switch t.Kind {
	case TokNumber:
		p.next()
		n := &NumberLiteral{Value: t.Text}
		if u := p.tok(); u.Kind == TokIdent && isUnit(u.Text) {
			p.next()
			n.Unit = u.Text
		}
		n.Span = Span{t.Lo, p.prevEnd()}
		return n
	case TokString:
		s := &StringLiteral{Kind: t.Prefix}
		var b strings.Builder
		for p.tok().Kind == TokString {
			b.WriteString(p.next().Text)
		}
		s.Value = b.String()
		s.Span = Span{t.Lo, p.prevEnd()}
		return s
	case TokIdent:
		switch {
		case t.Text == "true" || t.Text == "false":
			p.next()
			return &BoolLiteral{Span: Span{t.Lo, t.Hi}, Value: t.Text == "true"}
		case t.Text == "new":
			p.next()
			typ := p.parseType()
			return &NewExpr{Span: Span{t.Lo, p.prevEnd()}, Type: typ}
		case isElementaryType(t.Text):
			p.next()
			et := &ElementaryTypeName{Span: Span{t.Lo, t.Hi}, Name: t.Text}
			return &TypeExpr{Span: et.Span, Type: et}
		}
		p.next()
		return &Ident{Span: Span{t.Lo, t.Hi}, Name: t.Text}
	case TokOp:
		switch t.Text {
		case "(":
			return p.parseParenOrTuple()
		case "[":
			p.next()
			a := &ArrayLiteral{}
			for !p.isOp("]") {
				a.Elems = append(a.Elems, p.parseExpr())
				if !p.accept(",") {
					break
				}
			}
			p.expect("]")
			a.Span = Span{t.Lo, p.prevEnd()}
			return a
		}
	}
	p.errorf("unexpected %s in expression", p.describe())
	return nil
}

func (p *parser) parseParenOrTuple() Expr {
	lo := p.next().Lo
	var elems []Expr
	comma := false
	for {
		var e Expr
		if !p.isOp(",") && !p.isOp(")") {
			e = p.parseExpr()
		}
		elems = append(elems, e)
		if p.accept(")") {
			break
		}
		p.expect(",")
		comma = true
	}
	if !comma && elems[0] != nil {
		return &ParenExpr{Span: Span{lo, p.prevEnd()}, X: elems[0]}
	}
	return &TupleExpr{Span: Span{lo, p.prevEnd()}, Elems: elems}
}
