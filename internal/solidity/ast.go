package solidity

// Span is a half-open byte range [Lo, Hi) into the file source. Every node
// embeds one.
type Span struct {
	Lo, Hi int
}

func (s Span) Pos() int { return s.Lo }
func (s Span) End() int { return s.Hi }

// Node is any syntax tree node.
type Node interface {
	Pos() int
	End() int
}

// SourceUnitPart is a top-level item of a file.
type SourceUnitPart interface {
	Node
	sourceUnitPart()
}

// ContractPart is a member of a contract, interface or library.
type ContractPart interface {
	Node
	contractPart()
}

// Stmt is any statement.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any expression.
type Expr interface {
	Node
	exprNode()
}

// TypeName is a type as written in source.
type TypeName interface {
	Node
	typeNode()
}

type SourceUnit struct {
	Span
	Parts []SourceUnitPart
}

// ---- declarations

type PragmaDirective struct {
	Span
	Name  string // "solidity", "abicoder", "experimental"
	Value string // raw text after the name, e.g. "^0.8.0"
}

type ImportDirective struct {
	Span
	Path string
}

type ContractDefinition struct {
	Span
	Kind     string // contract, interface, library
	Abstract bool
	Name     *Ident
	Bases    []*InheritanceSpecifier
	Layout   Expr // base slot from "layout at <expr>", nil when absent
	Parts    []ContractPart
}

type InheritanceSpecifier struct {
	Span
	Name    Expr // *Ident or *MemberAccess
	Args    []Expr
	HasArgs bool
}

// FunctionKind distinguishes the callable declarations sharing
// FunctionDefinition.
type FunctionKind string

const (
	KindFunction    FunctionKind = "function"
	KindConstructor FunctionKind = "constructor"
	KindModifier    FunctionKind = "modifier"
	KindFallback    FunctionKind = "fallback"
	KindReceive     FunctionKind = "receive"
)

type FunctionDefinition struct {
	Span
	Kind       FunctionKind
	Name       *Ident // nil for constructor, fallback and receive
	Params     []*VariableDeclaration
	Returns    []*VariableDeclaration
	Visibility string
	Mutability string
	Virtual    bool
	Override   bool
	Modifiers  []*ModifierInvocation
	Body       *Block // nil when the function has no implementation
}

// NameOrKind returns the declared name, or the kind for unnamed functions.
func (f *FunctionDefinition) NameOrKind() string {
	if f.Name != nil {
		return f.Name.Name
	}
	return string(f.Kind)
}

type ModifierInvocation struct {
	Span
	Name    Expr
	Args    []Expr
	HasArgs bool
}

// VariableDeclaration is a parameter, struct field, event or error parameter,
// or a local variable in a declaration statement.
type VariableDeclaration struct {
	Span
	Type    TypeName
	Storage string // memory, storage, calldata or ""
	Indexed bool
	Name    *Ident // may be nil for unnamed parameters
}

// VariableDefinition is a state variable or a file-level constant.
type VariableDefinition struct {
	Span
	Type       TypeName
	Visibility string
	Constant   bool
	Immutable  bool
	Transient  bool
	Override   bool
	Name       *Ident
	Value      Expr
}

type StructDefinition struct {
	Span
	Name   *Ident
	Fields []*VariableDeclaration
}

type EnumDefinition struct {
	Span
	Name   *Ident
	Values []*Ident
}

type EventDefinition struct {
	Span
	Name      *Ident
	Params    []*VariableDeclaration
	Anonymous bool
}

type ErrorDefinition struct {
	Span
	Name   *Ident
	Params []*VariableDeclaration
}

type UsingDirective struct {
	Span
	Library string
	Target  string // "*" or the type text
	Global  bool
}

type UserValueTypeDefinition struct {
	Span
	Name       *Ident
	Underlying TypeName
}

func (*PragmaDirective) sourceUnitPart()         {}
func (*ImportDirective) sourceUnitPart()         {}
func (*ContractDefinition) sourceUnitPart()      {}
func (*FunctionDefinition) sourceUnitPart()      {}
func (*VariableDefinition) sourceUnitPart()      {}
func (*StructDefinition) sourceUnitPart()        {}
func (*EnumDefinition) sourceUnitPart()          {}
func (*EventDefinition) sourceUnitPart()         {}
func (*ErrorDefinition) sourceUnitPart()         {}
func (*UsingDirective) sourceUnitPart()          {}
func (*UserValueTypeDefinition) sourceUnitPart() {}

func (*FunctionDefinition) contractPart()      {}
func (*VariableDefinition) contractPart()      {}
func (*StructDefinition) contractPart()        {}
func (*EnumDefinition) contractPart()          {}
func (*EventDefinition) contractPart()         {}
func (*ErrorDefinition) contractPart()         {}
func (*UsingDirective) contractPart()          {}
func (*UserValueTypeDefinition) contractPart() {}

// ---- types

type ElementaryTypeName struct {
	Span
	Name    string // address, bool, uint256, bytes32, string ...
	Payable bool
}

type UserDefinedTypeName struct {
	Span
	Path []string
}

type MappingTypeName struct {
	Span
	Key   TypeName
	Value TypeName
}

type ArrayTypeName struct {
	Span
	Elem TypeName
	Len  Expr // nil for dynamic arrays
}

type FunctionTypeName struct {
	Span
	Params     []*VariableDeclaration
	Returns    []*VariableDeclaration
	Visibility string
	Mutability string
}

func (*ElementaryTypeName) typeNode()  {}
func (*UserDefinedTypeName) typeNode() {}
func (*MappingTypeName) typeNode()     {}
func (*ArrayTypeName) typeNode()       {}
func (*FunctionTypeName) typeNode()    {}

// ---- statements

type Block struct {
	Span
	Unchecked bool
	Stmts     []Stmt
}

// VariableDeclarationStatement declares one variable, or several in tuple
// form where Decls may contain nil gaps.
type VariableDeclarationStatement struct {
	Span
	Decls []*VariableDeclaration
	Value Expr
}

type ExpressionStatement struct {
	Span
	X Expr
}

type IfStatement struct {
	Span
	Cond Expr
	Then Stmt
	Else Stmt
}

type ForStatement struct {
	Span
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

type WhileStatement struct {
	Span
	Cond Expr
	Body Stmt
}

type DoWhileStatement struct {
	Span
	Body Stmt
	Cond Expr
}

type ReturnStatement struct {
	Span
	X Expr
}

type EmitStatement struct {
	Span
	Call Expr
}

// RevertStatement is the "revert CustomError(...)" form. A call to the
// builtin revert("reason") is an ExpressionStatement.
type RevertStatement struct {
	Span
	Call Expr
}

type TryStatement struct {
	Span
	Call    Expr
	Returns []*VariableDeclaration
	Body    *Block
	Catches []*CatchClause
}

type CatchClause struct {
	Span
	Kind   string // "", "Error" or "Panic"
	Params []*VariableDeclaration
	Body   *Block
}

type ContinueStatement struct{ Span }
type BreakStatement struct{ Span }

// PlaceholderStatement is the "_;" inside a modifier body.
type PlaceholderStatement struct{ Span }

// InlineAssembly keeps the Yul body as raw text.
type InlineAssembly struct {
	Span
	Dialect string
	Flags   []string
	Body    string
}

func (*Block) stmtNode()                        {}
func (*VariableDeclarationStatement) stmtNode() {}
func (*ExpressionStatement) stmtNode()          {}
func (*IfStatement) stmtNode()                  {}
func (*ForStatement) stmtNode()                 {}
func (*WhileStatement) stmtNode()               {}
func (*DoWhileStatement) stmtNode()             {}
func (*ReturnStatement) stmtNode()              {}
func (*EmitStatement) stmtNode()                {}
func (*RevertStatement) stmtNode()              {}
func (*TryStatement) stmtNode()                 {}
func (*ContinueStatement) stmtNode()            {}
func (*BreakStatement) stmtNode()               {}
func (*PlaceholderStatement) stmtNode()         {}
func (*InlineAssembly) stmtNode()               {}

// ---- expressions

type Ident struct {
	Span
	Name string
}

type NumberLiteral struct {
	Span
	Value string // as written, e.g. "1e18", "0xdead", "365"
	Unit  string // ether, days ... or ""
}

type StringLiteral struct {
	Span
	Value string
	Kind  string // "", "unicode" or "hex"
}

type BoolLiteral struct {
	Span
	Value bool
}

type MemberAccess struct {
	Span
	X      Expr
	Member *Ident
}

type IndexAccess struct {
	Span
	X     Expr
	Index Expr // nil in type expressions such as uint[]
}

// IndexRangeAccess is a slice x[From:To]. Either bound may be nil.
type IndexRangeAccess struct {
	Span
	X        Expr
	From, To Expr
}

// CallExpr is a function call. When the call uses named arguments Names is
// parallel to Args.
type CallExpr struct {
	Span
	Fun   Expr
	Args  []Expr
	Names []*Ident
}

// CallOptions is the {value: v, gas: g} block between a callee and its
// argument list.
type CallOptions struct {
	Span
	X      Expr
	Names  []*Ident
	Values []Expr
}

type UnaryExpr struct {
	Span
	Op      string
	X       Expr
	Postfix bool
}

type BinaryExpr struct {
	Span
	Op   string
	X, Y Expr
}

type AssignExpr struct {
	Span
	Op       string
	LHS, RHS Expr
}

type ConditionalExpr struct {
	Span
	Cond, Then, Else Expr
}

type ParenExpr struct {
	Span
	X Expr
}

// TupleExpr has two or more components; nil entries are omitted components.
type TupleExpr struct {
	Span
	Elems []Expr
}

type ArrayLiteral struct {
	Span
	Elems []Expr
}

type NewExpr struct {
	Span
	Type TypeName
}

// TypeExpr is an elementary type used in expression position, e.g. the
// callee of address(0).
type TypeExpr struct {
	Span
	Type TypeName
}

func (*Ident) exprNode()            {}
func (*NumberLiteral) exprNode()    {}
func (*StringLiteral) exprNode()    {}
func (*BoolLiteral) exprNode()      {}
func (*MemberAccess) exprNode()     {}
func (*IndexAccess) exprNode()      {}
func (*IndexRangeAccess) exprNode() {}
func (*CallExpr) exprNode()         {}
func (*CallOptions) exprNode()      {}
func (*UnaryExpr) exprNode()        {}
func (*BinaryExpr) exprNode()       {}
func (*AssignExpr) exprNode()       {}
func (*ConditionalExpr) exprNode()  {}
func (*ParenExpr) exprNode()        {}
func (*TupleExpr) exprNode()        {}
func (*ArrayLiteral) exprNode()     {}
func (*NewExpr) exprNode()          {}
func (*TypeExpr) exprNode()         {}

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// Callee returns the receiver and method name of a call. For a plain call
// f(x) the receiver is nil. Call options are looked through, so both
// a.call(x) and a.call{value: v}(x) yield (a, "call").
func (c *CallExpr) Callee() (recv Expr, name string) {
	fun := c.Fun
	if opts, ok := fun.(*CallOptions); ok {
		fun = opts.X
	}
	switch f := fun.(type) {
	case *Ident:
		return nil, f.Name
	case *MemberAccess:
		return f.X, f.Member.Name
	}
	return nil, ""
}

// IsIdent reports whether e is an identifier with the given name.
func IsIdent(e Expr, name string) bool {
	id, ok := Unparen(e).(*Ident)
	return ok && id.Name == name
}

// IsMember reports whether e is x.member where x is the identifier base.
func IsMember(e Expr, base, member string) bool {
	m, ok := Unparen(e).(*MemberAccess)
	return ok && m.Member.Name == member && IsIdent(m.X, base)
}
