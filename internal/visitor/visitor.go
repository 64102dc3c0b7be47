// Package visitor walks a parsed Solidity file once and dispatches each node
// to the observers subscribed to its syntactic category.
package visitor

import (
	"fmt"

	"github.com/weasel-sec/weasel/internal/solidity"
)

// Category is the syntactic class an observer subscribes to.
type Category int

const (
	SourceUnit Category = iota
	SourceUnitPart
	Contract
	ContractPart
	Function
	Variable
	Statement
	Expression

	numCategories
)

func (c Category) String() string {
	switch c {
	case SourceUnit:
		return "source-unit"
	case SourceUnitPart:
		return "source-unit-part"
	case Contract:
		return "contract"
	case ContractPart:
		return "contract-part"
	case Function:
		return "function"
	case Variable:
		return "variable"
	case Statement:
		return "statement"
	case Expression:
		return "expression"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Observer is called with the file being walked and the matched node. It must
// not modify the tree.
type Observer func(f *solidity.File, n solidity.Node)

type subscription struct {
	owner string
	fn    Observer
}

// Warning records a node the visitor could not interpret. The node and its
// subtree are skipped.
type Warning struct {
	Path    string
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.Path, w.Line, w.Message)
}

// Fault records an observer that panicked. The owner's remaining observers
// are not called again for the same file.
type Fault struct {
	Owner string
	Path  string
	Line  int
	Value any
}

func (f Fault) Error() string {
	return fmt.Sprintf("%s: %s:%d: %v", f.Owner, f.Path, f.Line, f.Value)
}

// Report is the outcome of one Walk.
type Report struct {
	Warnings []Warning
	Faults   []Fault
}

// Visitor holds the observer lists for one file. It is not safe for
// concurrent use; create one per file.
type Visitor struct {
	subs [numCategories][]subscription

	file     *solidity.File
	disabled map[string]bool
	report   Report
}

// New returns a visitor with no observers.
func New() *Visitor {
	return &Visitor{}
}

// Scope returns a registration handle whose observers are attributed to
// owner, normally a detector id.
func (v *Visitor) Scope(owner string) *Scope {
	return &Scope{v: v, owner: owner}
}

// Scope subscribes observers on behalf of a single owner.
type Scope struct {
	v     *Visitor
	owner string
}

// Owner returns the id the scope was created with.
func (s *Scope) Owner() string { return s.owner }

// On appends fn to the observers of category c.
func (s *Scope) On(c Category, fn Observer) {
	if c < 0 || c >= numCategories || fn == nil {
		return
	}
	s.v.subs[c] = append(s.v.subs[c], subscription{owner: s.owner, fn: fn})
}

func (s *Scope) OnSourceUnit(fn func(f *solidity.File, u *solidity.SourceUnit)) {
	s.On(SourceUnit, func(f *solidity.File, n solidity.Node) { fn(f, n.(*solidity.SourceUnit)) })
}

func (s *Scope) OnSourceUnitPart(fn func(f *solidity.File, p solidity.SourceUnitPart)) {
	s.On(SourceUnitPart, func(f *solidity.File, n solidity.Node) { fn(f, n.(solidity.SourceUnitPart)) })
}

func (s *Scope) OnContract(fn func(f *solidity.File, c *solidity.ContractDefinition)) {
	s.On(Contract, func(f *solidity.File, n solidity.Node) { fn(f, n.(*solidity.ContractDefinition)) })
}

func (s *Scope) OnContractPart(fn func(f *solidity.File, p solidity.ContractPart)) {
	s.On(ContractPart, func(f *solidity.File, n solidity.Node) { fn(f, n.(solidity.ContractPart)) })
}

// OnFunction observes functions, constructors, modifiers, fallback and
// receive functions, both in contracts and at file level.
func (s *Scope) OnFunction(fn func(f *solidity.File, fd *solidity.FunctionDefinition)) {
	s.On(Function, func(f *solidity.File, n solidity.Node) { fn(f, n.(*solidity.FunctionDefinition)) })
}

// OnVariable observes state variables and file-level constants. Local
// variables arrive as statements.
func (s *Scope) OnVariable(fn func(f *solidity.File, vd *solidity.VariableDefinition)) {
	s.On(Variable, func(f *solidity.File, n solidity.Node) { fn(f, n.(*solidity.VariableDefinition)) })
}

func (s *Scope) OnStatement(fn func(f *solidity.File, st solidity.Stmt)) {
	s.On(Statement, func(f *solidity.File, n solidity.Node) { fn(f, n.(solidity.Stmt)) })
}

func (s *Scope) OnExpression(fn func(f *solidity.File, e solidity.Expr)) {
	s.On(Expression, func(f *solidity.File, n solidity.Node) { fn(f, n.(solidity.Expr)) })
}

// Walk traverses f in source order. For every node, the observers of its
// category run in registration order before its children are visited.
func (v *Visitor) Walk(f *solidity.File) Report {
	v.file = f
	v.disabled = map[string]bool{}
	v.report = Report{}
	defer func() { v.file = nil }()

	if f == nil || f.Unit == nil {
		return v.report
	}
	v.emit(SourceUnit, f.Unit)
	for _, p := range f.Unit.Parts {
		v.sourceUnitPart(p)
	}
	return v.report
}

func (v *Visitor) emit(c Category, n solidity.Node) {
	for _, s := range v.subs[c] {
		if v.disabled[s.owner] {
			continue
		}
		v.call(s, n)
	}
}

func (v *Visitor) call(s subscription, n solidity.Node) {
	defer func() {
		if r := recover(); r != nil {
			line, _ := v.file.Position(n.Pos())
			v.report.Faults = append(v.report.Faults, Fault{Owner: s.owner, Path: v.file.Path, Line: line, Value: r})
			v.disabled[s.owner] = true
		}
	}()
	s.fn(v.file, n)
}

func (v *Visitor) warn(n solidity.Node, format string, args ...any) {
	line, _ := v.file.Position(n.Pos())
	v.report.Warnings = append(v.report.Warnings, Warning{Path: v.file.Path, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (v *Visitor) sourceUnitPart(p solidity.SourceUnitPart) {
	if p == nil {
		return
	}
	switch p := p.(type) {
	case *solidity.ContractDefinition:
		v.emit(SourceUnitPart, p)
		v.contract(p)
	case *solidity.FunctionDefinition:
		v.emit(SourceUnitPart, p)
		v.function(p)
	case *solidity.VariableDefinition:
		v.emit(SourceUnitPart, p)
		v.variable(p)
	case *solidity.PragmaDirective, *solidity.ImportDirective, *solidity.StructDefinition,
		*solidity.EnumDefinition, *solidity.EventDefinition, *solidity.ErrorDefinition,
		*solidity.UsingDirective, *solidity.UserValueTypeDefinition:
		v.emit(SourceUnitPart, p)
	default:
		v.warn(p, "unsupported source unit part %T", p)
	}
}

func (v *Visitor) contract(c *solidity.ContractDefinition) {
	v.emit(Contract, c)
	layoutFirst := c.Layout != nil && (len(c.Bases) == 0 || c.Layout.Pos() < c.Bases[0].Pos())
	if layoutFirst {
		v.expr(c.Layout)
	}
	for _, b := range c.Bases {
		if b != nil {
			v.exprs(b.Args)
		}
	}
	if !layoutFirst {
		v.expr(c.Layout)
	}
	for _, part := range c.Parts {
		v.contractPart(part)
	}
}

func (v *Visitor) contractPart(p solidity.ContractPart) {
	if p == nil {
		return
	}
	switch p := p.(type) {
	case *solidity.FunctionDefinition:
		v.emit(ContractPart, p)
		v.function(p)
	case *solidity.VariableDefinition:
		v.emit(ContractPart, p)
		v.variable(p)
	case *solidity.StructDefinition, *solidity.EnumDefinition, *solidity.EventDefinition,
		*solidity.ErrorDefinition, *solidity.UsingDirective, *solidity.UserValueTypeDefinition:
		v.emit(ContractPart, p)
	default:
		v.warn(p, "unsupported contract part %T", p)
	}
}

// function visits modifier arguments then the body statements. The body
// block itself is not reported as a statement.
func (v *Visitor) function(fd *solidity.FunctionDefinition) {
	v.emit(Function, fd)
	for _, m := range fd.Modifiers {
		if m != nil {
			v.exprs(m.Args)
		}
	}
	if fd.Body != nil {
		for _, s := range fd.Body.Stmts {
			v.stmt(s)
		}
	}
}

func (v *Visitor) variable(vd *solidity.VariableDefinition) {
	v.emit(Variable, vd)
	v.expr(vd.Value)
}

func (v *Visitor) stmt(s solidity.Stmt) {
	if s == nil {
		return
	}
	switch s := s.(type) {
	case *solidity.Block:
		if s == nil {
			return
		}
		v.emit(Statement, s)
		for _, c := range s.Stmts {
			v.stmt(c)
		}
	case *solidity.VariableDeclarationStatement:
		v.emit(Statement, s)
		v.expr(s.Value)
	case *solidity.ExpressionStatement:
		v.emit(Statement, s)
		v.expr(s.X)
	case *solidity.IfStatement:
		v.emit(Statement, s)
		v.expr(s.Cond)
		v.stmt(s.Then)
		v.stmt(s.Else)
	case *solidity.ForStatement:
		v.emit(Statement, s)
		v.stmt(s.Init)
		v.expr(s.Cond)
		v.expr(s.Post)
		v.stmt(s.Body)
	case *solidity.WhileStatement:
		v.emit(Statement, s)
		v.expr(s.Cond)
		v.stmt(s.Body)
	case *solidity.DoWhileStatement:
		v.emit(Statement, s)
		v.stmt(s.Body)
		v.expr(s.Cond)
	case *solidity.ReturnStatement:
		v.emit(Statement, s)
		v.expr(s.X)
	case *solidity.EmitStatement:
		v.emit(Statement, s)
		v.expr(s.Call)
	case *solidity.RevertStatement:
		v.emit(Statement, s)
		v.expr(s.Call)
	case *solidity.TryStatement:
		v.emit(Statement, s)
		v.expr(s.Call)
		if s.Body != nil {
			v.stmt(s.Body)
		}
		for _, c := range s.Catches {
			if c != nil && c.Body != nil {
				v.stmt(c.Body)
			}
		}
	case *solidity.ContinueStatement, *solidity.BreakStatement,
		*solidity.PlaceholderStatement, *solidity.InlineAssembly:
		v.emit(Statement, s)
	default:
		v.warn(s, "unsupported statement %T", s)
	}
}

func (v *Visitor) exprs(es []solidity.Expr) {
	for _, e := range es {
		v.expr(e)
	}
}

func (v *Visitor) expr(e solidity.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *solidity.Ident, *solidity.NumberLiteral, *solidity.StringLiteral,
		*solidity.BoolLiteral, *solidity.NewExpr, *solidity.TypeExpr:
		v.emit(Expression, e)
	case *solidity.MemberAccess:
		v.emit(Expression, e)
		v.expr(e.X)
	case *solidity.IndexAccess:
		v.emit(Expression, e)
		v.expr(e.X)
		v.expr(e.Index)
	case *solidity.IndexRangeAccess:
		v.emit(Expression, e)
		v.expr(e.X)
		v.expr(e.From)
		v.expr(e.To)
	case *solidity.CallExpr:
		v.emit(Expression, e)
		v.expr(e.Fun)
		v.exprs(e.Args)
	case *solidity.CallOptions:
		v.emit(Expression, e)
		v.expr(e.X)
		v.exprs(e.Values)
	case *solidity.UnaryExpr:
		v.emit(Expression, e)
		v.expr(e.X)
	case *solidity.BinaryExpr:
		v.emit(Expression, e)
		v.expr(e.X)
		v.expr(e.Y)
	case *solidity.AssignExpr:
		v.emit(Expression, e)
		v.expr(e.LHS)
		v.expr(e.RHS)
	case *solidity.ConditionalExpr:
		v.emit(Expression, e)
		v.expr(e.Cond)
		v.expr(e.Then)
		v.expr(e.Else)
	case *solidity.ParenExpr:
		v.emit(Expression, e)
		v.expr(e.X)
	case *solidity.TupleExpr:
		v.emit(Expression, e)
		v.exprs(e.Elems)
	case *solidity.ArrayLiteral:
		v.emit(Expression, e)
		v.exprs(e.Elems)
	default:
		v.warn(e, "unsupported expression %T", e)
	}
}
