// Package detectors holds the built-in analysis rules.
package detectors

import (
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
)

var all = []detector.Factory{
	// High
	newWstethStEthPerToken, newDelegatecallInLoop, newMsgValueInLoop, newComparisonWithoutEffect,
	// Medium
	newTxOriginUsage, newDeprecatedTransfer, newUncheckedLowLevelCall, newCentralizationRisk, newBlockNumberL2,
	// Low
	newUnspecificPragma, newPush0Opcode, newEmptyFunctionBody, newUnsafeAbiEncodePacked,
	newEcrecoverMalleability, newDivisionBeforeMultiplication, newYear365Days,
	// Gas
	newPostIncrement, newBoolStorage, newCustomErrors, newLongRevertString, newCompoundAssignment,
	newBooleanComparison, newDefaultValueInitialization, newArrayLengthInLoop,
	// NC
	newHardcodedAddress, newWhileTrueLoop, newConstantCase,
}

// Default returns a registry with every built-in detector.
func Default() *detector.Registry {
	return detector.NewRegistry().MustRegister(all...)
}

// IDs lists the built-in detector ids in registration order.
func IDs() []string {
	return Default().IDs()
}

type meta struct {
	id          string
	name        string
	severity    types.Severity
	description string
}

func (m meta) ID() string               { return m.id }
func (m meta) Name() string             { return m.name }
func (m meta) Severity() types.Severity { return m.severity }
func (m meta) Description() string      { return m.description }

type gasSaving uint64

func (g gasSaving) GasSavings() uint64 { return uint64(g) }

type example string

func (e example) Example() string { return string(e) }

// member reports whether e is exactly base.member, without looking through
// parentheses, so an enclosing ParenExpr is not reported a second time.
func member(e solidity.Expr, base, name string) bool {
	m, ok := e.(*solidity.MemberAccess)
	return ok && m.Member != nil && m.Member.Name == name && solidity.IsIdent(m.X, base)
}

func isLoop(s solidity.Node) bool {
	switch s.(type) {
	case *solidity.ForStatement, *solidity.WhileStatement, *solidity.DoWhileStatement:
		return true
	}
	return false
}

// inspectLoop calls fn for every node evaluated on each iteration of loop:
// its condition, its post expression and its body. Nested loops are not
// entered beyond their init statement; the visitor reports them separately.
func inspectLoop(loop solidity.Stmt, fn func(solidity.Node)) {
	var parts []solidity.Node
	switch l := loop.(type) {
	case *solidity.ForStatement:
		parts = appendNodes(parts, l.Cond, l.Post, l.Body)
	case *solidity.WhileStatement:
		parts = appendNodes(parts, l.Cond, l.Body)
	case *solidity.DoWhileStatement:
		parts = appendNodes(parts, l.Body, l.Cond)
	default:
		return
	}
	var visit func(n solidity.Node) bool
	visit = func(n solidity.Node) bool {
		if isLoop(n) {
			if f, ok := n.(*solidity.ForStatement); ok && f.Init != nil {
				solidity.Inspect(f.Init, visit)
			}
			return false
		}
		fn(n)
		return true
	}
	for _, p := range parts {
		solidity.Inspect(p, visit)
	}
}

func appendNodes(out []solidity.Node, ns ...solidity.Node) []solidity.Node {
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// requireOrRevertMessage returns the reason string of require(cond, "...")
// or revert("..."), or nil when the call has none.
func requireOrRevertMessage(c *solidity.CallExpr) *solidity.StringLiteral {
	var arg solidity.Expr
	switch {
	case solidity.IsIdent(c.Fun, "require") && len(c.Args) == 2:
		arg = c.Args[1]
	case solidity.IsIdent(c.Fun, "revert") && len(c.Args) == 1:
		arg = c.Args[0]
	default:
		return nil
	}
	s, _ := solidity.Unparen(arg).(*solidity.StringLiteral)
	return s
}
