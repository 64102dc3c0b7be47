package detectors

import (
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

type delegatecallInLoop struct {
	meta
	example
}

func newDelegatecallInLoop() detector.Detector {
	return &delegatecallInLoop{
		meta: meta{
			id:       "delegatecall-in-loop",
			name:     "Use of `delegatecall` inside a loop",
			severity: types.SevHigh,
			description: "Each iteration runs external code with the caller's storage and permissions. " +
				"Combined with payable entry points this re-uses msg.value across iterations, and a malicious " +
				"target or a long loop can corrupt state or exhaust gas.",
		},
		example: "for (uint256 i; i < calls.length; ++i) {\n    target.delegatecall(calls[i]);\n}",
	}
}

func (d *delegatecallInLoop) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		inspectLoop(st, func(n solidity.Node) {
			call, ok := n.(*solidity.CallExpr)
			if !ok {
				return
			}
			if recv, name := call.Callee(); recv != nil && name == "delegatecall" {
				acc.Report(f, call)
			}
		})
	})
}

type msgValueInLoop struct {
	meta
}

func newMsgValueInLoop() detector.Detector {
	return &msgValueInLoop{meta{
		id:       "msg-value-in-loop",
		name:     "Use of `msg.value` inside a loop",
		severity: types.SevHigh,
		description: "If the loop runs more than once the same `msg.value` can be credited or spent repeatedly. " +
			"Read it once into a local variable before the loop and account for it explicitly.",
	}}
}

func (d *msgValueInLoop) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		inspectLoop(st, func(n solidity.Node) {
			if e, ok := n.(solidity.Expr); ok && member(e, "msg", "value") {
				acc.Report(f, e)
			}
		})
	})
}

type arrayLengthInLoop struct {
	meta
	gasSaving
}

func newArrayLengthInLoop() detector.Detector {
	return &arrayLengthInLoop{
		meta: meta{
			id:          "array-length-in-loop",
			name:        "Array length read in loop condition",
			severity:    types.SevGas,
			description: "The length is re-read on every iteration. Cache it in a local variable before the loop.",
		},
		gasSaving: 3,
	}
}

func (d *arrayLengthInLoop) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		loop, ok := st.(*solidity.ForStatement)
		if !ok || loop.Cond == nil {
			return
		}
		solidity.Inspect(loop.Cond, func(n solidity.Node) bool {
			if m, ok := n.(*solidity.MemberAccess); ok && m.Member.Name == "length" {
				acc.Report(f, m)
			}
			return true
		})
	})
}

type whileTrueLoop struct {
	meta
}

func newWhileTrueLoop() detector.Detector {
	return &whileTrueLoop{meta{
		id:          "while-true-loop",
		name:        "Infinite loop construct",
		severity:    types.SevNC,
		description: "`while (true)` and `for (;;)` hide the exit condition in the body. Prefer a loop whose condition states when it ends.",
	}}
}

func (d *whileTrueLoop) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		switch l := st.(type) {
		case *solidity.WhileStatement:
			if b, ok := solidity.Unparen(l.Cond).(*solidity.BoolLiteral); ok && b.Value {
				acc.Report(f, l.Cond)
			}
		case *solidity.ForStatement:
			if l.Cond == nil {
				acc.Report(f, l)
			}
		}
	})
}
