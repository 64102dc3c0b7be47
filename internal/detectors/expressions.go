package detectors

import (
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

type txOriginUsage struct {
	meta
}

func newTxOriginUsage() detector.Detector {
	return &txOriginUsage{meta{
		id:       "tx-origin-usage",
		name:     "Use of `tx.origin`",
		severity: types.SevMedium,
		description: "Authorizing with `tx.origin` lets any contract the user interacts with act on their behalf, " +
			"and its meaning may change with account abstraction. Use `msg.sender`.",
	}}
}

func (d *txOriginUsage) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		if member(e, "tx", "origin") {
			acc.Report(f, e)
		}
	})
}

type blockNumberL2 struct {
	meta
}

func newBlockNumberL2() detector.Detector {
	return &blockNumberL2{meta{
		id:       "block-number-l2",
		name:     "`block.number` means different things on different L2s",
		severity: types.SevMedium,
		description: "On Optimism `block.number` is the L2 block number, on Arbitrum it is the L1 block number, " +
			"and L2 blocks may be produced per transaction. Use `block.timestamp` or an EIP-6372 clock for timing.",
	}}
}

func (d *blockNumberL2) Enabled(p types.Protocol) bool { return p.UsesL2 }

func (d *blockNumberL2) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		if member(e, "block", "number") {
			acc.Report(f, e)
		}
	})
}

type deprecatedTransfer struct {
	meta
	example
}

func newDeprecatedTransfer() detector.Detector {
	return &deprecatedTransfer{
		meta: meta{
			id:       "deprecated-transfer",
			name:     "`call()` should be used instead of `transfer()` on address payable",
			severity: types.SevMedium,
			description: "`transfer()` and `send()` forward a fixed 2300 gas stipend, so payments to contracts " +
				"with non-trivial receive logic fail. Use `call{value: amount}(\"\")` and check the result.",
		},
		example: "(bool ok, ) = payable(to).call{value: amount}(\"\");\nrequire(ok);",
	}
}

func (d *deprecatedTransfer) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		call, ok := e.(*solidity.CallExpr)
		if !ok || len(call.Args) != 1 {
			return
		}
		if recv, name := call.Callee(); recv != nil && (name == "transfer" || name == "send") {
			acc.Report(f, call)
		}
	})
}

type ecrecoverMalleability struct {
	meta
}

func newEcrecoverMalleability() detector.Detector {
	return &ecrecoverMalleability{meta{
		id:       "ecrecover-malleability",
		name:     "Use of `ecrecover` is susceptible to signature malleability",
		severity: types.SevLow,
		description: "`ecrecover` accepts both `s` and `n - s` for the same signature (SWC-117, SWC-121). " +
			"Use OpenZeppelin's ECDSA library, which rejects the upper half of the curve order.",
	}}
}

func (d *ecrecoverMalleability) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		if call, ok := e.(*solidity.CallExpr); ok && solidity.IsIdent(call.Fun, "ecrecover") {
			acc.Report(f, call)
		}
	})
}

type unsafeAbiEncodePacked struct {
	meta
	example
}

func newUnsafeAbiEncodePacked() detector.Detector {
	return &unsafeAbiEncodePacked{
		meta: meta{
			id:       "unsafe-abi-encode-packed",
			name:     "`abi.encodePacked()` with dynamic arguments can collide",
			severity: types.SevLow,
			description: "Packed encoding does not pad or length-prefix its arguments, so different inputs can " +
				"produce the same bytes (`encodePacked(\"a\", \"bc\") == encodePacked(\"ab\", \"c\")`). " +
				"Hashing the result makes those collisions exploitable. Use `abi.encode()` or `bytes.concat()`.",
		},
		example: "keccak256(abi.encode(a, b)); // instead of abi.encodePacked(a, b)",
	}
}

func (d *unsafeAbiEncodePacked) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		call, ok := e.(*solidity.CallExpr)
		if !ok || !member(call.Fun, "abi", "encodePacked") {
			return
		}
		for _, a := range call.Args {
			switch solidity.Unparen(a).(type) {
			case *solidity.NumberLiteral, *solidity.BoolLiteral:
				continue
			}
			acc.Report(f, call)
			return
		}
	})
}

type divisionBeforeMultiplication struct {
	meta
}

func newDivisionBeforeMultiplication() detector.Detector {
	return &divisionBeforeMultiplication{meta{
		id:       "division-before-multiplication",
		name:     "Precision loss due to division before multiplication",
		severity: types.SevLow,
		description: "Integer division truncates, and multiplying the truncated result magnifies the error. " +
			"Multiply first: `(a * c) / b` instead of `(a / b) * c`.",
	}}
}

func (d *divisionBeforeMultiplication) Register(s *visitor.Scope, acc *detector.Accumulator) {
	isDiv := func(e solidity.Expr) bool {
		b, ok := solidity.Unparen(e).(*solidity.BinaryExpr)
		return ok && b.Op == "/"
	}
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		if b, ok := e.(*solidity.BinaryExpr); ok && b.Op == "*" && (isDiv(b.X) || isDiv(b.Y)) {
			acc.Report(f, b)
		}
	})
}

type year365Days struct {
	meta
}

func newYear365Days() detector.Detector {
	return &year365Days{meta{
		id:          "year-365-days",
		name:        "A year is not always 365 days",
		severity:    types.SevLow,
		description: "Leap years have 366 days, so per-year rates computed with 365 days drift. Document the convention or use 365.25 days.",
	}}
}

func (d *year365Days) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		n, ok := e.(*solidity.NumberLiteral)
		if !ok {
			return
		}
		if (n.Value == "365" && n.Unit == "days") || (n.Unit == "" && (n.Value == "31536000" || n.Value == "31_536_000")) {
			acc.Report(f, n)
		}
	})
}

type booleanComparison struct {
	meta
	gasSaving
}

func newBooleanComparison() detector.Detector {
	return &booleanComparison{
		meta: meta{
			id:          "boolean-comparison",
			name:        "Comparison of a boolean expression to a boolean literal",
			severity:    types.SevGas,
			description: "`x == true` is `x` and `x == false` is `!x`. The comparison costs an extra opcode.",
		},
		gasSaving: 3,
	}
}

func (d *booleanComparison) Register(s *visitor.Scope, acc *detector.Accumulator) {
	isBool := func(e solidity.Expr) bool {
		_, ok := solidity.Unparen(e).(*solidity.BoolLiteral)
		return ok
	}
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		b, ok := e.(*solidity.BinaryExpr)
		if ok && (b.Op == "==" || b.Op == "!=") && (isBool(b.X) || isBool(b.Y)) {
			acc.Report(f, b)
		}
	})
}

type customErrors struct {
	meta
	gasSaving
	example
}

func newCustomErrors() detector.Detector {
	return &customErrors{
		meta: meta{
			id:       "custom-errors-instead-of-revert-strings",
			name:     "Use custom errors instead of revert strings",
			severity: types.SevGas,
			description: "Custom errors, available since 0.8.4, avoid storing and copying the reason string. " +
				"They are cheaper at deployment and each time the revert is hit.",
		},
		gasSaving: 50,
		example:   "error InsufficientBalance();\nif (balance < amount) revert InsufficientBalance();",
	}
}

func (d *customErrors) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		if call, ok := e.(*solidity.CallExpr); ok && requireOrRevertMessage(call) != nil {
			acc.Report(f, call)
		}
	})
}

type longRevertString struct {
	meta
}

func newLongRevertString() detector.Detector {
	return &longRevertString{meta{
		id:       "long-revert-string",
		name:     "Revert string longer than 32 bytes",
		severity: types.SevGas,
		description: "Reason strings over 32 bytes take an extra memory word at runtime and more bytecode at " +
			"deployment. Shorten the message or use a custom error.",
	}}
}

func (d *longRevertString) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		call, ok := e.(*solidity.CallExpr)
		if !ok {
			return
		}
		if msg := requireOrRevertMessage(call); msg != nil && len(msg.Value) > 32 {
			acc.Report(f, msg)
		}
	})
}
