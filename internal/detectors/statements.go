package detectors

import (
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

type comparisonWithoutEffect struct {
	meta
	example
}

func newComparisonWithoutEffect() detector.Detector {
	return &comparisonWithoutEffect{
		meta: meta{
			id:       "comparison-without-effect",
			name:     "Comparison without effect",
			severity: types.SevHigh,
			description: "A comparison is used as a statement on its own and its result is discarded. " +
				"This usually means a missing `require`, `if` or assignment.",
		},
		example: "balance >= amount; // should be require(balance >= amount)",
	}
}

func (d *comparisonWithoutEffect) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		es, ok := st.(*solidity.ExpressionStatement)
		if !ok {
			return
		}
		if b, ok := solidity.Unparen(es.X).(*solidity.BinaryExpr); ok && isComparison(b.Op) {
			acc.Report(f, es)
		}
	})
}

var lowLevelCalls = map[string]bool{"call": true, "delegatecall": true, "staticcall": true}

type uncheckedLowLevelCall struct {
	meta
}

func newUncheckedLowLevelCall() detector.Detector {
	return &uncheckedLowLevelCall{meta{
		id:       "unchecked-low-level-call",
		name:     "Unchecked return value of low-level call",
		severity: types.SevMedium,
		description: "`call`, `delegatecall` and `staticcall` return false instead of reverting. " +
			"Discarding the success flag lets execution continue after a failed call.",
	}}
}

func (d *uncheckedLowLevelCall) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		es, ok := st.(*solidity.ExpressionStatement)
		if !ok {
			return
		}
		call, ok := solidity.Unparen(es.X).(*solidity.CallExpr)
		if !ok {
			return
		}
		if recv, name := call.Callee(); recv != nil && lowLevelCalls[name] {
			acc.Report(f, call)
		}
	})
}

type postIncrement struct {
	meta
	gasSaving
}

func newPostIncrement() detector.Detector {
	return &postIncrement{
		meta: meta{
			id:       "post-increment",
			name:     "`++i` costs less gas than `i++` (same for `--i` and `i--`)",
			severity: types.SevGas,
			description: "When the old value is not used, the post-increment form keeps a temporary copy for nothing. " +
				"Use the pre-increment form.",
		},
		gasSaving: 5,
	}
}

func (d *postIncrement) Register(s *visitor.Scope, acc *detector.Accumulator) {
	check := func(f *solidity.File, e solidity.Expr) {
		if u, ok := solidity.Unparen(e).(*solidity.UnaryExpr); ok && u.Postfix {
			acc.Report(f, u)
		}
	}
	s.OnStatement(func(f *solidity.File, st solidity.Stmt) {
		switch st := st.(type) {
		case *solidity.ExpressionStatement:
			check(f, st.X)
		case *solidity.ForStatement:
			if st.Post != nil {
				check(f, st.Post)
			}
		}
	})
}
