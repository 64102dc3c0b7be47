package detectors

import (
	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

type wstethStEthPerToken struct {
	meta
	example
}

func newWstethStEthPerToken() detector.Detector {
	return &wstethStEthPerToken{
		meta: meta{
			id:       "wsteth-stethpertoken-usage",
			name:     "Potentially unsafe use of wstETH.stEthPerToken()",
			severity: types.SevHigh,
			description: "`stEthPerToken()` returns the amount of stETH per wstETH, not an ETH-denominated rate. " +
				"Treating it as ETH, or pricing it with an ETH/USD feed without the market stETH/ETH rate, " +
				"misvalues positions whenever stETH trades away from peg.",
		},
		example: "uint256 rate = wsteth.stEthPerToken(); // stETH per wstETH, not ETH",
	}
}

func (d *wstethStEthPerToken) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		call, ok := e.(*solidity.CallExpr)
		if !ok {
			return
		}
		if m, ok := call.Fun.(*solidity.MemberAccess); ok && m.Member.Name == "stEthPerToken" {
			acc.Report(f, call)
		}
	})
}
