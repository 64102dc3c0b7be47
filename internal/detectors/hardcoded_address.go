package detectors

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

type hardcodedAddress struct {
	meta
}

func newHardcodedAddress() detector.Detector {
	return &hardcodedAddress{meta{
		id:       "hardcoded-address",
		name:     "Hardcoded address",
		severity: types.SevNC,
		description: "Addresses written into the code differ between chains and cannot be changed after deployment. " +
			"Pass them to the constructor or an initializer instead.",
	}}
}

func (d *hardcodedAddress) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		n, ok := e.(*solidity.NumberLiteral)
		if !ok || n.Unit != "" {
			return
		}
		if common.IsHexAddress(n.Value) && common.HexToAddress(n.Value) != (common.Address{}) {
			acc.Report(f, n)
		}
	})
}
