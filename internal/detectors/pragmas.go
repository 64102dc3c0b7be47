package detectors

import (
	semver "github.com/blang/semver/v4"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

// push0Version is the first compiler release defaulting to the Shanghai EVM.
var push0Version = semver.MustParse("0.8.20")

// onSolidityPragma calls fn for every parseable "pragma solidity" directive.
func onSolidityPragma(s *visitor.Scope, fn func(f *solidity.File, p *solidity.PragmaDirective, vc solidity.VersionConstraint)) {
	s.OnSourceUnitPart(func(f *solidity.File, part solidity.SourceUnitPart) {
		p, ok := part.(*solidity.PragmaDirective)
		if !ok || p.Name != "solidity" {
			return
		}
		vc, err := solidity.ParseVersionConstraint(p.Value)
		if err != nil {
			return
		}
		fn(f, p, vc)
	})
}

type unspecificPragma struct {
	meta
}

func newUnspecificPragma() detector.Detector {
	return &unspecificPragma{meta{
		id:       "unspecific-pragma",
		name:     "Unspecific compiler version pragma",
		severity: types.SevLow,
		description: "Floating or range pragmas (`^`, `~`, `>=`) let the contract be built with a compiler other " +
			"than the one it was tested with. Lock the pragma to one version.",
	}}
}

func (d *unspecificPragma) Register(s *visitor.Scope, acc *detector.Accumulator) {
	onSolidityPragma(s, func(f *solidity.File, p *solidity.PragmaDirective, vc solidity.VersionConstraint) {
		if vc.Floating {
			acc.Report(f, p)
		}
	})
}

type push0Opcode struct {
	meta
}

func newPush0Opcode() detector.Detector {
	return &push0Opcode{meta{
		id:       "push0-opcode",
		name:     "Solidity 0.8.20+ may not work on other chains due to PUSH0",
		severity: types.SevLow,
		description: "From 0.8.20 the compiler targets Shanghai by default and emits PUSH0, which some L2s " +
			"do not support. Pin an earlier compiler or set the EVM version explicitly.",
	}}
}

func (d *push0Opcode) Register(s *visitor.Scope, acc *detector.Accumulator) {
	onSolidityPragma(s, func(f *solidity.File, p *solidity.PragmaDirective, vc solidity.VersionConstraint) {
		if vc.Admits(push0Version) {
			acc.Report(f, p)
		}
	})
}
