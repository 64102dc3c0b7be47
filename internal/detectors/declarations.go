package detectors

import (
	"regexp"
	"strings"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

var privilegedModifiers = []string{
	"onlyowner", "onlyadmin", "onlygovernor", "onlyguardian", "onlyoperator",
	"onlycontroller", "onlymanager", "onlyminter", "onlypauser", "onlyrole",
	"onlytimelock", "onlymultisig", "onlykeeper", "onlystrategist", "onlyvault",
	"onlybridge", "onlyvalidator", "authorized", "requiresauth", "hasrole",
}

type centralizationRisk struct {
	meta
}

func newCentralizationRisk() detector.Detector {
	return &centralizationRisk{meta{
		id:       "centralization-risk",
		name:     "Centralization risk for trusted owners",
		severity: types.SevMedium,
		description: "Functions guarded by privileged modifiers can only be called by specific accounts, which " +
			"must be trusted not to drain funds, pause the protocol or change parameters maliciously. " +
			"Consider timelocks, multisigs or governance.",
	}}
}

func (d *centralizationRisk) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnFunction(func(f *solidity.File, fd *solidity.FunctionDefinition) {
		for _, m := range fd.Modifiers {
			if isPrivileged(modifierName(m)) {
				acc.Report(f, m)
				return
			}
		}
	})
}

func modifierName(m *solidity.ModifierInvocation) string {
	switch n := m.Name.(type) {
	case *solidity.Ident:
		return n.Name
	case *solidity.MemberAccess:
		return n.Member.Name
	}
	return ""
}

func isPrivileged(name string) bool {
	name = strings.ToLower(name)
	for _, p := range privilegedModifiers {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

type emptyFunctionBody struct {
	meta
}

func newEmptyFunctionBody() detector.Detector {
	return &emptyFunctionBody{meta{
		id:          "empty-function-body",
		name:        "Empty function body without a comment",
		severity:    types.SevLow,
		description: "An empty implementation may be unfinished code. Add a comment explaining why the body is empty.",
	}}
}

func (d *emptyFunctionBody) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnFunction(func(f *solidity.File, fd *solidity.FunctionDefinition) {
		if fd.Kind != solidity.KindFunction || fd.Virtual || fd.Name == nil || fd.Body == nil || len(fd.Body.Stmts) > 0 {
			return
		}
		body := f.Text(fd.Body)
		if strings.Contains(body, "//") || strings.Contains(body, "/*") {
			return
		}
		acc.Report(f, fd.Name)
	})
}

// stateVariable reports whether vd is a mutable state variable.
func stateVariable(vd *solidity.VariableDefinition) bool {
	return !vd.Constant && !vd.Immutable
}

type boolStorage struct {
	meta
	gasSaving
}

func newBoolStorage() detector.Detector {
	return &boolStorage{
		meta: meta{
			id:       "bool-storage",
			name:     "Using bools for storage incurs overhead",
			severity: types.SevGas,
			description: "Use uint256(1) and uint256(2) for true/false to avoid a Gwarmaccess (100 gas), and a " +
				"Gsset (20000 gas) when flipping from false back to true.",
		},
		gasSaving: 100,
	}
}

func (d *boolStorage) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnVariable(func(f *solidity.File, vd *solidity.VariableDefinition) {
		if stateVariable(vd) && storesBool(vd.Type) {
			acc.Report(f, vd)
		}
	})
}

func storesBool(t solidity.TypeName) bool {
	switch t := t.(type) {
	case *solidity.ElementaryTypeName:
		return t.Name == "bool"
	case *solidity.MappingTypeName:
		return storesBool(t.Value)
	}
	return false
}

type defaultValueInitialization struct {
	meta
	gasSaving
}

func newDefaultValueInitialization() detector.Detector {
	return &defaultValueInitialization{
		meta: meta{
			id:       "default-value-initialization",
			name:     "State variable initialized to its default value",
			severity: types.SevGas,
			description: "Unset state variables already hold 0, false, address(0) or an empty string. " +
				"Writing the default explicitly costs gas at deployment.",
		},
		gasSaving: 3,
	}
}

func (d *defaultValueInitialization) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnVariable(func(f *solidity.File, vd *solidity.VariableDefinition) {
		if stateVariable(vd) && vd.Value != nil && isDefaultValue(vd.Value) {
			acc.Report(f, vd)
		}
	})
}

func isDefaultValue(e solidity.Expr) bool {
	switch e := solidity.Unparen(e).(type) {
	case *solidity.NumberLiteral:
		return isZero(e.Value)
	case *solidity.BoolLiteral:
		return !e.Value
	case *solidity.StringLiteral:
		return e.Value == ""
	case *solidity.CallExpr:
		if _, ok := e.Fun.(*solidity.TypeExpr); ok && len(e.Args) == 1 {
			return isDefaultValue(e.Args[0])
		}
	}
	return false
}

func isZero(lit string) bool {
	lit = strings.TrimPrefix(strings.TrimPrefix(lit, "0x"), "0X")
	return strings.Trim(lit, "0_") == ""
}

type compoundAssignment struct {
	meta
	gasSaving
}

func newCompoundAssignment() detector.Detector {
	return &compoundAssignment{
		meta: meta{
			id:          "compound-assignment",
			name:        "`a = a + b` is cheaper than `a += b` for state variables",
			severity:    types.SevGas,
			description: "For state variables (excluding arrays and mappings) the expanded form saves 16 gas per instance.",
		},
		gasSaving: 16,
	}
}

var arithmeticAssign = map[string]bool{"+=": true, "-=": true, "*=": true, "/=": true, "%=": true}

func (d *compoundAssignment) Register(s *visitor.Scope, acc *detector.Accumulator) {
	// State variables of the contract being walked. Observers run in source
	// order, so the set is always the one of the enclosing contract.
	state := map[string]bool{}
	s.OnSourceUnitPart(func(*solidity.File, solidity.SourceUnitPart) {
		state = map[string]bool{}
	})
	s.OnContract(func(_ *solidity.File, c *solidity.ContractDefinition) {
		for _, p := range c.Parts {
			vd, ok := p.(*solidity.VariableDefinition)
			if !ok || !stateVariable(vd) || vd.Name == nil {
				continue
			}
			if _, ok := vd.Type.(*solidity.ElementaryTypeName); ok {
				state[vd.Name.Name] = true
			}
		}
	})
	s.OnExpression(func(f *solidity.File, e solidity.Expr) {
		a, ok := e.(*solidity.AssignExpr)
		if !ok || !arithmeticAssign[a.Op] {
			return
		}
		if id, ok := solidity.Unparen(a.LHS).(*solidity.Ident); ok && state[id.Name] {
			acc.Report(f, a)
		}
	})
}

var constantCase = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type constantCaseNaming struct {
	meta
	example
}

func newConstantCase() detector.Detector {
	return &constantCaseNaming{
		meta: meta{
			id:          "constant-case",
			name:        "Constants and immutables should be CONSTANT_CASE",
			severity:    types.SevNC,
			description: "Constant and immutable names should use capital letters with underscores between words.",
		},
		example: "uint256 constant MAX_SUPPLY = 1e24;\naddress immutable DEPLOYER;",
	}
}

func (d *constantCaseNaming) Register(s *visitor.Scope, acc *detector.Accumulator) {
	s.OnVariable(func(f *solidity.File, vd *solidity.VariableDefinition) {
		if (vd.Constant || vd.Immutable) && !vd.Override && vd.Name != nil && !constantCase.MatchString(vd.Name.Name) {
			acc.Report(f, vd.Name)
		}
	})
}
