package solidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vaultSource = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

import "./IERC20.sol";
import {Ownable} from "@oz/access/Ownable.sol";

error Unauthorized(address caller);

uint256 constant MAX = 1e18;

abstract contract Vault is Ownable(msg.sender), IVault {
    using SafeERC20 for IERC20;

    struct Position { uint256 amount; address owner; }
    enum State { Open, Closed }
    event Deposited(address indexed who, uint256 amount);

    mapping(address => mapping(uint256 => Position)) internal positions;
    IERC20 public immutable token;
    uint256[] public history;
    bool private paused = false;

    modifier whenOpen() {
        require(!paused, "paused");
        _;
    }

    constructor(IERC20 _token) {
        token = _token;
    }

    function deposit(uint256 amount) external payable whenOpen onlyOwner returns (uint256 shares) {
        (bool ok, ) = payable(msg.sender).call{value: msg.value}("");
        require(ok);
        for (uint256 i = 0; i < history.length; i++) {
            unchecked { shares += history[i] / 2; }
        }
        Position storage p = positions[msg.sender][0];
        p.amount = amount > 0 ? amount : 1 ether;
        emit Deposited({who: msg.sender, amount: amount});
        if (amount == 0) revert Unauthorized(msg.sender);
        try token.transfer(address(0), amount) returns (bool) {
            return type(uint256).max;
        } catch Error(string memory reason) {
            revert(reason);
        } catch {}
        assembly ("memory-safe") { let x := mload(0x40) }
        delete history;
        return shares;
    }

    receive() external payable {}
    function pending() external view virtual returns (uint256);
}
`

func TestParseFile_Vault(t *testing.T) {
	f, err := ParseFile("Vault.sol", []byte(vaultSource))
	require.NoError(t, err)
	require.NotNil(t, f.Unit)

	var pragmas, imports, contracts int
	var contract *ContractDefinition
	for _, p := range f.Unit.Parts {
		switch p := p.(type) {
		case *PragmaDirective:
			pragmas++
			assert.Equal(t, "solidity", p.Name)
			assert.Equal(t, "^0.8.20", p.Value)
		case *ImportDirective:
			imports++
		case *ContractDefinition:
			contracts++
			contract = p
		}
	}
	assert.Equal(t, 1, pragmas)
	assert.Equal(t, 2, imports)
	require.Equal(t, 1, contracts)

	assert.True(t, contract.Abstract)
	assert.Equal(t, "Vault", contract.Name.Name)
	require.Len(t, contract.Bases, 2)
	assert.True(t, contract.Bases[0].HasArgs)

	var fns []*FunctionDefinition
	for _, part := range contract.Parts {
		if fn, ok := part.(*FunctionDefinition); ok {
			fns = append(fns, fn)
		}
	}
	require.Len(t, fns, 5)
	assert.Equal(t, KindModifier, fns[0].Kind)
	assert.Equal(t, KindConstructor, fns[1].Kind)
	dep := fns[2]
	assert.Equal(t, "deposit", dep.Name.Name)
	assert.Equal(t, "external", dep.Visibility)
	assert.Equal(t, "payable", dep.Mutability)
	require.Len(t, dep.Modifiers, 2)
	require.Len(t, dep.Returns, 1)
	assert.Equal(t, "shares", dep.Returns[0].Name.Name)
	assert.Equal(t, KindReceive, fns[3].Kind)
	assert.Nil(t, fns[4].Body)
	assert.True(t, fns[4].Virtual)
}

func TestParse_StatementShapes(t *testing.T) {
	f, err := ParseFile("Vault.sol", []byte(vaultSource))
	require.NoError(t, err)

	counts := map[string]int{}
	Inspect(f.Unit, func(n Node) bool {
		switch n := n.(type) {
		case *VariableDeclarationStatement:
			counts["decl"]++
			if len(n.Decls) == 2 {
				assert.Nil(t, n.Decls[1])
			}
		case *ForStatement:
			counts["for"]++
		case *Block:
			if n.Unchecked {
				counts["unchecked"]++
			}
		case *CallOptions:
			counts["options"]++
		case *RevertStatement:
			counts["revert"]++
		case *TryStatement:
			counts["try"]++
			assert.Len(t, n.Catches, 2)
		case *InlineAssembly:
			counts["asm"]++
			assert.Equal(t, []string{"memory-safe"}, n.Flags)
		case *PlaceholderStatement:
			counts["placeholder"]++
		case *ConditionalExpr:
			counts["ternary"]++
		case *UnaryExpr:
			if n.Op == "delete" {
				counts["delete"]++
			}
		case *NumberLiteral:
			if n.Unit == "ether" {
				counts["ether"]++
			}
		}
		return true
	})
	assert.Equal(t, map[string]int{
		"decl": 3, "for": 1, "unchecked": 1, "options": 1, "revert": 1, "try": 1,
		"asm": 1, "placeholder": 1, "ternary": 1, "delete": 1, "ether": 1,
	}, counts)
}

func TestLocation_MemberCall(t *testing.T) {
	src := "contract C {\n    function f() public {\n        uint r = x.stEthPerToken();\n    }\n}\n"
	f, err := ParseFile("c.sol", []byte(src))
	require.NoError(t, err)

	var calls []*CallExpr
	Inspect(f.Unit, func(n Node) bool {
		if c, ok := n.(*CallExpr); ok {
			calls = append(calls, c)
		}
		return true
	})
	require.Len(t, calls, 1)
	loc := f.Location(calls[0])
	assert.Equal(t, "c.sol", loc.Path)
	assert.Equal(t, 3, loc.Line)
	assert.Equal(t, 18, loc.Column)
	assert.Equal(t, 3, loc.EndLine)
	assert.Equal(t, 35, loc.EndColumn)
	assert.Equal(t, "x.stEthPerToken()", loc.Snippet)
}

func TestPosition_CountsRunes(t *testing.T) {
	f := NewFile("u.sol", "string s = \"héllo\"; x\n y")
	line, col := f.Position(len("string s = \"héllo\"; "))
	assert.Equal(t, 1, line)
	assert.Equal(t, 21, col)

	line, col = f.Position(len(f.Source) - 1)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}

func TestParse_EmptyFile(t *testing.T) {
	f, err := ParseFile("empty.sol", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Unit.Parts)

	f, err = ParseFile("comments.sol", []byte("// nothing here\n/* at all */\n"))
	require.NoError(t, err)
	assert.Empty(t, f.Unit.Parts)
}

func TestParse_SyntaxErrorHasPosition(t *testing.T) {
	_, err := ParseFile("bad.sol", []byte("contract C {\n  function f( {\n}\n"))
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad.sol", se.Path)
	assert.Equal(t, 2, se.Line)
	assert.Contains(t, err.Error(), "bad.sol:2:")
}

func TestLex_Literals(t *testing.T) {
	toks, err := Lex(`1e18 0xdeadBEEF 1_000 .5 hex"00ff" unicode"é" 'a\'b' >>>= **`)
	require.NoError(t, err)
	var kinds []TokenKind
	var texts []string
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
		texts = append(texts, tk.Text)
	}
	assert.Equal(t, []TokenKind{TokNumber, TokNumber, TokNumber, TokNumber, TokString, TokString, TokString, TokOp, TokOp, TokEOF}, kinds)
	assert.Equal(t, "1e18", texts[0])
	assert.Equal(t, "0xdeadBEEF", texts[1])
	assert.Equal(t, "hex", toks[4].Prefix)
	assert.Equal(t, "00ff", texts[4])
	assert.Equal(t, `a\'b`, texts[6])
	assert.Equal(t, ">>>=", texts[7])
}

func TestParse_Precedence(t *testing.T) {
	f, err := ParseFile("p.sol", []byte("contract C { function f() { x = a / b * c + d ** e ** g; } }"))
	require.NoError(t, err)
	var assign *AssignExpr
	Inspect(f.Unit, func(n Node) bool {
		if a, ok := n.(*AssignExpr); ok {
			assign = a
		}
		return true
	})
	require.NotNil(t, assign)
	add, ok := assign.RHS.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)
	mul, ok := add.X.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
	assert.Equal(t, "/", mul.X.(*BinaryExpr).Op)
	pow := add.Y.(*BinaryExpr)
	assert.Equal(t, "**", pow.Op)
	assert.Equal(t, "**", pow.Y.(*BinaryExpr).Op)
	assert.Equal(t, "d ** e ** g", f.Text(pow))
}

func TestParse_IndexRange(t *testing.T) {
	f, err := ParseFile("s.sol", []byte("contract C { function f(bytes calldata d) external { g(d[4:], d[:32], d[1:2]); } }"))
	require.NoError(t, err)

	var ranges []*IndexRangeAccess
	Inspect(f.Unit, func(n Node) bool {
		if r, ok := n.(*IndexRangeAccess); ok {
			ranges = append(ranges, r)
		}
		return true
	})
	require.Len(t, ranges, 3)
	assert.Equal(t, "d[4:]", f.Text(ranges[0]))
	assert.Equal(t, "4", f.Text(ranges[0].From))
	assert.Nil(t, ranges[0].To)
	assert.Nil(t, ranges[1].From)
	assert.Equal(t, "32", f.Text(ranges[1].To))
	assert.Equal(t, "1", f.Text(ranges[2].From))
	assert.Equal(t, "2", f.Text(ranges[2].To))

	var e Expr = ranges[2]
	assert.Equal(t, ranges[2].Hi, e.End())
}

func TestParse_StorageLayout(t *testing.T) {
	tests := []struct {
		name, src string
		bases     int
	}{
		{"plain", "contract C layout at 0x1234 { uint x; }", 0},
		{"after bases", "contract C is A, B layout at 0x1234 { uint x; }", 2},
		{"before bases", "contract C layout at 0x1234 is A { uint x; }", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFile("l.sol", []byte(tt.src))
			require.NoError(t, err)
			require.Len(t, f.Unit.Parts, 1)
			c, ok := f.Unit.Parts[0].(*ContractDefinition)
			require.True(t, ok)
			assert.Len(t, c.Bases, tt.bases)
			require.NotNil(t, c.Layout)
			assert.Equal(t, "0x1234", f.Text(c.Layout))
			assert.Len(t, c.Parts, 1)

			var seen bool
			Inspect(f.Unit, func(n Node) bool {
				if lit, ok := n.(*NumberLiteral); ok && f.Text(lit) == "0x1234" {
					seen = true
				}
				return true
			})
			assert.True(t, seen, "layout expression should be inspected")
		})
	}
}

func TestParse_LayoutIsOrdinaryIdentifier(t *testing.T) {
	f, err := ParseFile("l.sol", []byte("contract C { uint layout; function f() { layout = 1; } }"))
	require.NoError(t, err)
	c := f.Unit.Parts[0].(*ContractDefinition)
	assert.Nil(t, c.Layout)
	assert.Len(t, c.Parts, 2)
}
