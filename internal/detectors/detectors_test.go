package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weasel-sec/weasel/internal/detector"
	"github.com/weasel-sec/weasel/internal/solidity"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/visitor"
)

func run(t *testing.T, d detector.Detector, src string) []types.Location {
	t.Helper()
	f, err := solidity.ParseFile("Test.sol", []byte(src))
	require.NoError(t, err)
	v := visitor.New()
	acc := detector.NewAccumulator()
	d.Register(v.Scope(d.ID()), acc)
	rep := v.Walk(f)
	require.Empty(t, rep.Faults)
	require.Empty(t, rep.Warnings)
	locs, err := acc.Drain()
	require.NoError(t, err)
	return locs
}

func snippets(locs []types.Location) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.Snippet)
	}
	return out
}

func TestDefault_RegistryIsComplete(t *testing.T) {
	reg := Default()
	assert.Equal(t, len(all), reg.Len())
	seen := map[string]bool{}
	for _, info := range reg.Describe() {
		assert.False(t, seen[info.ID], "duplicate id %s", info.ID)
		seen[info.ID] = true
		assert.NotEmpty(t, info.Name, info.ID)
		assert.NotEmpty(t, info.Description, info.ID)
		if info.GasSavings > 0 {
			assert.Equal(t, types.SevGas, info.Severity, info.ID)
		}
	}
	assert.True(t, seen["wsteth-stethpertoken-usage"])
	assert.Equal(t, reg.IDs(), IDs())
}

func TestWstethStEthPerToken(t *testing.T) {
	src := `pragma solidity ^0.8.0;
contract TestWstETH {
    function unsafeUsage() public view {
        uint rate = wsteth.stEthPerToken();
    }
    function safeUsage() public view {
        uint amountStETH = wsteth.getStETHByWstETH(1 ether);
    }
    function otherCall() public view {
        otherContract.call(abi.encodeWithSignature("stEthPerToken()"));
    }
    function selectorUsage() public view {
        bytes4 selector = IWstETH.stEthPerToken.selector;
    }
    function unrelatedCall() public view {
        uint x = stEthPerToken();
    }
    function stEthPerToken() internal pure returns (uint) { return 1e18; }
}
`
	locs := run(t, newWstethStEthPerToken(), src)
	require.Len(t, locs, 1)
	assert.Equal(t, "wsteth.stEthPerToken()", locs[0].Snippet)
	assert.Equal(t, 4, locs[0].Line)
	assert.Equal(t, 21, locs[0].Column)

	assert.Empty(t, run(t, newWstethStEthPerToken(), "contract C { function f() public { uint a = w.getStETHByWstETH(1e18); } }"))
}

func TestLoopDetectors(t *testing.T) {
	src := `contract L {
    function f(address[] calldata ts, bytes[] calldata data) external payable {
        for (uint256 i = 0; i < ts.length; ++i) {
            ts[i].delegatecall(data[i]);
            credit[ts[i]] += msg.value;
            for (uint256 j = 0; j < 2; ++j) {
                ts[j].delegatecall("");
            }
        }
        while (msg.value > spent) {
            spent++;
        }
        do { x = msg.value; } while (false);
        ts[0].delegatecall("");
        y = msg.value;
    }
}`
	assert.Equal(t, []string{`ts[i].delegatecall(data[i])`, `ts[j].delegatecall("")`},
		snippets(run(t, newDelegatecallInLoop(), src)))
	assert.Len(t, run(t, newMsgValueInLoop(), src), 3)
	assert.Equal(t, []string{"ts.length"}, snippets(run(t, newArrayLengthInLoop(), src)))
}

func TestWhileTrueLoop(t *testing.T) {
	src := `contract W {
    function f() public {
        while (true) { break; }
        while (x) { break; }
        for (;;) { break; }
        for (uint i; i < 1; ++i) {}
    }
}`
	locs := run(t, newWhileTrueLoop(), src)
	require.Len(t, locs, 2)
	assert.Equal(t, "true", locs[0].Snippet)
	assert.Equal(t, 5, locs[1].Line)
}

func TestStatementDetectors(t *testing.T) {
	src := `contract S {
    function f(address t) public {
        balance >= amount;
        (a == b);
        bool ok = a == b;
        t.call("");
        (bool sent, ) = t.call("");
        t.delegatecall("");
        t.staticcall("");
        i++;
        ++i;
        uint z = i++;
        for (uint k; k < 3; k--) {}
    }
}`
	assert.Equal(t, []string{"balance >= amount;", "(a == b);"}, snippets(run(t, newComparisonWithoutEffect(), src)))
	assert.Equal(t, []string{`t.call("")`, `t.delegatecall("")`, `t.staticcall("")`}, snippets(run(t, newUncheckedLowLevelCall(), src)))
	assert.Equal(t, []string{"i++", "k--"}, snippets(run(t, newPostIncrement(), src)))
}

func TestExpressionDetectors(t *testing.T) {
	src := `contract E {
    uint256 constant YEAR = 365 days;
    uint256 constant SECONDS = 31536000;
    address constant WETH = 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2;
    function f(address payable to, bytes32 h, uint8 v, bytes32 r, bytes32 s) public {
        require(tx.origin == msg.sender, "no contracts allowed here at all, sorry about that");
        to.transfer(1);
        to.send(1);
        token.transfer(to, 1);
        address who = ecrecover(h, v, r, s);
        bytes32 k = keccak256(abi.encodePacked(name, to));
        bytes memory p = abi.encodePacked(uint8(1), 2);
        bytes memory q = abi.encodePacked(1, true);
        uint x = a / b * c;
        uint y = c * (a / b);
        uint w = (a * c) / b;
        if (flag == true || false != other) revert("short");
        uint n = block.number;
        uint zero = 0x0000000000000000000000000000000000000000;
    }
}`
	assert.Equal(t, []string{"tx.origin"}, snippets(run(t, newTxOriginUsage(), src)))
	assert.Equal(t, []string{"to.transfer(1)", "to.send(1)"}, snippets(run(t, newDeprecatedTransfer(), src)))
	assert.Equal(t, []string{"ecrecover(h, v, r, s)"}, snippets(run(t, newEcrecoverMalleability(), src)))
	assert.Equal(t, []string{"abi.encodePacked(name, to)", "abi.encodePacked(uint8(1), 2)"}, snippets(run(t, newUnsafeAbiEncodePacked(), src)))
	assert.Equal(t, []string{"a / b * c", "c * (a / b)"}, snippets(run(t, newDivisionBeforeMultiplication(), src)))
	assert.Equal(t, []string{"365 days", "31536000"}, snippets(run(t, newYear365Days(), src)))
	assert.Equal(t, []string{"flag == true", "false != other"}, snippets(run(t, newBooleanComparison(), src)))
	assert.Len(t, run(t, newCustomErrors(), src), 2)
	assert.Equal(t, []string{`"no contracts allowed here at all, sorry about that"`}, snippets(run(t, newLongRevertString(), src)))
	assert.Equal(t, []string{"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"}, snippets(run(t, newHardcodedAddress(), src)))
	assert.Equal(t, []string{"block.number"}, snippets(run(t, newBlockNumberL2(), src)))
}

func TestBlockNumberL2_IsConditional(t *testing.T) {
	d := newBlockNumberL2()
	assert.False(t, detector.Enabled(d, types.Protocol{}))
	assert.True(t, detector.Enabled(d, types.Protocol{UsesL2: true}))
	assert.True(t, detector.Enabled(newTxOriginUsage(), types.Protocol{}))
}

func TestDeclarationDetectors(t *testing.T) {
	src := `uint256 constant lowerConst = 1;
contract D {
    bool public paused;
    bool private started = false;
    mapping(address => bool) public allowed;
    bool constant ENABLED = true;
    uint256 public total = 0;
    uint256 public cap = 0x00;
    address public owner = address(0);
    string public label = "";
    uint256 public fee = 5;
    uint256[] public list;
    address immutable deployer;
    uint256 constant override MAX_FEE = 10;

    function set(uint256 v) external onlyOwner {
        total += v;
        fee -= 1;
        list[0] += v;
        uint256 total2 = 0;
        total2 += v;
    }
    function grant() external onlyRole(ADMIN) whenNotPaused {}
    function noop() external {}
    function documented() external {
        // intentionally empty
    }
    function hook() internal virtual {}
    constructor() {}
    receive() external payable {}
}

function free(uint256 total) pure returns (uint256) {
    total += 1;
    return total;
}`
	assert.Equal(t, []string{"onlyOwner", "onlyRole(ADMIN)"}, snippets(run(t, newCentralizationRisk(), src)))
	assert.Equal(t, []string{"grant", "noop"}, snippets(run(t, newEmptyFunctionBody(), src)))

	boolLocs := run(t, newBoolStorage(), src)
	require.Len(t, boolLocs, 3)
	assert.Equal(t, 3, boolLocs[0].Line)
	assert.Equal(t, 5, boolLocs[2].Line)

	defaults := run(t, newDefaultValueInitialization(), src)
	lines := make([]int, 0, len(defaults))
	for _, l := range defaults {
		lines = append(lines, l.Line)
	}
	assert.Equal(t, []int{4, 7, 8, 9, 10}, lines)

	assert.Equal(t, []string{"total += v", "fee -= 1"}, snippets(run(t, newCompoundAssignment(), src)))
	assert.Equal(t, []string{"lowerConst", "deployer"}, snippets(run(t, newConstantCase(), src)))
}

func TestPragmaDetectors(t *testing.T) {
	cases := []struct {
		pragma   string
		floating bool
		push0    bool
	}{
		{"^0.8.0", true, true},
		{"0.8.19", false, false},
		{"0.8.20", false, true},
		{">=0.7.0 <0.8.0", true, false},
		{"^0.8.20", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.pragma, func(t *testing.T) {
			src := "pragma solidity " + tc.pragma + ";\ncontract P {}\n"
			assert.Equal(t, tc.floating, len(run(t, newUnspecificPragma(), src)) == 1)
			assert.Equal(t, tc.push0, len(run(t, newPush0Opcode(), src)) == 1)
		})
	}
	assert.Empty(t, run(t, newPush0Opcode(), "pragma abicoder v2;\ncontract P {}"))
	assert.Empty(t, run(t, newUnspecificPragma(), "pragma solidity banana;\ncontract P {}"))
}
