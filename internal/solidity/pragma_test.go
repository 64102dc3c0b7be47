package solidity

import (
	"testing"

	semver "github.com/blang/semver/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionConstraint(t *testing.T) {
	v0819 := semver.MustParse("0.8.19")
	v0820 := semver.MustParse("0.8.20")

	cases := []struct {
		raw      string
		min      string
		floating bool
		admits20 bool
	}{
		{"^0.8.0", "0.8.0", true, true},
		{"0.8.19", "0.8.19", false, false},
		{"=0.8.20", "0.8.20", false, true},
		{">=0.7.0 <0.8.20", "0.7.0", true, false},
		{">= 0.8.0 < 0.9.0", "0.8.0", true, true},
		{"~0.8.4", "0.8.4", true, true},
		{">0.8.19", "0.8.20", true, true},
		{"0.8.17 || 0.8.21", "0.8.17", true, true},
		{"^0.7.6", "0.7.6", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			vc, err := ParseVersionConstraint(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.min, vc.Min.String())
			assert.Equal(t, tc.floating, vc.Floating)
			assert.Equal(t, tc.admits20, vc.Admits(v0820))
		})
	}

	vc, err := ParseVersionConstraint("^0.8.0")
	require.NoError(t, err)
	assert.True(t, vc.Range(v0819))
	assert.False(t, vc.Range(semver.MustParse("0.9.0")))
}

func TestParseVersionConstraint_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "^banana", ">=0.8.0 <"} {
		_, err := ParseVersionConstraint(raw)
		assert.Error(t, err, raw)
	}
}

func TestSolidityPragmas(t *testing.T) {
	f, err := ParseFile("p.sol", []byte("pragma abicoder v2;\npragma solidity >=0.8.0;\ncontract A {}\n"))
	require.NoError(t, err)
	ps := SolidityPragmas(f.Unit)
	require.Len(t, ps, 1)
	assert.Equal(t, ">=0.8.0", ps[0].Value)
	assert.Empty(t, SolidityPragmas(nil))
}
