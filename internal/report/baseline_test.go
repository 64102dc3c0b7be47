package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weasel-sec/weasel/internal/types"
)

func TestFingerprint_IgnoresLineAndWhitespace(t *testing.T) {
	a := Fingerprint("tx-origin-usage", types.Location{Path: "src/A.sol", Line: 3, Snippet: "tx.origin"})
	b := Fingerprint("tx-origin-usage", types.Location{Path: "./src/A.sol", Line: 40, Snippet: "  tx.origin "})
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, Fingerprint("other", types.Location{Path: "src/A.sol", Snippet: "tx.origin"}))
	assert.NotEqual(t, a, Fingerprint("tx-origin-usage", types.Location{Path: "src/B.sol", Snippet: "tx.origin"}))
}

func TestBaseline_SaveLoadFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weasel.baseline.json")

	base, err := LoadBaseline(path)
	require.NoError(t, err, "missing baseline is empty")
	assert.Empty(t, base.Items)

	accepted := sampleFindings()[:1]
	accepted[0].Locations = accepted[0].Locations[:2]
	require.NoError(t, SaveBaseline(path, accepted))

	base, err = LoadBaseline(path)
	require.NoError(t, err)
	assert.Equal(t, 1, base.Version)
	// Both Vault.sol locations share a snippet, so they share a fingerprint.
	assert.Len(t, base.Items, 1)

	got := FilterNewFindings(sampleFindings(), base)
	require.Len(t, got, 2)
	assert.Equal(t, "tx-origin-usage", got[0].DetectorID)
	require.Len(t, got[0].Locations, 1)
	assert.Equal(t, "src/Pool.sol", got[0].Locations[0].Path)
	assert.Equal(t, "post-increment", got[1].DetectorID)

	all := sampleFindings()
	require.NoError(t, SaveBaseline(path, all))
	base, err = LoadBaseline(path)
	require.NoError(t, err)
	assert.Empty(t, FilterNewFindings(all, base))
}

func TestLoadBaseline_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := LoadBaseline(path)
	assert.Error(t, err)
}

func TestShouldFail(t *testing.T) {
	fs := sampleFindings()
	cases := []struct {
		failOn string
		want   bool
	}{
		{"", true},
		{"medium", true},
		{"high", false},
		{"gas", true},
		{"none", false},
		{"NC", true},
	}
	for _, tc := range cases {
		got, err := ShouldFail(fs, tc.failOn)
		require.NoError(t, err, tc.failOn)
		assert.Equal(t, tc.want, got, tc.failOn)
	}

	got, err := ShouldFail(nil, "nc")
	require.NoError(t, err)
	assert.False(t, got)

	_, err = ShouldFail(fs, "urgent")
	assert.Error(t, err)
}
