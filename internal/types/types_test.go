package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrder(t *testing.T) {
	assert.True(t, SevNC < SevGas)
	assert.True(t, SevGas < SevLow)
	assert.True(t, SevLow < SevMedium)
	assert.True(t, SevMedium < SevHigh)
	assert.True(t, SevHigh < SevCritical)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"nc", SevNC},
		{"Gas", SevGas},
		{" low ", SevLow},
		{"med", SevMedium},
		{"HIGH", SevHigh},
		{"critical", SevCritical},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestSeverityTitle(t *testing.T) {
	assert.Equal(t, "NC", SevNC.Title())
	assert.Equal(t, "Gas", SevGas.Title())
	assert.Equal(t, "Medium", SevMedium.Title())
}

func TestFindingJSON_SeverityAsText(t *testing.T) {
	f := Finding{DetectorID: "x", Severity: SevHigh, Locations: []Location{{Path: "a.sol", Line: 1, Column: 1}}}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"high"`)
	assert.NotContains(t, string(b), "gas_savings")

	var back Finding
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, SevHigh, back.Severity)
}

func TestLocationLess(t *testing.T) {
	a := Location{Path: "a.sol", Line: 2, Column: 5}
	b := Location{Path: "a.sol", Line: 2, Column: 9}
	c := Location{Path: "b.sol", Line: 1, Column: 1}
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(a))
}
