package weasel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weasel-sec/weasel/internal/config"
	"github.com/weasel-sec/weasel/internal/types"
)

func ptr[T any](v T) *T { return &v }

func TestPickPrecedence(t *testing.T) {
	assert.Equal(t, "cli", pickString("cli", ptr("local"), ptr("global")))
	assert.Equal(t, "local", pickString("", ptr("local"), ptr("global")))
	assert.Equal(t, "global", pickString("", ptr(""), ptr("global")))
	assert.Equal(t, "", pickString("", nil, nil))

	assert.Equal(t, 4, pickInt(4, ptr(2), ptr(1)))
	assert.Equal(t, 2, pickInt(0, ptr(2), ptr(1)))
	assert.Equal(t, int64(1), pickInt64(0, nil, ptr(int64(1))))

	assert.True(t, pickBool(true, ptr(false), nil))
	assert.False(t, pickBool(false, ptr(false), ptr(true)))
	assert.True(t, pickBool(false, nil, ptr(true)))
}

func TestPickBoolDefault(t *testing.T) {
	assert.True(t, pickBoolDefault(false, false, nil, nil, true))
	assert.False(t, pickBoolDefault(false, true, ptr(true), nil, true))
	assert.False(t, pickBoolDefault(true, false, ptr(false), nil, true))
	assert.False(t, pickBoolDefault(true, false, nil, ptr(false), true))
}

func TestPickList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, pickList(" a, ,b ", config.StringList{"x"}, nil))
	assert.Equal(t, []string{"x"}, pickList("", config.StringList{"x"}, config.StringList{"y"}))
	assert.Equal(t, []string{"y"}, pickList("", nil, config.StringList{"y"}))
	assert.Nil(t, pickList("", nil, nil))
}

func TestPickSeverity(t *testing.T) {
	s, err := pickSeverity("high", ptr(types.SevLow), nil)
	require.NoError(t, err)
	assert.Equal(t, types.SevHigh, s)

	s, err = pickSeverity("", nil, ptr(types.SevGas))
	require.NoError(t, err)
	assert.Equal(t, types.SevGas, s)

	s, err = pickSeverity("", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.SevNC, s)

	_, err = pickSeverity("urgent", nil, nil)
	assert.Error(t, err)
}

func TestPickProtocol(t *testing.T) {
	p := pickProtocol(nil, nil)
	assert.True(t, p.UsesL2)

	p = pickProtocol(&config.ProtocolConfig{UsesL2: ptr(false)}, &config.ProtocolConfig{UsesNFT: ptr(false)})
	assert.False(t, p.UsesL2)
	assert.True(t, p.UsesNFT, "local protocol replaces the global one")
}

func TestNormalizeFormat(t *testing.T) {
	for in, want := range map[string]string{"": "table", "TABLE": "table", "txt": "text", "markdown": "md", "json": "json", "sarif": "sarif"} {
		got, err := normalizeFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := normalizeFormat("xml")
	assert.Error(t, err)
}
