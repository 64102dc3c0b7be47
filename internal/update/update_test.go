package update

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveRelease(t *testing.T, body map[string]string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weasel-updater", r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	old := latestURL
	latestURL = srv.URL
	t.Cleanup(func() { latestURL = old })
}

func TestCheck_SkippedInCIOrOffline(t *testing.T) {
	t.Setenv("CI", "1")
	latest, newer, err := Check("1.0.0", false)
	require.NoError(t, err)
	assert.Empty(t, latest)
	assert.False(t, newer)

	t.Setenv("CI", "")
	latest, newer, err = Check("1.0.0", true)
	require.NoError(t, err)
	assert.Empty(t, latest)
	assert.False(t, newer)
}

func TestNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.3", "1.2.3", false},
		{"1.3.0", "1.2.9", true},
		{"1.2.0", "1.2.1", false},
		{"v2.0.0", "1.9", true},
		{"1.0.0", "1.0.0-rc.1", true},
		{"garbage", "1.0.0", false},
		{"1.0.0", "garbage", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Newer(tt.latest, tt.current), "Newer(%q, %q)", tt.latest, tt.current)
	}
	assert.Equal(t, "1.2.3", trimV(" v1.2.3 "))
}

func TestCheck_FreshStateSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CI", "")

	old := latestURL
	latestURL = "http://127.0.0.1:0/unreachable"
	t.Cleanup(func() { latestURL = old })

	writeState(state{CheckedAt: time.Now(), Latest: "1.2.3"})
	require.FileExists(t, filepath.Join(dir, "weasel", "update.json"))

	latest, newer, err := Check("1.2.2", false)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", latest)
	assert.True(t, newer)
}

func TestCheck_RefreshesStaleState(t *testing.T) {
	serveRelease(t, map[string]string{"tag_name": "v9.9.9"})
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CI", "")
	writeState(state{CheckedAt: time.Now().Add(-48 * time.Hour), Latest: "1.0.0"})

	latest, newer, err := Check("v1.0.0", false)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", latest)
	assert.True(t, newer)
	assert.Equal(t, "9.9.9", readState().Latest)
}

func TestFetchLatest_FallsBackToName(t *testing.T) {
	serveRelease(t, map[string]string{"name": "v0.4.0"})
	v, err := fetchLatest(latestURL)
	require.NoError(t, err)
	assert.Equal(t, "v0.4.0", v)
}

func TestFetchLatest_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := fetchLatest(srv.URL)
	assert.ErrorContains(t, err, "403")
}

func TestReadState_Malformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	p := filepath.Join(dir, "weasel", "update.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("{"), 0644))
	assert.Equal(t, state{}, readState())
}
