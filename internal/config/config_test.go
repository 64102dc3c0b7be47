package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weasel-sec/weasel/internal/types"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "weasel.yaml", `threads: 4
max_bytes: 123
scope: [src, contracts]
exclude: "lib, test"
min_severity: Medium
disable:
  - constant-case
  - " "
protocol:
  uses_l2: false
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	assert.Equal(t, StringList{"src", "contracts"}, cfg.Scope)
	assert.Equal(t, StringList{"lib", "test"}, cfg.Exclude)
	assert.Equal(t, StringList{"constant-case"}, cfg.Disable)
	require.NotNil(t, cfg.MinSeverity)
	assert.Equal(t, types.SevMedium, *cfg.MinSeverity)

	proto := cfg.Protocol.Resolve()
	assert.False(t, proto.UsesL2)
	assert.True(t, proto.UsesNFT)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(writeTemp(t, dir, "bad-sev.yml", "min_severity: urgent\n"))
	assert.Error(t, err)
	_, err = LoadFile(writeTemp(t, dir, "bad-list.yml", "enable: {a: b}\n"))
	assert.Error(t, err)
	_, err = LoadFile(filepath.Join(dir, "missing.yml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProtocolDefaultsToAllTraits(t *testing.T) {
	var p *ProtocolConfig
	assert.Equal(t, types.Protocol{UsesFOTTokens: true, UsesWeirdERC20: true, UsesNativeToken: true, UsesL2: true, UsesNFT: true}, p.Resolve())
}

func TestPathGlobs(t *testing.T) {
	assert.Equal(t, []string{"lib", "lib/**", "src/**/*.t.sol", "test", "test/**"},
		PathGlobs([]string{"./lib/", "src/**/*.t.sol", "", "test"}))
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "weasel.yaml", "threads: 1\n")
	writeTemp(t, dir, ".weasel.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .weasel.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadLocal(dir)
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "weasel")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(cfgDir, "config.yml")
	if err := os.WriteFile(p, []byte("threads: 9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	p, err := WriteDefault(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".weasel.yml"), p)

	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg.Threads)
	assert.Empty(t, cfg.Scope)
	assert.True(t, cfg.Protocol.Resolve().UsesL2)

	_, err = WriteDefault(dir, false)
	assert.Error(t, err)
	_, err = WriteDefault(dir, true)
	assert.NoError(t, err)
}
