package weasel

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weasel-sec/weasel/internal/audit"
	"github.com/weasel-sec/weasel/internal/cache"
	"github.com/weasel-sec/weasel/internal/report"
)

const vaultSol = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

contract Vault {
    address owner;

    function withdraw() external {
        require(tx.origin == owner);
        for (uint256 i = 0; i < 10; i++) {}
    }
}
`

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process with a private config directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CI", "1")
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "Vault.sol"), []byte(vaultSol), 0644))
	return dir
}

func findingIDs(t *testing.T, out string) []string {
	t.Helper()
	var env report.Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	var ids []string
	for _, f := range env.Findings {
		ids = append(ids, f.DetectorID)
	}
	return ids
}

func TestRun_JSON(t *testing.T) {
	dir := writeProject(t)
	out, _, err := execute(t, "run", dir, "-f", "json", "--fail-on", "none")
	require.NoError(t, err)

	var env report.Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.Equal(t, "1", env.SchemaVersion)
	assert.Equal(t, "weasel", env.Metadata.Tool)
	assert.Equal(t, 1, env.Metadata.FilesScanned)
	assert.Contains(t, findingIDs(t, out), "tx-origin-usage")
	assert.Equal(t, len(env.Findings), env.Summary.Total)
}

func TestRun_AnalyzeAlias(t *testing.T) {
	dir := writeProject(t)
	out, _, err := execute(t, "analyze", dir, "--format", "json", "--fail-on", "none")
	require.NoError(t, err)
	assert.Contains(t, findingIDs(t, out), "tx-origin-usage")
}

func TestRun_FailOnExitCode(t *testing.T) {
	dir := writeProject(t)

	_, _, err := execute(t, "run", dir, "-f", "json")
	var exit *ExitError
	require.True(t, errors.As(err, &exit), "expected ExitError, got %v", err)
	assert.Equal(t, 1, exit.Code)

	_, _, err = execute(t, "run", dir, "-f", "json", "--fail-on", "high")
	assert.NoError(t, err)

	_, _, err = execute(t, "run", dir, "-f", "json", "--fail-on", "urgent")
	assert.ErrorContains(t, err, "invalid --fail-on")
}

func TestRun_BaselineHidesAcceptedFindings(t *testing.T) {
	dir := writeProject(t)

	out, _, err := execute(t, "baseline", "update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline updated")
	_, err = os.Stat(filepath.Join(dir, defaultBaseline))
	require.NoError(t, err)

	out, _, err = execute(t, "run", dir, "-f", "json")
	require.NoError(t, err, "baselined findings must not fail the run")
	assert.Empty(t, findingIDs(t, out))

	// Previous results keep every finding for the browser.
	results, err := cache.LoadResults(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, results.Findings)
}

func TestRun_SARIF(t *testing.T) {
	dir := writeProject(t)
	out, _, err := execute(t, "run", dir, "-f", "sarif", "--fail-on", "none")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "2.1.0", doc["version"])
}

func TestRun_MarkdownToFile(t *testing.T) {
	dir := writeProject(t)
	outFile := filepath.Join(t.TempDir(), "report.md")
	_, _, err := execute(t, "run", dir, "-f", "md", "-o", outFile, "--fail-on", "none", "--comment", "Audit of the vault")
	require.NoError(t, err)

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	md := string(b)
	assert.True(t, strings.HasPrefix(md, "# Smart Contract Analysis Report"))
	assert.Contains(t, md, "Audit of the vault")
	assert.Contains(t, md, "tx-origin-usage")
}

func TestRun_TableAndText(t *testing.T) {
	dir := writeProject(t)

	out, _, err := execute(t, "run", dir, "--fail-on", "none", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "tx-origin-usage")
	assert.Contains(t, out, "Files scanned: 1")

	out, _, err = execute(t, "run", dir, "-f", "text", "--fail-on", "none", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "src/Vault.sol:")
}

func TestRun_Selection(t *testing.T) {
	dir := writeProject(t)

	out, _, err := execute(t, "run", dir, "-f", "json", "--enable", "post-increment")
	require.NoError(t, err)
	assert.Equal(t, []string{"post-increment"}, findingIDs(t, out))

	out, _, err = execute(t, "run", dir, "-f", "json", "--min-severity", "medium", "--fail-on", "none")
	require.NoError(t, err)
	ids := findingIDs(t, out)
	assert.Contains(t, ids, "tx-origin-usage")
	assert.NotContains(t, ids, "post-increment")

	_, _, err = execute(t, "run", dir, "--enable", "no-such-detector")
	assert.Error(t, err)

	_, _, err = execute(t, "run", dir, "--min-severity", "urgent")
	assert.ErrorContains(t, err, "invalid --min-severity")
}

func TestRun_LocalConfig(t *testing.T) {
	dir := writeProject(t)
	cfg := "format: json\nfail_on: none\ndisable: [tx-origin-usage]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".weasel.yml"), []byte(cfg), 0644))

	out, _, err := execute(t, "run", dir)
	require.NoError(t, err)
	ids := findingIDs(t, out)
	assert.NotContains(t, ids, "tx-origin-usage")
	assert.Contains(t, ids, "post-increment")
}

func TestRun_MalformedConfig(t *testing.T) {
	dir := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".weasel.yml"), []byte("threads: [oops\n"), 0644))

	_, _, err := execute(t, "run", dir)
	assert.Error(t, err)
}

func TestRun_BadArguments(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "is not a directory")

	_, _, err = execute(t, "run", writeProject(t), "-f", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestRun_AuditLog(t *testing.T) {
	dir := writeProject(t)
	_, _, err := execute(t, "run", dir, "-f", "json", "--fail-on", "none")
	require.NoError(t, err)

	history, err := audit.NewAuditLog(dir).LoadHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].FilesScanned)
	assert.NotEmpty(t, history[0].Detectors)

	_, _, err = execute(t, "run", dir, "-f", "json", "--fail-on", "none", "--no-audit-log")
	require.NoError(t, err)
	history, err = audit.NewAuditLog(dir).LoadHistory()
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDetectors(t *testing.T) {
	out, _, err := execute(t, "detectors")
	require.NoError(t, err)
	assert.Contains(t, out, "tx-origin-usage\n")

	out, _, err = execute(t, "detectors", "--details")
	require.NoError(t, err)
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "block-number-l2")

	out, _, err = execute(t, "detectors", "--json")
	require.NoError(t, err)
	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.NotEmpty(t, infos)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, ".weasel.yml")

	_, _, err = execute(t, "init", dir)
	assert.ErrorContains(t, err, "--force")

	_, _, err = execute(t, "init", dir, "--force")
	assert.NoError(t, err)
}

func TestVersionAndCompletion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "weasel ")

	out, _, err = execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
