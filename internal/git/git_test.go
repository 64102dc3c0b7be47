package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, string(out))
		}
	}
	run("init", ".")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "tester")
	return dir, run
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestRepoMetadata(t *testing.T) {
	dir, run := initRepo(t)
	run("commit", "--allow-empty", "-m", "init")
	run("remote", "add", "origin", "git@github.com:weasel-sec/vault.git")

	repo, commit, branch := RepoMetadata(dir)
	assert.Equal(t, "weasel-sec/vault", repo)
	assert.Len(t, commit, 40)
	assert.NotEmpty(t, branch)
}

func TestRepoMetadata_NotARepo(t *testing.T) {
	repo, commit, branch := RepoMetadata(t.TempDir())
	assert.Empty(t, repo)
	assert.Empty(t, commit)
	assert.Empty(t, branch)
}

func TestShortRemote(t *testing.T) {
	cases := map[string]string{
		"https://github.com/o/n.git": "o/n",
		"git@github.com:o/n.git":     "o/n",
		"/srv/git/n":                 "/srv/git/n",
	}
	for in, want := range cases {
		assert.Equal(t, want, shortRemote(in), in)
	}
}

func TestChangedFiles_WorktreeAndIndex(t *testing.T) {
	dir, run := initRepo(t)
	write(t, dir, "src/A.sol", "contract A {}")
	write(t, dir, "src/B.sol", "contract B {}")
	run("add", ".")
	run("commit", "-m", "base")

	write(t, dir, "src/A.sol", "contract A { uint x; }")
	write(t, dir, "src/C.sol", "contract C {}")
	run("add", "src/C.sol")
	write(t, dir, "src/D.sol", "contract D {}")
	require.NoError(t, os.Remove(filepath.Join(dir, "src/B.sol")))

	files, err := ChangedFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A.sol", "src/C.sol", "src/D.sol"}, files)

	sub, err := ChangedFiles(filepath.Join(dir, "src"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.sol", "C.sol", "D.sol"}, sub)
}

func TestChangedFiles_SinceBase(t *testing.T) {
	dir, run := initRepo(t)
	write(t, dir, "A.sol", "contract A {}")
	write(t, dir, "B.sol", "contract B {}")
	run("add", ".")
	run("commit", "-m", "base")
	run("branch", "base")

	write(t, dir, "B.sol", "contract B { uint y; }")
	run("add", "B.sol")
	run("commit", "-m", "change b")

	files, err := ChangedFiles(dir, "")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = ChangedFiles(dir, "base")
	require.NoError(t, err)
	assert.Equal(t, []string{"B.sol"}, files)

	_, err = ChangedFiles(dir, "no-such-branch")
	assert.Error(t, err)
}
