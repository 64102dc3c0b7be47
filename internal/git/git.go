// Package git reads repository state with go-git: report metadata and the
// set of files changed in the working tree or since a base revision.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// validateRoot validates and normalizes a repository root path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

func open(root string) (*gogit.Repository, string, error) {
	abs, err := validateRoot(root)
	if err != nil {
		return nil, "", err
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open repository at %s: %w", root, err)
	}
	return repo, abs, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned for anything that cannot be determined.
func RepoMetadata(root string) (string, string, string) {
	repo, _, err := open(root)
	if err != nil {
		return "", "", ""
	}
	name := ""
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		name = shortRemote(remote.Config().URLs[0])
	}
	commit, branch := "", ""
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		} else {
			branch = "HEAD"
		}
	}
	return name, commit, branch
}

// shortRemote keeps owner/name of a remote URL when possible.
func shortRemote(url string) string {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	}
	return strings.TrimPrefix(s, "//")
}

// ChangedFiles lists files, relative to root, that differ from HEAD in the
// working tree or index. When base is set, files changed between base and
// HEAD are included too. Deleted files are never listed.
func ChangedFiles(root, base string) ([]string, error) {
	repo, abs, err := open(root)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree: %w", err)
	}
	prefix, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil, err
	}
	prefix = filepath.ToSlash(prefix)

	changed := map[string]bool{}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	for p, st := range status {
		if st.Worktree == gogit.Deleted || (st.Staging == gogit.Deleted && st.Worktree == gogit.Unmodified) {
			continue
		}
		if st.Worktree != gogit.Unmodified || st.Staging != gogit.Unmodified {
			changed[p] = true
		}
	}

	if base != "" {
		names, err := diffSince(repo, base)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			changed[n] = true
		}
	}

	out := make([]string, 0, len(changed))
	for p := range changed {
		if prefix != "." {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			p = strings.TrimPrefix(p, prefix+"/")
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func diffSince(repo *gogit.Repository, base string) ([]string, error) {
	baseTree, err := treeAt(repo, plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", base, err)
	}
	headTree, err := treeAt(repo, plumbing.Revision("HEAD"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..HEAD: %w", base, err)
	}
	var out []string
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil || action == merkletrie.Delete {
			continue
		}
		out = append(out, ch.To.Name)
	}
	return out, nil
}

func treeAt(repo *gogit.Repository, rev plumbing.Revision) (*object.Tree, error) {
	h, err := repo.ResolveRevision(rev)
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(*h)
	if err != nil {
		return nil, err
	}
	return c.Tree()
}
