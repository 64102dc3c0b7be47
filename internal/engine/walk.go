package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/weasel-sec/weasel/internal/ignore"
)

// ignoreFileDirective in a source file excludes the whole file.
const ignoreFileDirective = "weasel:ignore-file"

// Walk traverses the scope of cfg and invokes handle with the slash-separated
// root-relative path and content of every eligible Solidity file.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(path string, data []byte)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return walkScope(ctx, cfg, ign, func(p, rel string) error {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if strings.Contains(string(b), ignoreFileDirective) {
			return nil
		}
		if looksBinary(b) {
			return nil
		}
		handle(rel, b)
		return nil
	})
}

// walkScope visits every candidate file under the configured scope without
// reading it.
func walkScope(ctx context.Context, cfg Config, ign ignore.Matcher, visit func(p, rel string) error) error {
	roots := []string{cfg.Root}
	if len(cfg.Scope) > 0 {
		roots = roots[:0]
		for _, s := range cfg.Scope {
			roots = append(roots, filepath.Join(cfg.Root, filepath.FromSlash(s)))
		}
	}
	seen := map[string]bool{}
	for _, start := range roots {
		if _, err := os.Stat(start); err != nil {
			continue
		}
		err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, _ := filepath.Rel(cfg.Root, p)
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if p == start {
					return nil
				}
				// Default exclude directories
				if cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
					return filepath.SkipDir
				}
				if ign.MatchDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			lower := strings.ToLower(rel)
			if !isSolidity(lower) || seen[rel] {
				return nil
			}
			if cfg.DefaultExcludes && isDefaultFileExcluded(lower) {
				return nil
			}
			if !allowedByGlobs(rel, cfg) {
				return nil
			}
			if ign.Match(rel) {
				return nil
			}
			info, _ := d.Info()
			if info == nil || (cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes) {
				return nil
			}
			seen[rel] = true
			return visit(p, rel)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// CountTargets estimates the number of files a scan would process. It mirrors
// the selection used by Walk but does not read file contents.
func CountTargets(cfg Config) (int, error) {
	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	if err != nil {
		return 0, err
	}
	only, err := changedSet(cfg)
	if err != nil {
		return 0, err
	}
	n := 0
	err = walkScope(context.Background(), cfg, ign, func(_, rel string) error {
		if only == nil || only[rel] {
			n++
		}
		return nil
	})
	return n, err
}
