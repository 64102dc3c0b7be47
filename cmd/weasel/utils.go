package weasel

import (
	"fmt"
	"runtime/debug"
	"strings"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/weasel-sec/weasel/internal/config"
	"github.com/weasel-sec/weasel/internal/types"
	"github.com/weasel-sec/weasel/internal/update"
)

// currentVersion returns the build version, falling back to the VCS revision
// recorded by the Go toolchain.
func currentVersion() string {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	return v
}

// selfUpdate replaces the running binary with the latest GitHub release and
// returns the version installed.
func selfUpdate() (string, error) {
	ver, err := semver.ParseTolerant(currentVersion())
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Repo)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickBoolDefault is pickBool for flags whose default is true: an explicit
// flag wins in either direction.
func pickBoolDefault(cli, changed bool, local, global *bool, def bool) bool {
	if changed {
		return cli
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return def
}

// pickList takes a comma-separated flag value, else the local list, else the
// global one.
func pickList(cli string, local, global config.StringList) []string {
	if cli != "" {
		return splitCSV(cli)
	}
	if len(local) > 0 {
		return local
	}
	if len(global) > 0 {
		return global
	}
	return nil
}

func pickSeverity(cli string, local, global *types.Severity) (types.Severity, error) {
	if cli != "" {
		s, err := types.ParseSeverity(cli)
		if err != nil {
			return types.SevNC, fmt.Errorf("invalid --min-severity: %w", err)
		}
		return s, nil
	}
	if local != nil {
		return *local, nil
	}
	if global != nil {
		return *global, nil
	}
	return types.SevNC, nil
}

func pickProtocol(local, global *config.ProtocolConfig) types.Protocol {
	if local != nil {
		return local.Resolve()
	}
	return global.Resolve()
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
