package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weasel-sec/weasel/internal/types"
)

// FileConfig is the on-disk YAML configuration shape for Weasel.
type FileConfig struct {
	Scope           StringList      `yaml:"scope"`
	Include         StringList      `yaml:"include"`
	Exclude         StringList      `yaml:"exclude"`
	MaxBytes        *int64          `yaml:"max_bytes"`
	MinSeverity     *types.Severity `yaml:"min_severity"`
	Enable          StringList      `yaml:"enable"`
	Disable         StringList      `yaml:"disable"`
	Threads         *int            `yaml:"threads"`
	Format          *string         `yaml:"format"`
	FailOn          *string         `yaml:"fail_on"`
	NoColor         *bool           `yaml:"no_color"`
	NoCache         *bool           `yaml:"no_cache"`
	DefaultExcludes *bool           `yaml:"default_excludes"`
	// Remappings are recorded for reports; imports are not resolved.
	Remappings StringList      `yaml:"remappings"`
	Protocol   *ProtocolConfig `yaml:"protocol"`
}

// ProtocolConfig holds the project traits that switch conditional detectors.
// Unset traits default to true.
type ProtocolConfig struct {
	UsesFOTTokens   *bool `yaml:"uses_fot_tokens"`
	UsesWeirdERC20  *bool `yaml:"uses_weird_erc20"`
	UsesNativeToken *bool `yaml:"uses_native_token"`
	UsesL2          *bool `yaml:"uses_l2"`
	UsesNFT         *bool `yaml:"uses_nft"`
}

func orTrue(b *bool) bool {
	return b == nil || *b
}

// Resolve applies defaults. A nil receiver enables every trait.
func (p *ProtocolConfig) Resolve() types.Protocol {
	if p == nil {
		p = &ProtocolConfig{}
	}
	return types.Protocol{
		UsesFOTTokens:   orTrue(p.UsesFOTTokens),
		UsesWeirdERC20:  orTrue(p.UsesWeirdERC20),
		UsesNativeToken: orTrue(p.UsesNativeToken),
		UsesL2:          orTrue(p.UsesL2),
		UsesNFT:         orTrue(p.UsesNFT),
	}
}

// StringList accepts either a YAML sequence or a single comma-separated
// string.
type StringList []string

func (s *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := n.Decode(&raw); err != nil {
			return err
		}
		*s = splitList(raw)
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := n.Decode(&raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, r := range raw {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
		*s = out
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PathGlobs turns path entries into glob patterns: a plain path such as
// "lib" also matches everything beneath it.
func PathGlobs(entries []string) []string {
	var out []string
	for _, e := range entries {
		e = strings.TrimSuffix(strings.TrimPrefix(filepath.ToSlash(e), "./"), "/")
		if e == "" {
			continue
		}
		out = append(out, e)
		if !strings.ContainsAny(e, "*?[{") {
			out = append(out, e+"/**")
		}
	}
	return out
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LocalNames are the repo-local config file names, in lookup order.
var LocalNames = []string{".weasel.yml", ".weasel.yaml", "weasel.yml", "weasel.yaml"}

// ErrNoConfig is returned when no config file exists at the searched location.
var ErrNoConfig = errors.New("no config file")

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("%w in %s", ErrNoConfig, repoRoot)
}

// Dir returns the per-user weasel directory under XDG_CONFIG_HOME or
// ~/.config. It is "" when neither is available.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "weasel")
}

// GlobalPath returns the path of the global config file, or "" when Dir is
// unavailable.
func GlobalPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("%w at %s", ErrNoConfig, p)
}
