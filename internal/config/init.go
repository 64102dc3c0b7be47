package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFile is written by `weasel init`.
const DefaultFile = `# .weasel.yml

# Directories or files to analyze, relative to the project root.
# If omitted, the whole project is analyzed.
# scope: [src]

# Paths or globs to leave out. Plain paths also cover everything below them.
# exclude: [lib, test]

# Only run detectors of this severity or higher.
# Options: critical, high, medium, low, gas, nc
# min_severity: nc

# Detector ids to run exclusively, or to skip.
# Run ` + "`weasel detectors`" + ` to list them.
# enable: []
# disable: [constant-case]

# Report format: table, text, md, json or sarif.
# format: md

# Exit non-zero when a finding at or above this severity is not baselined.
# fail_on: high

# Import remappings (recorded only).
# remappings:
#   - "@openzeppelin/=lib/openzeppelin-contracts/contracts/"

# Protocol traits. Every trait defaults to true; set one to false to turn off
# the detectors that only apply to it.
protocol:
  # uses_fot_tokens: false     # fee-on-transfer tokens
  # uses_weird_erc20: false    # non-standard ERC20 behavior
  # uses_native_token: false   # native ETH handling
  # uses_l2: false             # L2 chains (Arbitrum, Optimism, ...)
  # uses_nft: false            # ERC721 / ERC1155 collections
`

// WriteDefault writes DefaultFile as .weasel.yml in root. An existing local
// config is left alone unless force is set.
func WriteDefault(root string, force bool) (string, error) {
	if !force {
		for _, name := range LocalNames {
			p := filepath.Join(root, name)
			if _, err := os.Stat(p); err == nil {
				return p, fmt.Errorf("config already exists: %s", p)
			}
		}
	}
	p := filepath.Join(root, LocalNames[0])
	if err := os.WriteFile(p, []byte(DefaultFile), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}
