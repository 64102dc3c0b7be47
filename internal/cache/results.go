package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/weasel-sec/weasel/internal/types"
)

// ScanResults stores the findings and metadata from a scan
type ScanResults struct {
	Findings     []types.Finding `json:"findings"`
	Timestamp    time.Time       `json:"timestamp"`
	Root         string          `json:"root"`
	Count        int             `json:"count"`
	FilesScanned int             `json:"files_scanned"`
}

func resultsPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "weasel_last_scan.json")
	}
	return filepath.Join(root, ".weasel_last_scan.json")
}

// SaveResults saves scan results so `weasel view` can browse them later.
func SaveResults(root string, findings []types.Finding, filesScanned int) error {
	count := 0
	for _, f := range findings {
		count += len(f.Locations)
	}
	results := ScanResults{
		Findings:     findings,
		Timestamp:    time.Now(),
		Root:         root,
		Count:        count,
		FilesScanned: filesScanned,
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0644)
}

// LoadResults loads the last scan results from cache
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	b, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(b, &results); err != nil {
		return results, err
	}
	return results, nil
}
