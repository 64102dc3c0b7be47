package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/weasel-sec/weasel/internal/types"
)

// ScanRecord is one line of the scan history.
type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	Detectors      []string         `json:"detectors,omitempty"`
	TotalFindings  int              `json:"total_findings"`
	Instances      int              `json:"instances"`
	NewInstances   int              `json:"new_instances"`
	BaselinedCount int              `json:"baselined_count"`
	SeverityCounts map[string]int   `json:"severity_counts"`
	FilesScanned   int              `json:"files_scanned"`
	FilesCached    int              `json:"files_cached"`
	ParseErrors    int              `json:"parse_errors"`
	Duration       string           `json:"duration"`
	BaselineFile   string           `json:"baseline_file,omitempty"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
}

// FindingSummary points at the first location of a finding.
type FindingSummary struct {
	Detector  string `json:"detector"`
	Severity  string `json:"severity"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Instances int    `json:"instances"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".weasel_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "weasel_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the file records are appended to.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Reading stops at the first
// malformed record.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first like
// LoadHistory.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}
	records = append(records[:index], records[index+1:]...)

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for i := len(records) - 1; i >= 0; i-- {
		if err := encoder.Encode(records[i]); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// ScanStats carries the counters of a scan that are not derived from
// findings.
type ScanStats struct {
	Detectors    []string
	FilesScanned int
	FilesCached  int
	ParseErrors  int
	Duration     time.Duration
	BaselineFile string
}

func CreateScanRecord(root string, allFindings, newFindings []types.Finding, stats ScanStats) ScanRecord {
	severityCounts := make(map[string]int)
	instances := 0
	for _, f := range allFindings {
		severityCounts[f.Severity.String()]++
		instances += len(f.Locations)
	}
	fresh := 0
	for _, f := range newFindings {
		fresh += len(f.Locations)
	}

	topFindings := make([]FindingSummary, 0, 10)
	for _, f := range newFindings {
		if len(topFindings) == 10 {
			break
		}
		if len(f.Locations) == 0 {
			continue
		}
		first := f.Locations[0]
		topFindings = append(topFindings, FindingSummary{
			Detector:  f.DetectorID,
			Severity:  f.Severity.String(),
			Path:      first.Path,
			Line:      first.Line,
			Instances: len(f.Locations),
		})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Root:           root,
		Detectors:      stats.Detectors,
		TotalFindings:  len(allFindings),
		Instances:      instances,
		NewInstances:   fresh,
		BaselinedCount: instances - fresh,
		SeverityCounts: severityCounts,
		FilesScanned:   stats.FilesScanned,
		FilesCached:    stats.FilesCached,
		ParseErrors:    stats.ParseErrors,
		Duration:       stats.Duration.String(),
		BaselineFile:   stats.BaselineFile,
		TopFindings:    topFindings,
	}
}
