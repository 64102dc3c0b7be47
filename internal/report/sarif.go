package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/weasel-sec/weasel/internal/types"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	toolInfoURI  = "https://github.com/weasel-sec/weasel"
	sarifVersion = "2.1.0"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	SemVersion     string      `json:"semanticVersion,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	FullDescription  sarifMessage   `json:"fullDescription"`
	Help             sarifMessage   `json:"help"`
	HelpURI          string         `json:"helpUri"`
	Properties       map[string]any `json:"properties"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// sevToScore maps a severity to the security-severity score code scanning
// uses for ranking.
func sevToScore(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "9.5"
	case types.SevHigh:
		return "9.0"
	case types.SevMedium:
		return "6.0"
	case types.SevLow:
		return "3.0"
	case types.SevGas:
		return "1.0"
	default:
		return "0.0"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding, version string) error {
	return WriteSARIFWithStats(w, findings, version, nil)
}

// WriteSARIFWithStats is WriteSARIF with extra run-level counters stored under
// properties.scanStats.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, version string, stats map[string]int) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "weasel",
			SemVersion:     version,
			InformationURI: toolInfoURI,
			Rules:          []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	if len(stats) > 0 {
		run.Properties = map[string]any{"scanStats": stats}
	}

	ruleIndex := map[string]int{}
	for _, f := range findings {
		idx, ok := ruleIndex[f.DetectorID]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			ruleIndex[f.DetectorID] = idx
			help := f.Description
			if f.Example != "" {
				help = "**Recommendation:**\n\n" + f.Example
			}
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               f.DetectorID,
				Name:             f.Name,
				ShortDescription: sarifMessage{Text: f.Name},
				FullDescription:  sarifMessage{Text: f.Description},
				Help:             sarifMessage{Text: help},
				HelpURI:          toolInfoURI,
				Properties: map[string]any{
					"security-severity": sevToScore(f.Severity),
					"precision":         "high",
					"tags":              []string{"security", "solidity", "smart-contract"},
				},
			})
		}
		for _, loc := range f.Locations {
			run.Results = append(run.Results, sarifResult{
				RuleID:    f.DetectorID,
				RuleIndex: idx,
				Level:     sevToLevel(f.Severity),
				Message:   sarifMessage{Text: f.Description},
				Locations: []sarifLoc{{
					PhysicalLocation: sarifPhys{
						ArtifactLocation: sarifArt{URI: strings.TrimPrefix(loc.Path, "./")},
						Region:           regionOf(loc),
					},
				}},
				PartialFingerprints: map[string]string{
					"primaryLocationLineHash": Fingerprint(f.DetectorID, loc),
				},
			})
		}
	}

	doc := sarif{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// regionOf clamps columns to 1 since SARIF requires them to be positive.
func regionOf(loc types.Location) sarifRegion {
	r := sarifRegion{
		StartLine:   loc.Line,
		StartColumn: max(loc.Column, 1),
		EndLine:     loc.EndLine,
		EndColumn:   loc.EndColumn,
	}
	if r.EndLine == 0 {
		r.EndLine = r.StartLine
	}
	if r.EndColumn < 1 {
		r.EndColumn = r.StartColumn
	}
	return r
}
