package report

import (
	"encoding/json"
	"io"

	"github.com/weasel-sec/weasel/internal/types"
)

// Envelope is the JSON report document.
type Envelope struct {
	SchemaVersion string          `json:"schema_version"`
	Metadata      Metadata        `json:"metadata"`
	Summary       Summary         `json:"summary"`
	Findings      []types.Finding `json:"findings"`
}

const jsonSchemaVersion = "1"

// WriteJSON writes findings wrapped with metadata and a summary.
func WriteJSON(w io.Writer, findings []types.Finding, meta Metadata) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	env := Envelope{
		SchemaVersion: jsonSchemaVersion,
		Metadata:      meta,
		Summary:       Summarize(findings),
		Findings:      findings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
