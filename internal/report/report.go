// Package report persists decode summaries as JSON and renders them as PDF
// documents with a QR code of the output digest.
package report

import (
	"encoding/json"
	"os"
	"time"

	"example.com/ndagate/internal/check"
)

// Summary describes one decoded file and the outcome of its diagnostics.
type Summary struct {
	File         string       `json:"file"`
	Format       string       `json:"format"`
	Version      int          `json:"version"`
	Records      int          `json:"records"`
	Cycles       int          `json:"cycles"`
	Steps        int          `json:"steps"`
	AuxChannels  int          `json:"auxChannels"`
	OutputSha256 string       `json:"outputSha256,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	Checks       check.Report `json:"checks"`
}

func SaveJSON(rep Summary, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadJSON(path string) (Summary, error) {
	var rep Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
