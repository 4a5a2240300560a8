package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"example.com/ndagate/internal/check"
)

func sampleSummary() Summary {
	var rep Summary
	rep.File = "cell.nda"
	rep.Format = "nda"
	rep.Version = 29
	rep.Records = 100
	rep.Cycles = 3
	rep.Steps = 12
	rep.AuxChannels = 2
	rep.OutputSha256 = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	rep.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rep.Checks.Summary.Pass = true
	return rep
}

func TestSaveLoadJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	if err := SaveJSON(sampleSummary(), out); err != nil {
		t.Fatalf("SaveJSON returned error: %v", err)
	}
	got, err := LoadJSON(out)
	if err != nil {
		t.Fatalf("LoadJSON returned error: %v", err)
	}
	if got.File != "cell.nda" || got.Version != 29 || got.Records != 100 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Checks.Summary.Pass {
		t.Fatalf("check summary lost in round trip")
	}
}

func TestSavePDF(t *testing.T) {
	rep := sampleSummary()
	rep.Checks.Findings = []check.Diagnostic{
		{Ts: rep.CreatedAt, RuleId: "index.unique", Severity: check.ERROR, Row: 5, Index: 6, Message: "index 6 already seen at row 4"},
	}
	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := SavePDF(rep, out); err != nil {
		t.Fatalf("SavePDF returned error: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("empty PDF written")
	}
}

func TestDigestToQR(t *testing.T) {
	png, err := DigestToQR("  9f86d081884c 7d65 ", 64)
	if err != nil {
		t.Fatalf("DigestToQR returned error: %v", err)
	}
	if len(png) == 0 {
		t.Fatalf("empty PNG")
	}
	if _, err := DigestToQR("zz--", 64); err == nil {
		t.Fatalf("expected error for digest with no hex content")
	}
}
