package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildAndSave(t *testing.T) {
	dir := t.TempDir()
	nda := filepath.Join(dir, "cell.nda")
	csv := filepath.Join(dir, "cell.csv")
	if err := os.WriteFile(nda, []byte("raw bytes"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(csv, []byte("Index,Cycle\n1,1\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m, err := Build([]string{nda, csv})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if m.ShaAlgo != "sha256" {
		t.Fatalf("ShaAlgo = %q", m.ShaAlgo)
	}
	if len(m.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.Items))
	}
	if m.Items[0].Type != "nda" || m.Items[1].Type != "csv" {
		t.Fatalf("types = %q, %q", m.Items[0].Type, m.Items[1].Type)
	}
	if m.Items[0].Size != int64(len("raw bytes")) {
		t.Fatalf("size = %d", m.Items[0].Size)
	}
	if len(m.Items[0].Sha256) != 64 {
		t.Fatalf("sha256 = %q", m.Items[0].Sha256)
	}

	out := filepath.Join(dir, "manifest.json")
	if err := Save(m, out); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var loaded Manifest
	if err := json.Unmarshal(b, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(loaded.Items) != 2 || loaded.Items[0].Sha256 != m.Items[0].Sha256 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestBuildMissingFile(t *testing.T) {
	_, err := Build([]string{filepath.Join(t.TempDir(), "absent.nda")})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
