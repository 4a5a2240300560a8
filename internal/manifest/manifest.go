package manifest

import (
	"encoding/json"
	"os"
	"time"

	"example.com/ndagate/internal/common"
)

type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	ShaAlgo   string    `json:"shaAlgo"`
	Items     []Item    `json:"items"`
}

// Build hashes every path and records it with a type derived from the
// file extension.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		hex, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		typ := "other"
		switch {
		case hasExt(p, ".nda"):
			typ = "nda"
		case hasExt(p, ".ndax"):
			typ = "ndax"
		case hasExt(p, ".ndc"):
			typ = "ndc"
		case hasExt(p, ".csv"):
			typ = "csv"
		case hasExt(p, ".json", ".jsonl"):
			typ = "json"
		case hasExt(p, ".pdf"):
			typ = "pdf"
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: hex, Type: typ})
	}
	return m, nil
}

func hasExt(path string, exts ...string) bool {
	for _, e := range exts {
		if len(path) >= len(e) && path[len(path)-len(e):] == e {
			return true
		}
	}
	return false
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}
