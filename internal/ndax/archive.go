package ndax

import (
	"archive/zip"
	"io"

	"github.com/klauspost/compress/flate"
)

// Archive yields named byte streams from an ndax container. The decode path
// never needs to know how the members are materialized.
type Archive interface {
	Names() []string
	ReadFile(name string) ([]byte, error)
}

// ZipArchive reads ndax members from the zip container on disk.
type ZipArchive struct {
	rc *zip.ReadCloser
}

// OpenZip opens an ndax archive for member access.
func OpenZip(path string) (*ZipArchive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	rc.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return &ZipArchive{rc: rc}, nil
}

func (a *ZipArchive) Names() []string {
	names := make([]string, 0, len(a.rc.File))
	for _, f := range a.rc.File {
		names = append(names, f.Name)
	}
	return names
}

func (a *ZipArchive) ReadFile(name string) ([]byte, error) {
	f, err := a.rc.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (a *ZipArchive) Close() error {
	return a.rc.Close()
}
