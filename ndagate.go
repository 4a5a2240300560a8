// Package ndagate decodes Neware battery cycler output (nda, ndax and bare
// ndc files) into a canonical, ordered table of electrochemical records.
package ndagate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/nda"
	"example.com/ndagate/internal/ndax"
	"example.com/ndagate/internal/ndc"
	"example.com/ndagate/internal/record"
)

// Aliases so callers outside the module can name the decoded types.
type (
	Table     = record.Table
	Record    = record.Record
	AuxColumn = record.AuxColumn
	Status    = record.Status
	CycleMode = record.CycleMode
	Metrics   = common.Metrics
)

const (
	CycleModeChg  = record.CycleModeChg
	CycleModeDChg = record.CycleModeDChg
	CycleModeAuto = record.CycleModeAuto
)

var ErrUnsupportedFormat = errors.New("unsupported file extension")

// Options controls how a file is decoded.
type Options struct {
	// SoftwareCycleNumber regenerates cycle numbers from step transitions
	// instead of trusting the numbers stored in the file.
	SoftwareCycleNumber bool
	// CycleMode selects the convention used when regenerating cycle numbers.
	CycleMode CycleMode
	// Metrics, when set, receives decode counters.
	Metrics *Metrics
}

// DefaultOptions matches the vendor client's behavior.
func DefaultOptions() Options {
	return Options{
		SoftwareCycleNumber: true,
		CycleMode:           CycleModeChg,
	}
}

// File is a decoded cycler file: the record table plus the informational
// metadata the container carries.
type File struct {
	Table   *Table
	Format  string
	Version int

	ActiveMass float64 // mg
	Remarks    string
	Server     string
	Client     string
}

// Read decodes path by its extension.
func Read(path string, opts Options) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nda":
		return ReadNDA(path, opts)
	case ".ndax":
		return ReadNDAX(path, opts)
	case ".ndc":
		return ReadNDC(path, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadNDA decodes a monolithic nda file.
func ReadNDA(path string, opts Options) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := nda.NewDecoder()
	d.SetMetrics(opts.Metrics)
	res, err := d.Decode(buf)
	if err != nil {
		return nil, err
	}
	f := &File{
		Format:     "nda",
		Version:    int(res.Meta.Version),
		ActiveMass: res.Meta.ActiveMass,
		Remarks:    res.Meta.Remarks,
		Server:     res.Meta.Server,
		Client:     res.Meta.Client,
	}
	return finish(f, res.Records, res.Aux, opts)
}

// ReadNDAX decodes a zip-packaged ndax archive.
func ReadNDAX(path string, opts Options) (*File, error) {
	ar, err := ndax.OpenZip(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	d := ndax.NewDecoder()
	d.SetMetrics(opts.Metrics)
	res, err := d.Decode(ar)
	if err != nil {
		return nil, err
	}
	f := &File{
		Format:     "ndax",
		ActiveMass: res.Meta.ActiveMass,
		Server:     res.Meta.ServerVersion,
		Client:     res.Meta.ClientVersion,
	}
	return finish(f, res.Records, res.Aux, opts)
}

// ReadNDC decodes a bare ndc chunk file.
func ReadNDC(path string, opts Options) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := ndc.NewDecoder()
	d.SetMetrics(opts.Metrics)
	res, err := d.Decode(buf)
	if err != nil {
		return nil, err
	}
	f := &File{
		Format:  "ndc",
		Version: int(res.Version),
	}
	return finish(f, res.Records, res.Aux, opts)
}

func finish(f *File, recs []record.Record, aux []record.AuxSample, opts Options) (*File, error) {
	f.Table = record.Assemble(recs, aux)
	if opts.SoftwareCycleNumber {
		cycles, err := record.GenerateCycleNumbers(f.Table.Records, opts.CycleMode)
		if err != nil {
			return nil, err
		}
		for i := range f.Table.Records {
			f.Table.Records[i].Cycle = cycles[i]
		}
	}
	if opts.Metrics != nil {
		opts.Metrics.Stop()
	}
	return f, nil
}
