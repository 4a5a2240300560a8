// Package ndc decodes the paged Neware chunk container, both standalone and
// as members of the ndax archive. Version 2 locates records by identifier
// search, versions 5 and 11 pack fixed-width sub-records into 4096-byte
// pages. Version 11 carries auxiliary samples only.
package ndc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"example.com/ndagate/internal/codec"
	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/dict"
	"example.com/ndagate/internal/record"
)

const (
	versionOffset = 2
	pageSize      = 4096

	recordLenV2        = 94
	identifierOffsetV2 = 517

	subRecordStartV5 = 125
	subRecordLenV5   = 87
	pageTrailerV5    = 56

	subRecordStartV11 = 132
	subRecordLenV11   = 7
	pageTrailerV11    = 2
)

var ErrInvalidChunk = errors.New("ndc buffer too short")

// UnsupportedVersionError reports an unhandled chunk-format version.
type UnsupportedVersionError struct {
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("ndc version %d is not yet supported", e.Version)
}

type Result struct {
	Version uint8
	Records []record.Record
	Aux     []record.AuxSample
}

type Decoder struct {
	metrics *common.Metrics
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// SetMetrics attaches a metrics recorder to the decoder.
func (d *Decoder) SetMetrics(m *common.Metrics) {
	d.metrics = m
	if m != nil {
		m.Start()
	}
}

// Decode parses a complete ndc buffer, dispatching on the chunk version.
func (d *Decoder) Decode(buf []byte) (*Result, error) {
	version, err := chunkVersion(buf)
	if err != nil {
		return nil, err
	}
	common.Logf("ndc version: %d", version)
	res := &Result{Version: version}
	switch version {
	case 2:
		err = d.decodeV2(buf, res)
	case 5:
		err = d.decodeV5(buf, res)
	case 11:
		err = d.decodeV11(buf, res)
	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func chunkVersion(buf []byte) (uint8, error) {
	if len(buf) <= versionOffset {
		return 0, ErrInvalidChunk
	}
	return buf[versionOffset], nil
}

func (d *Decoder) decodeV2(buf []byte, res *Result) error {
	if len(buf) < identifierOffsetV2+8 {
		return ErrInvalidChunk
	}
	identifier := buf[identifierOffsetV2 : identifierOffsetV2+8]
	auxKind := identifier[0]

	var aux []record.AuxSample
	header := bytes.Index(buf, identifier)
	for header >= 0 && header+recordLenV2 <= len(buf) {
		frame := buf[header : header+recordLenV2]
		switch frame[0] {
		case 0x55:
			rec, err := decodeMainRecord(frame)
			if err != nil {
				return err
			}
			res.Records = append(res.Records, rec)
			if d.metrics != nil {
				d.metrics.AddRecord()
			}
		case 0x65:
			aux = append(aux, decodeAux65(frame))
		case 0x74:
			aux = append(aux, decodeAux74(frame))
		default:
			common.Logf("unknown record type: %02x", frame[0])
			if d.metrics != nil {
				d.metrics.IncSkipped()
			}
		}
		next := bytes.Index(buf[header+recordLenV2:], identifier)
		if next < 0 {
			break
		}
		header += recordLenV2 + next
	}

	// Aux rows are only meaningful when the captured identifier itself is an
	// auxiliary lead byte; version 2 files label their aux stream that way.
	switch auxKind {
	case 0x65:
		for i := range aux {
			aux[i].T2 = record.NaN()
		}
		res.Aux = aux
	case 0x74:
		res.Aux = aux
	}
	if d.metrics != nil {
		d.metrics.SetTotalBytes(int64(len(buf)))
	}
	return nil
}

func (d *Decoder) decodeV5(buf []byte, res *Result) error {
	var aux65, aux74 []record.AuxSample
	for off := pageSize; off < len(buf); off += pageSize {
		page := pageAt(buf, off)
		limit := len(page) - pageTrailerV5
		for s := subRecordStartV5; s+subRecordLenV5 <= limit; s += subRecordLenV5 {
			frame := page[s : s+subRecordLenV5]
			switch frame[7] {
			case 0x55:
				rec, err := decodeMainRecord(frame)
				if err != nil {
					return err
				}
				res.Records = append(res.Records, rec)
				if d.metrics != nil {
					d.metrics.AddRecord()
				}
			case 0x65:
				aux65 = append(aux65, decodeAux65(frame))
			case 0x74:
				aux74 = append(aux74, decodeAux74(frame))
			}
		}
		if d.metrics != nil {
			d.metrics.AddPage(int64(len(page)))
		}
	}

	// When both aux layouts are present their rows merge; the secondary t
	// field only exists in the type-B layout and is dropped in the merge.
	switch {
	case len(aux65) > 0 && len(aux74) > 0:
		for i := range aux74 {
			aux74[i].T2 = record.NaN()
		}
		res.Aux = append(aux65, aux74...)
	case len(aux74) > 0:
		res.Aux = aux74
	default:
		res.Aux = aux65
	}
	return nil
}

// decodeV11 reads the aux-only chunk layout: 7-byte sub-records of marker,
// voltage and temperature. Sample indices are assigned positionally.
func (d *Decoder) decodeV11(buf []byte, res *Result) error {
	for off := pageSize; off < len(buf); off += pageSize {
		page := pageAt(buf, off)
		limit := len(page) - pageTrailerV11
		for s := subRecordStartV11; s+subRecordLenV11 <= limit; s += subRecordLenV11 {
			if page[s] != 0x65 {
				continue
			}
			voltage := math.Float32frombits(binary.LittleEndian.Uint32(page[s+1 : s+5]))
			temp := int16(binary.LittleEndian.Uint16(page[s+5 : s+7]))
			res.Aux = append(res.Aux, record.AuxSample{
				Index:       uint32(len(res.Aux) + 1),
				Temperature: codec.TemperatureC(temp),
				Voltage:     voltage / 10000,
				T2:          record.NaN(),
			})
		}
		if d.metrics != nil {
			d.metrics.AddPage(int64(len(page)))
		}
	}
	return nil
}

// decodeMainRecord reads the main measurement layout shared by versions 2
// and 5.
func decodeMainRecord(frame []byte) (record.Record, error) {
	index := binary.LittleEndian.Uint32(frame[8:12])
	cycle := binary.LittleEndian.Uint32(frame[12:16])
	step := frame[16]
	status := frame[17]
	elapsed := binary.LittleEndian.Uint64(frame[23:31])
	voltage := int32(binary.LittleEndian.Uint32(frame[31:35]))
	current := int32(binary.LittleEndian.Uint32(frame[35:39]))
	chgCap := int64(binary.LittleEndian.Uint64(frame[43:51]))
	dchgCap := int64(binary.LittleEndian.Uint64(frame[51:59]))
	chgEne := int64(binary.LittleEndian.Uint64(frame[59:67]))
	dchgEne := int64(binary.LittleEndian.Uint64(frame[67:75]))
	year := binary.LittleEndian.Uint16(frame[75:77])
	rng := int32(binary.LittleEndian.Uint32(frame[82:86]))

	st, err := dict.Status(status)
	if err != nil {
		return record.Record{}, err
	}
	mult, err := dict.RangeMultiplier(rng)
	if err != nil {
		return record.Record{}, err
	}

	return record.Record{
		Index:             index,
		Cycle:             uint16(cycle + 1),
		Step:              uint32(step),
		Status:            st,
		Time:              codec.SecondsFromMillis(elapsed),
		Voltage:           codec.Volts(voltage),
		Current:           codec.CurrentMA(current, mult),
		ChargeCapacity:    codec.CapacityMAh(chgCap, mult),
		DischargeCapacity: codec.CapacityMAh(dchgCap, mult),
		ChargeEnergy:      codec.EnergyMWh(chgEne, mult),
		DischargeEnergy:   codec.EnergyMWh(dchgEne, mult),
		Timestamp: time.Date(int(year), time.Month(frame[77]), int(frame[78]),
			int(frame[79]), int(frame[80]), int(frame[81]), 0, time.Local),
	}, nil
}

func decodeAux65(frame []byte) record.AuxSample {
	return record.AuxSample{
		Index:       binary.LittleEndian.Uint32(frame[8:12]),
		Channel:     int(frame[3]),
		Voltage:     codec.Volts(int32(binary.LittleEndian.Uint32(frame[31:35]))),
		Temperature: codec.TemperatureC(int16(binary.LittleEndian.Uint16(frame[41:43]))),
		T2:          record.NaN(),
	}
}

func decodeAux74(frame []byte) record.AuxSample {
	s := decodeAux65(frame)
	s.T2 = codec.TemperatureC(int16(binary.LittleEndian.Uint16(frame[43:45])))
	return s
}

// pageAt returns the page starting at off; the final page may be short.
func pageAt(buf []byte, off int) []byte {
	end := off + pageSize
	if end > len(buf) {
		end = len(buf)
	}
	return buf[off:end]
}
