// Package nda decodes the legacy single-blob Neware container. Two
// incompatible layouts exist: version 29 locates the data section by marker
// scan and walks 86-byte frames, version 130 (BTS9) is a fixed table of
// 88-byte frames starting at byte 1024 with a trailing metadata footer.
package nda

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
	versionOffset = 14

	recordLenV29     = 86
	activeMassOffset = 152
	remarksOffset    = 2317
	remarksLen       = 100

	recordLenV130 = 88
	dataOffset    = 1024
	footerDataLen = 499
)

var (
	magic         = []byte("NEWARE")
	identifierV29 = []byte{0x00, 0x00, 0x00, 0x00, 0x55, 0x00}
	auxMarkerV130 = []byte{0x00, 0x00, 0x00, 0x00, 0x65}
	footerMarker  = []byte{
		0x06, 0x00, 0xf0, 0x1d, 0x81, 0x00, 0x03, 0x00,
		0x61, 0x90, 0x71, 0x90, 0x02, 0x7f, 0xff, 0x00,
	}
)

var (
	ErrInvalidContainer = errors.New("not a Neware nda file")
	ErrNoRecords        = errors.New("file does not contain any valid records")
)

// UnsupportedVersionError reports a recognized container with an unhandled
// format version. No partial result is produced.
type UnsupportedVersionError struct {
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("nda version %d is not yet supported", e.Version)
}

// Metadata carries informational fields used only for diagnostics.
type Metadata struct {
	Version    uint8
	ActiveMass float64 // mg
	Remarks    string
	Server     string
	Client     string
}

type Result struct {
	Records []record.Record
	Aux     []record.AuxSample
	Meta    Metadata
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

// Decode parses a complete nda buffer.
func (d *Decoder) Decode(buf []byte) (*Result, error) {
	if len(buf) <= versionOffset || !bytes.HasPrefix(buf, magic) {
		return nil, ErrInvalidContainer
	}
	version := buf[versionOffset]
	common.Logf("nda version: %d", version)

	res := &Result{Meta: Metadata{Version: version}}
	res.Meta.Server, res.Meta.Client = scanBTSVersions(buf)

	var err error
	switch version {
	case 29:
		err = d.decodeV29(buf, res)
	case 130:
		err = d.decodeV130(buf, res)
	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// scanBTSVersions looks for the embedded server/client version strings.
// They are diagnostics only; absence is not an error.
func scanBTSVersions(buf []byte) (server, client string) {
	loc := bytes.Index(buf, []byte("BTSServer"))
	if loc < 0 {
		common.Logf("BTS version not found")
		return "", ""
	}
	server = asciiWindow(buf, loc, 50)
	client = asciiWindow(buf, loc+100, 50)
	common.Logf("server: %s", server)
	common.Logf("client: %s", client)
	return server, client
}

func asciiWindow(buf []byte, off, n int) string {
	if off < 0 || off >= len(buf) {
		return ""
	}
	end := off + n
	if end > len(buf) {
		end = len(buf)
	}
	return string(bytes.Trim(buf[off:end], "\x00"))
}

func (d *Decoder) decodeV29(buf []byte, res *Result) error {
	if len(buf) >= activeMassOffset+4 {
		mass := binary.LittleEndian.Uint32(buf[activeMassOffset : activeMassOffset+4])
		res.Meta.ActiveMass = float64(mass) / 1000
		common.Logf("active mass: %g mg", res.Meta.ActiveMass)
	}
	res.Meta.Remarks = decodeRemarks(buf, remarksOffset, remarksLen)

	header := bytes.Index(buf, identifierV29)
	if header < 0 {
		return ErrNoRecords
	}
	// The marker has false positives; a candidate is only accepted when the
	// byte after the first frame is another record lead-in and the embedded
	// status byte is non-zero.
	for header+4+recordLenV29 < len(buf) &&
		(buf[header+4+recordLenV29] != 0x55 || !validRecord(buf[header+4:header+4+recordLenV29])) {
		next := bytes.Index(buf[header+4:], identifierV29)
		if next < 0 {
			return ErrNoRecords
		}
		header += 4 + next
	}

	for pos := header + 4; pos+recordLenV29 <= len(buf); pos += recordLenV29 {
		frame := buf[pos : pos+recordLenV29]
		trailerZero := isZero(frame[82:86])
		switch {
		case frame[0] == 0x55 && frame[1] == 0x00 && trailerZero:
			rec, ok, err := decodeRecordV29(frame)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			res.Records = append(res.Records, rec)
			if d.metrics != nil {
				d.metrics.AddRecord()
			}
		case frame[0] == 0x65 && trailerZero:
			res.Aux = append(res.Aux, decodeAuxFrame(frame))
			if d.metrics != nil {
				d.metrics.AddAuxRow()
			}
		}
	}
	return nil
}

// validRecord accepts a candidate frame only when its embedded status byte
// is non-zero.
func validRecord(frame []byte) bool {
	return frame[12] != 0
}

func decodeRecordV29(frame []byte) (record.Record, bool, error) {
	index := binary.LittleEndian.Uint32(frame[2:6])
	cycle := binary.LittleEndian.Uint32(frame[6:10])
	step := binary.LittleEndian.Uint32(frame[10:14])
	status := frame[12]
	elapsed := binary.LittleEndian.Uint64(frame[14:22])
	voltage := int32(binary.LittleEndian.Uint32(frame[22:26]))
	current := int32(binary.LittleEndian.Uint32(frame[26:30]))
	chgCap := int64(binary.LittleEndian.Uint64(frame[38:46]))
	dchgCap := int64(binary.LittleEndian.Uint64(frame[46:54]))
	chgEne := int64(binary.LittleEndian.Uint64(frame[54:62]))
	dchgEne := int64(binary.LittleEndian.Uint64(frame[62:70]))
	year := binary.LittleEndian.Uint16(frame[70:72])
	rng := int32(binary.LittleEndian.Uint32(frame[78:82]))

	if index == 0 || status == 0 {
		return record.Record{}, false, nil
	}
	st, err := dict.Status(status)
	if err != nil {
		return record.Record{}, false, err
	}
	mult, err := dict.RangeMultiplier(rng)
	if err != nil {
		return record.Record{}, false, err
	}

	rec := record.Record{
		Index:             index,
		Cycle:             uint16(cycle + 1),
		Step:              step,
		Status:            st,
		Time:              codec.SecondsFromMillis(elapsed),
		Voltage:           codec.Volts(voltage),
		Current:           codec.CurrentMA(current, mult),
		ChargeCapacity:    codec.CapacityMAh(chgCap, mult),
		DischargeCapacity: codec.CapacityMAh(dchgCap, mult),
		ChargeEnergy:      codec.EnergyMWh(chgEne, mult),
		DischargeEnergy:   codec.EnergyMWh(dchgEne, mult),
		Timestamp: time.Date(int(year), time.Month(frame[72]), int(frame[73]),
			int(frame[74]), int(frame[75]), int(frame[76]), 0, time.Local),
	}
	return rec, true, nil
}

func (d *Decoder) decodeV130(buf []byte, res *Result) error {
	if len(buf) < dataOffset+6 {
		return ErrNoRecords
	}
	identifier := buf[dataOffset : dataOffset+6]

	for pos := dataOffset; pos+recordLenV130 <= len(buf); pos += recordLenV130 {
		frame := buf[pos : pos+recordLenV130]
		switch {
		case bytes.Equal(frame[0:6], identifier):
			rec, err := decodeRecordV130(frame[4:])
			if err != nil {
				return err
			}
			res.Records = append(res.Records, rec)
			if d.metrics != nil {
				d.metrics.AddRecord()
			}
		case bytes.Equal(frame[0:5], auxMarkerV130):
			res.Aux = append(res.Aux, decodeAuxFrame(frame[4:]))
			if d.metrics != nil {
				d.metrics.AddAuxRow()
			}
		}
	}

	d.decodeFooterV130(buf, res)
	return nil
}

// decodeFooterV130 reverse-scans for the metadata footer block. The footer
// is diagnostics only, so a truncated or absent block is not an error.
func (d *Decoder) decodeFooterV130(buf []byte, res *Result) {
	rel := bytes.LastIndex(buf[dataOffset:], footerMarker)
	if rel < 0 {
		return
	}
	start := dataOffset + rel + len(footerMarker)
	if start+footerDataLen > len(buf) {
		common.Logf("nda footer truncated, metadata skipped")
		return
	}
	block := buf[start : start+footerDataLen]
	res.Meta.ActiveMass = math.Float64frombits(binary.LittleEndian.Uint64(block[footerDataLen-8:]))
	common.Logf("active mass: %g mg", res.Meta.ActiveMass)
	res.Meta.Remarks = decodeRemarks(block, 363, 128)
}

func decodeRecordV130(buf []byte) (record.Record, error) {
	step := buf[5]
	status := buf[6]
	index := binary.LittleEndian.Uint32(buf[12:16])
	elapsed := binary.LittleEndian.Uint64(buf[24:32])
	voltage := math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36]))
	current := math.Float32frombits(binary.LittleEndian.Uint32(buf[36:40]))
	chgCap := math.Float32frombits(binary.LittleEndian.Uint32(buf[48:52]))
	chgEne := math.Float32frombits(binary.LittleEndian.Uint32(buf[52:56]))
	dchgCap := math.Float32frombits(binary.LittleEndian.Uint32(buf[56:60]))
	dchgEne := math.Float32frombits(binary.LittleEndian.Uint32(buf[60:64]))
	date := binary.LittleEndian.Uint64(buf[64:72])

	st, err := dict.Status(status)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{
		Index:             index,
		Cycle:             0,
		Step:              uint32(step),
		Status:            st,
		Time:              codec.SecondsFromMicros(elapsed),
		Voltage:           voltage,
		Current:           current,
		ChargeCapacity:    chgCap / 3600,
		DischargeCapacity: dchgCap / 3600,
		ChargeEnergy:      chgEne / 3600,
		DischargeEnergy:   dchgEne / 3600,
		Timestamp:         time.UnixMicro(int64(date)),
	}, nil
}

// decodeAuxFrame reads the auxiliary-sensor layout shared by both versions.
func decodeAuxFrame(buf []byte) record.AuxSample {
	channel := buf[1]
	index := binary.LittleEndian.Uint32(buf[2:6])
	voltage := int32(binary.LittleEndian.Uint32(buf[22:26]))
	temp := int16(binary.LittleEndian.Uint16(buf[34:36]))
	return record.AuxSample{
		Index:       index,
		Channel:     int(channel),
		Temperature: codec.TemperatureC(temp),
		Voltage:     codec.Volts(voltage),
		T2:          record.NaN(),
	}
}

// decodeRemarks extracts the ASCII remarks window. Decode failures are
// recovered locally and yield an empty string.
func decodeRemarks(buf []byte, off, n int) string {
	if off < 0 || off+n > len(buf) {
		return ""
	}
	win := buf[off : off+n]
	for _, b := range win {
		if b > 0x7F {
			common.Logf("converting remark bytes into ASCII failed")
			return ""
		}
	}
	remarks := string(bytes.TrimSpace(bytes.ReplaceAll(win, []byte{0}, nil)))
	if remarks != "" {
		common.Logf("remarks: %s", remarks)
	}
	return remarks
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
