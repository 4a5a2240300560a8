package ndc

import (
	"encoding/binary"
	"math"
	"time"

	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/dict"
	"example.com/ndagate/internal/record"
)

// Role-specialized decoders for archives that split the dataset across three
// chunk streams: voltage/current samples, run info (time, cumulative
// capacity/energy, timestamp, step) and step definitions (cycle, status).

// RunInfo is one row of the run-info stream, keyed to the sample stream by
// Index.
type RunInfo struct {
	Index             uint32
	Step              uint32 // run-length counter over the raw step field
	Time              float64
	ChargeCapacity    float64
	DischargeCapacity float64
	ChargeEnergy      float64
	DischargeEnergy   float64
	Timestamp         time.Time
}

// StepInfo is one row of the step-definition stream; Step is its 1-based
// position, the key the run-info counter joins against.
type StepInfo struct {
	Step      uint32
	Cycle     uint16
	StepIndex uint32
	Status    record.Status
}

// DecodeData reads the voltage/current sample stream. Indices are assigned
// positionally; rows with a zero raw voltage are padding and are skipped.
// Every other measurement column is left missing for the later join.
func (d *Decoder) DecodeData(buf []byte) ([]record.Record, error) {
	version, err := chunkVersion(buf)
	if err != nil {
		return nil, err
	}
	multVoltage, multCurrent := 1e-4, 1.0
	if version == 14 {
		multVoltage, multCurrent = 1, 1000
	}

	nan := record.NaN()
	var recs []record.Record
	for off := pageSize; off < len(buf); off += pageSize {
		page := pageAt(buf, off)
		limit := len(page) - 4
		for s := 132; s+8 <= limit; s += 8 {
			voltage := math.Float32frombits(binary.LittleEndian.Uint32(page[s : s+4]))
			current := math.Float32frombits(binary.LittleEndian.Uint32(page[s+4 : s+8]))
			if voltage == 0 {
				continue
			}
			recs = append(recs, record.Record{
				Index:             uint32(len(recs) + 1),
				Voltage:           float32(float64(voltage) * multVoltage),
				Current:           float32(float64(current) * multCurrent),
				Time:              nan,
				ChargeCapacity:    nan,
				DischargeCapacity: nan,
				ChargeEnergy:      nan,
				DischargeEnergy:   nan,
			})
		}
		if d.metrics != nil {
			d.metrics.AddPage(int64(len(page)))
		}
	}
	common.Logf("ndc data stream: version %d, %d samples", version, len(recs))
	return recs, nil
}

// DecodeRunInfo reads the run-info stream. The layout widened at chunk
// version 14, which also switched the capacity/energy scale by a factor of
// 1000 against the historical /3600 convention.
func (d *Decoder) DecodeRunInfo(buf []byte) ([]RunInfo, error) {
	version, err := chunkVersion(buf)
	if err != nil {
		return nil, err
	}
	recLen, trailer := 47, 63
	scale := func(raw float64) float64 { return raw / 3600 }
	if version >= 14 {
		recLen, trailer = 55, 59
		scale = func(raw float64) float64 { return raw * 1000 }
	}

	var rows []RunInfo
	var rawSteps []int32
	for off := pageSize; off < len(buf); off += pageSize {
		page := pageAt(buf, off)
		limit := len(page) - trailer
		for s := 132; s+recLen <= limit; s += recLen {
			rec := page[s : s+recLen]
			index := int32(binary.LittleEndian.Uint32(rec[41:45]))
			if index == 0 {
				continue
			}
			elapsed := int32(binary.LittleEndian.Uint32(rec[0:4]))
			chgCap := math.Float32frombits(binary.LittleEndian.Uint32(rec[5:9]))
			dchgCap := math.Float32frombits(binary.LittleEndian.Uint32(rec[9:13]))
			chgEne := math.Float32frombits(binary.LittleEndian.Uint32(rec[13:17]))
			dchgEne := math.Float32frombits(binary.LittleEndian.Uint32(rec[17:21]))
			timestamp := int32(binary.LittleEndian.Uint32(rec[33:37]))
			step := int32(binary.LittleEndian.Uint32(rec[37:41]))

			rows = append(rows, RunInfo{
				Index:             uint32(index),
				Time:              float64(elapsed) * 1e-3,
				ChargeCapacity:    scale(float64(chgCap)),
				DischargeCapacity: scale(float64(dchgCap)),
				ChargeEnergy:      scale(float64(chgEne)),
				DischargeEnergy:   scale(float64(dchgEne)),
				Timestamp:         time.Unix(int64(timestamp), 0),
			})
			rawSteps = append(rawSteps, step)
		}
		if d.metrics != nil {
			d.metrics.AddPage(int64(len(page)))
		}
	}

	steps := record.CountRuns(len(rows), func(i int) bool {
		return rawSteps[i] != rawSteps[i-1]
	})
	for i := range rows {
		rows[i].Step = steps[i]
	}
	return rows, nil
}

// DecodeStep reads the step-definition stream. Rows with a zero step index
// are padding.
func (d *Decoder) DecodeStep(buf []byte) ([]StepInfo, error) {
	if _, err := chunkVersion(buf); err != nil {
		return nil, err
	}
	const recLen, trailer = 37, 5

	var rows []StepInfo
	for off := pageSize; off < len(buf); off += pageSize {
		page := pageAt(buf, off)
		limit := len(page) - trailer
		for s := 132; s+recLen <= limit; s += recLen {
			rec := page[s : s+recLen]
			stepIndex := int32(binary.LittleEndian.Uint32(rec[4:8]))
			if stepIndex == 0 {
				continue
			}
			cycle := int32(binary.LittleEndian.Uint32(rec[0:4]))
			status, err := dict.Status(rec[24])
			if err != nil {
				return nil, err
			}
			rows = append(rows, StepInfo{
				Step:      uint32(len(rows) + 1),
				Cycle:     uint16(cycle + 1),
				StepIndex: uint32(stepIndex),
				Status:    status,
			})
		}
		if d.metrics != nil {
			d.metrics.AddPage(int64(len(page)))
		}
	}
	return rows, nil
}
