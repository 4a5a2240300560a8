// Package ndax resolves the archive container: it decides whether the
// dataset lives in one merged chunk stream or is split across three
// role-specific streams, drives the chunk decoders accordingly, and joins
// auxiliary channel streams named with a numeric suffix.
package ndax

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/ndc"
	"example.com/ndagate/internal/record"
)

const (
	dataMember    = "data.ndc"
	runInfoMember = "data_runInfo.ndc"
	stepMember    = "data_step.ndc"
)

var auxMemberPattern = regexp.MustCompile(`.*_([0-9]+)[.]ndc$`)

var ErrMissingData = errors.New("archive does not contain data.ndc")

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

// Decode resolves and decodes all data-bearing members of the archive.
func (d *Decoder) Decode(ar Archive) (*Result, error) {
	res := &Result{Meta: readMetadata(ar)}

	names := ar.Names()
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	if !present[dataMember] {
		return nil, ErrMissingData
	}
	dataBuf, err := ar.ReadFile(dataMember)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dataMember, err)
	}

	cd := ndc.NewDecoder()
	cd.SetMetrics(d.metrics)

	if present[runInfoMember] && present[stepMember] {
		res.Records, err = d.decodeSplit(ar, cd, dataBuf)
		if err != nil {
			return nil, err
		}
	} else {
		decoded, err := cd.Decode(dataBuf)
		if err != nil {
			return nil, err
		}
		// Aux rows embedded in the merged stream are discarded; auxiliary
		// channels live in their own numbered members.
		res.Records = decoded.Records
	}

	for _, name := range names {
		m := auxMemberPattern.FindStringSubmatch(name)
		if m == nil || name == runInfoMember || name == stepMember {
			continue
		}
		channel, _ := strconv.Atoi(m[1])
		buf, err := ar.ReadFile(name)
		if err != nil {
			common.Logf("skipping aux member %s: %v", name, err)
			continue
		}
		decoded, err := cd.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("aux member %s: %w", name, err)
		}
		for _, s := range decoded.Aux {
			s.Channel = channel
			res.Aux = append(res.Aux, s)
		}
	}
	return res, nil
}

// decodeSplit reads the three role streams and joins them relationally:
// samples join run info by Index, the run-length Step is forward-filled
// across gaps, and the step definitions join by Step to recover Status and
// Cycle. Missing run-info rows leave gaps that the interpolator fills.
func (d *Decoder) decodeSplit(ar Archive, cd *ndc.Decoder, dataBuf []byte) ([]record.Record, error) {
	runInfoBuf, err := ar.ReadFile(runInfoMember)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", runInfoMember, err)
	}
	stepBuf, err := ar.ReadFile(stepMember)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", stepMember, err)
	}

	recs, err := cd.DecodeData(dataBuf)
	if err != nil {
		return nil, err
	}
	runInfo, err := cd.DecodeRunInfo(runInfoBuf)
	if err != nil {
		return nil, err
	}
	steps, err := cd.DecodeStep(stepBuf)
	if err != nil {
		return nil, err
	}

	joinSplit(recs, runInfo, steps)
	record.Interpolate(recs)
	return recs, nil
}

func joinSplit(recs []record.Record, runInfo []ndc.RunInfo, steps []ndc.StepInfo) {
	riByIndex := make(map[uint32]ndc.RunInfo, len(runInfo))
	for _, ri := range runInfo {
		if _, dup := riByIndex[ri.Index]; !dup {
			riByIndex[ri.Index] = ri
		}
	}
	stByStep := make(map[uint32]ndc.StepInfo, len(steps))
	for _, st := range steps {
		if _, dup := stByStep[st.Step]; !dup {
			stByStep[st.Step] = st
		}
	}

	var lastStep uint32
	for i := range recs {
		r := &recs[i]
		if ri, ok := riByIndex[r.Index]; ok {
			r.Time = float32(ri.Time)
			r.ChargeCapacity = float32(ri.ChargeCapacity)
			r.DischargeCapacity = float32(ri.DischargeCapacity)
			r.ChargeEnergy = float32(ri.ChargeEnergy)
			r.DischargeEnergy = float32(ri.DischargeEnergy)
			r.Timestamp = ri.Timestamp
			lastStep = ri.Step
		}
		r.Step = lastStep
		if st, ok := stByStep[r.Step]; ok {
			r.Cycle = st.Cycle
			r.Status = st.Status
		}
	}
}
