package record

import (
	"math"
	"time"

	"example.com/ndagate/internal/common"
)

// Interpolate reconstructs missing Time, Timestamp, capacity and energy
// samples in place. Split-archive exports from some server versions omit
// run-info rows; the reconstruction first fills interior Time gaps linearly
// within each step, extrapolates the remainder from forward differences, and
// then integrates current (and current times voltage) over the filled Time
// axis to extend the cumulative capacity and energy columns. Originally
// known values are never overwritten.
//
// When nothing is missing the table is left untouched.
func Interpolate(recs []Record) {
	n := len(recs)
	t := make([]float64, n)
	known := make([]bool, n) // Time known before reconstruction
	missing := false
	for i := range recs {
		if IsMissing(recs[i].Time) {
			t[i] = math.NaN()
			missing = true
		} else {
			t[i] = float64(recs[i].Time)
			known[i] = true
		}
	}
	if !missing {
		return
	}
	common.Logf("IMPORTANT: this file has missing data, the decoded output contains interpolated values")

	interpolateTimeInsideSteps(recs, t)

	known2 := make([]bool, n) // Time known after interior interpolation
	for i := range t {
		known2[i] = !math.IsNaN(t[i])
	}

	// Extrapolate the remaining gaps from forward-filled Time differences
	// accumulated since the last known sample.
	d := forwardDiff(t)
	forwardFill(d)
	cum := groupCumsum(d, known2)
	ffillTime := make([]float64, n)
	copy(ffillTime, t)
	forwardFill(ffillTime)
	for i := range t {
		if known2[i] {
			continue
		}
		if i == 0 {
			continue
		}
		t[i] = ffillTime[i] + cum[i-1]
	}
	for i := range recs {
		recs[i].Time = float32(t[i])
	}

	fillTimestamps(recs, t, known)
	fillCumulative(recs, t, known)
}

// interpolateTimeInsideSteps linearly fills Time gaps that are bounded by
// known values on both sides within one contiguous step group. Leading and
// trailing gaps are left for extrapolation.
func interpolateTimeInsideSteps(recs []Record, t []float64) {
	n := len(recs)
	for start := 0; start < n; {
		end := start + 1
		for end < n && recs[end].Step == recs[start].Step {
			end++
		}
		last := -1
		for i := start; i < end; i++ {
			if math.IsNaN(t[i]) {
				continue
			}
			if last >= 0 && i-last > 1 {
				slope := (t[i] - t[last]) / float64(i-last)
				for k := last + 1; k < i; k++ {
					t[k] = t[last] + slope*float64(k-last)
				}
			}
			last = i
		}
		start = end
	}
}

// fillTimestamps forward-fills the last known timestamp and advances it by
// the elapsed-time delta accumulated since the last originally-known row.
func fillTimestamps(recs []Record, t []float64, known []bool) {
	n := len(recs)
	cum := groupCumsum(forwardDiff(t), known)
	filled := make([]time.Time, n)
	var lastTs time.Time
	for i := 0; i < n; i++ {
		if !recs[i].Timestamp.IsZero() {
			lastTs = recs[i].Timestamp
		}
		delta := 0.0
		if i > 0 && !math.IsNaN(cum[i-1]) {
			delta = cum[i-1]
		}
		if !lastTs.IsZero() {
			filled[i] = lastTs.Add(time.Duration(delta * float64(time.Second)))
		}
	}
	for i := 0; i < n; i++ {
		if !known[i] {
			recs[i].Timestamp = filled[i]
		}
	}
}

// fillCumulative integrates dTime*|Current|/3600 (and the same times
// Voltage) over each gap run and adds the increment to the last known
// cumulative capacity and energy, attributing it to charge when current is
// positive and to discharge when negative.
func fillCumulative(recs []Record, t []float64, known []bool) {
	n := len(recs)
	capInc := make([]float64, n)
	eneInc := make([]float64, n)
	capInc[0] = math.NaN()
	eneInc[0] = math.NaN()
	for i := 1; i < n; i++ {
		capInc[i] = (t[i] - t[i-1]) * math.Abs(float64(recs[i].Current)) / 3600
		eneInc[i] = capInc[i] * float64(recs[i].Voltage)
	}
	capCum := groupCumsum(capInc, known)
	eneCum := groupCumsum(eneInc, known)

	fill := func(get func(*Record) *float32, cum []float64, wantPositive bool) {
		ffilled := make([]float64, n)
		for i := 0; i < n; i++ {
			v := float64(*get(&recs[i]))
			if IsMissing(*get(&recs[i])) {
				v = math.NaN()
			}
			if i > 0 && math.IsNaN(v) {
				v = ffilled[i-1]
			}
			ffilled[i] = v
		}
		for i := 0; i < n; i++ {
			if known[i] {
				continue
			}
			inc := math.NaN()
			if i > 0 {
				prev := float64(recs[i-1].Current)
				if (wantPositive && prev > 0) || (!wantPositive && prev < 0) {
					inc = cum[i-1]
				} else {
					inc = 0
				}
			}
			*get(&recs[i]) = float32(ffilled[i] + inc)
		}
	}
	fill(func(r *Record) *float32 { return &r.ChargeCapacity }, capCum, true)
	fill(func(r *Record) *float32 { return &r.DischargeCapacity }, capCum, false)
	fill(func(r *Record) *float32 { return &r.ChargeEnergy }, eneCum, true)
	fill(func(r *Record) *float32 { return &r.DischargeEnergy }, eneCum, false)
}

func forwardDiff(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(v); i++ {
		out[i] = v[i] - v[i-1]
	}
	return out
}

func forwardFill(v []float64) {
	last := math.NaN()
	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = last
		} else {
			last = v[i]
		}
	}
}

// groupCumsum accumulates v within runs delimited by reset rows: each row
// where reset[i] is true begins a new run that includes that row. NaN inputs
// yield NaN at their own position but do not poison the running sum.
func groupCumsum(v []float64, reset []bool) []float64 {
	out := make([]float64, len(v))
	run := 0.0
	for i := range v {
		if reset[i] {
			run = 0
		}
		if math.IsNaN(v[i]) {
			out[i] = math.NaN()
			continue
		}
		run += v[i]
		out[i] = run
	}
	return out
}
