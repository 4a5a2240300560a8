package record

import (
	"sort"
)

// Assemble produces the final table from raw decoded records and auxiliary
// samples: duplicate indices collapse to the first occurrence, records are
// ordered by Index, auxiliary samples pivot into per-channel columns, and
// Step is renumbered as a run-length counter over Status.
func Assemble(recs []Record, aux []AuxSample) *Table {
	recs = dedupeByIndex(recs)
	if !indexMonotonic(recs) {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Index < recs[j].Index
		})
	}

	tbl := &Table{Records: recs}
	tbl.Aux = pivotAux(recs, aux)

	steps := CountRuns(len(recs), func(i int) bool {
		return recs[i].Status != recs[i-1].Status
	})
	for i := range recs {
		recs[i].Step = steps[i]
	}
	return tbl
}

// CountRuns enumerates maximal runs of equal values: the first row always
// starts a run, every row where changed(i) reports true starts a new one,
// and the final row never starts a run on its own. The trailing-row rule
// reproduces the vendor's counting convention and is relied on downstream.
func CountRuns(n int, changed func(i int) bool) []uint32 {
	out := make([]uint32, n)
	var run uint32
	for i := 0; i < n; i++ {
		start := i == 0 || changed(i)
		if i == n-1 {
			start = false
		}
		if start {
			run++
		}
		out[i] = run
	}
	return out
}

func dedupeByIndex(recs []Record) []Record {
	seen := make(map[uint32]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		if _, dup := seen[r.Index]; dup {
			continue
		}
		seen[r.Index] = struct{}{}
		out = append(out, r)
	}
	return out
}

func indexMonotonic(recs []Record) bool {
	for i := 1; i < len(recs); i++ {
		if recs[i].Index < recs[i-1].Index {
			return false
		}
	}
	return true
}

// pivotAux turns auxiliary samples into wide columns keyed by channel id.
// Samples whose Index has no matching record are dropped; a voltage or
// secondary-temperature column is only emitted for a channel when at least
// one of its samples carries that field.
func pivotAux(recs []Record, aux []AuxSample) []AuxColumn {
	if len(aux) == 0 || len(recs) == 0 {
		return nil
	}
	rowOf := make(map[uint32]int, len(recs))
	for i, r := range recs {
		rowOf[r.Index] = i
	}

	type chanKey struct {
		channel int
		index   uint32
	}
	seen := make(map[chanKey]struct{}, len(aux))
	byChannel := make(map[int][]AuxSample)
	var channels []int
	for _, s := range aux {
		key := chanKey{s.Channel, s.Index}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := byChannel[s.Channel]; !ok {
			channels = append(channels, s.Channel)
		}
		byChannel[s.Channel] = append(byChannel[s.Channel], s)
	}
	sort.Ints(channels)

	var cols []AuxColumn
	for _, ch := range channels {
		samples := byChannel[ch]
		temp := newNaNColumn(len(recs))
		volt := newNaNColumn(len(recs))
		t2 := newNaNColumn(len(recs))
		hasVolt, hasT2 := false, false
		for _, s := range samples {
			row, ok := rowOf[s.Index]
			if !ok {
				continue
			}
			temp[row] = s.Temperature
			if !IsMissing(s.Voltage) {
				volt[row] = s.Voltage
				hasVolt = true
			}
			if !IsMissing(s.T2) {
				t2[row] = s.T2
				hasT2 = true
			}
		}
		cols = append(cols, AuxColumn{Channel: ch, Field: "T", Values: temp})
		if hasVolt {
			cols = append(cols, AuxColumn{Channel: ch, Field: "V", Values: volt})
		}
		if hasT2 {
			cols = append(cols, AuxColumn{Channel: ch, Field: "t", Values: t2})
		}
	}
	return cols
}

func newNaNColumn(n int) []float32 {
	vals := make([]float32, n)
	nan := NaN()
	for i := range vals {
		vals[i] = nan
	}
	return vals
}
