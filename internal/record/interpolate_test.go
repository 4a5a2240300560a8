package record

import (
	"math"
	"testing"
	"time"
)

func approx64(a float32, b float64) bool {
	return math.Abs(float64(a)-b) < 1e-3
}

func TestInterpolateInsideStep(t *testing.T) {
	nan := NaN()
	ts0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []Record{
		{Index: 1, Step: 1, Time: 0, Current: 100, Voltage: 3.5, ChargeCapacity: 0, DischargeCapacity: 0, ChargeEnergy: 0, DischargeEnergy: 0, Timestamp: ts0},
		{Index: 2, Step: 1, Time: nan, Current: 100, Voltage: 3.5, ChargeCapacity: nan, DischargeCapacity: nan, ChargeEnergy: nan, DischargeEnergy: nan},
		{Index: 3, Step: 1, Time: nan, Current: 100, Voltage: 3.5, ChargeCapacity: nan, DischargeCapacity: nan, ChargeEnergy: nan, DischargeEnergy: nan},
		{Index: 4, Step: 1, Time: 30, Current: 100, Voltage: 3.5, ChargeCapacity: 0.833, DischargeCapacity: 0, ChargeEnergy: 2.917, DischargeEnergy: 0, Timestamp: ts0.Add(30 * time.Second)},
	}
	Interpolate(recs)

	for i, want := range []float64{0, 10, 20, 30} {
		if !approx64(recs[i].Time, want) {
			t.Fatalf("Time[%d] = %g, want %g", i, recs[i].Time, want)
		}
	}

	// The first reconstructed row sits before any elapsed-time delta exists,
	// so it inherits the last known timestamp unchanged.
	if !recs[1].Timestamp.Equal(ts0) {
		t.Fatalf("Timestamp[1] = %v, want %v", recs[1].Timestamp, ts0)
	}
	if !recs[2].Timestamp.Equal(ts0.Add(10 * time.Second)) {
		t.Fatalf("Timestamp[2] = %v, want %v", recs[2].Timestamp, ts0.Add(10*time.Second))
	}
	if !recs[3].Timestamp.Equal(ts0.Add(30 * time.Second)) {
		t.Fatalf("known Timestamp[3] must not change, got %v", recs[3].Timestamp)
	}

	// 10s at 100mA is 10*100/3600 mAh; the delta reaching row 2 covers one
	// interval. Row 1 has no usable increment and stays missing.
	if !IsMissing(recs[1].ChargeCapacity) {
		t.Fatalf("ChargeCapacity[1] = %g, want missing", recs[1].ChargeCapacity)
	}
	if !approx64(recs[2].ChargeCapacity, 10*100.0/3600) {
		t.Fatalf("ChargeCapacity[2] = %g, want %g", recs[2].ChargeCapacity, 10*100.0/3600)
	}
	if !approx64(recs[2].DischargeCapacity, 0) {
		t.Fatalf("DischargeCapacity[2] = %g, want 0", recs[2].DischargeCapacity)
	}
	if !approx64(recs[2].ChargeEnergy, 3.5*10*100.0/3600) {
		t.Fatalf("ChargeEnergy[2] = %g, want %g", recs[2].ChargeEnergy, 3.5*10*100.0/3600)
	}
	if !approx64(recs[3].ChargeCapacity, 0.833) {
		t.Fatalf("known ChargeCapacity[3] must not change, got %g", recs[3].ChargeCapacity)
	}
}

func TestInterpolateTrailingExtrapolation(t *testing.T) {
	nan := NaN()
	recs := []Record{
		{Index: 1, Step: 1, Time: 0, Current: -50, Voltage: 3.0},
		{Index: 2, Step: 1, Time: 10, Current: -50, Voltage: 3.0},
		{Index: 3, Step: 2, Time: nan, Current: -50, Voltage: 3.0, ChargeCapacity: nan, DischargeCapacity: nan, ChargeEnergy: nan, DischargeEnergy: nan},
	}
	Interpolate(recs)

	// Trailing gaps extend by the last observed sample spacing.
	if !approx64(recs[2].Time, 20) {
		t.Fatalf("Time[2] = %g, want 20", recs[2].Time)
	}
}

func TestInterpolateNoMissingIsNoop(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []Record{
		{Index: 1, Step: 1, Time: 0, Timestamp: ts, ChargeCapacity: 1},
		{Index: 2, Step: 1, Time: 5, Timestamp: ts.Add(5 * time.Second), ChargeCapacity: 2},
	}
	before := make([]Record, len(recs))
	copy(before, recs)
	Interpolate(recs)
	for i := range recs {
		if recs[i] != before[i] {
			t.Fatalf("row %d changed: %+v != %+v", i, recs[i], before[i])
		}
	}
}
