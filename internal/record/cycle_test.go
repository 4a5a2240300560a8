package record

import (
	"errors"
	"testing"
)

func statusRecords(statuses ...Status) []Record {
	recs := make([]Record, len(statuses))
	for i, s := range statuses {
		recs[i] = Record{Index: uint32(i + 1), Status: s}
	}
	return recs
}

func TestGenerateCycleNumbers(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		mode     CycleMode
		want     []uint16
	}{
		{
			name:     "charge mode increments on charge after discharge",
			statuses: []Status{StatusRest, StatusCCChg, StatusCCDChg, StatusCCChg, StatusCCDChg},
			mode:     CycleModeChg,
			want:     []uint16{1, 1, 1, 2, 2},
		},
		{
			name:     "discharge mode increments on discharge after charge",
			statuses: []Status{StatusRest, StatusCCChg, StatusCCDChg, StatusCCChg, StatusCCDChg},
			mode:     CycleModeDChg,
			want:     []uint16{1, 1, 2, 2, 3},
		},
		{
			name:     "auto resolves from first non-rest step",
			statuses: []Status{StatusRest, StatusCCChg, StatusCCDChg, StatusCCChg, StatusCCDChg},
			mode:     CycleModeAuto,
			want:     []uint16{1, 1, 1, 2, 2},
		},
		{
			name:     "cccv counts as incremental",
			statuses: []Status{StatusCCCVChg, StatusCCDChg, StatusCCCVChg},
			mode:     CycleModeChg,
			want:     []uint16{1, 1, 2},
		},
		{
			name:     "rest between steps does not reset",
			statuses: []Status{StatusCCChg, StatusRest, StatusCCDChg, StatusRest, StatusCCChg},
			mode:     CycleModeChg,
			want:     []uint16{1, 1, 1, 1, 2},
		},
		{
			name:     "sim arms the next increment",
			statuses: []Status{StatusSIM, StatusCCChg},
			mode:     CycleModeChg,
			want:     []uint16{1, 2},
		},
		{
			name:     "mode is case insensitive",
			statuses: []Status{StatusCCChg, StatusCCDChg, StatusCCChg},
			mode:     CycleMode("CHG"),
			want:     []uint16{1, 1, 2},
		},
		{
			name:     "empty input",
			statuses: nil,
			mode:     CycleModeChg,
			want:     []uint16{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GenerateCycleNumbers(statusRecords(tc.statuses...), tc.mode)
			if err != nil {
				t.Fatalf("GenerateCycleNumbers returned error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("cycle[%d] = %d, want %d (got %v)", i, got[i], tc.want[i], got)
				}
			}
		})
	}
}

func TestGenerateCycleNumbersInvalidMode(t *testing.T) {
	_, err := GenerateCycleNumbers(statusRecords(StatusCCChg), CycleMode("bogus"))
	if err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	var ime *InvalidModeError
	if !errors.As(err, &ime) {
		t.Fatalf("expected InvalidModeError, got %T", err)
	}
	if ime.Mode != "bogus" {
		t.Fatalf("Mode = %q, want %q", ime.Mode, "bogus")
	}
}

func TestGenerateCycleNumbersAutoAllRest(t *testing.T) {
	got, err := GenerateCycleNumbers(statusRecords(StatusRest, StatusRest), CycleModeAuto)
	if err != nil {
		t.Fatalf("GenerateCycleNumbers returned error: %v", err)
	}
	for i, c := range got {
		if c != 1 {
			t.Fatalf("cycle[%d] = %d, want 1", i, c)
		}
	}
}
