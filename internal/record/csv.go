package record

import (
	"encoding/csv"
	"io"
	"strconv"
)

var baseColumns = []string{
	"Index", "Cycle", "Step", "Status", "Time", "Voltage",
	"Current(mA)", "Charge_Capacity(mAh)", "Discharge_Capacity(mAh)",
	"Charge_Energy(mWh)", "Discharge_Energy(mWh)", "Timestamp",
}

const timestampLayout = "2006-01-02 15:04:05"

// WriteCSV renders the table with one row per record; auxiliary columns
// follow the base columns in pivot order. Missing values render empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{}, baseColumns...)
	for _, col := range t.Aux {
		header = append(header, col.Name())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, 0, len(header))
	for i, r := range t.Records {
		row = row[:0]
		row = append(row,
			strconv.FormatUint(uint64(r.Index), 10),
			strconv.FormatUint(uint64(r.Cycle), 10),
			strconv.FormatUint(uint64(r.Step), 10),
			string(r.Status),
			formatFloat(r.Time),
			formatFloat(r.Voltage),
			formatFloat(r.Current),
			formatFloat(r.ChargeCapacity),
			formatFloat(r.DischargeCapacity),
			formatFloat(r.ChargeEnergy),
			formatFloat(r.DischargeEnergy),
			formatTimestamp(r),
		)
		for _, col := range t.Aux {
			row = append(row, formatFloat(col.Values[i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float32) string {
	if IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatTimestamp(r Record) string {
	if r.Timestamp.IsZero() {
		return ""
	}
	return r.Timestamp.Format(timestampLayout)
}
