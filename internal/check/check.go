// Package check runs post-decode sanity diagnostics over an assembled
// table. Findings never alter the table; they exist so callers can gate on
// the structural health of a decode.
package check

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"example.com/ndagate/internal/record"
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

type Diagnostic struct {
	Ts       time.Time `json:"ts"`
	RuleId   string    `json:"ruleId"`
	Severity Severity  `json:"severity"`
	Row      int       `json:"row,omitempty"`
	Index    uint32    `json:"index,omitempty"`
	Message  string    `json:"message"`
}

type Report struct {
	Summary struct {
		Total    int  `json:"total"`
		Errors   int  `json:"errors"`
		Warnings int  `json:"warnings"`
		Pass     bool `json:"pass"`
	} `json:"summary"`
	Findings []Diagnostic `json:"findings,omitempty"`
}

type checkFunc func(*record.Table) []Diagnostic

var builtin = []struct {
	id string
	fn checkFunc
}{
	{"index.unique", checkIndexUnique},
	{"index.ordered", checkIndexOrdered},
	{"step.runs", checkStepRuns},
	{"cycle.monotonic", checkCycleMonotonic},
	{"cumulative.nonnegative", checkCumulativeNonNegative},
	{"timestamp.ordered", checkTimestampOrdered},
	{"status.present", checkStatusPresent},
}

// Run evaluates every builtin check and aggregates the findings.
func Run(tbl *record.Table) Report {
	var rep Report
	now := time.Now()
	for _, c := range builtin {
		for _, d := range c.fn(tbl) {
			d.Ts = now
			d.RuleId = c.id
			rep.Findings = append(rep.Findings, d)
			switch d.Severity {
			case ERROR:
				rep.Summary.Errors++
			case WARN:
				rep.Summary.Warnings++
			}
		}
	}
	rep.Summary.Total = len(rep.Findings)
	rep.Summary.Pass = rep.Summary.Errors == 0
	return rep
}

// WriteJSONL streams one finding per line, the shape consumed by the report
// command.
func WriteJSONL(w io.Writer, findings []Diagnostic) error {
	enc := json.NewEncoder(w)
	for _, d := range findings {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

func checkIndexUnique(tbl *record.Table) []Diagnostic {
	seen := make(map[uint32]int, len(tbl.Records))
	var out []Diagnostic
	for i, r := range tbl.Records {
		if first, dup := seen[r.Index]; dup {
			out = append(out, Diagnostic{
				Severity: ERROR,
				Row:      i,
				Index:    r.Index,
				Message:  fmt.Sprintf("index %d already seen at row %d", r.Index, first),
			})
			continue
		}
		seen[r.Index] = i
	}
	return out
}

func checkIndexOrdered(tbl *record.Table) []Diagnostic {
	var out []Diagnostic
	for i := 1; i < len(tbl.Records); i++ {
		if tbl.Records[i].Index <= tbl.Records[i-1].Index {
			out = append(out, Diagnostic{
				Severity: ERROR,
				Row:      i,
				Index:    tbl.Records[i].Index,
				Message:  "index not strictly increasing",
			})
		}
	}
	return out
}

// checkStepRuns verifies that the step column matches a recount of status
// runs, including the vendor rule that the final row never opens a run.
func checkStepRuns(tbl *record.Table) []Diagnostic {
	recs := tbl.Records
	want := record.CountRuns(len(recs), func(i int) bool {
		return recs[i].Status != recs[i-1].Status
	})
	var out []Diagnostic
	for i := range recs {
		if recs[i].Step != want[i] {
			out = append(out, Diagnostic{
				Severity: ERROR,
				Row:      i,
				Index:    recs[i].Index,
				Message:  fmt.Sprintf("step %d does not match status run %d", recs[i].Step, want[i]),
			})
		}
	}
	return out
}

func checkCycleMonotonic(tbl *record.Table) []Diagnostic {
	var out []Diagnostic
	for i, r := range tbl.Records {
		if i > 0 && r.Cycle < tbl.Records[i-1].Cycle {
			out = append(out, Diagnostic{
				Severity: ERROR,
				Row:      i,
				Index:    r.Index,
				Message:  fmt.Sprintf("cycle decreased from %d to %d", tbl.Records[i-1].Cycle, r.Cycle),
			})
		}
	}
	return out
}

func checkCumulativeNonNegative(tbl *record.Table) []Diagnostic {
	var out []Diagnostic
	for i, r := range tbl.Records {
		for _, f := range []struct {
			name  string
			value float32
		}{
			{"charge capacity", r.ChargeCapacity},
			{"discharge capacity", r.DischargeCapacity},
			{"charge energy", r.ChargeEnergy},
			{"discharge energy", r.DischargeEnergy},
		} {
			if !record.IsMissing(f.value) && f.value < 0 {
				out = append(out, Diagnostic{
					Severity: ERROR,
					Row:      i,
					Index:    r.Index,
					Message:  fmt.Sprintf("%s is negative: %g", f.name, f.value),
				})
			}
		}
	}
	return out
}

func checkTimestampOrdered(tbl *record.Table) []Diagnostic {
	var out []Diagnostic
	var last time.Time
	for i, r := range tbl.Records {
		if r.Timestamp.IsZero() {
			continue
		}
		if !last.IsZero() && r.Timestamp.Before(last) {
			out = append(out, Diagnostic{
				Severity: WARN,
				Row:      i,
				Index:    r.Index,
				Message:  "timestamp regressed",
			})
		}
		last = r.Timestamp
	}
	return out
}

func checkStatusPresent(tbl *record.Table) []Diagnostic {
	var out []Diagnostic
	for i, r := range tbl.Records {
		if r.Status == "" {
			out = append(out, Diagnostic{
				Severity: WARN,
				Row:      i,
				Index:    r.Index,
				Message:  "record has no status (unmatched step join)",
			})
		}
	}
	return out
}
