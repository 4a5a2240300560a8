package record

import (
	"fmt"
	"strings"

	"example.com/ndagate/internal/common"
)

// CycleMode selects the vendor convention used when regenerating cycle
// numbers.
type CycleMode string

const (
	// CycleModeChg starts a new cycle at a charge step following a discharge.
	CycleModeChg CycleMode = "chg"
	// CycleModeDChg starts a new cycle at a discharge step following a charge.
	CycleModeDChg CycleMode = "dchg"
	// CycleModeAuto picks chg or dchg from the first non-rest step.
	CycleModeAuto CycleMode = "auto"
)

// InvalidModeError reports an unrecognized cycle mode value.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("cycle mode %q not recognized, supported options are 'chg', 'dchg' and 'auto'", e.Mode)
}

// GenerateCycleNumbers walks the ordered records and reproduces the vendor's
// circular cycle-counting convention: the counter starts at 1 and increments
// at the first incremental-key step (CC/CCCV/CP charge for mode chg) that
// follows a completed opposite-direction step.
func GenerateCycleNumbers(recs []Record, mode CycleMode) ([]uint16, error) {
	mode = CycleMode(strings.ToLower(string(mode)))
	if mode == CycleModeAuto {
		mode = firstIncrementalMode(recs)
	}

	var inkey, offkey string
	switch mode {
	case CycleModeChg:
		inkey, offkey = "Chg", "DChg"
	case CycleModeDChg:
		inkey, offkey = "DChg", "Chg"
	default:
		return nil, &InvalidModeError{Mode: string(mode)}
	}

	incKeys := map[Status]bool{
		Status("CCCV_" + inkey): true,
		Status("CC_" + inkey):   true,
		Status("CP_" + inkey):   true,
	}

	// Rising edges of the incremental statuses; the first row always counts.
	inc := make([]bool, len(recs))
	for i := range recs {
		cur := incKeys[recs[i].Status]
		prev := i > 0 && incKeys[recs[i-1].Status]
		inc[i] = cur && !prev
	}
	if len(inc) > 0 {
		inc[0] = true
	}

	out := make([]uint16, len(recs))
	cycle := uint16(1)
	pending := false
	for i := range recs {
		s := string(recs[i].Status)
		if cut := strings.Index(s, "_"); cut < 0 {
			if recs[i].Status == StatusSIM {
				pending = true
			}
		} else {
			state := s[cut+1:]
			if inc[i] && pending {
				cycle++
				pending = false
			} else if state == offkey {
				pending = true
			}
		}
		out[i] = cycle
	}
	return out, nil
}

// firstIncrementalMode resolves CycleModeAuto by inspecting the first
// non-rest status. Unparseable statuses fall back to charge mode.
func firstIncrementalMode(recs []Record) CycleMode {
	var first Status
	for _, r := range recs {
		if r.Status != StatusRest {
			first = r.Status
			break
		}
	}
	if first == "" {
		return CycleModeChg
	}
	cut := strings.Index(string(first), "_")
	if cut < 0 {
		common.Logf("first step %q not recognized, defaulting to charge cycle mode", first)
		return CycleModeChg
	}
	return CycleMode(strings.ToLower(string(first)[cut+1:]))
}
