// Package dict holds the fixed instrument lookup tables: status codes and
// the Range full-scale multipliers. Both are immutable and a missing key is
// a hard error, since it signals an instrument configuration the decoder has
// never seen.
package dict

import (
	"fmt"

	"example.com/ndagate/internal/record"
)

// UnknownStatusError reports a status code absent from the status table.
type UnknownStatusError struct {
	Code uint8
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status code %d", e.Code)
}

// UnknownRangeError reports a Range code absent from the multiplier table.
type UnknownRangeError struct {
	Range int32
}

func (e *UnknownRangeError) Error() string {
	return fmt.Sprintf("unknown current range %d", e.Range)
}

var statusTable = map[uint8]record.Status{
	1:  record.StatusCCChg,
	2:  record.StatusCCDChg,
	3:  record.StatusCVChg,
	4:  record.StatusRest,
	5:  record.StatusCycle,
	7:  record.StatusCCCVChg,
	10: record.StatusCRDChg,
	13: record.StatusPause,
	17: record.StatusSIM,
	19: record.StatusCVDChg,
	20: record.StatusCCCVDChg,
}

// multiplierTable maps the instrument Range setting to the decimal scale
// applied to raw current, capacity and energy integers. Range 0 marks a
// disabled channel.
var multiplierTable = map[int32]float64{
	-200000: 1e-2,
	-100000: 1e-2,
	-60000:  1e-2,
	-50000:  1e-2,
	-30000:  1e-2,
	-20000:  1e-2,
	-10000:  1e-2,
	-6000:   1e-2,
	-5000:   1e-2,
	-3000:   1e-2,
	-1000:   1e-2,
	-500:    1e-3,
	-100:    1e-3,
	0:       0,
	10:      1e-3,
	100:     1e-2,
	200:     1e-2,
	1000:    1e-1,
	6000:    1e-1,
	10000:   1e-1,
	12000:   1e-1,
	50000:   1e-1,
	60000:   1e-1,
	100000:  1e-1,
}

// Status resolves a raw status code.
func Status(code uint8) (record.Status, error) {
	s, ok := statusTable[code]
	if !ok {
		return "", &UnknownStatusError{Code: code}
	}
	return s, nil
}

// RangeMultiplier resolves the scale factor for a Range code.
func RangeMultiplier(r int32) (float64, error) {
	m, ok := multiplierTable[r]
	if !ok {
		return 0, &UnknownRangeError{Range: r}
	}
	return m, nil
}
