package record

import (
	"math"
	"strconv"
	"time"
)

// Status is the enumerated electrochemical operating mode of a test step.
type Status string

const (
	StatusCCChg    Status = "CC_Chg"
	StatusCCDChg   Status = "CC_DChg"
	StatusCVChg    Status = "CV_Chg"
	StatusRest     Status = "Rest"
	StatusCycle    Status = "Cycle"
	StatusCCCVChg  Status = "CCCV_Chg"
	StatusCRDChg   Status = "CR_DChg"
	StatusPause    Status = "Pause"
	StatusSIM      Status = "SIM"
	StatusCVDChg   Status = "CV_DChg"
	StatusCCCVDChg Status = "CCCV_DChg"
)

// Record is a single measurement sample in canonical units.
// Float fields use NaN to mark values that were absent from the source file.
type Record struct {
	Index             uint32
	Cycle             uint16
	Step              uint32
	Status            Status
	Time              float32 // seconds elapsed within the current step
	Voltage           float32 // V
	Current           float32 // mA, signed
	ChargeCapacity    float32 // mAh, cumulative
	DischargeCapacity float32 // mAh, cumulative
	ChargeEnergy      float32 // mWh, cumulative
	DischargeEnergy   float32 // mWh, cumulative
	Timestamp         time.Time
}

// AuxSample is one auxiliary sensor reading keyed to a Record by Index.
type AuxSample struct {
	Index       uint32
	Channel     int
	Temperature float32 // degC
	Voltage     float32 // V, NaN when the source layout has no voltage field
	T2          float32 // secondary temperature, NaN unless present
}

// AuxColumn is one pivoted auxiliary column aligned row-for-row with
// Table.Records. Missing entries are NaN.
type AuxColumn struct {
	Channel int
	Field   string // "T", "V" or "t"
	Values  []float32
}

// Name returns the output column name, e.g. "T1" for channel 1 temperature.
func (c AuxColumn) Name() string {
	return c.Field + strconv.Itoa(c.Channel)
}

// Table is the final decode output: ordered records plus pivoted auxiliary
// channel columns.
type Table struct {
	Records []Record
	Aux     []AuxColumn
}

// NaN returns the float32 marker for a missing sample value.
func NaN() float32 {
	return float32(math.NaN())
}

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float32) bool {
	return v != v
}
