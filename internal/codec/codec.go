// Package codec holds the fixed-divisor conversions from raw instrument
// integers to physical units. The divisors are format constants shared by
// every container layout, not configuration.
package codec

// Volts converts a raw 0.1mV voltage reading.
func Volts(raw int32) float32 {
	return float32(raw) / 10000
}

// CurrentMA applies the Range multiplier to a raw current reading.
func CurrentMA(raw int32, multiplier float64) float32 {
	return float32(float64(raw) * multiplier)
}

// CapacityMAh converts a raw cumulative capacity reading (ampere-seconds
// scale) to mAh using the Range multiplier.
func CapacityMAh(raw int64, multiplier float64) float32 {
	return float32(float64(raw) * multiplier / 3600)
}

// EnergyMWh converts a raw cumulative energy reading to mWh using the Range
// multiplier.
func EnergyMWh(raw int64, multiplier float64) float32 {
	return float32(float64(raw) * multiplier / 3600)
}

// SecondsFromMillis converts an elapsed-time field recorded in ms.
func SecondsFromMillis(raw uint64) float32 {
	return float32(float64(raw) / 1000)
}

// SecondsFromMicros converts an elapsed-time field recorded in us.
func SecondsFromMicros(raw uint64) float32 {
	return float32(float64(raw) / 1e6)
}

// TemperatureC converts a raw 0.1degC temperature reading.
func TemperatureC(raw int16) float32 {
	return float32(raw) / 10
}
