package codec

import (
	"math"
	"testing"
)

func close32(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		got  float32
		want float32
	}{
		{name: "volts", got: Volts(41234), want: 4.1234},
		{name: "volts negative", got: Volts(-100), want: -0.01},
		{name: "current scaled", got: CurrentMA(1234, 1e-2), want: 12.34},
		{name: "current disabled range", got: CurrentMA(1234, 0), want: 0},
		{name: "capacity", got: CapacityMAh(7200, 1e-1), want: 0.2},
		{name: "energy", got: EnergyMWh(-36000, 1e-2), want: -0.1},
		{name: "seconds from ms", got: SecondsFromMillis(1500), want: 1.5},
		{name: "seconds from us", got: SecondsFromMicros(2500000), want: 2.5},
		{name: "temperature", got: TemperatureC(-55), want: -5.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !close32(tc.got, tc.want) {
				t.Fatalf("got %g, want %g", tc.got, tc.want)
			}
		})
	}
}
