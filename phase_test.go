package feeder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPhase(t *testing.T) {
	tests := []struct {
		name     string
		data     FlightData
		expected Phase
	}{
		{"at the gate", FlightData{OnGround: true, GroundSpeed: 0}, PhaseParked},
		{"taxiing", FlightData{OnGround: true, GroundSpeed: 12}, PhaseTaxi},
		{"takeoff roll", FlightData{OnGround: true, GroundSpeed: 120}, PhaseTakeoffRoll},
		{"initial climb", FlightData{Altitude: 4000, VerticalSpeed: 1800}, PhaseClimb},
		{"high climb", FlightData{Altitude: 24000, VerticalSpeed: 900}, PhaseClimb},
		{"cruise", FlightData{Altitude: 36000, VerticalSpeed: 50}, PhaseCruise},
		{"descent", FlightData{Altitude: 20000, VerticalSpeed: -1500}, PhaseDescent},
		{"approach", FlightData{Altitude: 2500, VerticalSpeed: -700}, PhaseApproach},
		{"shallow low descent", FlightData{Altitude: 5000, VerticalSpeed: -250}, PhaseEnRoute},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectPhase(&tc.data))
		})
	}
}
