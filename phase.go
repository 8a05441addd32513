package feeder

// Phase is a coarse flight phase derived from telemetry values.
type Phase string

const (
	PhaseParked      Phase = "PARKED"
	PhaseTaxi        Phase = "TAXI"
	PhaseTakeoffRoll Phase = "TAKEOFF_ROLL"
	PhaseClimb       Phase = "CLIMB"
	PhaseCruise      Phase = "CRUISE"
	PhaseDescent     Phase = "DESCENT"
	PhaseApproach    Phase = "APPROACH"
	PhaseEnRoute     Phase = "EN_ROUTE"
)

// DetectPhase classifies a snapshot of telemetry. Thresholds are in the
// units of FlightData: knots, feet, feet per minute.
func DetectPhase(d *FlightData) Phase {
	if d.OnGround {
		switch {
		case d.GroundSpeed < 5:
			return PhaseParked
		case d.GroundSpeed < 30:
			return PhaseTaxi
		default:
			return PhaseTakeoffRoll
		}
	}
	vs := d.VerticalSpeed
	switch {
	case d.Altitude < 10000 && vs > 300:
		return PhaseClimb
	case d.Altitude >= 10000 && vs > 200:
		return PhaseClimb
	case vs < 200 && vs > -200:
		return PhaseCruise
	case vs < -300 && d.Altitude > 3000:
		return PhaseDescent
	case d.Altitude <= 3000 && vs < -200:
		return PhaseApproach
	default:
		return PhaseEnRoute
	}
}
