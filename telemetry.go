package feeder

// FlightData is the current state of the user's aircraft, converted to
// the units the tracking backend expects.
type FlightData struct {
	Callsign      string
	AircraftICAO  string
	DepartureICAO string
	ArrivalICAO   string

	Latitude      float64
	Longitude     float64
	Altitude      float64 // feet
	GroundSpeed   float64 // knots
	Heading       float64 // degrees true
	FuelKg        float64
	VerticalSpeed float64 // feet per minute
	OnGround      bool

	Phase Phase
}

// FlightPlan supplies the identity fields the simulator does not always
// know. Empty or placeholder values from the simulator are filled in
// from the plan before telemetry is forwarded.
type FlightPlan struct {
	Callsign      string
	AircraftICAO  string
	DepartureICAO string
	ArrivalICAO   string
	Route         string
}
