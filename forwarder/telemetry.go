package forwarder

import (
	"github.com/skytrack/feeder"
)

type Header struct {
	Type uint8
}

const (
	TypeTelemetry = 1
)

// Record is the packed little-endian telemetry record sent over UDP.
// Field order is the wire layout; keep it stable.
type Record struct {
	Latitude      float64
	Longitude     float64
	Altitude      float64
	GroundSpeed   float64
	Heading       float64
	FuelKg        float64
	VerticalSpeed float64
	OnGround      uint8
	Phase         uint8
	Callsign      [8]byte
	AircraftICAO  [4]byte
}

func NewRecord(d *feeder.FlightData) Record {
	rec := Record{
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		Altitude:      d.Altitude,
		GroundSpeed:   d.GroundSpeed,
		Heading:       d.Heading,
		FuelKg:        d.FuelKg,
		VerticalSpeed: d.VerticalSpeed,
		Phase:         phaseCode(d.Phase),
	}
	if d.OnGround {
		rec.OnGround = 1
	}
	copy(rec.Callsign[:], d.Callsign)
	copy(rec.AircraftICAO[:], d.AircraftICAO)
	return rec
}

func phaseCode(p feeder.Phase) uint8 {
	switch p {
	case feeder.PhaseParked:
		return 0
	case feeder.PhaseTaxi:
		return 1
	case feeder.PhaseTakeoffRoll:
		return 2
	case feeder.PhaseClimb:
		return 3
	case feeder.PhaseCruise:
		return 4
	case feeder.PhaseDescent:
		return 5
	case feeder.PhaseApproach:
		return 6
	case feeder.PhaseEnRoute:
		return 7
	}
	return 255
}
