// Package feeder reads flight telemetry from a simulator session,
// derives the flight phase, and fans the result out to forwarders.
package feeder

import (
	"context"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skytrack/feeder/simconnect"
)

const channelBufferSize = 1

type Feeder struct {
	flightData FlightData
	prevData   FlightData

	simChan    chan FlightData
	plan       *FlightPlan
	forwarders []Forwarder
	link       simconnect.Link
	testMode   bool
}

func NewFeeder() *Feeder {
	return &Feeder{
		simChan: make(chan FlightData, channelBufferSize),
	}
}

// UseLink sets the simulator link the feeder pumps. The native vendor
// binding is supplied by the embedding application; test mode installs a
// loopback link on its own.
func (f *Feeder) UseLink(link simconnect.Link) {
	f.link = link
}

func (f *Feeder) SetTestMode(enabled bool) {
	f.testMode = enabled
}

func (f *Feeder) SetFlightPlan(plan *FlightPlan) {
	f.plan = plan
}

func (f *Feeder) AddForwarder(fwd Forwarder) {
	f.forwarders = append(f.forwarders, fwd)
}

// Data returns the latest accepted telemetry.
func (f *Feeder) Data() FlightData {
	return f.flightData
}

func (f *Feeder) Start(ctx context.Context) error {
	if f.testMode {
		f.runTestMode(ctx)
		return nil
	}
	if f.link == nil {
		return errors.New("no simulator link configured")
	}
	go runSim(ctx, f.link, f.simChan)
	return nil
}

// CheckChannels blocks for the next telemetry sample, enriches it from
// the flight plan, and reports whether anything changed.
func (f *Feeder) CheckChannels() bool {
	newData := <-f.simChan
	f.enrich(&newData)
	newData.Phase = DetectPhase(&newData)

	if f.flightData == newData {
		return false
	}
	f.prevData = f.flightData
	f.flightData = newData
	return true
}

// TelemetryUpdate hands the current and previous telemetry to every
// forwarder. A forwarder failure is logged, not fatal.
func (f *Feeder) TelemetryUpdate() {
	for _, fwd := range f.forwarders {
		if err := fwd.Forward(&f.flightData, &f.prevData); err != nil {
			log.Error("unable to forward telemetry ", err)
		}
	}
}

func (f *Feeder) enrich(d *FlightData) {
	if f.plan == nil {
		return
	}
	if d.DepartureICAO == "" && f.plan.DepartureICAO != "" {
		d.DepartureICAO = f.plan.DepartureICAO
	}
	if d.ArrivalICAO == "" && f.plan.ArrivalICAO != "" {
		d.ArrivalICAO = f.plan.ArrivalICAO
	}
	if (d.Callsign == "" || d.Callsign == "UNKNOWN") && f.plan.Callsign != "" {
		d.Callsign = f.plan.Callsign
	}
	if (d.AircraftICAO == "" || d.AircraftICAO == "UNKN") && f.plan.AircraftICAO != "" {
		d.AircraftICAO = truncateRunes(f.plan.AircraftICAO, 4)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
