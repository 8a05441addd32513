package main

import (
	"context"
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/skytrack/feeder"
	"github.com/skytrack/feeder/forwarder"
	"github.com/skytrack/feeder/simbrief"
)

var testMode = flag.Bool("testmode", false, "generate a synthetic flight instead of connecting to a simulator")
var printTelemetry = flag.Bool("print-telemetry", false, "print telemetry to stdout")
var simbriefUser = flag.String("simbrief-user", "", "SimBrief username to fetch the filed flight plan from")
var callsign = flag.String("callsign", "", "callsign when the simulator does not report one")
var aircraft = flag.String("aircraft", "", "aircraft ICAO when the simulator does not report one")
var departure = flag.String("dep", "", "departure airport ICAO")
var arrival = flag.String("arr", "", "arrival airport ICAO")

func main() {
	log.SetLevel(log.InfoLevel)
	flag.Parse()

	ctx := context.Background()

	fd := feeder.NewFeeder()
	fd.SetTestMode(*testMode)
	fd.SetFlightPlan(loadFlightPlan(ctx))
	if !*testMode {
		log.Fatal("no native simulator link in this build: run with -testmode, or embed the feeder package and supply a link")
	}

	udp, err := forwarder.NewUDPForwarder("udpforwarder.toml")
	if err != nil {
		log.Fatal("unable to load UDP forwarder: ", err)
	}
	go func() {
		_ = udp.Start(ctx)
	}()
	fd.AddForwarder(udp)

	if ws, err := forwarder.NewWSForwarder("wsforwarder.toml"); err != nil {
		log.WithField("err", err).Info("websocket forwarder disabled")
	} else {
		go func() {
			_ = ws.Start(ctx)
		}()
		fd.AddForwarder(ws)
	}

	if err := fd.Start(ctx); err != nil {
		log.Fatal("unable to start feeder: ", err)
	}

	for {
		changed := fd.CheckChannels()
		if changed {
			if *printTelemetry {
				fmt.Printf("%+v\n", fd.Data())
			}
			fd.TelemetryUpdate()
		}
	}
}

// loadFlightPlan starts from the filed SimBrief plan when a username was
// given; explicit command-line flags override individual fields.
func loadFlightPlan(ctx context.Context) *feeder.FlightPlan {
	plan := &feeder.FlightPlan{}
	if *simbriefUser != "" {
		fetched, err := simbrief.NewClient().FetchPlan(ctx, *simbriefUser)
		if err != nil {
			log.Fatal("unable to fetch SimBrief flight plan: ", err)
		}
		plan = fetched
		log.WithField("route", plan.Route).Info("loaded SimBrief flight plan")
	}
	if *callsign != "" {
		plan.Callsign = *callsign
	}
	if *aircraft != "" {
		plan.AircraftICAO = *aircraft
	}
	if *departure != "" {
		plan.DepartureICAO = *departure
	}
	if *arrival != "" {
		plan.ArrivalICAO = *arrival
	}
	return plan
}
