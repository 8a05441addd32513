package feeder

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skytrack/feeder/simconnect"
)

const (
	appName = "SkyTRACK"

	flightDefineID      = 1
	flightRequestID     = 1
	flightInitRequestID = 2

	fpsToKnots  = 0.592484
	gallonsToKg = 3.78541 * 0.8
)

var recvTimeout = 2 * time.Second

// to allow testing
var sessionConnect = func(link simconnect.Link) SimSession {
	return simconnect.NewSession(link)
}

type flightDatum struct {
	name string
	unit string
	typ  simconnect.DataType
}

// flightDefinition is registered in this exact order; the simulator lays
// the record out the same way.
var flightDefinition = []flightDatum{
	{"PLANE LATITUDE", "degrees", simconnect.DataTypeFloat64},
	{"PLANE LONGITUDE", "degrees", simconnect.DataTypeFloat64},
	{"PLANE ALTITUDE", "feet", simconnect.DataTypeFloat64},
	{"GROUND VELOCITY", "feet per second", simconnect.DataTypeFloat64},
	{"PLANE HEADING DEGREES TRUE", "degrees", simconnect.DataTypeFloat64},
	{"FUEL TOTAL QUANTITY", "gallons", simconnect.DataTypeFloat64},
	{"VERTICAL SPEED", "feet per minute", simconnect.DataTypeFloat64},
	{"SIM ON GROUND", "bool", simconnect.DataTypeInt32},
	{"TITLE", "", simconnect.DataTypeString256},
	{"ATC ID", "", simconnect.DataTypeString256},
}

type simSource struct {
	link     simconnect.Link
	s        SimSession
	sendChan chan<- FlightData
}

func (src *simSource) Name() string {
	return "simconnect"
}

func (src *simSource) Open() error {
	s := sessionConnect(src.link)
	if err := s.Open(appName); err != nil {
		return err
	}
	// a definition may survive on the simulator side from a previous run,
	// so clear on the link itself: the fresh session has nothing registered
	if err := src.link.ClearDataDefinition(flightDefineID); err != nil {
		log.WithField("err", err).Debug("no stale definition to clear")
	}
	for _, d := range flightDefinition {
		if _, err := s.AddToDataDefinition(flightDefineID, d.name, d.unit, d.typ, 0, simconnect.Unused); err != nil {
			_ = s.Close()
			return errors.Wrapf(err, "unable to register %q", d.name)
		}
	}
	if err := s.RequestData(flightRequestID, flightDefineID, simconnect.ObjectIDUser, simconnect.PeriodSecond, 0); err != nil {
		_ = s.Close()
		return errors.Wrap(err, "unable to request periodic flight data")
	}
	// one immediate record so we don't wait a full period for first data
	if err := s.RequestData(flightInitRequestID, flightDefineID, simconnect.ObjectIDUser, simconnect.PeriodOnce, 0); err != nil {
		log.WithField("err", err).Warn("unable to request initial flight data")
	}
	src.s = s
	return nil
}

func (src *simSource) Close() error {
	if src.s == nil {
		return nil
	}
	return src.s.Close()
}

func (src *simSource) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		f, err := src.s.Recv(recvTimeout)
		if err != nil {
			if errors.Cause(err) == simconnect.ErrTimedOut {
				continue
			}
			if errors.Cause(err) == simconnect.ErrConnectionFailed {
				return err
			}
			// a single malformed frame is recoverable
			log.WithField("err", err).Warn("skipping undecodable frame")
			continue
		}
		switch f := f.(type) {
		case *simconnect.ConnectionOpened:
			log.Info("simulator acknowledged connection")
		case *simconnect.SimObjectData:
			src.send(flightDataFromRecord(f))
		}
	}
}

func (src *simSource) send(d FlightData) {
	select {
	case src.sendChan <- d:
	default:
	}
}

func flightDataFromRecord(rec *simconnect.SimObjectData) FlightData {
	d := FlightData{}
	for _, fv := range rec.Fields {
		switch fv.Datum.Name {
		case "PLANE LATITUDE":
			d.Latitude = fv.Float64()
		case "PLANE LONGITUDE":
			d.Longitude = fv.Float64()
		case "PLANE ALTITUDE":
			d.Altitude = fv.Float64()
		case "GROUND VELOCITY":
			d.GroundSpeed = math.Max(fv.Float64()*fpsToKnots, 0)
		case "PLANE HEADING DEGREES TRUE":
			d.Heading = math.Mod(fv.Float64(), 360)
		case "FUEL TOTAL QUANTITY":
			d.FuelKg = math.Max(fv.Float64()*gallonsToKg, 0)
		case "VERTICAL SPEED":
			d.VerticalSpeed = fv.Float64()
		case "SIM ON GROUND":
			d.OnGround = fv.Int32() != 0
		case "TITLE":
			d.AircraftICAO = icaoFromTitle(fv.Text())
		case "ATC ID":
			d.Callsign = normalizeCallsign(fv.Text())
		}
	}
	return d
}

func icaoFromTitle(title string) string {
	t := strings.ToUpper(strings.TrimSpace(title))
	if t == "" {
		return "UNKN"
	}
	r := []rune(t)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}

func normalizeCallsign(atcID string) string {
	c := strings.ToUpper(strings.TrimSpace(atcID))
	if c == "" {
		return "UNKNOWN"
	}
	return c
}

func runSim(ctx context.Context, link simconnect.Link, sendChan chan<- FlightData) {
	err := retry(ctx, &simSource{
		link:     link,
		sendChan: sendChan,
	})
	if err != nil {
		log.Errorf("simconnect done: %v", err)
	}
}
