package feeder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skytrack/feeder/simconnect"
	"github.com/stretchr/testify/assert"
)

func TestSimSourcePump(t *testing.T) {
	origTimeout := recvTimeout
	recvTimeout = 100 * time.Millisecond
	defer func() {
		recvTimeout = origTimeout
	}()

	link := simconnect.NewLoopbackLink()
	link.SetSample("PLANE LATITUDE", 35.5533)
	link.SetSample("PLANE LONGITUDE", 139.7811)
	link.SetSample("PLANE ALTITUDE", 12000.0)
	link.SetSample("GROUND VELOCITY", 100.0)
	link.SetSample("PLANE HEADING DEGREES TRUE", 370.0)
	link.SetSample("FUEL TOTAL QUANTITY", 1000.0)
	link.SetSample("VERTICAL SPEED", -500.0)
	link.SetSample("SIM ON GROUND", int32(0))
	link.SetSample("TITLE", "Boeing 787-9")
	link.SetSample("ATC ID", "jal001")

	sendChan := make(chan FlightData, 1)
	src := &simSource{
		link:     link,
		sendChan: sendChan,
	}

	assert.NoError(t, src.Open())

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		_ = src.Start(ctx)
		wg.Done()
	}()

	d := <-sendChan
	assert.Equal(t, 35.5533, d.Latitude)
	assert.Equal(t, 139.7811, d.Longitude)
	assert.Equal(t, 12000.0, d.Altitude)
	assert.InDelta(t, 59.2484, d.GroundSpeed, 0.0001, "feet per second to knots")
	assert.InDelta(t, 10.0, d.Heading, 0.0001, "heading wraps at 360")
	assert.InDelta(t, 3028.328, d.FuelKg, 0.001, "gallons to kilograms")
	assert.Equal(t, -500.0, d.VerticalSpeed)
	assert.False(t, d.OnGround)
	assert.Equal(t, "BOEI", d.AircraftICAO)
	assert.Equal(t, "JAL001", d.Callsign)

	cancel()
	wg.Wait()
	assert.NoError(t, src.Close())
}

type clearTrackingLink struct {
	*simconnect.LoopbackLink
	cleared []uint32
}

func (l *clearTrackingLink) ClearDataDefinition(defineID uint32) error {
	l.cleared = append(l.cleared, defineID)
	return l.LoopbackLink.ClearDataDefinition(defineID)
}

func TestSimSourceOpenClearsStaleDefinition(t *testing.T) {
	link := &clearTrackingLink{LoopbackLink: simconnect.NewLoopbackLink()}
	src := &simSource{
		link:     link,
		sendChan: make(chan FlightData, 1),
	}

	assert.NoError(t, src.Open())
	assert.Equal(t, []uint32{flightDefineID}, link.cleared,
		"the simulator side is asked to drop a leftover definition before registration")
	assert.NoError(t, src.Close())
}

func TestSimSourceOpenFailure(t *testing.T) {
	link := simconnect.NewLoopbackLink()
	src := &simSource{link: link}

	assert.NoError(t, src.Open())
	// the loopback rejects a second open on the same link
	other := &simSource{link: link}
	assert.Error(t, other.Open())

	assert.NoError(t, src.Close())
}

func TestFlightDataFromRecordClampsNegatives(t *testing.T) {
	rec := &simconnect.SimObjectData{
		Fields: []simconnect.FieldValue{
			{Datum: simconnect.Datum{Name: "GROUND VELOCITY", Type: simconnect.DataTypeFloat64}, Value: -5.0},
			{Datum: simconnect.Datum{Name: "FUEL TOTAL QUANTITY", Type: simconnect.DataTypeFloat64}, Value: -1.0},
		},
	}
	d := flightDataFromRecord(rec)
	assert.Equal(t, 0.0, d.GroundSpeed)
	assert.Equal(t, 0.0, d.FuelKg)
}

func TestIcaoFromTitle(t *testing.T) {
	assert.Equal(t, "BOEI", icaoFromTitle("Boeing 787-9"))
	assert.Equal(t, "A320", icaoFromTitle(" a320 "))
	assert.Equal(t, "UNKN", icaoFromTitle("  "))
}

func TestNormalizeCallsign(t *testing.T) {
	assert.Equal(t, "JAL001", normalizeCallsign(" jal001 "))
	assert.Equal(t, "UNKNOWN", normalizeCallsign(""))
}
