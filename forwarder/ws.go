package forwarder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skytrack/feeder"
)

type WSConfig struct {
	URL string
}

// wsUpdate is the JSON document the tracking backend consumes on its
// flight channel.
type wsUpdate struct {
	Callsign      string  `json:"callsign"`
	AircraftICAO  string  `json:"aircraft_icao"`
	DepartureICAO string  `json:"departure_icao"`
	ArrivalICAO   string  `json:"arrival_icao"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	GroundSpeed   float64 `json:"ground_speed"`
	Heading       float64 `json:"heading"`
	FuelKg        float64 `json:"fuel_kg"`
	VerticalSpeed float64 `json:"vertical_speed"`
	OnGround      bool    `json:"on_ground"`
	FlightPhase   string  `json:"flight_phase"`
	Timestamp     string  `json:"timestamp"`
}

// WSForwarder streams JSON telemetry updates to the tracking backend's
// websocket endpoint.
type WSForwarder struct {
	Config *WSConfig

	conn    *websocket.Conn
	fwdChan chan *feeder.FlightData
}

func NewWSForwarder(fileName string) (*WSForwarder, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to determine binary location")
	}
	file, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return NewWSForwarderFromReader(file)
}

func NewWSForwarderFromReader(configReader io.Reader) (*WSForwarder, error) {
	configData, err := io.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := WSConfig{}
	if _, err := toml.Decode(string(configData), &config); err != nil {
		return nil, errors.Wrapf(err, "unable to load websocket forwarder configuration")
	}
	conn, _, err := websocket.DefaultDialer.Dial(config.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to dial %s", config.URL)
	}
	return &WSForwarder{
		Config:  &config,
		conn:    conn,
		fwdChan: make(chan *feeder.FlightData, 1),
	}, nil
}

func (ws *WSForwarder) Close() error {
	return ws.conn.Close()
}

func (ws *WSForwarder) Forward(newData *feeder.FlightData, prevData *feeder.FlightData) error {
	dataCopy := *newData
	select {
	case ws.fwdChan <- &dataCopy:
	default:
	}
	return nil
}

func (ws *WSForwarder) Start(ctx context.Context) error {
	limiter := time.Tick(500 * time.Millisecond)
	for {
		<-limiter
		select {
		case d := <-ws.fwdChan:
			if err := ws.forward(d); err != nil {
				log.Error("unable to forward telemetry to websocket ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (ws *WSForwarder) forward(d *feeder.FlightData) error {
	update := wsUpdate{
		Callsign:      d.Callsign,
		AircraftICAO:  d.AircraftICAO,
		DepartureICAO: d.DepartureICAO,
		ArrivalICAO:   d.ArrivalICAO,
		Latitude:      d.Latitude,
		Longitude:     d.Longitude,
		Altitude:      d.Altitude,
		GroundSpeed:   d.GroundSpeed,
		Heading:       d.Heading,
		FuelKg:        d.FuelKg,
		VerticalSpeed: d.VerticalSpeed,
		OnGround:      d.OnGround,
		FlightPhase:   string(d.Phase),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	return errors.Wrap(ws.conn.WriteJSON(&update), "unable to write telemetry update")
}
