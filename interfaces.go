package feeder

import (
	"time"

	"github.com/skytrack/feeder/simconnect"
)

type SimSession interface {
	Open(appName string) error
	Close() error
	AddToDataDefinition(defineID uint32, name string, unit string, typ simconnect.DataType, epsilon float32, datumID uint32) (uint32, error)
	ClearDataDefinition(defineID uint32) error
	RequestData(requestID uint32, defineID uint32, objectID uint32, period simconnect.Period, flags uint32) error
	Recv(timeout time.Duration) (simconnect.Frame, error)
}

type Forwarder interface {
	Forward(newData *FlightData, prevData *FlightData) error
}
