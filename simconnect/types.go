// Package simconnect speaks the wire protocol of the simulator's
// telemetry interface: data definitions group named simulation variables
// into packed records, standing requests ask the simulator to re-send a
// record at a chosen cadence, and dispatch frames carry the results back.
package simconnect

// DataType is the primitive type of a single datum in a data
// definition. Values match the vendor enum.
type DataType uint32

const (
	DataTypeInt32     DataType = 1
	DataTypeFloat64   DataType = 4
	DataTypeString256 DataType = 8
)

// Width returns the number of bytes the type occupies on the wire.
// Records are tightly packed: no padding between fields.
func (t DataType) Width() int {
	switch t {
	case DataTypeInt32:
		return 4
	case DataTypeFloat64:
		return 8
	case DataTypeString256:
		return 256
	}
	return 0
}

func (t DataType) valid() bool {
	return t.Width() != 0
}

// Period is the cadence at which the simulator re-sends data for a
// standing request. PeriodNever cancels a prior request with the same
// request ID.
type Period uint32

const (
	PeriodNever Period = iota
	PeriodOnce
	PeriodVisualFrame
	PeriodSimFrame
	PeriodSecond
)

const (
	// ObjectIDUser addresses the user's own aircraft.
	ObjectIDUser uint32 = 0

	// Unused asks the simulator to assign the datum ID itself.
	Unused uint32 = 0xFFFFFFFF
)

// Dispatch frame kinds carried in the header's ID field.
const (
	RecvIDOpen          uint32 = 2
	RecvIDSimObjectData uint32 = 8
)
