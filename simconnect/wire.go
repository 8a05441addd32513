package simconnect

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

const (
	recvHeaderSize      = 12
	simObjectHeaderSize = recvHeaderSize + 7*4

	// protocolVersion is written into the header of frames this package
	// encodes. Inbound frames are not version checked; the field is
	// informational on the vendor side too.
	protocolVersion uint32 = 4
)

// RecvHeader is the fixed 12-byte prefix of every dispatch frame: total
// frame size, protocol version and frame kind, all little-endian uint32.
type RecvHeader struct {
	Size    uint32
	Version uint32
	ID      uint32
}

// Frame is one decoded dispatch frame.
type Frame interface {
	// RecvID is the frame kind tag from the header.
	RecvID() uint32
}

// ConnectionOpened acknowledges a successful open call.
type ConnectionOpened struct {
	Header RecvHeader
}

func (f *ConnectionOpened) RecvID() uint32 { return f.Header.ID }

// Unrecognized is a well-formed frame of a kind this package does not
// interpret. It is passed through so callers stay compatible with newer
// simulators.
type Unrecognized struct {
	Header RecvHeader
}

func (f *Unrecognized) RecvID() uint32 { return f.Header.ID }

// SimObjectData carries one record of simulation variables for a
// standing or one-shot request.
type SimObjectData struct {
	Header      RecvHeader
	RequestID   uint32
	ObjectID    uint32
	DefineID    uint32
	Flags       uint32
	EntryNumber uint32
	OutOf       uint32
	DefineCount uint32
	Fields      []FieldValue
}

func (f *SimObjectData) RecvID() uint32 { return f.Header.ID }

// Field returns the value decoded for the named datum.
func (f *SimObjectData) Field(name string) (FieldValue, bool) {
	for _, fv := range f.Fields {
		if fv.Datum.Name == name {
			return fv, true
		}
	}
	return FieldValue{}, false
}

// FieldValue is one decoded datum: the registered definition entry plus
// the typed value read off the wire. Value is int32, float64 or string
// depending on Datum.Type.
type FieldValue struct {
	Datum Datum
	Value interface{}
}

func (fv FieldValue) Int32() int32 {
	v, _ := fv.Value.(int32)
	return v
}

func (fv FieldValue) Float64() float64 {
	v, _ := fv.Value.(float64)
	return v
}

func (fv FieldValue) Text() string {
	v, _ := fv.Value.(string)
	return v
}

// Decode parses one complete dispatch frame. The transport delivers
// whole messages, so buf must hold exactly one frame; there is no
// partial-frame reassembly. Record fields are interpreted through the
// registry's layout for the frame's define ID.
func Decode(buf []byte, reg *Registry) (Frame, error) {
	if len(buf) < recvHeaderSize {
		return nil, errors.Wrapf(ErrTruncatedHeader, "%d bytes", len(buf))
	}
	hdr := RecvHeader{
		Size:    binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint32(buf[4:8]),
		ID:      binary.LittleEndian.Uint32(buf[8:12]),
	}
	if int(hdr.Size) != len(buf) {
		return nil, errors.Wrapf(ErrSizeMismatch, "header declares %d bytes, buffer has %d", hdr.Size, len(buf))
	}

	switch hdr.ID {
	case RecvIDOpen:
		return &ConnectionOpened{Header: hdr}, nil
	case RecvIDSimObjectData:
		return decodeSimObjectData(hdr, buf, reg)
	default:
		return &Unrecognized{Header: hdr}, nil
	}
}

func decodeSimObjectData(hdr RecvHeader, buf []byte, reg *Registry) (Frame, error) {
	if len(buf) < simObjectHeaderSize {
		return nil, errors.Wrapf(ErrPayloadTooShort, "%d bytes cannot hold simobject sub-header", len(buf))
	}
	f := &SimObjectData{
		Header:      hdr,
		RequestID:   binary.LittleEndian.Uint32(buf[12:16]),
		ObjectID:    binary.LittleEndian.Uint32(buf[16:20]),
		DefineID:    binary.LittleEndian.Uint32(buf[20:24]),
		Flags:       binary.LittleEndian.Uint32(buf[24:28]),
		EntryNumber: binary.LittleEndian.Uint32(buf[28:32]),
		OutOf:       binary.LittleEndian.Uint32(buf[32:36]),
		DefineCount: binary.LittleEndian.Uint32(buf[36:40]),
	}

	layout, err := reg.Layout(f.DefineID)
	if err != nil {
		return nil, err
	}

	off := simObjectHeaderSize
	for _, d := range layout {
		w := d.Type.Width()
		if off+w > len(buf) {
			return nil, errors.Wrapf(ErrPayloadTooShort, "datum %q needs %d bytes, %d left", d.Name, w, len(buf)-off)
		}
		var v interface{}
		switch d.Type {
		case DataTypeInt32:
			v = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		case DataTypeFloat64:
			v = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		case DataTypeString256:
			v = cString(buf[off : off+w])
		}
		f.Fields = append(f.Fields, FieldValue{Datum: d, Value: v})
		off += w
	}
	return f, nil
}

// cString decodes a NUL-padded fixed-width string field. Bytes after the
// first NUL are discarded.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// EncodeOpen builds the acknowledgment frame the simulator sends after a
// successful open.
func EncodeOpen() []byte {
	buf := make([]byte, recvHeaderSize)
	putHeader(buf, RecvIDOpen)
	return buf
}

// EncodeSimObjectData builds a bit-exact simobject data frame from a
// decoded (or hand-assembled) value. Field order and types must match
// the definition's registered layout.
func EncodeSimObjectData(f *SimObjectData) ([]byte, error) {
	size := simObjectHeaderSize
	for _, fv := range f.Fields {
		size += fv.Datum.Type.Width()
	}
	buf := make([]byte, size)
	putHeader(buf, RecvIDSimObjectData)
	binary.LittleEndian.PutUint32(buf[12:16], f.RequestID)
	binary.LittleEndian.PutUint32(buf[16:20], f.ObjectID)
	binary.LittleEndian.PutUint32(buf[20:24], f.DefineID)
	binary.LittleEndian.PutUint32(buf[24:28], f.Flags)
	binary.LittleEndian.PutUint32(buf[28:32], f.EntryNumber)
	binary.LittleEndian.PutUint32(buf[32:36], f.OutOf)
	binary.LittleEndian.PutUint32(buf[36:40], f.DefineCount)

	off := simObjectHeaderSize
	for _, fv := range f.Fields {
		w := fv.Datum.Type.Width()
		switch fv.Datum.Type {
		case DataTypeInt32:
			v, ok := fv.Value.(int32)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidType, "datum %q: %T is not int32", fv.Datum.Name, fv.Value)
			}
			binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v))
		case DataTypeFloat64:
			v, ok := fv.Value.(float64)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidType, "datum %q: %T is not float64", fv.Datum.Name, fv.Value)
			}
			binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
		case DataTypeString256:
			v, ok := fv.Value.(string)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidType, "datum %q: %T is not string", fv.Datum.Name, fv.Value)
			}
			copy(buf[off:off+w], v)
		default:
			return nil, errors.Wrapf(ErrInvalidType, "datum %q type %d", fv.Datum.Name, fv.Datum.Type)
		}
		off += w
	}
	return buf, nil
}

func putHeader(buf []byte, recvID uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint32(buf[4:8], protocolVersion)
	binary.LittleEndian.PutUint32(buf[8:12], recvID)
}
