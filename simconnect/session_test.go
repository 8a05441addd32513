package simconnect

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type linkStub struct {
	openErr    error
	addErr     error
	requestErr error

	opened   bool
	closed   bool
	cleared  []uint32
	requests []Period
	queue    [][]byte
	queueErr error
}

func (l *linkStub) Open(appName string) error {
	if l.openErr != nil {
		return l.openErr
	}
	l.opened = true
	return nil
}

func (l *linkStub) Close() error {
	l.closed = true
	return nil
}

func (l *linkStub) AddToDataDefinition(defineID uint32, name string, unit string, typ DataType, epsilon float32, datumID uint32) error {
	return l.addErr
}

func (l *linkStub) ClearDataDefinition(defineID uint32) error {
	l.cleared = append(l.cleared, defineID)
	return nil
}

func (l *linkStub) RequestDataOnSimObject(requestID uint32, defineID uint32, objectID uint32, period Period, flags uint32) error {
	if l.requestErr != nil {
		return l.requestErr
	}
	l.requests = append(l.requests, period)
	return nil
}

func (l *linkStub) NextDispatch() ([]byte, error) {
	if l.queueErr != nil {
		return nil, l.queueErr
	}
	if len(l.queue) == 0 {
		return nil, nil
	}
	buf := l.queue[0]
	l.queue = l.queue[1:]
	return buf, nil
}

func (l *linkStub) push(buf []byte) {
	l.queue = append(l.queue, buf)
}

func openedSession(t *testing.T) (*Session, *linkStub) {
	link := &linkStub{}
	s := NewSession(link)
	assert.NoError(t, s.Open("test"))
	return s, link
}

func encodeFrame(t *testing.T, requestID uint32, defineID uint32, fields []FieldValue) []byte {
	buf, err := EncodeSimObjectData(&SimObjectData{
		RequestID:   requestID,
		DefineID:    defineID,
		DefineCount: uint32(len(fields)),
		Fields:      fields,
	})
	assert.NoError(t, err)
	return buf
}

func TestSessionOpen(t *testing.T) {
	link := &linkStub{}
	s := NewSession(link)

	assert.NoError(t, s.Open("test"))
	assert.True(t, link.opened)

	err := s.Open("test")
	assert.Equal(t, ErrAlreadyOpen, errors.Cause(err))
}

func TestSessionOpenFailure(t *testing.T) {
	s := NewSession(&linkStub{openErr: errors.New("sim not running")})
	err := s.Open("test")
	assert.Equal(t, ErrConnectionFailed, errors.Cause(err))

	// a failed open leaves the session closed
	_, err = s.Poll()
	assert.Equal(t, ErrNotOpen, errors.Cause(err))
}

func TestSessionCloseIdempotent(t *testing.T) {
	s, link := openedSession(t)

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.True(t, link.closed)
	assert.NoError(t, s.Close())

	// schema state was invalidated
	assert.NoError(t, s.Open("test"))
	err = s.RequestData(1, 1, ObjectIDUser, PeriodSecond, 0)
	assert.Equal(t, ErrUnknownDefinition, errors.Cause(err))
}

func TestSessionNotOpen(t *testing.T) {
	s := NewSession(&linkStub{})

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.Equal(t, ErrNotOpen, errors.Cause(err))
	assert.Equal(t, ErrNotOpen, errors.Cause(s.ClearDataDefinition(1)))
	assert.Equal(t, ErrNotOpen, errors.Cause(s.RequestData(1, 1, ObjectIDUser, PeriodSecond, 0)))
	_, err = s.Poll()
	assert.Equal(t, ErrNotOpen, errors.Cause(err))
}

func TestSessionAddRollback(t *testing.T) {
	s, link := openedSession(t)
	link.addErr = errors.New("rejected")

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.Equal(t, ErrConnectionFailed, errors.Cause(err))

	// the rejected datum must not linger in the decode table
	link.addErr = nil
	id, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), id)
}

func TestSessionRequestData(t *testing.T) {
	s, link := openedSession(t)

	err := s.RequestData(1, 1, ObjectIDUser, PeriodSecond, 0)
	assert.Equal(t, ErrUnknownDefinition, errors.Cause(err))

	_, err = s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(1, 1, ObjectIDUser, PeriodSecond, 0))
	assert.Equal(t, []Period{PeriodSecond}, link.requests)
}

func TestSessionPoll(t *testing.T) {
	s, link := openedSession(t)

	// nothing queued
	f, err := s.Poll()
	assert.NoError(t, err)
	assert.Nil(t, f)

	_, err = s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(5, 1, ObjectIDUser, PeriodSecond, 0))

	layout, err := s.registry.Layout(1)
	assert.NoError(t, err)
	link.push(encodeFrame(t, 5, 1, []FieldValue{{Datum: layout[0], Value: 1000.0}}))

	f, err = s.Poll()
	assert.NoError(t, err)
	data, ok := f.(*SimObjectData)
	assert.True(t, ok)
	assert.Equal(t, 1000.0, data.Fields[0].Float64())

	cached, ok := s.Last(5)
	assert.True(t, ok)
	assert.Equal(t, data, cached)
}

func TestSessionPollMalformedFrame(t *testing.T) {
	s, link := openedSession(t)

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(5, 1, ObjectIDUser, PeriodSecond, 0))

	layout, err := s.registry.Layout(1)
	assert.NoError(t, err)

	link.push([]byte{1, 2, 3})
	link.push(encodeFrame(t, 5, 1, []FieldValue{{Datum: layout[0], Value: 1000.0}}))

	// bad frame is discarded with an error...
	_, err = s.Poll()
	assert.Equal(t, ErrTruncatedHeader, errors.Cause(err))

	// ...and does not corrupt the next decode
	f, err := s.Poll()
	assert.NoError(t, err)
	assert.IsType(t, &SimObjectData{}, f)
}

func TestSessionCancelDropsInFlight(t *testing.T) {
	s, link := openedSession(t)

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(5, 1, ObjectIDUser, PeriodSecond, 0))

	layout, err := s.registry.Layout(1)
	assert.NoError(t, err)
	link.push(encodeFrame(t, 5, 1, []FieldValue{{Datum: layout[0], Value: 1000.0}}))

	assert.NoError(t, s.RequestData(5, 1, ObjectIDUser, PeriodNever, 0))

	// the in-flight frame for the cancelled request is dropped silently
	f, err := s.Poll()
	assert.NoError(t, err)
	assert.Nil(t, f)

	_, ok := s.Last(5)
	assert.False(t, ok)
}

func TestSessionClearCancelsRequests(t *testing.T) {
	s, link := openedSession(t)

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(5, 1, ObjectIDUser, PeriodSecond, 0))

	layout, err := s.registry.Layout(1)
	assert.NoError(t, err)
	buf := encodeFrame(t, 5, 1, []FieldValue{{Datum: layout[0], Value: 1000.0}})

	assert.NoError(t, s.ClearDataDefinition(1))
	assert.Equal(t, []uint32{1}, link.cleared)

	// a frame referencing the cleared definition fails loudly
	link.push(buf)
	_, err = s.Poll()
	assert.Equal(t, ErrUnknownDefinition, errors.Cause(err))
}

func TestSessionRecvTimeout(t *testing.T) {
	origInterval := recvPollInterval
	recvPollInterval = time.Millisecond
	defer func() {
		recvPollInterval = origInterval
	}()

	s, link := openedSession(t)

	_, err := s.Recv(5 * time.Millisecond)
	assert.Equal(t, ErrTimedOut, errors.Cause(err))

	link.push(EncodeOpen())
	f, err := s.Recv(5 * time.Millisecond)
	assert.NoError(t, err)
	assert.IsType(t, &ConnectionOpened{}, f)
}

func TestSessionOnceRequestEvictedAfterDelivery(t *testing.T) {
	s, link := openedSession(t)

	_, err := s.AddToDataDefinition(1, "PLANE ALTITUDE", "feet", DataTypeFloat64, 0, Unused)
	assert.NoError(t, err)
	assert.NoError(t, s.RequestData(2, 1, ObjectIDUser, PeriodOnce, 0))

	layout, err := s.registry.Layout(1)
	assert.NoError(t, err)
	link.push(encodeFrame(t, 2, 1, []FieldValue{{Datum: layout[0], Value: 1.0}}))
	link.push(encodeFrame(t, 2, 1, []FieldValue{{Datum: layout[0], Value: 2.0}}))

	f, err := s.Poll()
	assert.NoError(t, err)
	assert.NotNil(t, f)

	// a second frame for a spent once-request is dropped
	f, err = s.Poll()
	assert.NoError(t, err)
	assert.Nil(t, f)
}
