package simconnect

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var recvPollInterval = 10 * time.Millisecond

type request struct {
	defineID uint32
	period   Period
}

// Session is the stateful façade over a Link. A single goroutine owns
// the session and pumps Poll/Recv; no internal locking is done. Closing
// the session invalidates all definitions and discards outstanding
// requests.
type Session struct {
	link     Link
	registry *Registry
	open     bool
	requests map[uint32]request
	last     map[uint32]*SimObjectData
}

func NewSession(link Link) *Session {
	return &Session{
		link:     link,
		registry: NewRegistry(),
		requests: make(map[uint32]request),
		last:     make(map[uint32]*SimObjectData),
	}
}

// Open connects to the simulator under the given application name.
func (s *Session) Open(appName string) error {
	if s.open {
		return errors.Wrapf(ErrAlreadyOpen, "open %q", appName)
	}
	if err := s.link.Open(appName); err != nil {
		return errors.Wrapf(ErrConnectionFailed, "open %q: %v", appName, err)
	}
	s.open = true
	log.WithField("app", appName).Info("simulator session opened")
	return nil
}

// Close disconnects and invalidates all schema state and outstanding
// requests. Closing an already-closed session is a no-op.
func (s *Session) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	s.registry = NewRegistry()
	s.requests = make(map[uint32]request)
	s.last = make(map[uint32]*SimObjectData)
	if err := s.link.Close(); err != nil {
		return errors.Wrap(err, "unable to close simulator link")
	}
	return nil
}

// AddToDataDefinition registers one datum under defineID with the
// simulator and the session's decode table, returning the assigned datum
// ID. Pass Unused as datumID to auto-assign.
func (s *Session) AddToDataDefinition(defineID uint32, name string, unit string, typ DataType, epsilon float32, datumID uint32) (uint32, error) {
	if !s.open {
		return 0, errors.Wrapf(ErrNotOpen, "add datum %q", name)
	}
	id, err := s.registry.Add(defineID, name, unit, typ, epsilon, datumID)
	if err != nil {
		return 0, err
	}
	if err := s.link.AddToDataDefinition(defineID, name, unit, typ, epsilon, id); err != nil {
		s.registry.drop(defineID, id)
		return 0, errors.Wrapf(ErrConnectionFailed, "add datum %q: %v", name, err)
	}
	return id, nil
}

// ClearDataDefinition removes a definition on both sides and cancels any
// standing request that references it, so a cleared definition can never
// serve stale data.
func (s *Session) ClearDataDefinition(defineID uint32) error {
	if !s.open {
		return errors.Wrapf(ErrNotOpen, "clear definition %d", defineID)
	}
	if err := s.registry.Clear(defineID); err != nil {
		return err
	}
	for id, req := range s.requests {
		if req.defineID == defineID {
			delete(s.requests, id)
			delete(s.last, id)
		}
	}
	if err := s.link.ClearDataDefinition(defineID); err != nil {
		return errors.Wrapf(ErrConnectionFailed, "clear definition %d: %v", defineID, err)
	}
	return nil
}

// RequestData asks the simulator to send the definition's record for an
// object at the given cadence. PeriodNever cancels the standing request
// with the same request ID; frames already in flight for a cancelled
// request are dropped by Poll.
func (s *Session) RequestData(requestID uint32, defineID uint32, objectID uint32, period Period, flags uint32) error {
	if !s.open {
		return errors.Wrapf(ErrNotOpen, "request %d", requestID)
	}
	if period == PeriodNever {
		delete(s.requests, requestID)
		delete(s.last, requestID)
		if err := s.link.RequestDataOnSimObject(requestID, defineID, objectID, period, flags); err != nil {
			return errors.Wrapf(ErrConnectionFailed, "cancel request %d: %v", requestID, err)
		}
		return nil
	}
	if !s.registry.Defined(defineID) {
		return errors.Wrapf(ErrUnknownDefinition, "request %d definition %d", requestID, defineID)
	}
	if err := s.link.RequestDataOnSimObject(requestID, defineID, objectID, period, flags); err != nil {
		return errors.Wrapf(ErrConnectionFailed, "request %d: %v", requestID, err)
	}
	s.requests[requestID] = request{defineID: defineID, period: period}
	return nil
}

// Poll drains at most one pending frame without blocking. It returns
// (nil, nil) when nothing is queued. A malformed frame is discarded and
// reported; the next Poll proceeds cleanly.
func (s *Session) Poll() (Frame, error) {
	if !s.open {
		return nil, errors.Wrap(ErrNotOpen, "poll")
	}
	buf, err := s.link.NextDispatch()
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionFailed, "next dispatch: %v", err)
	}
	if buf == nil {
		return nil, nil
	}
	f, err := Decode(buf, s.registry)
	if err != nil {
		log.WithField("err", err).Warn("discarding malformed dispatch frame")
		return nil, err
	}
	if data, ok := f.(*SimObjectData); ok {
		req, standing := s.requests[data.RequestID]
		if !standing {
			log.WithField("requestID", data.RequestID).Debug("dropping frame for cancelled request")
			return nil, nil
		}
		s.last[data.RequestID] = data
		if req.period == PeriodOnce {
			delete(s.requests, data.RequestID)
		}
	}
	return f, nil
}

// Recv blocks until a frame arrives or the timeout expires.
func (s *Session) Recv(timeout time.Duration) (Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := s.Poll()
		if f != nil || err != nil {
			return f, err
		}
		if !time.Now().Before(deadline) {
			return nil, errors.Wrapf(ErrTimedOut, "after %v", timeout)
		}
		time.Sleep(recvPollInterval)
	}
}

// Last returns the most recent record received for a request ID.
func (s *Session) Last(requestID uint32) (*SimObjectData, bool) {
	data, ok := s.last[requestID]
	return data, ok
}
