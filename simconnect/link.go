package simconnect

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Link is the call boundary to the simulator. It mirrors the vendor
// function table one to one; a non-zero vendor status code surfaces as a
// non-nil error. The native binding is supplied by the embedding
// application, this package only ships LoopbackLink.
type Link interface {
	Open(appName string) error
	Close() error
	AddToDataDefinition(defineID uint32, name string, unit string, typ DataType, epsilon float32, datumID uint32) error
	ClearDataDefinition(defineID uint32) error
	RequestDataOnSimObject(requestID uint32, defineID uint32, objectID uint32, period Period, flags uint32) error
	// NextDispatch returns the next pending frame, or (nil, nil) when
	// nothing is queued.
	NextDispatch() ([]byte, error)
}

type loopbackRequest struct {
	defineID uint32
	objectID uint32
	period   Period
}

// LoopbackLink is an in-process Link for development and tests. It keeps
// its own definition table, honors standing requests, and synthesizes
// bit-exact frames from sample values set by the caller. Periodic
// cadences are poll-driven: a NextDispatch call with an empty queue
// refills it with one frame per standing request, in request ID order.
// Unlike a Session, a LoopbackLink may be shared between the
// pump goroutine and a sample producer; its methods lock internally.
type LoopbackLink struct {
	mu       sync.Mutex
	registry *Registry
	open     bool
	requests map[uint32]loopbackRequest
	queue    [][]byte
	samples  map[string]interface{}
}

func NewLoopbackLink() *LoopbackLink {
	return &LoopbackLink{
		registry: NewRegistry(),
		requests: make(map[uint32]loopbackRequest),
		samples:  make(map[string]interface{}),
	}
}

// SetSample sets the value returned for a datum name in synthesized
// frames. Unset datums decode as zero values.
func (l *LoopbackLink) SetSample(name string, v interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples[name] = v
}

func (l *LoopbackLink) Open(appName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open {
		return errors.Errorf("loopback: %q already open", appName)
	}
	l.open = true
	l.queue = append(l.queue, EncodeOpen())
	log.WithField("app", appName).Debug("loopback link opened")
	return nil
}

func (l *LoopbackLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.open = false
	l.registry = NewRegistry()
	l.requests = make(map[uint32]loopbackRequest)
	l.queue = nil
	return nil
}

func (l *LoopbackLink) AddToDataDefinition(defineID uint32, name string, unit string, typ DataType, epsilon float32, datumID uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.registry.Add(defineID, name, unit, typ, epsilon, datumID)
	return err
}

func (l *LoopbackLink) ClearDataDefinition(defineID uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.registry.Clear(defineID)
}

func (l *LoopbackLink) RequestDataOnSimObject(requestID uint32, defineID uint32, objectID uint32, period Period, flags uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return errors.New("loopback: not open")
	}
	if period == PeriodNever {
		delete(l.requests, requestID)
		return nil
	}
	if !l.registry.Defined(defineID) {
		return errors.Wrapf(ErrUnknownDefinition, "definition %d", defineID)
	}
	l.requests[requestID] = loopbackRequest{
		defineID: defineID,
		objectID: objectID,
		period:   period,
	}
	return nil
}

func (l *LoopbackLink) NextDispatch() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.open {
		return nil, errors.New("loopback: not open")
	}
	if len(l.queue) == 0 {
		l.fillQueue()
	}
	if len(l.queue) == 0 {
		return nil, nil
	}
	buf := l.queue[0]
	l.queue = l.queue[1:]
	return buf, nil
}

func (l *LoopbackLink) fillQueue() {
	ids := make([]uint32, 0, len(l.requests))
	for id := range l.requests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		req := l.requests[id]
		layout, err := l.registry.Layout(req.defineID)
		if err != nil {
			// definition cleared while the request stands
			delete(l.requests, id)
			continue
		}
		f := &SimObjectData{
			RequestID:   id,
			ObjectID:    req.objectID,
			DefineID:    req.defineID,
			EntryNumber: 1,
			OutOf:       1,
			DefineCount: uint32(len(layout)),
		}
		for _, d := range layout {
			f.Fields = append(f.Fields, FieldValue{Datum: d, Value: l.sample(d)})
		}
		buf, err := EncodeSimObjectData(f)
		if err != nil {
			log.WithField("err", err).Warn("loopback: unable to encode frame")
			continue
		}
		l.queue = append(l.queue, buf)
		if req.period == PeriodOnce {
			delete(l.requests, id)
		}
	}
}

func (l *LoopbackLink) sample(d Datum) interface{} {
	if v, ok := l.samples[d.Name]; ok {
		return v
	}
	switch d.Type {
	case DataTypeInt32:
		return int32(0)
	case DataTypeFloat64:
		return float64(0)
	default:
		return ""
	}
}
