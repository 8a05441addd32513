package simconnect

import (
	"github.com/pkg/errors"
)

// Datum is one named simulation variable inside a data definition. The
// order datums are added determines the byte layout of the record the
// simulator sends back.
type Datum struct {
	Name    string
	Unit    string
	Type    DataType
	Epsilon float32
	ID      uint32
}

// Registry holds the data definitions registered during a session. It is
// the decode table for inbound records: Layout gives the decoder the
// ordered field types for a define ID.
type Registry struct {
	defs map[uint32][]Datum
}

func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[uint32][]Datum),
	}
}

// Add appends a datum to the definition identified by defineID and
// returns the datum's assigned ID. Passing Unused as datumID assigns the
// next ordinal within the definition.
func (r *Registry) Add(defineID uint32, name string, unit string, typ DataType, epsilon float32, datumID uint32) (uint32, error) {
	if !typ.valid() {
		return 0, errors.Wrapf(ErrInvalidType, "datum %q type %d", name, typ)
	}
	datums := r.defs[defineID]
	if datumID == Unused {
		datumID = uint32(len(datums))
	}
	for _, d := range datums {
		if d.ID == datumID {
			return 0, errors.Wrapf(ErrDuplicateDefinition, "definition %d already has datum %d (%q)", defineID, datumID, d.Name)
		}
	}
	r.defs[defineID] = append(datums, Datum{
		Name:    name,
		Unit:    unit,
		Type:    typ,
		Epsilon: epsilon,
		ID:      datumID,
	})
	return datumID, nil
}

// Clear removes every datum registered under defineID.
func (r *Registry) Clear(defineID uint32) error {
	if _, ok := r.defs[defineID]; !ok {
		return errors.Wrapf(ErrUnknownDefinition, "definition %d", defineID)
	}
	delete(r.defs, defineID)
	return nil
}

// Layout returns the datums of a definition in registration order, which
// is also wire order.
func (r *Registry) Layout(defineID uint32) ([]Datum, error) {
	datums, ok := r.defs[defineID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDefinition, "definition %d", defineID)
	}
	return datums, nil
}

// Defined reports whether any datum has been registered under defineID.
func (r *Registry) Defined(defineID uint32) bool {
	_, ok := r.defs[defineID]
	return ok
}

// drop removes a single datum, used to roll back a registration the
// simulator rejected.
func (r *Registry) drop(defineID uint32, datumID uint32) {
	datums := r.defs[defineID]
	for i, d := range datums {
		if d.ID == datumID {
			datums = append(datums[:i], datums[i+1:]...)
			if len(datums) == 0 {
				delete(r.defs, defineID)
				return
			}
			r.defs[defineID] = datums
			return
		}
	}
}
