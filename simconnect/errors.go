package simconnect

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionFailed    = errors.New("connection failed")
	ErrAlreadyOpen         = errors.New("session already open")
	ErrNotOpen             = errors.New("session not open")
	ErrDuplicateDefinition = errors.New("duplicate datum in data definition")
	ErrUnknownDefinition   = errors.New("unknown data definition")
	ErrInvalidType         = errors.New("invalid datum type")
	ErrTruncatedHeader     = errors.New("truncated frame header")
	ErrSizeMismatch        = errors.New("frame size mismatch")
	ErrPayloadTooShort     = errors.New("frame payload too short")
	ErrTimedOut            = errors.New("timed out waiting for dispatch")
)
