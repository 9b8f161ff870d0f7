package domain

import (
	"errors"
	"strings"
)

var (
	ErrStopCapacity    = errors.New("stop point capacity reached")
	ErrUnknownTransfer = errors.New("unknown transfer")
	ErrNotFound        = errors.New("not found")
	ErrPickupRequired  = errors.New("pickup location is required")
)

// ValidationError lists every missing item that blocks a submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
