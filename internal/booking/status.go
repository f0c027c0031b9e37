package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ErrUnknownStatus indicates a status value outside the known set.
var ErrUnknownStatus = errors.New("booking: unknown reservation status")

// Statuses lists the known statuses in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusAccepted, StatusRejected}
}

// ParseStatus normalizes and validates a textual status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
	return status, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Blocks reports whether a reservation in this status occupies its slot.
func (s Status) Blocks() bool {
	return s == StatusAccepted
}

func (s Status) String() string {
	return string(s)
}

// Transition describes a status change.
type Transition struct {
	From Status
	To   Status
}

// NewTransition validates both ends of a status change.
//
// Administrators may move a reservation between any two known statuses,
// including re-applying the current one.
func NewTransition(from, to Status) (Transition, error) {
	if !from.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	return Transition{From: from, To: to}, nil
}

// Acquires reports whether the transition makes the reservation hold its slot.
func (t Transition) Acquires() bool {
	return !t.From.Blocks() && t.To.Blocks()
}

// Releases reports whether the transition frees a previously held slot.
func (t Transition) Releases() bool {
	return t.From.Blocks() && !t.To.Blocks()
}
