package monitor

import "strings"

type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Normalize upper-cases known values and leaves anything else untouched so it
// can still be shown to the user.
func (s Status) Normalize() Status {
	switch u := Status(strings.ToUpper(strings.TrimSpace(string(s)))); u {
	case StatusUp, StatusDown:
		return u
	default:
		return s
	}
}

func (s Status) Known() bool {
	n := s.Normalize()
	return n == StatusUp || n == StatusDown
}

// ChangeEvent is published by the ping pipeline whenever a monitor flips.
type ChangeEvent struct {
	ID      int64  `json:"id" validate:"gt=0"`
	URL     string `json:"url" validate:"required"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}
