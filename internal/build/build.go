package build

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyBuilding = errors.New("already building")
	ErrAlreadyDone     = errors.New("already done")
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusBuilding Status = "building"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
)

func ParseStatus(s string) (status Status, known bool) {
	switch s {
	case string(StatusIdle):
		return StatusIdle, true
	case string(StatusBuilding):
		return StatusBuilding, true
	case string(StatusSuccess):
		return StatusSuccess, true
	case string(StatusFailed):
		return StatusFailed, true
	default:
		return "", false
	}
}

// Terminal reports whether a record in this status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Build is one row of the build ledger.
type Build struct {
	ID           int64
	Status       Status
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage *string
	TriggeredBy  string
	CreatedAt    time.Time
}

// Duration is only known once both timestamps are set.
func (b *Build) Duration() (time.Duration, bool) {
	if b.StartedAt == nil || b.CompletedAt == nil {
		return 0, false
	}
	return b.CompletedAt.Sub(*b.StartedAt), true
}
