package domain

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusTriggered Status = "triggered"
	StatusDisabled  Status = "disabled"
)

// ParseStatus treats an empty string as StatusAll.
func ParseStatus(input string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(input))); s {
	case "":
		return StatusAll, nil
	case StatusAll, StatusActive, StatusTriggered, StatusDisabled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, input)
	}
}

// Matches reports whether an alert in state (active, triggered) belongs to s.
func (s Status) Matches(active, triggered bool) bool {
	switch s {
	case StatusActive:
		return active && !triggered
	case StatusTriggered:
		return triggered
	case StatusDisabled:
		return !active && !triggered
	default:
		return true
	}
}
