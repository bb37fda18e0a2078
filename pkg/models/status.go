package models

import (
	"fmt"
	"strings"
)

// Status is the learning status of a phrase
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusLearned    Status = "LEARNED"
)

var statusDisplay = map[Status]string{
	StatusInProgress: "In Progress",
	StatusLearned:    "Learned",
}

// Display returns the human readable value
func (s Status) Display() string {
	return statusDisplay[s]
}

// ParseStatus accepts either the stored name or the display value, case-insensitively
func ParseStatus(value string) (Status, error) {
	v := strings.TrimSpace(value)
	for status, display := range statusDisplay {
		if strings.EqualFold(v, string(status)) || strings.EqualFold(v, display) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
}
