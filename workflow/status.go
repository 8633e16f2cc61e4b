package workflow

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Status is the task position on the board. Only the HTTP and storage
// boundaries see the literal labels.
type Status int

const (
	StatusInvalid Status = iota
	StatusNotStarted
	StatusInProgress
	StatusDone
)

const (
	LabelNotStarted = "Belum Dikerjakan"
	LabelInProgress = "Lagi Dikerjakan"
	LabelDone       = "Selesai"
)

// ParseStatus requires an exact label match; there is no case folding.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case LabelNotStarted:
		return StatusNotStarted, true
	case LabelInProgress:
		return StatusInProgress, true
	case LabelDone:
		return StatusDone, true
	default:
		return StatusInvalid, false
	}
}

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return LabelNotStarted
	case StatusInProgress:
		return LabelInProgress
	case StatusDone:
		return LabelDone
	default:
		return ""
	}
}

func (s Status) Valid() bool {
	return s >= StatusNotStarted && s <= StatusDone
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	status, ok := ParseStatus(label)
	if !ok {
		return fmt.Errorf("unknown status %q", label)
	}
	*s = status
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(src any) error {
	label, err := scanString(src)
	if err != nil {
		return err
	}
	status, ok := ParseStatus(label)
	if !ok {
		return fmt.Errorf("unknown status %q", label)
	}
	*s = status
	return nil
}

type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}
