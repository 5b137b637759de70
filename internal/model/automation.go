package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type IntervalUnit string

const (
	Seconds IntervalUnit = "seconds"
	Minutes IntervalUnit = "minutes"
)

func ParseIntervalUnit(raw string) (IntervalUnit, error) {
	switch IntervalUnit(strings.ToLower(strings.TrimSpace(raw))) {
	case Seconds, "":
		return Seconds, nil
	case Minutes:
		return Minutes, nil
	default:
		return "", fmt.Errorf("unknown interval unit %q", raw)
	}
}

type Interval struct {
	Magnitude int          `json:"magnitude"`
	Unit      IntervalUnit `json:"unit"`
}

// MaxIntervalMilliseconds is the longest interval a time.Duration can hold.
const MaxIntervalMilliseconds = math.MaxInt64 / int64(time.Millisecond)

// UnitMilliseconds is 60000 for minutes and 1000 otherwise.
func (u IntervalUnit) UnitMilliseconds() int64 {
	if u == Minutes {
		return 60000
	}
	return 1000
}

// MaxMagnitude is the largest magnitude of u that fits MaxIntervalMilliseconds.
func (u IntervalUnit) MaxMagnitude() int64 {
	return MaxIntervalMilliseconds / u.UnitMilliseconds()
}

// Milliseconds is magnitude × 60000 for minutes and magnitude × 1000 otherwise.
// It overflows past Unit.MaxMagnitude(); validate before converting.
func (i Interval) Milliseconds() int64 {
	return int64(i.Magnitude) * i.Unit.UnitMilliseconds()
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.Milliseconds()) * time.Millisecond
}

func (i Interval) String() string {
	return fmt.Sprintf("%d %s", i.Magnitude, i.Unit)
}

// Configuration is what the user asks the automation to do.
type Configuration struct {
	Recipient string   `json:"phoneNumber"`
	Body      string   `json:"message"`
	Interval  Interval `json:"interval"`
}

// Snapshot is a read-only projection of the controller state.
type Snapshot struct {
	Running   bool           `json:"running"`
	SentCount int            `json:"sentCount"`
	Mode      string         `json:"mode"`
	Config    *Configuration `json:"config,omitempty"`
	Logs      []LogEntry     `json:"logs,omitempty"`
}
