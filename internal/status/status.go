package status

import (
	"fmt"
	"strings"
)

// Level is one value of the fixed status vocabulary. Lower values are more severe.
type Level int

const (
	LevelError Level = iota
	LevelBlocked
	LevelWaiting
	LevelMaintenance
	LevelActive
	LevelUnknown
)

var levelNames = [...]string{
	LevelError:       "error",
	LevelBlocked:     "blocked",
	LevelWaiting:     "waiting",
	LevelMaintenance: "maintenance",
	LevelActive:      "active",
	LevelUnknown:     "unknown",
}

func (l Level) String() string {
	if l < LevelError || l > LevelUnknown {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Rank orders levels worst first; out-of-range levels sort after unknown.
func (l Level) Rank() int {
	if l < LevelError || l > LevelUnknown {
		return int(LevelUnknown) + 1
	}
	return int(l)
}

// ParseLevel maps a level name back to its Level.
func ParseLevel(raw string) (Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for i, n := range levelNames {
		if n == name {
			return Level(i), true
		}
	}
	return LevelUnknown, false
}

// Status is one health signal with optional free text.
type Status struct {
	Level   Level  `json:"level"`
	Message string `json:"message,omitempty"`
}

func New(level Level, message string) Status {
	return Status{Level: level, Message: message}
}

func Error(message string) Status       { return New(LevelError, message) }
func Blocked(message string) Status     { return New(LevelBlocked, message) }
func Waiting(message string) Status     { return New(LevelWaiting, message) }
func Maintenance(message string) Status { return New(LevelMaintenance, message) }
func Active(message string) Status      { return New(LevelActive, message) }
func Unknown() Status                   { return New(LevelUnknown, "") }

// IsActive reports whether the status means the resource is fully configured and operating.
// Only the active level qualifies; unknown carries no signal and does not satisfy dependents.
func (s Status) IsActive() bool {
	return s.Level == LevelActive
}

func (s Status) String() string {
	if s.Message == "" {
		return s.Level.String()
	}
	return fmt.Sprintf("%s: %s", s.Level, s.Message)
}

// MarshalText renders the level name so JSON views stay readable.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	v, ok := ParseLevel(string(text))
	if !ok {
		return fmt.Errorf("status: unknown level %q", string(text))
	}
	*l = v
	return nil
}
