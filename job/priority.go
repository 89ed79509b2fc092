package job

import (
	"fmt"
	"strings"

	"github.com/xraph/lanes"
)

// Priority orders jobs for dispatch. Lower values are more urgent.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityBackground
)

var priorityNames = [...]string{"critical", "high", "normal", "low", "background"}

// Priorities returns every priority in dispatch order.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow, PriorityBackground}
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityBackground
}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority converts a priority name such as "high" into a Priority.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range priorityNames {
		if n == name {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", lanes.ErrInvalidPriority, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", lanes.ErrInvalidPriority, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(data []byte) error {
	parsed, err := ParsePriority(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
