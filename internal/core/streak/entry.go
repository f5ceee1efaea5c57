package streak

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var (
	ErrUnknownStatus       = errors.New("unknown log status")
	ErrUnknownSchedule     = errors.New("unknown schedule kind")
	ErrInvalidWeeklyTarget = errors.New("weekly target must be between 1 and 7")
	ErrDuplicateDate       = errors.New("more than one log entry for the same date")
)

const (
	MinWeeklyTarget = 1
	MaxWeeklyTarget = 7
)

// Status is the outcome recorded for a habit on one day.
type Status uint8

const (
	StatusDone Status = iota + 1
	StatusNotDone
	StatusSkipped
)

var statusNames = map[Status]string{
	StatusDone:    "done",
	StatusNotDone: "not_done",
	StatusSkipped: "skipped",
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrUnknownStatus, src)
	}
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return s.String(), nil
}

// ScheduleKind is the cadence a habit is tracked against.
type ScheduleKind uint8

const (
	ScheduleDaily ScheduleKind = iota + 1
	ScheduleWeekly
)

func ParseScheduleKind(s string) (ScheduleKind, error) {
	switch s {
	case "daily":
		return ScheduleDaily, nil
	case "weekly":
		return ScheduleWeekly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSchedule, s)
	}
}

func (k ScheduleKind) String() string {
	switch k {
	case ScheduleDaily:
		return "daily"
	case ScheduleWeekly:
		return "weekly"
	default:
		return fmt.Sprintf("ScheduleKind(%d)", uint8(k))
	}
}

func (k ScheduleKind) MarshalText() ([]byte, error) {
	if k != ScheduleDaily && k != ScheduleWeekly {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchedule, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ScheduleKind) UnmarshalText(text []byte) error {
	parsed, err := ParseScheduleKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k *ScheduleKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrUnknownSchedule, src)
	}
}

func (k ScheduleKind) Value() (driver.Value, error) {
	text, err := k.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// LogEntry is one day's mark for a single habit.
type LogEntry struct {
	Date   Date   `json:"date" yaml:"date"`
	Status Status `json:"status" yaml:"status"`
}

// Schedule describes how often a habit is expected to be done.
// WeeklyTarget is only read for weekly schedules.
type Schedule struct {
	Kind         ScheduleKind `json:"kind"`
	WeeklyTarget int          `json:"weekly_target,omitempty"`
}

func Daily() Schedule {
	return Schedule{Kind: ScheduleDaily}
}

func Weekly(target int) Schedule {
	return Schedule{Kind: ScheduleWeekly, WeeklyTarget: target}
}

func (s Schedule) Validate() error {
	switch s.Kind {
	case ScheduleDaily:
		return nil
	case ScheduleWeekly:
		if s.WeeklyTarget < MinWeeklyTarget || s.WeeklyTarget > MaxWeeklyTarget {
			return fmt.Errorf("%w: got %d", ErrInvalidWeeklyTarget, s.WeeklyTarget)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownSchedule, uint8(s.Kind))
	}
}

// ValidateEntries reports ErrDuplicateDate when two entries share a date and
// ErrUnknownStatus for a status outside the enum. Callers run it once when
// loading a snapshot.
func ValidateEntries(entries []LogEntry) error {
	_, err := indexByDate(entries)
	return err
}

func indexByDate(entries []LogEntry) (map[Date]Status, error) {
	byDate := make(map[Date]Status, len(entries))
	for _, e := range entries {
		if !e.Status.Valid() {
			return nil, fmt.Errorf("%w: %d on %s", ErrUnknownStatus, uint8(e.Status), e.Date)
		}
		if _, seen := byDate[e.Date]; seen {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, e.Date)
		}
		byDate[e.Date] = e.Status
	}
	return byDate, nil
}
