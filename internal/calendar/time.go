package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidTime is returned for any input that does not name a time of day.
var ErrInvalidTime = errors.New("invalid time")

// TimeOfDay is an hour/minute pair with no date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Latest is the clamp applied when rounding carries past midnight.
var Latest = TimeOfDay{Hour: 23, Minute: 59}

func NewTime(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustTime is NewTime for literals known to be valid.
func MustTime(hour, minute int) TimeOfDay {
	t, err := NewTime(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTime accepts HH:MM and truncates HH:MM:SS to minute precision.
func ParseTime(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && s[5] == ':' {
		s = s[:5]
	}
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err1 := atoiDigits(s[:2])
	m, err2 := atoiDigits(s[3:])
	if err1 != nil || err2 != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return NewTime(h, m)
}

// MustParseTime panics on malformed input; used for configuration literals.
func MustParseTime(s string) TimeOfDay {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Wire returns HH:MM.
func (t TimeOfDay) Wire() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) String() string {
	return t.Wire()
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// FromMinutes builds a TimeOfDay from minutes since midnight, clamped to the day.
func FromMinutes(mins int) TimeOfDay {
	if mins < 0 {
		mins = 0
	}
	if mins >= 24*60 {
		return Latest
	}
	return TimeOfDay{Hour: mins / 60, Minute: mins % 60}
}

// Add moves t forward by the given minutes, clamped at 23:59.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return FromMinutes(t.Minutes() + minutes)
}

func (t TimeOfDay) Compare(o TimeOfDay) int {
	return cmpInt(t.Minutes(), o.Minutes())
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Compare(o) < 0 }

// OnGrid reports whether the minute is a multiple of interval.
func (t TimeOfDay) OnGrid(interval int) bool {
	if interval <= 0 {
		return true
	}
	return t.Minute%interval == 0
}

// RoundToInterval rounds minute to the nearest multiple of interval with
// halves rounding up (15 -> 30 for a 30 minute interval). Overflow carries
// into the hour; anything past the last hour clamps to 23:59.
func RoundToInterval(hour, minute, interval int) TimeOfDay {
	if interval <= 0 {
		interval = 1
	}
	rounded := int(math.Floor(float64(minute)/float64(interval)+0.5)) * interval
	h, m := hour, rounded
	if m >= 60 {
		h++
		m = 0
	}
	if h >= 24 {
		return Latest
	}
	return TimeOfDay{Hour: h, Minute: m}
}

// At combines d and t into an instant in loc.
func At(d Date, t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler using the wire form.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.Wire()), nil
}

// UnmarshalText accepts HH:MM or HH:MM:SS.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
