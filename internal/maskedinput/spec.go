package maskedinput

import (
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
)

// Spec parameterizes a Field: how digits group into the mask, how a full
// buffer validates into a wire value, and how partial buffers complete on blur.
type Spec struct {
	Name        string
	Placeholder string
	Groups      []int
	Separator   byte

	validate func(digits string, opts Options) (string, error)
	complete func(digits string) (string, bool)
	digitsOf func(value string) (string, bool)
}

// Digits returns the buffer length at which the mask is full.
func (s Spec) Digits() int {
	n := 0
	for _, g := range s.Groups {
		n += g
	}
	return n
}

// Format re-segments a digit buffer into the display mask.
func (s Spec) Format(digits string) string {
	var b strings.Builder
	rest := digits
	for i, g := range s.Groups {
		if rest == "" {
			break
		}
		if i > 0 {
			b.WriteByte(s.Separator)
		}
		if len(rest) <= g {
			b.WriteString(rest)
			rest = ""
			break
		}
		b.WriteString(rest[:g])
		rest = rest[g:]
	}
	return b.String()
}

// DateSpec masks DD/MM/YYYY and reports YYYY-MM-DD.
func DateSpec() Spec {
	return Spec{
		Name:        "date",
		Placeholder: "__/__/____",
		Groups:      []int{2, 2, 4},
		Separator:   '/',
		validate:    validateDate,
		complete:    func(string) (string, bool) { return "", false },
		digitsOf:    dateDigits,
	}
}

// TimeSpec masks HH:MM and reports HH:MM rounded to interval minutes.
func TimeSpec(interval int) Spec {
	if interval <= 0 {
		interval = constants.DefaultSlotIntervalMin
	}
	return Spec{
		Name:        "time",
		Placeholder: "--:--",
		Groups:      []int{2, 2},
		Separator:   ':',
		validate: func(digits string, _ Options) (string, error) {
			return validateTime(digits, interval)
		},
		complete: completeTime,
		digitsOf: timeDigits,
	}
}

func validateDate(digits string, opts Options) (string, error) {
	day, _ := strconv.Atoi(digits[0:2])
	month, _ := strconv.Atoi(digits[2:4])
	year, _ := strconv.Atoi(digits[4:8])

	switch {
	case day < 1 || day > 31:
		return "", apperrors.Validation("date", "day must be between 1 and 31")
	case month < 1 || month > 12:
		return "", apperrors.Validation("date", "month must be between 1 and 12")
	case year < constants.MinYear || year > constants.MaxYear:
		return "", apperrors.Validation("date", "year must be between 1900 and 2100")
	}

	d, err := calendar.New(year, time.Month(month), day)
	if err != nil {
		return "", apperrors.Validation("date", "no such day in that month")
	}
	if !opts.MinDate.IsZero() && d.Before(opts.MinDate) {
		return "", apperrors.Validation("date", "must not be before "+opts.MinDate.Display())
	}
	if !opts.MaxDate.IsZero() && d.After(opts.MaxDate) {
		return "", apperrors.Validation("date", "must not be after "+opts.MaxDate.Display())
	}
	return d.Wire(), nil
}

func validateTime(digits string, interval int) (string, error) {
	hour, _ := strconv.Atoi(digits[0:2])
	minute, _ := strconv.Atoi(digits[2:4])
	if hour > 23 {
		return "", apperrors.Validation("time", "hour must be between 00 and 23")
	}
	if minute > 59 {
		return "", apperrors.Validation("time", "minute must be between 00 and 59")
	}
	return calendar.RoundToInterval(hour, minute, interval).Wire(), nil
}

// completeTime pads a 1-3 digit time buffer: 9 -> 0900, 18 -> 1800, 183 -> 1803.
func completeTime(digits string) (string, bool) {
	switch len(digits) {
	case 1:
		return "0" + digits + "00", true
	case 2:
		return digits + "00", true
	case 3:
		return digits[:2] + "0" + digits[2:], true
	}
	return "", false
}

// dateDigits accepts YYYY-MM-DD (with an optional time part) or DD/MM/YYYY.
func dateDigits(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, 'T'); i >= 0 {
		value = value[:i]
	}
	var digits string
	switch {
	case len(value) == 10 && value[4] == '-' && value[7] == '-':
		digits = value[8:10] + value[5:7] + value[0:4]
	case len(value) == 10 && value[2] == '/' && value[5] == '/':
		digits = value[0:2] + value[3:5] + value[6:10]
	default:
		return "", false
	}
	return digits, isDigits(digits)
}

// timeDigits accepts HH:MM and truncates HH:MM:SS.
func timeDigits(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) == 8 && value[5] == ':' {
		value = value[:5]
	}
	if len(value) != 5 || value[2] != ':' {
		return "", false
	}
	digits := value[:2] + value[3:]
	return digits, isDigits(digits)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
