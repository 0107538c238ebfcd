package maskedinput

import (
	"github.com/julianstephens/dockbook/internal/calendar"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
)

// State is the masking state of a Field.
type State int

const (
	Empty State = iota
	Partial
	Complete
	Invalid
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Outcome tells the host what a key did.
type Outcome int

const (
	// Dropped keys are ignored entirely.
	Dropped Outcome = iota
	// Accepted keys changed the buffer.
	Accepted
	// PassThrough keys are navigation the host should act on.
	PassThrough
)

// Options is the widget contract: an initial wire value, the change callback,
// optional date bounds and the disabled flag.
type Options struct {
	Value    string
	OnChange func(string)
	MinDate  calendar.Date
	MaxDate  calendar.Date
	Disabled bool
}

// Field turns keystrokes into a validated wire value. The last value handed to
// OnChange is always what Value returns.
type Field struct {
	spec       Spec
	opts       Options
	state      State
	digits     string
	value      string
	err        error
	pickerOpen bool
}

// NewField builds a field and loads opts.Value. OnChange fires only when the
// value had to be normalized, as SetValue does.
func NewField(spec Spec, opts Options) *Field {
	f := &Field{spec: spec, opts: opts}
	if opts.Value != "" {
		_ = f.SetValue(opts.Value)
	}
	return f
}

func (f *Field) Spec() Spec       { return f.spec }
func (f *Field) State() State     { return f.state }
func (f *Field) Value() string    { return f.value }
func (f *Field) Err() error       { return f.err }
func (f *Field) PickerOpen() bool { return f.pickerOpen }
func (f *Field) Disabled() bool   { return f.opts.Disabled }

func (f *Field) SetDisabled(disabled bool) {
	f.opts.Disabled = disabled
	if disabled {
		f.pickerOpen = false
	}
}

// SetBounds replaces the optional date range used during validation.
func (f *Field) SetBounds(lo, hi calendar.Date) {
	f.opts.MinDate = lo
	f.opts.MaxDate = hi
}

// Display returns the masked buffer as the operator sees it.
func (f *Field) Display() string {
	return f.spec.Format(f.digits)
}

// Key feeds one key, named the way Bubble Tea names keys ("1", "backspace", "left").
func (f *Field) Key(key string) Outcome {
	switch key {
	case "left", "right", "tab", "shift+tab", "home", "end":
		return PassThrough
	case "backspace":
		if f.opts.Disabled {
			return Dropped
		}
		f.Backspace()
		return Accepted
	case "delete":
		if f.opts.Disabled {
			return Dropped
		}
		f.Clear()
		return Accepted
	}
	runes := []rune(key)
	if len(runes) != 1 {
		return Dropped
	}
	if f.Keystroke(runes[0]) {
		return Accepted
	}
	return Dropped
}

// Keystroke appends a digit. Anything else, a disabled field, or a full mask
// leaves the field unchanged and returns false.
func (f *Field) Keystroke(r rune) bool {
	if f.opts.Disabled || r < '0' || r > '9' {
		return false
	}
	if len(f.digits) >= f.spec.Digits() {
		return false
	}
	f.digits += string(r)
	f.settle()
	return true
}

// Backspace removes the last digit.
func (f *Field) Backspace() {
	if f.digits == "" {
		return
	}
	f.digits = f.digits[:len(f.digits)-1]
	f.settle()
}

// Clear empties the buffer and reports "".
func (f *Field) Clear() {
	f.digits = ""
	f.settle()
}

// settle recomputes the state after an edit to the buffer.
func (f *Field) settle() {
	f.err = nil
	switch {
	case f.digits == "":
		f.state = Empty
		f.retract()
	case len(f.digits) < f.spec.Digits():
		f.state = Partial
		f.retract()
	default:
		wire, err := f.spec.validate(f.digits, f.opts)
		if err != nil {
			f.state = Invalid
			f.err = err
			f.retract()
			return
		}
		f.accept(wire)
	}
}

// Blur applies focus-loss completion. It does nothing while the picker is open.
func (f *Field) Blur() {
	if f.pickerOpen || f.opts.Disabled {
		return
	}
	switch f.state {
	case Complete:
		f.commit(f.value)
	case Partial:
		padded, ok := f.spec.complete(f.digits)
		if ok {
			if wire, err := f.spec.validate(padded, f.opts); err == nil {
				f.accept(wire)
				return
			}
		}
		f.reset()
	case Invalid:
		f.reset()
	}
}

// OpenPicker shows the picker overlay.
func (f *Field) OpenPicker() {
	if !f.opts.Disabled {
		f.pickerOpen = true
	}
}

// ClosePicker dismisses the overlay without choosing a value.
func (f *Field) ClosePicker() {
	f.pickerOpen = false
}

// PickerCommit moves straight to Complete with a picker-supplied wire value and
// closes the picker. A value outside the field's bounds is refused.
func (f *Field) PickerCommit(value string) error {
	if f.opts.Disabled {
		return apperrors.Validation(f.spec.Name, "field is disabled")
	}
	digits, ok := f.spec.digitsOf(value)
	if !ok {
		return apperrors.Validation(f.spec.Name, "unrecognised value "+value)
	}
	wire, err := f.spec.validate(digits, f.opts)
	if err != nil {
		return err
	}
	f.pickerOpen = false
	f.err = nil
	f.accept(wire)
	return nil
}

// SetValue loads an externally supplied value in wire or display form. The
// caller already knows the value, so OnChange fires only when validation
// changed it (an off-grid time rounded onto the grid).
func (f *Field) SetValue(value string) error {
	f.err = nil
	if value == "" {
		f.digits, f.value, f.state = "", "", Empty
		return nil
	}
	digits, ok := f.spec.digitsOf(value)
	if !ok {
		f.digits, f.value, f.state = "", "", Empty
		return apperrors.Validation(f.spec.Name, "unrecognised value "+value)
	}
	wire, err := f.spec.validate(digits, f.opts)
	if err != nil {
		f.digits, f.value, f.state = digits, "", Invalid
		f.err = err
		return err
	}
	f.digits, _ = f.spec.digitsOf(wire)
	f.state = Complete
	if f.digits != digits {
		f.commit(wire)
		return nil
	}
	f.value = wire
	return nil
}

func (f *Field) accept(wire string) {
	f.digits, _ = f.spec.digitsOf(wire)
	f.state = Complete
	f.commit(wire)
}

func (f *Field) reset() {
	f.digits = ""
	f.state = Empty
	f.err = nil
	f.commit("")
}

// retract reports "" when the field stops holding a committed value.
func (f *Field) retract() {
	if f.value != "" {
		f.commit("")
	}
}

func (f *Field) commit(wire string) {
	f.value = wire
	if f.opts.OnChange != nil {
		f.opts.OnChange(wire)
	}
}
