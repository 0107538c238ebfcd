package maskedinput

import (
	"testing"
	"time"

	"github.com/julianstephens/dockbook/internal/calendar"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
)

// recorder captures every OnChange call.
type recorder struct {
	calls []string
}

func (r *recorder) onChange(v string) { r.calls = append(r.calls, v) }

func (r *recorder) last() string {
	if len(r.calls) == 0 {
		return "<none>"
	}
	return r.calls[len(r.calls)-1]
}

func typeDigits(f *Field, s string) []string {
	var shown []string
	for _, r := range s {
		f.Keystroke(r)
		shown = append(shown, f.Display())
	}
	return shown
}

func TestTimeKeystrokeProgression(t *testing.T) {
	rec := &recorder{}
	f := NewField(TimeSpec(30), Options{OnChange: rec.onChange})

	shown := typeDigits(f, "183")
	want := []string{"1", "18", "18:3"}
	for i := range want {
		if shown[i] != want[i] {
			t.Errorf("display after %d digits = %q, want %q", i+1, shown[i], want[i])
		}
	}
	if f.State() != Partial {
		t.Errorf("State() = %v, want partial", f.State())
	}
	if len(rec.calls) != 0 {
		t.Errorf("partial input reported %v", rec.calls)
	}

	f.Keystroke('0')
	if f.State() != Complete || f.Display() != "18:30" || f.Value() != "18:30" {
		t.Errorf("after 1830: state=%v display=%q value=%q", f.State(), f.Display(), f.Value())
	}
	if rec.last() != "18:30" {
		t.Errorf("OnChange last = %q, want 18:30", rec.last())
	}
}

func TestTimeCompletion(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		interval  int
		wantState State
		wantValue string
	}{
		{name: "on grid", input: "1830", interval: 30, wantState: Complete, wantValue: "18:30"},
		{name: "half rounds up", input: "1815", interval: 30, wantState: Complete, wantValue: "18:30"},
		{name: "rounds down", input: "1814", interval: 30, wantState: Complete, wantValue: "18:00"},
		{name: "carries into hour", input: "0950", interval: 30, wantState: Complete, wantValue: "10:00"},
		{name: "clamps at end of day", input: "2345", interval: 30, wantState: Complete, wantValue: "23:59"},
		{name: "quarter hour grid", input: "0808", interval: 15, wantState: Complete, wantValue: "08:15"},
		{name: "hour out of range", input: "2500", interval: 30, wantState: Invalid, wantValue: ""},
		{name: "minute out of range", input: "1075", interval: 30, wantState: Invalid, wantValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(TimeSpec(tt.interval), Options{})
			typeDigits(f, tt.input)
			if f.State() != tt.wantState {
				t.Fatalf("State() = %v, want %v", f.State(), tt.wantState)
			}
			if f.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", f.Value(), tt.wantValue)
			}
			if tt.wantState == Invalid && apperrors.KindOf(f.Err()) != apperrors.KindValidation {
				t.Errorf("Err() = %v, want a validation error", f.Err())
			}
			if tt.wantValue != "" && f.Value() != "" {
				if got, err := calendar.ParseTime(f.Value()); err != nil || (got != calendar.Latest && !got.OnGrid(tt.interval)) {
					t.Errorf("committed value %q is off the %d minute grid", f.Value(), tt.interval)
				}
			}
		})
	}
}

func TestTimeBlur(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue string
		wantState State
	}{
		{name: "one digit", input: "9", wantValue: "09:00", wantState: Complete},
		{name: "two digits", input: "18", wantValue: "18:00", wantState: Complete},
		{name: "three digits rounds", input: "183", wantValue: "18:00", wantState: Complete},
		{name: "padded hour out of range", input: "25", wantValue: "", wantState: Empty},
		{name: "invalid full buffer", input: "2599", wantValue: "", wantState: Empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			f := NewField(TimeSpec(30), Options{OnChange: rec.onChange})
			typeDigits(f, tt.input)
			f.Blur()

			if f.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", f.State(), tt.wantState)
			}
			if f.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", f.Value(), tt.wantValue)
			}
			if rec.last() != tt.wantValue {
				t.Errorf("OnChange last = %q, want %q", rec.last(), tt.wantValue)
			}
		})
	}
}

func TestBlurSuppressedWhilePickerOpen(t *testing.T) {
	rec := &recorder{}
	f := NewField(TimeSpec(30), Options{OnChange: rec.onChange})
	typeDigits(f, "9")
	f.OpenPicker()
	f.Blur()

	if f.State() != Partial || f.Display() != "9" {
		t.Errorf("blur with picker open changed field: state=%v display=%q", f.State(), f.Display())
	}
	if len(rec.calls) != 0 {
		t.Errorf("blur with picker open reported %v", rec.calls)
	}

	if err := f.PickerCommit("14:30"); err != nil {
		t.Fatalf("PickerCommit() error = %v", err)
	}
	if f.PickerOpen() {
		t.Error("PickerCommit() left picker open")
	}
	if f.State() != Complete || rec.last() != "14:30" {
		t.Errorf("after picker commit: state=%v last=%q", f.State(), rec.last())
	}
}

func TestDateEntry(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		opts      Options
		wantState State
		wantValue string
	}{
		{name: "valid", input: "10012025", wantState: Complete, wantValue: "2025-01-10"},
		{name: "leap day", input: "29022024", wantState: Complete, wantValue: "2024-02-29"},
		{name: "31 february", input: "31022025", wantState: Invalid},
		{name: "30 february leap year", input: "30022024", wantState: Invalid},
		{name: "month 13", input: "01132025", wantState: Invalid},
		{name: "year before range", input: "01011899", wantState: Invalid},
		{name: "year after range", input: "01012101", wantState: Invalid},
		{
			name:      "before min",
			input:     "04012025",
			opts:      Options{MinDate: calendar.MustNew(2025, time.January, 5)},
			wantState: Invalid,
		},
		{
			name:      "after max",
			input:     "12012025",
			opts:      Options{MaxDate: calendar.MustNew(2025, time.January, 11)},
			wantState: Invalid,
		},
		{
			name:      "on min bound",
			input:     "05012025",
			opts:      Options{MinDate: calendar.MustNew(2025, time.January, 5)},
			wantState: Complete,
			wantValue: "2025-01-05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(DateSpec(), tt.opts)
			typeDigits(f, tt.input)
			if f.State() != tt.wantState {
				t.Fatalf("State() = %v, want %v (err %v)", f.State(), tt.wantState, f.Err())
			}
			if f.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", f.Value(), tt.wantValue)
			}
		})
	}
}

func TestDateMaskProgression(t *testing.T) {
	f := NewField(DateSpec(), Options{})
	shown := typeDigits(f, "1001202")
	want := []string{"1", "10", "10/0", "10/01", "10/01/2", "10/01/20", "10/01/202"}
	for i := range want {
		if shown[i] != want[i] {
			t.Errorf("display after %d digits = %q, want %q", i+1, shown[i], want[i])
		}
	}
}

func TestDateBlurClearsPartial(t *testing.T) {
	rec := &recorder{}
	f := NewField(DateSpec(), Options{OnChange: rec.onChange})
	typeDigits(f, "1001")
	f.Blur()

	if f.State() != Empty || f.Display() != "" {
		t.Errorf("partial date after blur: state=%v display=%q", f.State(), f.Display())
	}
	if rec.last() != "" {
		t.Errorf("OnChange last = %q, want empty", rec.last())
	}
}

func TestEditingCommittedValueRetractsIt(t *testing.T) {
	rec := &recorder{}
	f := NewField(DateSpec(), Options{Value: "2025-01-10", OnChange: rec.onChange})
	if len(rec.calls) != 0 {
		t.Fatalf("initial value reported %v", rec.calls)
	}

	f.Backspace()
	if f.State() != Partial {
		t.Fatalf("State() = %v, want partial", f.State())
	}
	if f.Value() != "" || rec.last() != "" {
		t.Errorf("value not retracted: Value()=%q last=%q", f.Value(), rec.last())
	}

	f.Keystroke('6')
	if f.Value() != "2026-01-10" || rec.last() != "2026-01-10" {
		t.Errorf("after retyping: Value()=%q last=%q", f.Value(), rec.last())
	}
}

func TestKeyFiltering(t *testing.T) {
	f := NewField(TimeSpec(30), Options{})

	tests := []struct {
		key  string
		want Outcome
	}{
		{key: "1", want: Accepted},
		{key: "a", want: Dropped},
		{key: ":", want: Dropped},
		{key: "left", want: PassThrough},
		{key: "tab", want: PassThrough},
		{key: "ctrl+x", want: Dropped},
		{key: "backspace", want: Accepted},
	}
	for _, tt := range tests {
		if got := f.Key(tt.key); got != tt.want {
			t.Errorf("Key(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
	if f.Display() != "" {
		t.Errorf("Display() = %q after typing and deleting one digit", f.Display())
	}
}

func TestFullMaskIgnoresExtraDigits(t *testing.T) {
	f := NewField(TimeSpec(30), Options{})
	typeDigits(f, "0900")
	if f.Keystroke('1') {
		t.Error("Keystroke() accepted a digit past the mask")
	}
	if f.Value() != "09:00" {
		t.Errorf("Value() = %q", f.Value())
	}
}

func TestDisabledField(t *testing.T) {
	rec := &recorder{}
	f := NewField(TimeSpec(30), Options{Disabled: true, OnChange: rec.onChange})
	if f.Keystroke('1') {
		t.Error("disabled field accepted a keystroke")
	}
	f.OpenPicker()
	if f.PickerOpen() {
		t.Error("disabled field opened its picker")
	}
	if err := f.PickerCommit("09:00"); err == nil {
		t.Error("disabled field accepted a picker value")
	}
	if len(rec.calls) != 0 {
		t.Errorf("disabled field reported %v", rec.calls)
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		name      string
		spec      Spec
		value     string
		wantShown string
		wantValue string
		wantErr   bool
	}{
		{name: "wire date", spec: DateSpec(), value: "2025-01-10", wantShown: "10/01/2025", wantValue: "2025-01-10"},
		{name: "display date", spec: DateSpec(), value: "10/01/2025", wantShown: "10/01/2025", wantValue: "2025-01-10"},
		{name: "timestamp date", spec: DateSpec(), value: "2025-01-10T00:00:00", wantShown: "10/01/2025", wantValue: "2025-01-10"},
		{name: "time with seconds", spec: TimeSpec(30), value: "08:30:00", wantShown: "08:30", wantValue: "08:30"},
		{name: "empty", spec: TimeSpec(30), value: "", wantShown: "", wantValue: ""},
		{name: "impossible date", spec: DateSpec(), value: "2025-02-31", wantShown: "31/02/2025", wantErr: true},
		{name: "garbage", spec: TimeSpec(30), value: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			f := NewField(tt.spec, Options{OnChange: rec.onChange})
			err := f.SetValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if f.Display() != tt.wantShown {
				t.Errorf("Display() = %q, want %q", f.Display(), tt.wantShown)
			}
			if f.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", f.Value(), tt.wantValue)
			}
			if len(rec.calls) != 0 {
				t.Errorf("SetValue reported %v", rec.calls)
			}
		})
	}
}

func TestOffGridValueIsReported(t *testing.T) {
	rec := &recorder{}
	f := NewField(TimeSpec(30), Options{Value: "08:15", OnChange: rec.onChange})
	if f.Value() != "08:30" {
		t.Errorf("Value() = %q, want 08:30", f.Value())
	}
	if len(rec.calls) != 1 || rec.last() != "08:30" {
		t.Errorf("OnChange calls = %v, want [08:30]", rec.calls)
	}

	if err := f.SetValue("23:50"); err != nil {
		t.Fatalf("SetValue error = %v", err)
	}
	if f.Value() != "23:59" || rec.last() != "23:59" {
		t.Errorf("after clamp: Value()=%q last=%q", f.Value(), rec.last())
	}

	// already on the grid: nothing to report
	if err := f.SetValue("09:00:00"); err != nil {
		t.Fatalf("SetValue error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("on-grid value reported: %v", rec.calls)
	}
}
