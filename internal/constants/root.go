package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName           = "dockbook"
	Version           = "v0.3.0"
	DefaultConfigPath = "~/.config/dockbook/config.yaml"

	// DateFormat is the wire date format exchanged with the appointment service (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DisplayDateFormat is the date format shown to operators (DD/MM/YYYY)
	DisplayDateFormat = "02/01/2006"

	// TimeFormat is the wire time format (HH:MM)
	TimeFormat = "15:04"

	// Keyring constants
	KeyringTokenUser   = "session-token"
	KeyringProfileUser = "session-profile"

	// HTTP constants
	DefaultRequestTimeout = 10 * time.Second
	RequestIDHeader       = "X-Request-ID"

	// Session States
	StateWeek SessionState = iota
	StateEditing
	StateReason
	StateConfirmCancel
	StateJump
)
