package constants

const (
	// Schedule defaults
	DefaultSlotIntervalMin = 30
	DefaultBookingOpen     = "08:00"
	DefaultBookingClose    = "17:00"
	DefaultPickerOpen      = "08:00"
	DefaultPickerClose     = "18:00"
	DefaultTimezone        = "Local" // Use system local timezone by default

	// Date entry bounds
	MinYear = 1900
	MaxYear = 2100

	// API defaults
	DefaultBaseURL        = "http://localhost:5000/api"
	DefaultTimeoutSeconds = 10

	// Session defaults
	SessionBackendKeyring = "keyring"
	SessionBackendRedis   = "redis"
	SessionBackendMemory  = "memory"
	DefaultSessionBackend = SessionBackendKeyring
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPrefix    = "dockbook:session:"

	// Emulator defaults
	DefaultEmulatorAddr   = ":5000"
	DefaultEmulatorDBPath = ":memory:"
)
