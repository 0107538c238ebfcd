package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"

	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/slots"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Session  SessionConfig  `yaml:"session"`
	Emulator EmulatorConfig `yaml:"emulator"`
	Debug    bool           `yaml:"debug"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PlantID        int64  `yaml:"plant_id"`
}

type ScheduleConfig struct {
	SlotIntervalMinutes int    `yaml:"slot_interval_minutes"`
	BookingOpen         string `yaml:"booking_open"`
	BookingClose        string `yaml:"booking_close"`
	PickerOpen          string `yaml:"picker_open"`
	PickerClose         string `yaml:"picker_close"`
	Timezone            string `yaml:"timezone"`
}

type SessionConfig struct {
	Backend     string `yaml:"backend"` // "keyring" | "redis" | "memory"
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type EmulatorConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        constants.DefaultBaseURL,
			TimeoutSeconds: constants.DefaultTimeoutSeconds,
		},
		Schedule: ScheduleConfig{
			SlotIntervalMinutes: constants.DefaultSlotIntervalMin,
			BookingOpen:         constants.DefaultBookingOpen,
			BookingClose:        constants.DefaultBookingClose,
			PickerOpen:          constants.DefaultPickerOpen,
			PickerClose:         constants.DefaultPickerClose,
			Timezone:            constants.DefaultTimezone,
		},
		Session: SessionConfig{
			Backend:     constants.DefaultSessionBackend,
			RedisAddr:   constants.DefaultRedisAddr,
			RedisPrefix: constants.DefaultRedisPrefix,
		},
		Emulator: EmulatorConfig{
			Addr:   constants.DefaultEmulatorAddr,
			DBPath: constants.DefaultEmulatorDBPath,
		},
	}
}

// LoadConfig reads filename over the defaults. A missing file yields the
// defaults unchanged.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that the scheduling core depends on.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive, got %d", c.API.TimeoutSeconds)
	}

	iv := c.Schedule.SlotIntervalMinutes
	if iv <= 0 || 60%iv != 0 {
		return fmt.Errorf("schedule.slot_interval_minutes must divide 60, got %d", iv)
	}
	for name, v := range map[string]string{
		"booking_open":  c.Schedule.BookingOpen,
		"booking_close": c.Schedule.BookingClose,
		"picker_open":   c.Schedule.PickerOpen,
		"picker_close":  c.Schedule.PickerClose,
	} {
		t, err := calendar.ParseTime(v)
		if err != nil {
			return fmt.Errorf("schedule.%s: %w", name, err)
		}
		if !t.OnGrid(iv) {
			return fmt.Errorf("schedule.%s %s is not on the %d-minute grid", name, v, iv)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch strings.ToLower(c.Session.Backend) {
	case constants.SessionBackendKeyring, constants.SessionBackendMemory:
	case constants.SessionBackendRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", c.Session.Backend)
	}
	return nil
}

// Location resolves schedule.timezone. "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Schedule.Timezone
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Timeout is the per-request deadline for the appointment service.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// BookingLadder is the slot ladder shown in the week grid.
func (c *Config) BookingLadder() []calendar.TimeOfDay {
	return c.ladder(c.Schedule.BookingOpen, c.Schedule.BookingClose)
}

// PickerLadder is the slot ladder offered by the time picker.
func (c *Config) PickerLadder() []calendar.TimeOfDay {
	return c.ladder(c.Schedule.PickerOpen, c.Schedule.PickerClose)
}

func (c *Config) ladder(from, to string) []calendar.TimeOfDay {
	first, err := calendar.ParseTime(from)
	if err != nil {
		return nil
	}
	last, err := calendar.ParseTime(to)
	if err != nil {
		return nil
	}
	return slots.Ladder(first, last, c.Schedule.SlotIntervalMinutes)
}
