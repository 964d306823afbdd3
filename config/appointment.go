package config

import (
	"os"
	"strconv"
	"strings"
)

// AppointmentConfig carries the fixed slot list and the per-slot capacity.
// It is built once at startup and handed to the appointment service instead
// of living as ambient global state.
type AppointmentConfig struct {
	// Times are the bookable "HH:MM" values, in display order.
	Times []string
	// Capacity is the maximum number of appointments per (date, time) pair.
	Capacity int
}

var defaultTimes = []string{
	"07:30", "08:00", "08:30", "09:00", "09:30", "10:00",
	"10:30", "11:00", "11:30", "12:00", "12:30", "13:00",
	"13:30", "14:00", "14:30", "15:00", "15:30", "16:00",
	"16:30", "17:00",
}

const defaultCapacity = 10

// LoadAppointmentConfig reads APPOINTMENT_TIMES (comma-separated "HH:MM"
// values) and SLOT_CAPACITY from the environment, falling back to the fixed
// 07:30–17:00 half-hour grid with 10 seats per slot.
func LoadAppointmentConfig() AppointmentConfig {
	cfg := AppointmentConfig{
		Times:    append([]string(nil), defaultTimes...),
		Capacity: defaultCapacity,
	}

	if raw := strings.TrimSpace(os.Getenv("APPOINTMENT_TIMES")); raw != "" {
		times := make([]string, 0, len(cfg.Times))
		for _, part := range strings.Split(raw, ",") {
			if t := strings.TrimSpace(part); t != "" {
				times = append(times, t)
			}
		}
		if len(times) > 0 {
			cfg.Times = times
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SLOT_CAPACITY")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Capacity = n
		}
	}

	return cfg
}

// HasTime reports whether hora is one of the configured slots.
func (c AppointmentConfig) HasTime(hora string) bool {
	for _, t := range c.Times {
		if t == hora {
			return true
		}
	}
	return false
}
