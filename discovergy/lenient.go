package discovergy

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Lenient wraps a Client and never returns errors: failed reads yield empty
// results and are logged, Login reports success as a bool.
type Lenient struct {
	client *Client
	logger zerolog.Logger
}

// NewLenient creates a fail-soft view of client that logs to logger.
func NewLenient(client *Client, logger zerolog.Logger) *Lenient {
	return &Lenient{client: client, logger: logger}
}

// Client returns the wrapped client.
func (l *Lenient) Client() *Client {
	return l.client
}

// Login reports whether the handshake succeeded.
func (l *Lenient) Login(ctx context.Context, email, password string) bool {
	if err := l.client.Login(ctx, email, password); err != nil {
		l.warn("login", err)
		return false
	}
	return true
}

// GetMeters returns all meters, or an empty slice on failure.
func (l *Lenient) GetMeters(ctx context.Context) []Meter {
	meters, err := l.client.GetMeters(ctx)
	if err != nil {
		l.warn("meters", err)
		return []Meter{}
	}
	return meters
}

// GetFieldNames returns the field names of a meter, or an empty slice on failure.
func (l *Lenient) GetFieldNames(ctx context.Context, meterID string) []string {
	fields, err := l.client.GetFieldNames(ctx, meterID)
	if err != nil {
		l.warn("field_names", err)
		return []string{}
	}
	return fields
}

// GetLastReading returns the last reading of a meter, or an empty record on failure.
func (l *Lenient) GetLastReading(ctx context.Context, meterID string) Reading {
	reading, err := l.client.GetLastReading(ctx, meterID)
	if err != nil {
		l.warn("last_reading", err)
		return Reading{}
	}
	return reading
}

// GetDisaggregation returns the disaggregation of a meter, or an empty map on failure.
func (l *Lenient) GetDisaggregation(ctx context.Context, meterID string, start, end time.Time) Disaggregation {
	d, err := l.client.GetDisaggregation(ctx, meterID, start, end)
	if err != nil {
		l.warn("disaggregation", err)
		return Disaggregation{}
	}
	return d
}

// GetReadings returns readings of a meter, or an empty slice on failure.
func (l *Lenient) GetReadings(ctx context.Context, meterID string, start, end time.Time, resolution Resolution) []Reading {
	readings, err := l.client.GetReadings(ctx, meterID, start, end, resolution)
	if err != nil {
		l.warn("readings", err)
		return []Reading{}
	}
	return readings
}

// GetActivities returns activities of a meter, or an empty slice on failure.
func (l *Lenient) GetActivities(ctx context.Context, meterID string, start, end time.Time) []Activity {
	activities, err := l.client.GetActivities(ctx, meterID, start, end)
	if err != nil {
		l.warn("activities", err)
		return []Activity{}
	}
	return activities
}

func (l *Lenient) warn(op string, err error) {
	l.logger.Error().Err(err).Str("op", op).Msg("Discovergy call failed, returning empty result")
}
