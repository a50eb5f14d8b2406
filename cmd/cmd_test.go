package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/discovergy/config"
	"github.com/s0up4200/discovergy/discovergy"
)

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2019, 11, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", value: "", want: time.Time{}},
		{name: "now", value: "now", want: now},
		{name: "epoch millis", value: "1574243404449", want: time.UnixMilli(1574243404449)},
		{name: "duration ago", value: "24h", want: now.Add(-24 * time.Hour)},
		{name: "negative duration", value: "-90m", want: now.Add(-90 * time.Minute)},
		{name: "rfc3339", value: "2019-11-20T09:30:00Z", want: time.Date(2019, 11, 20, 9, 30, 0, 0, time.UTC)},
		{name: "date and minutes", value: "2019-11-20T09:30", want: time.Date(2019, 11, 20, 9, 30, 0, 0, time.UTC)},
		{name: "date", value: "2019-11-19", want: time.Date(2019, 11, 19, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimeFlag(tt.value, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid time")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestTimeWindow(t *testing.T) {
	now := time.Date(2019, 11, 20, 10, 0, 0, 0, time.UTC)
	t.Cleanup(func() { fromFlag, toFlag = "", "" })

	fromFlag, toFlag = "2h", ""
	start, end, err := timeWindow(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), start)
	assert.True(t, end.IsZero())

	fromFlag, toFlag = "1h", "2h"
	_, _, err = timeWindow(now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before --from")

	fromFlag, toFlag = "", "now"
	_, _, err = timeWindow(now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from is required")
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := setupLogger(config.LoggingConfig{Level: tt.level, Format: "json"}, &buf)
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		l := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
		l.Info().Str("meter_id", "m1").Msg("hello")
		l.Debug().Msg("hidden")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["message"])
		assert.Equal(t, "m1", line["meter_id"])
	})

	t.Run("console output without tty has no color", func(t *testing.T) {
		var buf bytes.Buffer
		l := setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true}, &buf)
		l.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	assert.False(t, colorEnabled(false, nil))
	assert.False(t, colorEnabled(true, &bytes.Buffer{}))
}

func TestGetFilterExpression(t *testing.T) {
	t.Cleanup(func() { cfg, filterExpr, preset = nil, "", "" })
	cfg = &config.Config{Filter: config.FilterConfig{
		DefaultExpression: `Type == "EASYMETER"`,
		Presets:           map[string]string{"gas": `MeasurementType == "GAS"`},
	}}

	tests := []struct {
		name    string
		filter  string
		preset  string
		want    string
		wantErr bool
	}{
		{name: "default", want: `Type == "EASYMETER"`},
		{name: "flag wins", filter: `City == "Aachen"`, preset: "gas", want: `City == "Aachen"`},
		{name: "preset", preset: "gas", want: `MeasurementType == "GAS"`},
		{name: "preset is case insensitive", preset: "GAS", want: `MeasurementType == "GAS"`},
		{name: "unknown preset", preset: "water", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filterExpr, preset = tt.filter, tt.preset
			got, err := getFilterExpression()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakeAPI serves last readings from a map and records concurrency
type fakeAPI struct {
	discovergy.API

	readings map[string]discovergy.Reading
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAPI) GetLastReading(ctx context.Context, meterID string) (discovergy.Reading, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	r, ok := f.readings[meterID]
	if !ok {
		return nil, &discovergy.APIError{Op: "last_reading", StatusCode: 404, Message: "Not Found"}
	}
	return r, nil
}

func TestCollectSnapshot(t *testing.T) {
	api := &fakeAPI{readings: map[string]discovergy.Reading{
		"m1": {"time": json.Number("1574243404449"), "values": map[string]any{"power": json.Number("5861890")}},
		"m2": {"time": json.Number("1574243404449"), "values": map[string]any{"power": json.Number("10")}},
		"m4": {"time": json.Number("1574243404449"), "values": map[string]any{}},
	}}
	meters := []discovergy.Meter{
		{"meterId": "m1", "type": "EASYMETER"},
		{"meterId": "m2", "type": "EASYMETER"},
		{"meterId": "m3", "type": "ELSTER"},
		{"meterId": "m4", "type": "EASYMETER"},
	}

	var logs bytes.Buffer
	entries, err := collectSnapshot(t.Context(), api, meters, 2, zerolog.New(&logs))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for i, m := range meters {
		assert.Equal(t, m.ID(), entries[i].MeterID)
	}
	assert.Equal(t, json.Number("5861890"), entries[0].Reading.Values()["power"])
	assert.Empty(t, entries[0].Error)
	assert.Contains(t, entries[2].Error, "status 404")
	assert.Nil(t, entries[2].Reading)
	assert.Contains(t, logs.String(), `"meter_id":"m3"`)
	assert.LessOrEqual(t, api.peak.Load(), int32(2))

	t.Run("no meters", func(t *testing.T) {
		entries, err := collectSnapshot(t.Context(), api, nil, 4, zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		cancelled := &cancelledAPI{}
		_, err := collectSnapshot(ctx, cancelled, meters, 1, zerolog.Nop())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type cancelledAPI struct {
	discovergy.API
}

func (cancelledAPI) GetLastReading(ctx context.Context, meterID string) (discovergy.Reading, error) {
	return nil, errors.Join(ctx.Err(), errors.New("request aborted"))
}

func TestReleaseVersion(t *testing.T) {
	v, err := releaseVersion("v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	_, err = releaseVersion("dev")
	assert.ErrorContains(t, err, "development builds")

	_, err = releaseVersion("not-a-version")
	assert.ErrorContains(t, err, "invalid version")
}

func TestVersionCommand(t *testing.T) {
	t.Cleanup(func() { SetVersion("dev", "unknown") })
	SetVersion("1.0.0", "2019-11-20")

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "discovergy 1.0.0 (built 2019-11-20)\n", out.String())
}
