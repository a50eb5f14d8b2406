package discovergy

import (
	"context"
	"net/url"
	"time"
)

// GetMeters retrieves all meters of the logged in account
func (c *Client) GetMeters(ctx context.Context) ([]Meter, error) {
	var meters []Meter
	if err := c.getJSON(ctx, "meters", "/meters", nil, &meters); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(meters)).Msg("Retrieved meters from Discovergy")
	return meters, nil
}

// GetFieldNames retrieves the measurement field names available for a meter
func (c *Client) GetFieldNames(ctx context.Context, meterID string) ([]string, error) {
	var fields []string
	if err := c.getJSON(ctx, "field_names", "/field_names", meterParams(meterID), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetLastReading retrieves the most recent measurement of a meter. Energy
// values are in mWh and power values in mW.
func (c *Client) GetLastReading(ctx context.Context, meterID string) (Reading, error) {
	var reading Reading
	if err := c.getJSON(ctx, "last_reading", "/last_reading", meterParams(meterID), &reading); err != nil {
		return nil, err
	}
	return reading, nil
}

// GetDisaggregation retrieves the per-device consumption of a meter in µWh,
// starting at start. A zero end means up to now.
func (c *Client) GetDisaggregation(ctx context.Context, meterID string, start, end time.Time) (Disaggregation, error) {
	var d Disaggregation
	if err := c.getJSON(ctx, "disaggregation", "/disaggregation", windowParams(meterID, start, end), &d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetReadings retrieves the measurements of a meter between start and end
// at the given resolution. A zero end means up to now. The resolution is
// passed through unchecked.
func (c *Client) GetReadings(ctx context.Context, meterID string, start, end time.Time, resolution Resolution) ([]Reading, error) {
	params := windowParams(meterID, start, end)
	params.Set("resolution", string(resolution))

	var readings []Reading
	if err := c.getJSON(ctx, "readings", "/readings", params, &readings); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("meter_id", meterID).
		Str("resolution", string(resolution)).
		Int("count", len(readings)).
		Msg("Retrieved readings from Discovergy")
	return readings, nil
}

// GetActivities retrieves the activities recognised for a meter between
// start and end.
//
// The request goes to the readings path without a resolution, which is the
// observed vendor behavior; records are returned as delivered.
func (c *Client) GetActivities(ctx context.Context, meterID string, start, end time.Time) ([]Activity, error) {
	var activities []Activity
	if err := c.getJSON(ctx, "activities", "/readings", windowParams(meterID, start, end), &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func meterParams(meterID string) url.Values {
	params := url.Values{}
	params.Set("meterId", meterID)
	return params
}

func windowParams(meterID string, start, end time.Time) url.Values {
	params := meterParams(meterID)
	params.Set("from", epochMillis(start))
	if !end.IsZero() {
		params.Set("to", epochMillis(end))
	}
	return params
}
