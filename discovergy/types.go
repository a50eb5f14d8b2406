package discovergy

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConsumerCredential identifies the calling application. It is issued per
// client name by the consumer_token endpoint.
type ConsumerCredential struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// Token is an OAuth 1.0a token pair, used for both request and access tokens.
type Token struct {
	Token  string
	Secret string
}

// Resolution is the time distance between readings returned by GetReadings.
type Resolution string

// Resolutions accepted by the readings endpoint
const (
	ResolutionRaw            Resolution = "raw"
	ResolutionThreeMinutes   Resolution = "three_minutes"
	ResolutionFifteenMinutes Resolution = "fifteen_minutes"
	ResolutionOneHour        Resolution = "one_hour"
	ResolutionOneDay         Resolution = "one_day"
	ResolutionOneWeek        Resolution = "one_week"
	ResolutionOneMonth       Resolution = "one_month"
	ResolutionOneYear        Resolution = "one_year"
)

// Resolutions lists every resolution the vendor documents, finest first.
var Resolutions = []Resolution{
	ResolutionRaw,
	ResolutionThreeMinutes,
	ResolutionFifteenMinutes,
	ResolutionOneHour,
	ResolutionOneDay,
	ResolutionOneWeek,
	ResolutionOneMonth,
	ResolutionOneYear,
}

// Valid reports whether r is one of the documented resolutions. The client
// never rejects a resolution itself; the API does.
func (r Resolution) Valid() bool {
	for _, known := range Resolutions {
		if r == known {
			return true
		}
	}
	return false
}

func (r Resolution) String() string {
	return string(r)
}

// Meter is a meter record exactly as returned by the API. Numbers are
// json.Number values so no precision is lost.
type Meter map[string]any

// ID returns the meterId field.
func (m Meter) ID() string {
	return stringField(m, "meterId")
}

// SerialNumber returns the fullSerialNumber field, falling back to serialNumber.
func (m Meter) SerialNumber() string {
	if s := stringField(m, "fullSerialNumber"); s != "" {
		return s
	}
	return stringField(m, "serialNumber")
}

// Type returns the meter type, e.g. EASYMETER.
func (m Meter) Type() string {
	return stringField(m, "type")
}

// Location returns the nested location record, or nil if absent.
func (m Meter) Location() map[string]any {
	loc, _ := m["location"].(map[string]any)
	return loc
}

// Field returns any top-level field rendered as a string.
func (m Meter) Field(key string) string {
	return stringField(m, key)
}

// LocationField returns a field of the nested location record.
func (m Meter) LocationField(key string) string {
	return stringField(m.Location(), key)
}

// MeasurementSpan returns firstMeasurementTime and lastMeasurementTime.
// Missing values are returned as the zero time.
func (m Meter) MeasurementSpan() (first, last time.Time) {
	if ms, ok := int64Field(m, "firstMeasurementTime"); ok {
		first = time.UnixMilli(ms)
	}
	if ms, ok := int64Field(m, "lastMeasurementTime"); ok {
		last = time.UnixMilli(ms)
	}
	return first, last
}

// Reading is a single measurement: "time" in epoch milliseconds and "values"
// mapping field names to magnitudes.
type Reading map[string]any

// Time returns the measurement time. ok is false if the field is absent or
// not an integer.
func (r Reading) Time() (t time.Time, ok bool) {
	ms, ok := int64Field(r, "time")
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Values returns the values mapping, or nil if absent.
func (r Reading) Values() map[string]any {
	v, _ := r["values"].(map[string]any)
	return v
}

// Value returns a single named value as json.Number.
func (r Reading) Value(field string) (json.Number, bool) {
	n, ok := r.Values()[field].(json.Number)
	return n, ok
}

// Disaggregation maps a timestamp string to the estimated consumption per
// device in µWh.
type Disaggregation map[string]map[string]any

// Activity is an activity record as returned by the API.
type Activity map[string]any

// DeviceName returns the deviceName field.
func (a Activity) DeviceName() string {
	return stringField(a, "deviceName")
}

// Start returns the startTime field.
func (a Activity) Start() (time.Time, bool) {
	ms, ok := int64Field(a, "startTime")
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// End returns the endTime field.
func (a Activity) End() (time.Time, bool) {
	ms, ok := int64Field(a, "endTime")
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func int64Field(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// epochMillis formats t as the API's from/to parameter.
func epochMillis(t time.Time) string {
	return fmt.Sprintf("%d", t.UnixMilli())
}
