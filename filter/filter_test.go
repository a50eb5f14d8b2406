package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/discovergy/discovergy"
)

func testMeters() []discovergy.Meter {
	recent := json.Number(fmt.Sprint(time.Now().Add(-2 * time.Hour).UnixMilli()))
	stale := json.Number(fmt.Sprint(time.Now().AddDate(0, -3, 0).UnixMilli()))

	return []discovergy.Meter{
		{
			"meterId":             "m1",
			"type":                "EASYMETER",
			"measurementType":     "ELECTRICITY",
			"fullSerialNumber":    "1ESY1160031234",
			"location":            map[string]any{"city": "Aachen", "zip": "52062"},
			"lastMeasurementTime": recent,
		},
		{
			"meterId":             "m2",
			"type":                "ELSTER",
			"measurementType":     "GAS",
			"location":            map[string]any{"city": "Köln"},
			"lastMeasurementTime": stale,
		},
		{
			"meterId":         "m3",
			"type":            "EASYMETER",
			"measurementType": "ELECTRICITY",
		},
	}
}

func meterIDs(meters []discovergy.Meter) []string {
	ids := make([]string, 0, len(meters))
	for _, m := range meters {
		ids = append(ids, m.ID())
	}
	return ids
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `Type == "EASYMETER"`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `Type == "unclosed`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `MeterID`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `MeasurementType == "ELECTRICITY" and City in ["Aachen", "Köln"] and daysSince(LastMeasurement) < 7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, tt.expression, f.Expression())
		})
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       []string
	}{
		{name: "by type", expression: `Type == "EASYMETER"`, want: []string{"m1", "m3"}},
		{name: "by location", expression: `City == "Köln"`, want: []string{"m2"}},
		{name: "recently active", expression: `hasField("lastMeasurementTime") and daysSince(LastMeasurement) < 7`, want: []string{"m1"}},
		{name: "raw field access", expression: `field("fullSerialNumber") startsWith "1ESY"`, want: []string{"m1"}},
		{name: "case insensitive helper", expression: `icontains(MeasurementType, "gas")`, want: []string{"m2"}},
		{name: "nested meter map", expression: `Meter.location?.zip == "52062"`, want: []string{"m1"}},
		{name: "no match", expression: `Type == "LANDIS"`, want: []string{}},
		{name: "blank matches all", expression: "", want: []string{"m1", "m2", "m3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.expression)
			require.NoError(t, err)

			selected, err := Select(f, testMeters())
			require.NoError(t, err)
			assert.Equal(t, tt.want, meterIDs(selected))
		})
	}
}

func TestEvaluationError(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"explode": func(id string) (bool, error) {
			return false, errors.New("boom " + id)
		},
	}))

	f, err := compiler.Compile(`explode(MeterID)`)
	require.NoError(t, err)

	_, err = Select(f, testMeters())
	require.Error(t, err)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "m1", evalErr.MeterID)
	assert.Contains(t, err.Error(), "boom m1")
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`Type == "A"`)
	require.NoError(t, err)
	again, err := compiler.Compile(` Type == "A" `)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, compiler.Size())

	_, err = compiler.Compile(`Type == "B"`)
	require.NoError(t, err)
	_, err = compiler.Compile(`Type == "C"`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	evicted, err := compiler.Compile(`Type == "A"`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())

	uncached := NewExprCompiler(WithCache(0))
	_, err = uncached.Compile(`Type == "A"`)
	require.NoError(t, err)
	assert.Equal(t, 0, uncached.Size())
}

func TestLRUCache(t *testing.T) {
	c := newLRUCache[int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// touch a so b is evicted next
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Put("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, c.Len())
}
