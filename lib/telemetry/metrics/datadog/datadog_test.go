package datadog

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSettings(t *testing.T) {
	t.Setenv(envTelemetryHost, "")
	t.Setenv(envTelemetryPort, "")
	{
		// Defaults
		settings, err := parseSettings(nil)
		assert.NoError(t, err)
		assert.Equal(t, Settings{Addr: DefaultAddr, Namespace: DefaultNamespace, Sampling: 1}, settings)
	}
	{
		// From the config file
		settings, err := parseSettings(map[string]any{
			"addr":      "agent:8125",
			"namespace": "timesheets.",
			"tags":      []any{"env:production", "team:people"},
			"sampling":  0.25,
		})
		assert.NoError(t, err)
		assert.Equal(t, Settings{Addr: "agent:8125", Namespace: "timesheets.", Tags: []string{"env:production", "team:people"}, Sampling: 0.25}, settings)
	}
	{
		// Out of range sampling
		for _, sampling := range []float64{0, -0.5, 1.25} {
			settings, err := parseSettings(map[string]any{"sampling": sampling})
			assert.NoError(t, err)
			assert.Equal(t, float64(1), settings.Sampling)
		}
	}
	{
		// Wrong shape
		_, err := parseSettings(map[string]any{"tags": map[string]any{"env": "production"}})
		assert.ErrorContains(t, err, "failed to decode datadog settings")
	}
	{
		// Environment overrides the address
		t.Setenv(envTelemetryHost, "statsd.internal")
		t.Setenv(envTelemetryPort, "9125")
		settings, err := parseSettings(map[string]any{"addr": "agent:8125"})
		assert.NoError(t, err)
		assert.Equal(t, "statsd.internal:9125", settings.Addr)
	}
}

func TestToDatadogTags(t *testing.T) {
	assert.Nil(t, toDatadogTags(nil))
	assert.Equal(t, []string{"state:committed", "table:dim_date"}, toDatadogTags(map[string]string{"table": "dim_date", "state": "committed"}))
}

func TestNewDatadogClient(t *testing.T) {
	t.Setenv(envTelemetryHost, "")
	t.Setenv(envTelemetryPort, "")

	client, err := NewDatadogClient(map[string]any{
		"tags":      []string{"env:production"},
		"namespace": "dimload.test.",
		"sampling":  0.255,
	}, "postgres")

	assert.NoError(t, err)
	mtr, ok := client.(*statsClient)
	assert.True(t, ok)
	assert.Equal(t, 0.255, mtr.timingRate)

	clientValue := reflect.ValueOf(mtr.client).Elem()
	assert.Equal(t, "dimload.test.", clientValue.FieldByName("namespace").String())
	tagsField := clientValue.FieldByName("tags")
	assert.Equal(t, 2, tagsField.Len())
	assert.Equal(t, "env:production", tagsField.Index(0).String())
	assert.Equal(t, "destination:postgres", tagsField.Index(1).String())
}
