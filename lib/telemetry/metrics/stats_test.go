package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/config/constants"
)

func TestExporterKindValid(t *testing.T) {
	assert.True(t, exporterKindValid(constants.Datadog))
	assert.False(t, exporterKindValid(constants.ExporterKind("honeycomb.io")))
	assert.False(t, exporterKindValid(""))
}

func TestLoadExporter(t *testing.T) {
	{
		// No provider
		assert.Equal(t, NullMetricsProvider{}, LoadExporter(config.Config{}))
	}
	{
		// Datadog
		var cfg config.Config
		cfg.Telemetry.Metrics.Provider = constants.Datadog
		cfg.Telemetry.Metrics.Settings = map[string]any{"namespace": "dimload.test."}
		_, isNull := LoadExporter(cfg).(NullMetricsProvider)
		assert.False(t, isNull)
	}
	{
		// Invalid provider
		var cfg config.Config
		cfg.Telemetry.Metrics.Provider = "invalid"
		assert.Equal(t, NullMetricsProvider{}, LoadExporter(cfg))
	}
}
