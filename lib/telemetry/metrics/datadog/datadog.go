package datadog

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"gopkg.in/yaml.v3"

	"github.com/artie-labs/dimload/lib/environ"
	"github.com/artie-labs/dimload/lib/telemetry/metrics/base"
)

const (
	DefaultNamespace = "dimload."
	// DefaultAddr is where the agent listens on a single host.
	DefaultAddr = "127.0.0.1:8125"

	envTelemetryHost = "TELEMETRY_HOST"
	envTelemetryPort = "TELEMETRY_PORT"
)

type Settings struct {
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
	// Sampling applies to timings only, row and chunk counts are always sent in full.
	Sampling float64 `yaml:"sampling"`
}

// parseSettings decodes the free-form settings of the config file, the YAML decoder hands them over as a map.
func parseSettings(raw map[string]any) (Settings, error) {
	var settings Settings
	if len(raw) > 0 {
		bytes, err := yaml.Marshal(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to encode datadog settings: %w", err)
		}

		if err = yaml.Unmarshal(bytes, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to decode datadog settings: %w", err)
		}
	}

	if settings.Addr == "" {
		settings.Addr = DefaultAddr
	}

	if settings.Namespace == "" {
		settings.Namespace = DefaultNamespace
	}

	if settings.Sampling <= 0 || settings.Sampling > 1 {
		settings.Sampling = 1
	}

	host := environ.GetOrDefault(envTelemetryHost, "")
	port := environ.GetOrDefault(envTelemetryPort, "")
	if host != "" && port != "" {
		settings.Addr = fmt.Sprintf("%s:%s", host, port)
		slog.Info("Overriding telemetry address with env vars", slog.String("address", settings.Addr))
	}

	return settings, nil
}

// NewDatadogClient returns a statsd client that tags every metric with the [destination] being loaded.
func NewDatadogClient(raw map[string]any, destination string) (base.Client, error) {
	settings, err := parseSettings(raw)
	if err != nil {
		return nil, err
	}

	tags := settings.Tags
	if destination != "" {
		tags = append(slices.Clone(tags), "destination:"+destination)
	}

	datadogClient, err := statsd.New(settings.Addr,
		statsd.WithNamespace(settings.Namespace),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, err
	}

	return &statsClient{client: datadogClient, timingRate: settings.Sampling}, nil
}

type statsClient struct {
	client     *statsd.Client
	timingRate float64
}

// toDatadogTags returns key:value tags sorted by key.
func toDatadogTags(tags map[string]string) []string {
	var out []string
	for key, val := range tags {
		out = append(out, fmt.Sprintf("%s:%s", key, val))
	}

	slices.Sort(out)
	return out
}

func (s *statsClient) Timing(name string, value time.Duration, tags map[string]string) {
	_ = s.client.Timing(name, value, toDatadogTags(tags), s.timingRate)
}

func (s *statsClient) Incr(name string, tags map[string]string) {
	_ = s.client.Incr(name, toDatadogTags(tags), 1)
}

func (s *statsClient) Count(name string, value int64, tags map[string]string) {
	_ = s.client.Count(name, value, toDatadogTags(tags), 1)
}

func (s *statsClient) Gauge(name string, value float64, tags map[string]string) {
	_ = s.client.Gauge(name, value, toDatadogTags(tags), 1)
}
