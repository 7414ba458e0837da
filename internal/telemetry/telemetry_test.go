package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLoggerDiscardsEverything(t *testing.T) {
	log := Nop()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		log.Debug(ctx, "x")
		log.Info(ctx, "x")
		log.Warn(ctx, "x")
		log.Error(ctx, "x")
		log.With("k", "v").Info(ctx, "x")
	})
}

func TestSlogLoggerWritesStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	log := NewSlog(base)

	log.Info(context.Background(), "resolved package", "id", "acme/core")

	out := buf.String()
	assert.Contains(t, out, "resolved package")
	assert.Contains(t, out, "id=acme/core")
}

func TestSlogLoggerWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	log := NewSlog(base).With("component", "resolver")

	log.Warn(context.Background(), "conflict detected")

	assert.Contains(t, buf.String(), "component=resolver")
}

func TestSlogLoggerDefaultsWhenNil(t *testing.T) {
	log := NewSlog(nil)
	assert.NotPanics(t, func() { log.Info(context.Background(), "x") })
}

func TestLogrusSinkWritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	log := NewLogrus(base)
	log.Info(context.Background(), "install finished", "package", "acme/core")

	assert.Contains(t, buf.String(), "install finished")
	assert.Contains(t, buf.String(), "package=acme/core")
}

func TestLogrusSinkWithChainsFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableColors: true})

	log := NewLogrus(base).With("job", "install")
	log.Error(context.Background(), "failed")

	assert.Contains(t, buf.String(), "job=install")
}

func TestNewMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.CacheHits.WithLabelValues("blob", "memory").Inc()
	m.BytesStored.Add(1024)
	m.FetchDuration.Observe(0.25)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetricsPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
