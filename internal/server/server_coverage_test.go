package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/preston-bernstein/homefeed-service/internal/config"
	"github.com/preston-bernstein/homefeed-service/internal/metrics"
)

// metricsSetupSuccess allows us to force a handler to test buildMetrics success path.
func metricsSetupSuccess(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
	rec := metrics.NewRecorder()
	return rec, http.NewServeMux(), func(context.Context) error { return nil }, nil
}

func TestBuildMetricsSuccessPathSetsServerAndShutdown(t *testing.T) {
	orig := metricsSetup
	defer func() { metricsSetup = orig }()
	metricsSetup = metricsSetupSuccess

	rec, srv, stop := buildMetrics(config.Config{
		Metrics: config.MetricsConfig{
			Enabled: true,
			Port:    "9999",
		},
	}, nil, nil)

	if rec == nil || srv == nil || stop == nil {
		t.Fatalf("expected recorder, server, and shutdown to be set on success")
	}
	if srv.Addr() != ":9999" {
		t.Fatalf("expected metrics addr :9999, got %s", srv.Addr())
	}
}

func TestBuildTracingDefaultsServiceName(t *testing.T) {
	orig := tracingSetup
	defer func() { tracingSetup = orig }()
	var gotName string
	tracingSetup = func(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
		gotName = serviceName
		return func(context.Context) error { return nil }, nil
	}

	if stop := buildTracing(config.Config{}, nil); stop == nil {
		t.Fatalf("expected tracing shutdown")
	}
	if gotName != "homefeed-service" {
		t.Fatalf("expected default service name, got %q", gotName)
	}
}
