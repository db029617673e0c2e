package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInit_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "disabled", cfg: Config{}},
		{name: "none", cfg: Config{Exporter: "none"}},
		{name: "otlp without endpoint", cfg: Config{Exporter: "otlp"}, wantErr: "requires an endpoint"},
		{name: "unknown", cfg: Config{Exporter: "zipkin"}, wantErr: `unknown telemetry exporter "zipkin"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Init(context.Background(), tt.cfg, &bytes.Buffer{})
			require.NotNil(t, shutdown)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestInit_Stdout(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	ctx := context.Background()
	var buf bytes.Buffer
	shutdown, err := Init(ctx, Config{Exporter: "stdout"}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "command.SaveChanges")
	span.End()
	require.NoError(t, shutdown(ctx))

	assert.Contains(t, buf.String(), "command.SaveChanges")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		https    bool
	}{
		{"http://collector:4318", "collector:4318", false},
		{"https://collector.example.com", "collector.example.com", true},
		{"collector:4318", "collector:4318", false},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, hostPort(tt.endpoint))
			assert.Equal(t, tt.https, isHTTPS(tt.endpoint))
		})
	}
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp, "dev")
	require.NoError(t, err)

	var _ command.ActionListener = m

	m.OnActionExecuted(nil, command.NewAction("Create", "CREATE TABLE t (id INT)"), nil)
	m.OnActionExecuted(nil, command.NewAction("Drop", "DROP TABLE u"), errors.New("boom"))
	m.OnActionExecuted(nil, command.NewCommentAction("Note", "-- note"), nil)
	m.RecordSave(context.Background(), time.Now().Add(-time.Second), nil)

	got := collect(t, reader)

	actions, ok := got["leapdb.action.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range actions.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, actions.DataPoints, 2)

	saves, ok := got["leapdb.save.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, saves.DataPoints, 1)
	assert.Equal(t, int64(1), saves.DataPoints[0].Value)
	res, _ := saves.DataPoints[0].Attributes.Value(AttrResult)
	assert.Equal(t, "ok", res.AsString())

	duration, ok := got["leapdb.save.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.GreaterOrEqual(t, duration.DataPoints[0].Sum, 1.0)
}
