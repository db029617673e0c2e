package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
var (
	AttrConnection = attribute.Key("leapdb.connection")
	AttrActionType = attribute.Key("leapdb.action.type")
	AttrResult     = attribute.Key("result")
)

// Metrics holds save instruments. It also implements command.ActionListener
// so it can be attached to a command context.
type Metrics struct {
	command.ListenerAdapter

	connection string

	SaveDuration metric.Float64Histogram
	SaveTotal    metric.Int64Counter
	ActionTotal  metric.Int64Counter
}

// NewMetrics creates the save instruments on mp for connection.
func NewMetrics(mp metric.MeterProvider, connection string) (*Metrics, error) {
	meter := mp.Meter("github.com/leapstack-labs/leapdb")

	saveDuration, err := meter.Float64Histogram(
		"leapdb.save.duration",
		metric.WithDescription("Duration of save operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create leapdb.save.duration: %w", err)
	}

	saveTotal, err := meter.Int64Counter(
		"leapdb.save.total",
		metric.WithDescription("Number of save operations"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create leapdb.save.total: %w", err)
	}

	actionTotal, err := meter.Int64Counter(
		"leapdb.action.total",
		metric.WithDescription("Number of executed persist actions"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create leapdb.action.total: %w", err)
	}

	return &Metrics{
		connection:   connection,
		SaveDuration: saveDuration,
		SaveTotal:    saveTotal,
		ActionTotal:  actionTotal,
	}, nil
}

// RecordSave records one save that started at start and ended with err.
func (m *Metrics) RecordSave(ctx context.Context, start time.Time, err error) {
	attrs := metric.WithAttributes(AttrConnection.String(m.connection), AttrResult.String(result(err)))
	m.SaveDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	m.SaveTotal.Add(ctx, 1, attrs)
}

// OnActionExecuted implements command.ActionListener.
func (m *Metrics) OnActionExecuted(_ command.Command, action command.PersistAction, err error) {
	if action.Type == command.ActionComment {
		return
	}
	m.ActionTotal.Add(context.Background(), 1, metric.WithAttributes(
		AttrConnection.String(m.connection),
		AttrActionType.String(action.Type.String()),
		AttrResult.String(result(err)),
	))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
