package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments. It is constructed
// once at startup and injected into the services that record to it.
type AppMetrics struct {
	RegisterRequestsTotal metric.Int64Counter
	LoginRequestsTotal    metric.Int64Counter
	AuthFailuresTotal     metric.Int64Counter
	TokenRefreshesTotal   metric.Int64Counter
	DbQueryDurationSecs   metric.Float64Histogram
}

// New creates the metric instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error

	m.RegisterRequestsTotal, err = meter.Int64Counter(
		"register_requests_total",
		metric.WithDescription("Total number of register requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create register_requests_total: %w", err)
	}

	m.LoginRequestsTotal, err = meter.Int64Counter(
		"login_requests_total",
		metric.WithDescription("Total number of login requests completed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create login_requests_total: %w", err)
	}

	m.AuthFailuresTotal, err = meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of failed authentication attempts"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create auth_failures_total: %w", err)
	}

	m.TokenRefreshesTotal, err = meter.Int64Counter(
		"token_refreshes_total",
		metric.WithDescription("Total number of refresh-token exchanges"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create token_refreshes_total: %w", err)
	}

	m.DbQueryDurationSecs, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration_seconds: %w", err)
	}

	return m, nil
}

// ObserveDBQuery records the elapsed time of a single database query under a
// query name label. Intended to be deferred at the top of repository methods:
//
//	defer r.metrics.ObserveDBQuery(ctx, "create_user", time.Now())
func (m *AppMetrics) ObserveDBQuery(ctx context.Context, query string, start time.Time) {
	m.DbQueryDurationSecs.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", query)))
}
