package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	var nilMetrics *Metrics
	for _, m := range []*Metrics{{}, nilMetrics} {
		m.RecordHTTPRequest(ctx, "GET", "/api/events", 200, time.Millisecond)
		m.RecordExternalOperation(ctx, ServiceCalendar, OperationCreate, StatusSuccess, time.Millisecond)
		m.RecordSync(ctx, "create", SyncSynced)
		m.RecordCacheLookup(ctx, "event", CacheHit)
		m.RecordToolInvocation(ctx, "event_get", StatusSuccess, time.Millisecond)
	}
}

func TestMetrics_Record(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	m := provider.Metrics()
	m.RecordHTTPRequest(ctx, "POST", "/api/calendars/{calendarId}/events", 201, 20*time.Millisecond)
	m.RecordExternalOperation(ctx, ServiceStandalone, OperationToken, StatusError, 300*time.Millisecond)
	m.RecordSync(ctx, "update", SyncPending)
	m.RecordCacheLookup(ctx, "calendarEvents", CacheMiss)
	m.RecordToolInvocation(ctx, "calendar_list", StatusSuccess, 5*time.Millisecond)
}

func TestStatusFor(t *testing.T) {
	if StatusFor(nil) != StatusSuccess {
		t.Error("nil error should map to success")
	}
	if StatusFor(errors.New("x")) != StatusError {
		t.Error("non-nil error should map to error")
	}
}
