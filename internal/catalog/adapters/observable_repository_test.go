package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/storefront/internal/catalog/adapters/memory"
	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/dejobratic/storefront/internal/database"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type failingRepository struct {
	*memory.Repository
}

func (failingRepository) Delete(context.Context, string) error {
	return errors.New("connection reset")
}

func TestObservableRepository(t *testing.T) {
	spans := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans)))
	t.Cleanup(func() { otel.SetTracerProvider(tracenoop.NewTracerProvider()) })

	reader := sdkmetric.NewManualReader()
	metrics, err := database.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	repo := NewObservableRepository(failingRepository{memory.NewRepository()}, metrics)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.Product{ID: "p-1", Name: "Hat"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "p-1"); err == nil {
		t.Fatal("expected delete error")
	}

	ended := spans.GetSpans()
	if len(ended) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(ended))
	}
	wantStatus := []codes.Code{codes.Ok, codes.Ok, codes.Error}
	for i, span := range ended {
		if span.Status.Code != wantStatus[i] {
			t.Errorf("span %s: expected status %v, got %v", span.Name, wantStatus[i], span.Status.Code)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var errorCount int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db_query_errors_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				errorCount += dp.Value
			}
		}
	}
	if errorCount != 1 {
		t.Errorf("expected exactly the failed delete to count as an error, got %d", errorCount)
	}
}
