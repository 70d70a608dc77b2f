package observability

import (
	"context"
	"testing"
	"time"
)

func TestNewPipelineMetrics(t *testing.T) {
	m, err := NewPipelineMetrics(Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("expected non-nil metrics")
	}

	// No provider installed: instruments are no-ops and must not panic.
	ctx := context.Background()
	m.RecordBatch(ctx, "src-1", 32, 50*time.Millisecond)
	m.RecordSampleAccepted(ctx, "src-1")
	m.RecordSampleDropped(ctx, "src-1", "rejected")
	m.RecordEviction(ctx, "src-1")
	m.RecordEpoch(ctx, "src-1")
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("train")
	if cfg.PipelineName != "train" {
		t.Errorf("expected pipeline name train, got %q", cfg.PipelineName)
	}
	if cfg.Endpoint == "" {
		t.Error("expected default endpoint")
	}
	if cfg.Interval <= 0 {
		t.Error("expected positive default interval")
	}
}
