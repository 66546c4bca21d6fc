package admission

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/registry"
	"github.com/tokenops/quotaguard/internal/metrics"
)

func TestInstrumented_RequestPassesThroughAndCounts(t *testing.T) {
	store := newMockStore(freshRecord())
	svc := NewInstrumented(New(store), zap.NewNop())

	before := testutil.ToFloat64(
		metrics.AdmissionDecisionsTotal.WithLabelValues("admitted", "tokens_250k"))

	d, err := svc.Request(context.Background(), "gpt-5.1", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Outcome() != domadm.OutcomeAdmitted {
		t.Fatalf("outcome = %s, want admitted", d.Outcome())
	}

	after := testutil.ToFloat64(
		metrics.AdmissionDecisionsTotal.WithLabelValues("admitted", "tokens_250k"))
	if after != before+1 {
		t.Errorf("decision counter = %f, want %f", after, before+1)
	}

	gauge := testutil.ToFloat64(
		metrics.BucketTokensRemaining.WithLabelValues(string(registry.BucketTokens250K)))
	if gauge != 249_900 {
		t.Errorf("remaining gauge = %f, want 249900", gauge)
	}
}

func TestInstrumented_DenialCountsWithEmptyBucket(t *testing.T) {
	store := newMockStore(freshRecord())
	svc := NewInstrumented(New(store), zap.NewNop())

	before := testutil.ToFloat64(
		metrics.AdmissionDecisionsTotal.WithLabelValues("denied_unknown_model", ""))

	d, err := svc.Request(context.Background(), "gpt-9000", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Outcome() != domadm.OutcomeDeniedUnknownModel {
		t.Fatalf("outcome = %s", d.Outcome())
	}

	after := testutil.ToFloat64(
		metrics.AdmissionDecisionsTotal.WithLabelValues("denied_unknown_model", ""))
	if after != before+1 {
		t.Errorf("denial counter = %f, want %f", after, before+1)
	}
}

func TestInstrumented_StatusSyncsGauges(t *testing.T) {
	store := newMockStore(freshRecord())
	svc := NewInstrumented(New(store), zap.NewNop())

	if _, err := svc.SetPlanTokens(context.Background(), 1234); err != nil {
		t.Fatal(err)
	}
	svc.Status(context.Background())

	plan := testutil.ToFloat64(metrics.PlanTokensRemaining)
	if plan != 1234 {
		t.Errorf("plan gauge = %f, want 1234", plan)
	}
}

func TestInstrumented_PersistErrorPropagates(t *testing.T) {
	store := newMockStore(freshRecord())
	store.saveErr = errors.New("disk full")
	svc := NewInstrumented(New(store), zap.NewNop())

	if _, err := svc.Request(context.Background(), "gpt-5.1", 100); err == nil {
		t.Fatal("expected persist error")
	}
	if _, err := svc.ResetBuckets(context.Background()); err == nil {
		t.Fatal("expected persist error")
	}
}
