package admission

import (
	"context"

	"go.uber.org/zap"

	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/quota"
	"github.com/tokenops/quotaguard/internal/domain/registry"
	"github.com/tokenops/quotaguard/internal/metrics"
)

// Instrumented wraps Service with Prometheus metrics and decision
// logging for the serve surface. One-shot CLI invocations use the plain
// Service and skip metric registration entirely.
type Instrumented struct {
	inner  *Service
	logger *zap.Logger
}

// NewInstrumented wraps an admission service with observability.
func NewInstrumented(inner *Service, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: inner, logger: logger}
}

// Request delegates to the inner service and records the decision.
func (i *Instrumented) Request(ctx context.Context, model string, tokens int64) (domadm.Decision, error) {
	d, err := i.inner.Request(ctx, model, tokens)
	if err != nil {
		i.logger.Error("Admission persist failed",
			zap.String("model", model),
			zap.Int64("tokens", tokens),
			zap.Error(err),
		)
		return domadm.Decision{}, err
	}

	metrics.AdmissionDecisionsTotal.WithLabelValues(string(d.Outcome()), string(d.Bucket())).Inc()
	if d.Admitted() {
		metrics.AdmissionTokensTotal.WithLabelValues(string(d.Bucket())).Add(float64(d.Tokens()))
		metrics.BucketTokensRemaining.WithLabelValues(string(d.Bucket())).Set(float64(d.Remaining()))
	}

	i.logger.Debug("Admission decision",
		zap.String("model", d.Model()),
		zap.String("outcome", string(d.Outcome())),
		zap.String("bucket", string(d.Bucket())),
		zap.Int64("tokens", tokens),
		zap.Int64("remaining", d.Remaining()),
	)
	return d, nil
}

// Status delegates and syncs the remaining-token gauges from the record.
func (i *Instrumented) Status(ctx context.Context) (quota.Record, quota.Origin) {
	rec, origin := i.inner.Status(ctx)
	i.syncGauges(rec)
	return rec, origin
}

// SetPlanTokens delegates and updates the plan gauge.
func (i *Instrumented) SetPlanTokens(ctx context.Context, tokens int64) (quota.Record, error) {
	rec, err := i.inner.SetPlanTokens(ctx, tokens)
	if err != nil {
		return quota.Record{}, err
	}
	i.syncGauges(rec)
	i.logger.Info("Plan tokens updated", zap.Int64("plan_tokens_left", rec.PlanTokensLeft()))
	return rec, nil
}

// ResetBuckets delegates and syncs the remaining-token gauges.
func (i *Instrumented) ResetBuckets(ctx context.Context) (quota.Record, error) {
	rec, err := i.inner.ResetBuckets(ctx)
	if err != nil {
		return quota.Record{}, err
	}
	i.syncGauges(rec)
	i.logger.Info("Buckets reset to daily limits")
	return rec, nil
}

func (i *Instrumented) syncGauges(rec quota.Record) {
	for _, b := range registry.Buckets() {
		metrics.BucketTokensRemaining.WithLabelValues(string(b)).Set(float64(rec.Remaining(b)))
	}
	metrics.PlanTokensRemaining.Set(float64(rec.PlanTokensLeft()))
}
