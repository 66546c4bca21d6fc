// Package admission implements the decision engine that gates access to
// the privileged credential against the daily quota state.
package admission

import (
	"context"
	"fmt"
	"sync"

	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/quota"
	"github.com/tokenops/quotaguard/internal/domain/registry"
)

// Service makes admission decisions and maintains the quota record.
// Operations are serialized in-process; separate processes racing on
// the same state file are out of scope.
type Service struct {
	mu    sync.Mutex
	store StateStore
}

// New creates an admission service.
func New(store StateStore) *Service {
	return &Service{store: store}
}

// Request runs the admission checks for one upstream call, in fixed
// order: plan allowance, model recognition, cost validity, bucket
// balance. Exactly one decision is returned; only an admitted request
// debits the bucket and persists the record. A persist failure is the
// one fatal path: the error is returned and the decision is not final.
func (s *Service) Request(ctx context.Context, model string, tokens int64) (domadm.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model = registry.Normalize(model)
	rec, _ := s.store.Load(ctx)

	if rec.PlanTokensLeft() > 0 {
		return domadm.DeniedByPlan(model, rec.PlanTokensLeft()), nil
	}

	bucket, ok := registry.BucketFor(model)
	if !ok {
		return domadm.DeniedUnknownModel(model), nil
	}

	if tokens <= 0 {
		return domadm.DeniedInvalidCost(model, tokens), nil
	}

	updated, ok := rec.Debit(bucket, tokens)
	if !ok {
		return domadm.DeniedOverLimit(model, bucket, tokens, rec.Remaining(bucket)), nil
	}

	if err := s.store.Save(ctx, updated); err != nil {
		return domadm.Decision{}, fmt.Errorf("persist admission: %w", err)
	}

	return domadm.Admitted(model, bucket, tokens, updated.Remaining(bucket)), nil
}

// Status returns the current record after rollover, without writing it
// back, along with where it came from.
func (s *Service) Status(ctx context.Context) (quota.Record, quota.Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Load(ctx)
}

// SetPlanTokens replaces the plan allowance and persists the record.
func (s *Service) SetPlanTokens(ctx context.Context, tokens int64) (quota.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _ := s.store.Load(ctx)
	updated, err := rec.WithPlanTokens(tokens)
	if err != nil {
		return quota.Record{}, fmt.Errorf("validate plan tokens: %w", err)
	}
	if err := s.store.Save(ctx, updated); err != nil {
		return quota.Record{}, fmt.Errorf("persist plan tokens: %w", err)
	}
	return updated, nil
}

// ResetBuckets restores every bucket to its daily limit mid-day, keeps
// the plan allowance, and persists the record.
func (s *Service) ResetBuckets(ctx context.Context) (quota.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _ := s.store.Load(ctx)
	updated := rec.WithFullBuckets()
	if err := s.store.Save(ctx, updated); err != nil {
		return quota.Record{}, fmt.Errorf("persist bucket reset: %w", err)
	}
	return updated, nil
}
