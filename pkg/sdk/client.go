package quotaguard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tokenops/quotaguard/internal/repository/state"
	admissionuc "github.com/tokenops/quotaguard/internal/usecase/admission"
	healthuc "github.com/tokenops/quotaguard/internal/usecase/health"
)

// Client is the in-process quota guard entry point.
type Client struct {
	svc       *admissionuc.Service
	store     *state.Store
	healthSvc *healthuc.Service
	obs       *observer
}

// New creates a guard Client over the local quota state file.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	dir, err := state.ResolveDir(cfg.stateDir)
	if err != nil {
		return nil, fmt.Errorf("quotaguard: resolve state dir: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	// Recovery from a corrupt state file surfaces through Status.Origin,
	// so the store itself can stay quiet.
	store := state.New(dir, zap.NewNop())

	return &Client{
		svc:       admissionuc.New(store),
		store:     store,
		healthSvc: healthuc.New(store),
		obs:       obs,
	}, nil
}

// StatePath returns the quota state file location.
func (c *Client) StatePath() string { return c.store.Path() }

// Request runs the admission checks for one upstream call and debits
// the model's bucket when admitted. A returned error means the decision
// could not be persisted and the request must not proceed.
func (c *Client) Request(ctx context.Context, model string, tokens int64) (d Decision, err error) {
	start := time.Now()
	defer func() { c.obs.observe("request", start, err) }()

	dec, err := c.svc.Request(ctx, model, tokens)
	if err != nil {
		return Decision{}, fmt.Errorf("quotaguard: %w", err)
	}
	return decisionFromDomain(dec), nil
}

// Status returns the quota state after the daily rollover, without
// writing it back.
func (c *Client) Status(ctx context.Context) Status {
	start := time.Now()
	defer func() { c.obs.observe("status", start, nil) }()

	rec, origin := c.svc.Status(ctx)
	return statusFromRecord(rec, origin)
}

// SetPlanTokens replaces the paid-plan allowance. While the allowance
// is positive every Request is denied with DeniedByPlan.
// Returns ErrNegativePlanTokens for negative values.
func (c *Client) SetPlanTokens(ctx context.Context, tokens int64) (st Status, err error) {
	start := time.Now()
	defer func() { c.obs.observe("set_plan", start, err) }()

	rec, err := c.svc.SetPlanTokens(ctx, tokens)
	if err != nil {
		return Status{}, fmt.Errorf("quotaguard: %w", err)
	}
	return statusFromRecord(rec, ""), nil
}

// ResetBuckets restores every bucket to its daily limit, keeping the
// plan allowance.
func (c *Client) ResetBuckets(ctx context.Context) (st Status, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset", start, err) }()

	rec, err := c.svc.ResetBuckets(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("quotaguard: %w", err)
	}
	return statusFromRecord(rec, ""), nil
}

// Ping verifies the state directory exists and is writable.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("quotaguard: %w", err)
	}
	return nil
}

// Health checks the health of all guard components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// HealthStatus represents the aggregated guard health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}
