package quotaguard

import (
	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/quota"
	"github.com/tokenops/quotaguard/internal/domain/registry"
)

// Outcome classifies an admission decision.
type Outcome string

// Outcome constants. Exactly one outcome is produced per request.
const (
	Admitted           Outcome = "admitted"
	DeniedByPlan       Outcome = "denied_by_plan"
	DeniedUnknownModel Outcome = "denied_unknown_model"
	DeniedInvalidCost  Outcome = "denied_invalid_cost"
	DeniedOverLimit    Outcome = "denied_over_limit"
)

// Decision is the result of one admission request.
// Bucket and Remaining are set for admitted and over-limit outcomes;
// PlanTokensLeft is set for plan-gate denials.
type Decision struct {
	Outcome        Outcome
	Model          string
	Bucket         string
	Tokens         int64
	Remaining      int64
	PlanTokensLeft int64
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Admitted }

// BucketStatus is one bucket's balance against its daily limit.
type BucketStatus struct {
	ID         string
	Remaining  int64
	DailyLimit int64
}

// Status is the reconciled quota state.
type Status struct {
	Date           string
	Origin         string // "fresh", "recovered", "loaded"
	PlanTokensLeft int64
	Buckets        []BucketStatus
}

// Models returns the free-tier allowlist grouped by bucket id.
func Models() map[string][]string {
	out := make(map[string][]string)
	for _, b := range registry.Buckets() {
		out[string(b)] = registry.ModelsFor(b)
	}
	return out
}

func decisionFromDomain(d domadm.Decision) Decision {
	return Decision{
		Outcome:        Outcome(d.Outcome()),
		Model:          d.Model(),
		Bucket:         string(d.Bucket()),
		Tokens:         d.Tokens(),
		Remaining:      d.Remaining(),
		PlanTokensLeft: d.PlanTokensLeft(),
	}
}

func statusFromRecord(rec quota.Record, origin quota.Origin) Status {
	buckets := registry.Buckets()
	items := make([]BucketStatus, len(buckets))
	for i, b := range buckets {
		items[i] = BucketStatus{
			ID:         string(b),
			Remaining:  rec.Remaining(b),
			DailyLimit: b.DailyLimit(),
		}
	}
	return Status{
		Date:           rec.Date(),
		Origin:         string(origin),
		PlanTokensLeft: rec.PlanTokensLeft(),
		Buckets:        items,
	}
}
