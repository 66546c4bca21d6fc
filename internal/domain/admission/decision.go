// Package admission defines the outcome of a single admission request.
package admission

import "github.com/tokenops/quotaguard/internal/domain/registry"

// Outcome classifies an admission decision.
type Outcome string

const (
	// OutcomeAdmitted means the request may proceed and its cost was debited.
	OutcomeAdmitted Outcome = "admitted"
	// OutcomeDeniedByPlan means the plan allowance must be drained first.
	OutcomeDeniedByPlan Outcome = "denied_by_plan"
	// OutcomeDeniedUnknownModel means the model is not on the allowlist.
	OutcomeDeniedUnknownModel Outcome = "denied_unknown_model"
	// OutcomeDeniedInvalidCost means the token estimate was not positive.
	OutcomeDeniedInvalidCost Outcome = "denied_invalid_cost"
	// OutcomeDeniedOverLimit means the bucket balance cannot cover the cost.
	OutcomeDeniedOverLimit Outcome = "denied_over_limit"
)

// Decision is the result of one admission request (immutable value object).
// Exactly one outcome is produced per request; only OutcomeAdmitted
// implies a state change.
type Decision struct {
	outcome        Outcome
	model          string
	bucket         registry.Bucket
	tokens         int64
	remaining      int64
	planTokensLeft int64
}

// Admitted creates the decision for an approved, debited request.
// remaining is the bucket balance after the debit.
func Admitted(model string, bucket registry.Bucket, tokens, remaining int64) Decision {
	return Decision{
		outcome:   OutcomeAdmitted,
		model:     model,
		bucket:    bucket,
		tokens:    tokens,
		remaining: remaining,
	}
}

// DeniedByPlan creates the decision for a request blocked by a
// still-positive plan allowance.
func DeniedByPlan(model string, planTokensLeft int64) Decision {
	return Decision{
		outcome:        OutcomeDeniedByPlan,
		model:          model,
		planTokensLeft: planTokensLeft,
	}
}

// DeniedUnknownModel creates the decision for a model off the allowlist.
func DeniedUnknownModel(model string) Decision {
	return Decision{outcome: OutcomeDeniedUnknownModel, model: model}
}

// DeniedInvalidCost creates the decision for a non-positive token estimate.
func DeniedInvalidCost(model string, tokens int64) Decision {
	return Decision{outcome: OutcomeDeniedInvalidCost, model: model, tokens: tokens}
}

// DeniedOverLimit creates the decision for a request exceeding the
// bucket balance. remaining is the untouched balance.
func DeniedOverLimit(model string, bucket registry.Bucket, tokens, remaining int64) Decision {
	return Decision{
		outcome:   OutcomeDeniedOverLimit,
		model:     model,
		bucket:    bucket,
		tokens:    tokens,
		remaining: remaining,
	}
}

// Outcome returns the decision classification.
func (d Decision) Outcome() Outcome { return d.outcome }

// Admitted reports whether the request may proceed.
func (d Decision) Admitted() bool { return d.outcome == OutcomeAdmitted }

// Model returns the normalized model name the decision applies to.
func (d Decision) Model() string { return d.model }

// Bucket returns the resolved bucket, empty when the model was not
// resolved or the plan gate short-circuited.
func (d Decision) Bucket() registry.Bucket { return d.bucket }

// Tokens returns the requested token cost.
func (d Decision) Tokens() int64 { return d.tokens }

// Remaining returns the bucket balance relevant to the decision: the
// balance after the debit for admissions, the untouched balance for
// over-limit denials.
func (d Decision) Remaining() int64 { return d.remaining }

// PlanTokensLeft returns the plan allowance for plan-gate denials.
func (d Decision) PlanTokensLeft() int64 { return d.planTokensLeft }
