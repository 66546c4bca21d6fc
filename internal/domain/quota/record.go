// Package quota defines the persisted daily quota state and the rollover
// rule that resets bucket balances when the calendar day changes.
package quota

import (
	"time"

	"github.com/tokenops/quotaguard/internal/domain"
	"github.com/tokenops/quotaguard/internal/domain/registry"
)

// DateFormat is the calendar-date layout used in persisted records.
const DateFormat = "2006-01-02"

// Day formats a point in time as the calendar date of its location.
func Day(t time.Time) string {
	return t.Format(DateFormat)
}

// Origin describes where a loaded record came from.
type Origin string

const (
	// OriginFresh means no state existed and defaults were synthesized.
	OriginFresh Origin = "fresh"
	// OriginRecovered means the state was unreadable and defaults were
	// synthesized in its place.
	OriginRecovered Origin = "recovered"
	// OriginLoaded means the persisted state was read back.
	OriginLoaded Origin = "loaded"
)

// Record is the daily quota state (immutable value object).
// It carries the calendar date it applies to, the remaining balance of
// every registry bucket, and the separately managed plan allowance.
type Record struct {
	date           string
	buckets        map[registry.Bucket]int64
	planTokensLeft int64
}

// NewDefault creates a record for the given date with every bucket at
// its daily limit and no plan tokens.
func NewDefault(date string) Record {
	buckets := make(map[registry.Bucket]int64, len(registry.Buckets()))
	for _, b := range registry.Buckets() {
		buckets[b] = b.DailyLimit()
	}
	return Record{date: date, buckets: buckets}
}

// Reconstruct creates a Record from persisted values without validation
// (storage hydration). Unknown bucket ids are carried as-is.
func Reconstruct(date string, buckets map[registry.Bucket]int64, planTokensLeft int64) Record {
	return Record{
		date:           date,
		buckets:        cloneBuckets(buckets),
		planTokensLeft: planTokensLeft,
	}
}

// Reconcile applies the daily rollover rule. A record dated today keeps
// its balances, with any bucket missing from the persisted state filled
// at its daily limit. Any other date yields fresh balances for today.
// The plan allowance is never touched. Idempotent for a fixed today.
func (r Record) Reconcile(today string) Record {
	if r.date != today {
		fresh := NewDefault(today)
		fresh.planTokensLeft = r.planTokensLeft
		return fresh
	}

	buckets := cloneBuckets(r.buckets)
	for _, b := range registry.Buckets() {
		if _, ok := buckets[b]; !ok {
			buckets[b] = b.DailyLimit()
		}
	}
	return Record{date: r.date, buckets: buckets, planTokensLeft: r.planTokensLeft}
}

// Date returns the calendar date the record applies to.
func (r Record) Date() string { return r.date }

// PlanTokensLeft returns the remaining plan allowance.
func (r Record) PlanTokensLeft() int64 { return r.planTokensLeft }

// Remaining returns the balance of a bucket. Buckets absent from the
// record have a zero balance.
func (r Record) Remaining(b registry.Bucket) int64 {
	return r.buckets[b]
}

// Buckets returns a copy of the per-bucket balances.
func (r Record) Buckets() map[registry.Bucket]int64 {
	return cloneBuckets(r.buckets)
}

// Debit subtracts tokens from a bucket and returns the updated record.
// The debit is rejected (ok=false, record unchanged) when tokens is not
// positive or exceeds the bucket's balance; balances never go negative.
func (r Record) Debit(b registry.Bucket, tokens int64) (Record, bool) {
	if tokens <= 0 || tokens > r.buckets[b] {
		return r, false
	}
	buckets := cloneBuckets(r.buckets)
	buckets[b] -= tokens
	return Record{date: r.date, buckets: buckets, planTokensLeft: r.planTokensLeft}, true
}

// WithPlanTokens returns the record with the plan allowance replaced.
func (r Record) WithPlanTokens(tokens int64) (Record, error) {
	if tokens < 0 {
		return r, domain.ErrNegativePlanTokens
	}
	return Record{date: r.date, buckets: cloneBuckets(r.buckets), planTokensLeft: tokens}, nil
}

// WithFullBuckets returns the record with every bucket restored to its
// daily limit. The date and plan allowance are kept.
func (r Record) WithFullBuckets() Record {
	buckets := make(map[registry.Bucket]int64, len(registry.Buckets()))
	for _, b := range registry.Buckets() {
		buckets[b] = b.DailyLimit()
	}
	return Record{date: r.date, buckets: buckets, planTokensLeft: r.planTokensLeft}
}

// WithDate returns the record stamped with the given calendar date.
func (r Record) WithDate(date string) Record {
	return Record{date: date, buckets: cloneBuckets(r.buckets), planTokensLeft: r.planTokensLeft}
}

func cloneBuckets(src map[registry.Bucket]int64) map[registry.Bucket]int64 {
	out := make(map[registry.Bucket]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
