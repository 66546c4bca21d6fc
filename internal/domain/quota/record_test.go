package quota

import (
	"errors"
	"testing"

	"github.com/tokenops/quotaguard/internal/domain"
	"github.com/tokenops/quotaguard/internal/domain/registry"
)

func TestNewDefault_FullBucketsNoPlan(t *testing.T) {
	rec := NewDefault("2026-08-25")

	if rec.Date() != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", rec.Date())
	}
	if rec.PlanTokensLeft() != 0 {
		t.Errorf("plan = %d, want 0", rec.PlanTokensLeft())
	}
	for _, b := range registry.Buckets() {
		if rec.Remaining(b) != b.DailyLimit() {
			t.Errorf("%s = %d, want %d", b, rec.Remaining(b), b.DailyLimit())
		}
	}
}

func TestReconcile_SameDateKeepsBalances(t *testing.T) {
	raw := Reconstruct("2026-08-25", map[registry.Bucket]int64{
		registry.BucketTokens250K: 100,
		registry.BucketTokens2p5M: 2_000_000,
	}, 50)

	rec := raw.Reconcile("2026-08-25")

	if rec.Remaining(registry.BucketTokens250K) != 100 {
		t.Errorf("250k = %d, want 100", rec.Remaining(registry.BucketTokens250K))
	}
	if rec.Remaining(registry.BucketTokens2p5M) != 2_000_000 {
		t.Errorf("2.5M = %d, want 2000000", rec.Remaining(registry.BucketTokens2p5M))
	}
	if rec.PlanTokensLeft() != 50 {
		t.Errorf("plan = %d, want 50", rec.PlanTokensLeft())
	}
}

func TestReconcile_DateMismatchResetsBuckets(t *testing.T) {
	raw := Reconstruct("2026-08-24", map[registry.Bucket]int64{
		registry.BucketTokens250K: 7,
		registry.BucketTokens2p5M: 9,
	}, 1234)

	rec := raw.Reconcile("2026-08-25")

	if rec.Date() != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", rec.Date())
	}
	for _, b := range registry.Buckets() {
		if rec.Remaining(b) != b.DailyLimit() {
			t.Errorf("%s = %d, want full limit %d", b, rec.Remaining(b), b.DailyLimit())
		}
	}
	// The plan allowance survives the day boundary.
	if rec.PlanTokensLeft() != 1234 {
		t.Errorf("plan = %d, want 1234", rec.PlanTokensLeft())
	}
}

func TestReconcile_FillsMissingBuckets(t *testing.T) {
	raw := Reconstruct("2026-08-25", map[registry.Bucket]int64{
		registry.BucketTokens250K: 42,
	}, 0)

	rec := raw.Reconcile("2026-08-25")

	if rec.Remaining(registry.BucketTokens250K) != 42 {
		t.Errorf("250k = %d, want 42", rec.Remaining(registry.BucketTokens250K))
	}
	if rec.Remaining(registry.BucketTokens2p5M) != registry.BucketTokens2p5M.DailyLimit() {
		t.Errorf("missing bucket not filled: %d", rec.Remaining(registry.BucketTokens2p5M))
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	raw := Reconstruct("2026-08-20", map[registry.Bucket]int64{
		registry.BucketTokens250K: 3,
	}, 77)

	once := raw.Reconcile("2026-08-25")
	twice := once.Reconcile("2026-08-25")

	if once.Date() != twice.Date() || once.PlanTokensLeft() != twice.PlanTokensLeft() {
		t.Fatal("reconcile not idempotent on date/plan")
	}
	for _, b := range registry.Buckets() {
		if once.Remaining(b) != twice.Remaining(b) {
			t.Errorf("reconcile not idempotent on %s: %d vs %d", b, once.Remaining(b), twice.Remaining(b))
		}
	}
}

func TestDebit_Succeeds(t *testing.T) {
	rec := NewDefault("2026-08-25")

	updated, ok := rec.Debit(registry.BucketTokens250K, 100)
	if !ok {
		t.Fatal("expected debit to succeed")
	}
	if got := updated.Remaining(registry.BucketTokens250K); got != 249_900 {
		t.Errorf("remaining = %d, want 249900", got)
	}
	// Original record untouched.
	if got := rec.Remaining(registry.BucketTokens250K); got != 250_000 {
		t.Errorf("source record mutated: %d", got)
	}
}

func TestDebit_ExactBalanceReachesZero(t *testing.T) {
	rec := NewDefault("2026-08-25")

	updated, ok := rec.Debit(registry.BucketTokens250K, 250_000)
	if !ok {
		t.Fatal("expected exact-balance debit to succeed")
	}
	if got := updated.Remaining(registry.BucketTokens250K); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestDebit_RejectsOverdraw(t *testing.T) {
	rec := NewDefault("2026-08-25")

	updated, ok := rec.Debit(registry.BucketTokens250K, 250_001)
	if ok {
		t.Fatal("expected overdraw to be rejected")
	}
	if got := updated.Remaining(registry.BucketTokens250K); got != 250_000 {
		t.Errorf("rejected debit must not change balance, got %d", got)
	}
}

func TestDebit_RejectsNonPositive(t *testing.T) {
	rec := NewDefault("2026-08-25")

	if _, ok := rec.Debit(registry.BucketTokens250K, 0); ok {
		t.Error("zero debit must be rejected")
	}
	if _, ok := rec.Debit(registry.BucketTokens250K, -10); ok {
		t.Error("negative debit must be rejected")
	}
}

func TestDebit_UnknownBucketHasZeroBalance(t *testing.T) {
	rec := NewDefault("2026-08-25")

	if _, ok := rec.Debit(registry.Bucket("bogus"), 1); ok {
		t.Error("debit against an unknown bucket must be rejected")
	}
}

func TestWithPlanTokens(t *testing.T) {
	rec := NewDefault("2026-08-25")

	updated, err := rec.WithPlanTokens(9000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PlanTokensLeft() != 9000 {
		t.Errorf("plan = %d, want 9000", updated.PlanTokensLeft())
	}

	if _, err := rec.WithPlanTokens(-5); !errors.Is(err, domain.ErrNegativePlanTokens) {
		t.Errorf("expected ErrNegativePlanTokens, got %v", err)
	}
}

func TestWithFullBuckets_KeepsPlanAndDate(t *testing.T) {
	rec := NewDefault("2026-08-25")
	rec, _ = rec.Debit(registry.BucketTokens250K, 1000)
	rec, _ = rec.WithPlanTokens(500)

	reset := rec.WithFullBuckets()

	if reset.Remaining(registry.BucketTokens250K) != 250_000 {
		t.Errorf("bucket not restored: %d", reset.Remaining(registry.BucketTokens250K))
	}
	if reset.PlanTokensLeft() != 500 {
		t.Errorf("plan = %d, want 500", reset.PlanTokensLeft())
	}
	if reset.Date() != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", reset.Date())
	}
}

func TestBuckets_ReturnsCopy(t *testing.T) {
	rec := NewDefault("2026-08-25")

	m := rec.Buckets()
	m[registry.BucketTokens250K] = -999

	if rec.Remaining(registry.BucketTokens250K) != 250_000 {
		t.Error("mutating the returned map must not affect the record")
	}
}
