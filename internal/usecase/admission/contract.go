package admission

import (
	"context"

	"github.com/tokenops/quotaguard/internal/domain/quota"
)

// StateStore is the persistence contract for the quota record.
// Load never fails; it reports where the record came from instead.
type StateStore interface {
	Load(ctx context.Context) (quota.Record, quota.Origin)
	Save(ctx context.Context, rec quota.Record) error
}
