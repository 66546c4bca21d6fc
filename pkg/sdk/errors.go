package quotaguard

import "github.com/tokenops/quotaguard/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNegativePlanTokens = domain.ErrNegativePlanTokens
)
