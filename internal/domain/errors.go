package domain

import "errors"

var (
	// ErrNegativePlanTokens signals an attempt to set a negative plan allowance.
	ErrNegativePlanTokens = errors.New("plan tokens cannot be negative")
)
