package chi

// Error codes returned in the error envelope.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

// errorResponse is the envelope for failures that carry no decision.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// admissionRequest is the body of POST /v1/admissions.
type admissionRequest struct {
	Model  string `json:"model"`
	Tokens int64  `json:"tokens"`
}

// admissionResponse reports the decision for one admission request.
// Bucket, Tokens and Remaining are present for admitted and over-limit
// outcomes; PlanTokensLeft is present for plan-gate denials.
type admissionResponse struct {
	Outcome        string  `json:"outcome"`
	Model          string  `json:"model"`
	Bucket         *string `json:"bucket,omitempty"`
	Tokens         *int64  `json:"tokens,omitempty"`
	Remaining      *int64  `json:"remaining,omitempty"`
	PlanTokensLeft *int64  `json:"plan_tokens_left,omitempty"`
}

// planRequest is the body of PUT /v1/plan.
type planRequest struct {
	PlanTokensLeft int64 `json:"plan_tokens_left"`
}

// bucketStatus reports one bucket's balance against its daily limit.
type bucketStatus struct {
	ID         string `json:"id"`
	Remaining  int64  `json:"remaining"`
	DailyLimit int64  `json:"daily_limit"`
}

// quotaResponse is the reconciled quota state. Origin is set on reads
// and reports where the record came from (fresh, recovered, loaded).
type quotaResponse struct {
	Date           string         `json:"date"`
	Origin         string         `json:"origin,omitempty"`
	PlanTokensLeft int64          `json:"plan_tokens_left"`
	Buckets        []bucketStatus `json:"buckets"`
}

// bucketModels lists the models charged against one bucket.
type bucketModels struct {
	ID         string   `json:"id"`
	DailyLimit int64    `json:"daily_limit"`
	Models     []string `json:"models"`
}

type modelsResponse struct {
	Buckets []bucketModels `json:"buckets"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
