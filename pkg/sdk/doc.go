// Package quotaguard provides an in-process client for the quotaguard
// admission engine: it gates calls to a privileged OpenAI credential
// behind daily free-tier token buckets and a paid-plan allowance,
// persisted in a local JSON state file.
//
// A request is admitted only when the plan allowance is drained, the
// model is on the free-tier allowlist, the token estimate is positive,
// and the model's daily bucket can cover it:
//
//	guard, _ := quotaguard.New()
//	d, err := guard.Request(ctx, "gpt-5", 1200)
//	if err != nil {
//	    return err // decision not persisted, do not proceed
//	}
//	if !d.Allowed() {
//	    return fmt.Errorf("request denied: %s", d.Outcome)
//	}
//	// expose the credential and make the call
package quotaguard
