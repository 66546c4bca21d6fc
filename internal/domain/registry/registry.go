// Package registry holds the compiled-in model allowlist and the daily
// token limits of the shared buckets models draw from. Changing a limit
// or the allowlist requires a rebuild.
package registry

import (
	"sort"
	"strings"
)

// Bucket identifies a shared daily token pool.
type Bucket string

const (
	// BucketTokens250K is the pool shared by the full-size models.
	BucketTokens250K Bucket = "tokens_250k"
	// BucketTokens2p5M is the pool shared by the mini and nano models.
	BucketTokens2p5M Bucket = "tokens_2_5m"
)

// dailyLimits maps each bucket to its daily token allowance.
var dailyLimits = map[Bucket]int64{
	BucketTokens250K: 250_000,
	BucketTokens2p5M: 2_500_000,
}

// modelBuckets maps lowercase model names to their bucket.
var modelBuckets = map[string]Bucket{
	// 250k daily tokens across these models
	"gpt-5.1":           BucketTokens250K,
	"gpt-5.1-codex":     BucketTokens250K,
	"gpt-5":             BucketTokens250K,
	"gpt-5-codex":       BucketTokens250K,
	"gpt-5-chat-latest": BucketTokens250K,
	"gpt-4.1":           BucketTokens250K,
	"gpt-4o":            BucketTokens250K,
	"o1":                BucketTokens250K,
	"o3":                BucketTokens250K,
	// 2.5M daily tokens across the mini / nano models
	"gpt-5.1-codex-mini": BucketTokens2p5M,
	"gpt-5-mini":         BucketTokens2p5M,
	"gpt-5-nano":         BucketTokens2p5M,
	"gpt-4.1-mini":       BucketTokens2p5M,
	"gpt-4.1-nano":       BucketTokens2p5M,
	"gpt-4o-mini":        BucketTokens2p5M,
	"o3-mini":            BucketTokens2p5M,
	"o4-mini":            BucketTokens2p5M,
	"codex-mini-latest":  BucketTokens2p5M,
}

// IsValid checks if the bucket is one of the registered pools.
func (b Bucket) IsValid() bool {
	_, ok := dailyLimits[b]
	return ok
}

// DailyLimit returns the bucket's daily token allowance.
// Unknown buckets have a zero allowance.
func (b Bucket) DailyLimit() int64 {
	return dailyLimits[b]
}

// Normalize canonicalizes a model name for lookup: surrounding
// whitespace is trimmed and the name is lowercased.
func Normalize(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}

// BucketFor resolves the bucket a model draws from. The model name is
// normalized before lookup. Returns false for models not on the allowlist.
func BucketFor(model string) (Bucket, bool) {
	b, ok := modelBuckets[Normalize(model)]
	return b, ok
}

// Buckets returns all registered buckets in a stable order.
func Buckets() []Bucket {
	return []Bucket{BucketTokens250K, BucketTokens2p5M}
}

// Models returns the full allowlist, sorted.
func Models() []string {
	out := make([]string, 0, len(modelBuckets))
	for m := range modelBuckets {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ModelsFor returns the allowlisted models of a single bucket, sorted.
func ModelsFor(b Bucket) []string {
	var out []string
	for m, mb := range modelBuckets {
		if mb == b {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
