package categorization

import (
	"context"

	"necromancer/internal/cache"
)

// CachedClassifier memoizes another classifier by content fingerprint, so
// identical content is classified once per process.
type CachedClassifier struct {
	inner Classifier
	memo  *cache.Memo[Result]
}

// NewCachedClassifier wraps inner. A nil memo gets a fresh one; pass a shared
// memo to reuse results across pipeline runs.
func NewCachedClassifier(inner Classifier, memo *cache.Memo[Result]) *CachedClassifier {
	if memo == nil {
		memo = cache.NewMemo[Result]()
	}
	return &CachedClassifier{inner: inner, memo: memo}
}

// Classify returns the memoized result for the input's fingerprint.
func (c *CachedClassifier) Classify(ctx context.Context, in Input) Result {
	key := cache.Fingerprint(in.Title, in.Description, in.Tags)
	return c.memo.GetOrCompute(key, func() Result {
		return c.inner.Classify(ctx, in)
	})
}

// Stats reports cache usage.
func (c *CachedClassifier) Stats() cache.Stats {
	return c.memo.Stats()
}
