package logging

// ProgressSampler thins out per-slide progress logs during batch runs. It
// emits when the completed fraction crosses a bucket boundary, on the first
// and last item, or when the deck changes.
type ProgressSampler struct {
	bucketPercent int
	lastDeck      string
	lastBucket    int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent. Non-positive widths default to 25.
func NewProgressSampler(bucketPercent int) *ProgressSampler {
	if bucketPercent <= 0 {
		bucketPercent = 25
	}
	return &ProgressSampler{bucketPercent: bucketPercent, lastBucket: -1}
}

// ShouldLog reports whether progress at done/total within deck is worth a line.
func (s *ProgressSampler) ShouldLog(deck string, done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	emit := false
	if deck != s.lastDeck {
		s.lastDeck = deck
		s.lastBucket = -1
		emit = true
	}
	if done >= total {
		return true
	}
	bucket := done * 100 / total / s.bucketPercent
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}
