package merge

import (
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/layer"
)

// Strategy decides which configurations of a set are promoted into the
// curated document. An empty result means the position is disputed and
// needs manual adjudication. Implementations are pure and keep no state
// between calls.
type Strategy interface {
	Name() string
	Choose(set *diff.ConfigurationSet, mode layer.OverlapMode) []*diff.Configuration
}

// Compile-time interface checks.
var (
	_ Strategy = (*ThresholdBased)(nil)
	_ Strategy = CompleteAgreement{}
	_ Strategy = MergeIncomplete{}
	_ Strategy = Manual{}
)

// CompleteAgreement accepts a set only when every annotator of the run
// produced the same value.
type CompleteAgreement struct{}

func (CompleteAgreement) Name() string { return NameCompleteAgreement }

func (CompleteAgreement) Choose(set *diff.ConfigurationSet, _ layer.OverlapMode) []*diff.Configuration {
	if set.Len() != 1 || !set.IsComplete() {
		return nil
	}
	return set.Configurations()
}

// MergeIncomplete accepts a set with a single configuration even when some
// annotators did not annotate the position.
type MergeIncomplete struct{}

func (MergeIncomplete) Name() string { return NameIncomplete }

func (MergeIncomplete) Choose(set *diff.ConfigurationSet, _ layer.OverlapMode) []*diff.Configuration {
	if set.Len() != 1 {
		return nil
	}
	return set.Configurations()
}

// Manual never accepts anything; every position goes to the curator.
type Manual struct{}

func (Manual) Name() string { return NameManual }

func (Manual) Choose(*diff.ConfigurationSet, layer.OverlapMode) []*diff.Configuration {
	return nil
}
