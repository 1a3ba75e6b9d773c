package merge

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/layer"
)

// ErrInvalidThreshold is returned when a ThresholdBased strategy is built
// with out-of-range parameters.
var ErrInvalidThreshold = errors.New("merge: invalid threshold")

// ThresholdBased promotes the configurations of the best vote tiers when
// they have enough annotators and a large enough share of the votes.
type ThresholdBased struct {
	userThreshold       int
	confidenceThreshold float64
	topRanks            int
}

// NewThresholdBased validates the parameters and builds the strategy.
//
//   - userThreshold: minimum number of annotators a configuration needs (0 = none).
//   - confidenceThreshold: minimum share of all votes at the position, in [0,1].
//   - topRanks: how many vote tiers may be accepted together, at least 1.
func NewThresholdBased(userThreshold int, confidenceThreshold float64, topRanks int) (*ThresholdBased, error) {
	if userThreshold < 0 {
		return nil, fmt.Errorf("%w: userThreshold must be >= 0, got %d", ErrInvalidThreshold, userThreshold)
	}
	if !(confidenceThreshold >= 0 && confidenceThreshold <= 1) {
		return nil, fmt.Errorf("%w: confidenceThreshold must be in [0,1], got %v", ErrInvalidThreshold, confidenceThreshold)
	}
	if topRanks < 1 {
		return nil, fmt.Errorf("%w: topRanks must be >= 1, got %d", ErrInvalidThreshold, topRanks)
	}
	return &ThresholdBased{
		userThreshold:       userThreshold,
		confidenceThreshold: confidenceThreshold,
		topRanks:            topRanks,
	}, nil
}

func (s *ThresholdBased) Name() string { return NameThreshold }

// UserThreshold returns the minimum annotator count.
func (s *ThresholdBased) UserThreshold() int { return s.userThreshold }

// ConfidenceThreshold returns the minimum vote share.
func (s *ThresholdBased) ConfidenceThreshold() float64 { return s.confidenceThreshold }

// TopRanks returns the number of tiers that may be accepted together.
func (s *ThresholdBased) TopRanks() int { return s.topRanks }

func (s *ThresholdBased) String() string {
	return fmt.Sprintf("%s(users>=%d, confidence>=%.2f, topRanks=%d)",
		NameThreshold, s.userThreshold, s.confidenceThreshold, s.topRanks)
}

// Choose applies, in order: the single-candidate rule, rank tiers, the tie
// rule, the user and confidence thresholds, and the stacking cap. The
// result is ordered by vote count, best first.
func (s *ThresholdBased) Choose(set *diff.ConfigurationSet, mode layer.OverlapMode) []*diff.Configuration {
	cfgs := set.Configurations()
	switch len(cfgs) {
	case 0:
		return nil
	case 1:
		return cfgs
	}

	total := 0
	for _, c := range cfgs {
		total += c.Votes()
	}

	tiers := rankTiers(cfgs)
	if len(tiers) > s.topRanks {
		tiers = tiers[:s.topRanks]
	}

	if s.topRanks == 1 && len(tiers[0]) > 1 {
		return nil
	}

	var accepted []*diff.Configuration
	for _, tier := range tiers {
		votes := tier[0].Votes()
		if votes < s.userThreshold {
			break
		}
		if float64(votes)/float64(total) < s.confidenceThreshold {
			break
		}
		accepted = append(accepted, tier...)
	}

	if len(accepted) > 1 && !mode.AllowsStacking() {
		if len(tiers[0]) > 1 {
			return nil
		}
		return accepted[:1]
	}
	return accepted
}

// rankTiers groups configurations by vote count, best tier first. Order
// within a tier follows the set's order.
func rankTiers(cfgs []*diff.Configuration) [][]*diff.Configuration {
	sorted := slices.Clone(cfgs)
	slices.SortStableFunc(sorted, func(a, b *diff.Configuration) int {
		return b.Votes() - a.Votes()
	})

	var tiers [][]*diff.Configuration
	for _, c := range sorted {
		n := len(tiers)
		if n > 0 && tiers[n-1][0].Votes() == c.Votes() {
			tiers[n-1] = append(tiers[n-1], c)
			continue
		}
		tiers = append(tiers, []*diff.Configuration{c})
	}
	return tiers
}
