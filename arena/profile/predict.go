package profile

import (
	"sort"

	"github.com/joshuapare/arenakit/arena/alloc"
)

// PoolShareThreshold is the distribution share a size must exceed to be
// recommended for a dedicated pool.
const PoolShareThreshold = 0.1

// Prediction is the profiler's forward-looking recommendation.
type Prediction struct {
	// NextLikelySize is the most frequent observed size, 0 with no history.
	NextLikelySize uint64

	// RecommendedStrategy is the placement policy the observed pattern scores
	// highest for.
	RecommendedStrategy alloc.Strategy

	// RecommendedPoolSizes lists every size whose distribution share exceeds
	// PoolShareThreshold, ascending.
	RecommendedPoolSizes []uint64

	// Confidence is the share of all observations covered by the common
	// sizes, in [0, 1].
	Confidence float64
}

// PredictNextAllocation derives a Prediction from the current pattern.
func (p *Profiler) PredictNextAllocation() Prediction {
	pattern := p.AnalyzePatterns()

	pred := Prediction{
		RecommendedStrategy: recommendStrategy(pattern),
		Confidence:          p.patternConfidence(pattern.CommonSizes),
	}
	if len(pattern.CommonSizes) > 0 {
		pred.NextLikelySize = pattern.CommonSizes[0]
	}

	for size, share := range pattern.SizeDistribution {
		if share > PoolShareThreshold {
			pred.RecommendedPoolSizes = append(pred.RecommendedPoolSizes, size)
		}
	}
	sort.Slice(pred.RecommendedPoolSizes, func(i, j int) bool {
		return pred.RecommendedPoolSizes[i] < pred.RecommendedPoolSizes[j]
	})

	return pred
}

// patternConfidence is the fraction of all observations that fall on the
// common sizes.
func (p *Profiler) patternConfidence(common []uint64) float64 {
	if len(common) == 0 {
		return 0
	}
	var total, covered uint64
	for _, freq := range p.sizeFreq {
		total += freq
	}
	for _, size := range common {
		covered += p.sizeFreq[size]
	}
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total)
}

// recommendStrategy scores the three placement policies against the observed
// pattern and returns the winner. Ties resolve first-fit, then best-fit,
// then worst-fit.
func recommendStrategy(pattern Pattern) alloc.Strategy {
	var first, best, worst float64

	// Consistent sizes favour tight packing; varied sizes favour the cheap
	// scan.
	var variance float64
	if len(pattern.CommonSizes) > 0 {
		top := float64(pattern.CommonSizes[0])
		for size, share := range pattern.SizeDistribution {
			d := float64(size) - top
			variance += d * d * share
		}
	}
	if variance < 1000 {
		best += 0.5
	} else {
		first += 0.3
	}

	if len(pattern.HotSpots) > 5 {
		worst += 0.4
	}

	if pattern.AverageLifetime < 1000 {
		first += 0.4
	} else {
		best += 0.3
	}

	switch {
	case first >= best && first >= worst:
		return alloc.FirstFit
	case best >= worst:
		return alloc.BestFit
	default:
		return alloc.WorstFit
	}
}
