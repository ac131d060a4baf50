package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/sitescore/internal/domain/model"
)

// Category keys of the default weight table.
const (
	CategoryDemographics = "demographics"
	CategoryLocation     = "location"
	CategoryMarket       = "market"
	CategoryDevelopment  = "development"
	CategoryFinancial    = "financial"
	CategoryRisk         = "risk"
)

// totalWeight is the required sum of a weight table.
const totalWeight = 100

// CategoryWeight is a category's share of the overall score, in percent.
type CategoryWeight struct {
	Key    string `json:"key" yaml:"key"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Weights is an ordered weight table.
type Weights []CategoryWeight

var defaultWeights = Weights{
	{Key: CategoryDemographics, Weight: 25},
	{Key: CategoryLocation, Weight: 20},
	{Key: CategoryMarket, Weight: 20},
	{Key: CategoryDevelopment, Weight: 15},
	{Key: CategoryFinancial, Weight: 12},
	{Key: CategoryRisk, Weight: 8},
}

// DefaultWeights returns a copy of the built-in weight table.
func DefaultWeights() Weights {
	out := make(Weights, len(defaultWeights))
	copy(out, defaultWeights)
	return out
}

// WeightsFromMap builds a table from configuration. Entries are ordered by
// descending weight, then key, so the result is deterministic.
func WeightsFromMap(m map[string]int) Weights {
	out := make(Weights, 0, len(m))
	for k, w := range m {
		out = append(out, CategoryWeight{Key: k, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Validate checks the table invariants: non-empty unique keys, no negative
// weights, and a total of exactly 100.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: weight table is empty", ErrConfig)
	}
	seen := make(map[string]struct{}, len(w))
	sum := 0
	for _, cw := range w {
		if cw.Key == "" {
			return fmt.Errorf("%w: empty category key", ErrConfig)
		}
		if _, dup := seen[cw.Key]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrConfig, cw.Key)
		}
		seen[cw.Key] = struct{}{}
		if cw.Weight < 0 {
			return fmt.Errorf("%w: negative weight %d for %q", ErrConfig, cw.Weight, cw.Key)
		}
		sum += cw.Weight
	}
	if sum != totalWeight {
		return fmt.Errorf("%w: category weights sum to %d, want %d", ErrConfig, sum, totalWeight)
	}
	return nil
}

// Keys returns the category keys in table order.
func (w Weights) Keys() []string {
	keys := make([]string, len(w))
	for i, cw := range w {
		keys[i] = cw.Key
	}
	return keys
}

// Composite combines category scores through the weight table:
// round(sum(score[key] * weight[key]) / 100). A category absent from
// scores counts as neutral. The products are summed before the single
// division so integer scores round exactly at .5.
func Composite(scores map[string]model.CategoryScore, weights Weights) int {
	sum := 0.0
	for _, cw := range weights {
		s := NeutralScore
		if cs, ok := scores[cw.Key]; ok {
			s = cs.Score
		}
		sum += s * float64(cw.Weight)
	}
	return int(clamp(math.Round(sum/totalWeight), minScore, maxScore))
}
