// Package recommend produces tiered action items for a scored site from a
// static rule table. Evaluation is deterministic: identical inputs always
// yield identical output.
package recommend

import (
	"fmt"
	"sort"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/scoring"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCustomRules appends configured CEL rules after the built-in table.
func WithCustomRules(specs []RuleSpec) Option {
	return func(e *Engine) {
		e.specs = append(e.specs, specs...)
	}
}

// WithCategories sets the category keys exposed to custom rules.
func WithCategories(keys []string) Option {
	return func(e *Engine) {
		if len(keys) > 0 {
			e.categories = append([]string(nil), keys...)
		}
	}
}

// Engine evaluates the rule table.
type Engine struct {
	rules      []Rule
	specs      []RuleSpec
	categories []string
}

// New builds an Engine. Custom rules are compiled here; a rule that does
// not compile is a configuration error.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		categories: scoring.DefaultWeights().Keys(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	e.rules = append(e.rules, builtinRules...)
	if len(e.specs) == 0 {
		return e, nil
	}

	env, err := newEnv(e.categories)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scoring.ErrConfig, err)
	}
	for _, spec := range e.specs {
		r, err := compileRule(env, e.categories, spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", scoring.ErrConfig, err)
		}
		e.rules = append(e.rules, r)
	}
	return e, nil
}

// Recommend returns the fired recommendations ordered High, Medium, Future
// and by rule order within a tier. When nothing fires the baseline set is
// returned, so the result is never empty.
func (e *Engine) Recommend(c model.CompositeScore, categories map[string]model.CategoryScore) []model.Recommendation {
	in := Inputs{
		Overall:       float64(c.OverallScore),
		Categories:    make(map[string]float64, len(categories)),
		LowConfidence: c.LowConfidence,
	}
	for k, cs := range categories {
		in.Categories[k] = cs.Score
	}

	var out []model.Recommendation
	for _, r := range e.rules {
		if r.When(in) {
			out = append(out, r.recommendation())
		}
	}
	if len(out) == 0 {
		out = make([]model.Recommendation, len(baseline))
		copy(out, baseline)
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier.Rank() < out[j].Tier.Rank()
	})
	return out
}

// RuleNames lists the active rules in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}
