package recommend

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/scoring"
)

// CEL variable names available to custom rules.
const (
	varOverall       = "overall"
	varLowConfidence = "low_confidence"
)

// RuleSpec is a configured rule whose condition is a CEL expression, e.g.
// "risk < 30.0 && overall >= 60.0".
type RuleSpec struct {
	Name string `koanf:"name" yaml:"name"`
	Tier string `koanf:"tier" yaml:"tier"`
	Text string `koanf:"text" yaml:"text"`
	When string `koanf:"when" yaml:"when"`
}

// newEnv declares overall, low_confidence and one double per category key.
func newEnv(categories []string) (*cel.Env, error) {
	opts := []cel.EnvOption{
		cel.CrossTypeNumericComparisons(true),
		cel.Variable(varOverall, cel.DoubleType),
		cel.Variable(varLowConfidence, cel.BoolType),
	}
	for _, key := range categories {
		opts = append(opts, cel.Variable(key, cel.DoubleType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating CEL environment: %v", ErrInvalidRule, err)
	}
	return env, nil
}

// compileRule turns a spec into a Rule. The expression must compile and
// evaluate to a bool for neutral inputs.
func compileRule(env *cel.Env, categories []string, spec RuleSpec) (Rule, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return Rule{}, fmt.Errorf("%w: rule name is empty", ErrInvalidRule)
	}
	tier := model.Tier(spec.Tier)
	if !tier.Valid() {
		return Rule{}, fmt.Errorf("%w: rule %q has unknown tier %q", ErrInvalidRule, name, spec.Tier)
	}
	if strings.TrimSpace(spec.Text) == "" {
		return Rule{}, fmt.Errorf("%w: rule %q has no text", ErrInvalidRule, name)
	}

	ast, issues := env.Compile(spec.When)
	if issues != nil && issues.Err() != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, name, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, name, err)
	}

	eval := func(in Inputs) (bool, error) {
		out, _, err := prg.Eval(activation(categories, in))
		if err != nil {
			return false, err
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("result is %T, not bool", out.Value())
		}
		return b, nil
	}

	neutral := Inputs{Overall: scoring.NeutralScore}
	if _, err := eval(neutral); err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", ErrInvalidRule, name, err)
	}

	return Rule{
		Name: name,
		Tier: tier,
		Text: spec.Text,
		When: func(in Inputs) bool {
			ok, err := eval(in)
			return err == nil && ok
		},
	}, nil
}

func activation(categories []string, in Inputs) map[string]any {
	vars := make(map[string]any, len(categories)+2)
	vars[varOverall] = in.Overall
	vars[varLowConfidence] = in.LowConfidence
	for _, key := range categories {
		vars[key] = in.category(key)
	}
	return vars
}
