// Command sitescore scores sites from the command line.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/sitescore/internal/config"
	"github.com/okian/sitescore/internal/domain/recommend"
	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/pkg/logger"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	format  string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sitescore",
		Short: "Score candidate development sites",
		Long: `sitescore turns raw site metrics into a 0-100 feasibility score, a letter
grade and a prioritized list of recommendations.

Category weights and custom recommendation rules are read from the YAML file
named by SITESCORE_CONFIG and from SITESCORE_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (text|json|yaml)", opts.format)
			}
			if opts.verbose {
				if err := logger.InitWithWriter(cmd.ErrOrStderr(), logger.FormatText); err != nil {
					return err
				}
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatText, "Output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log scoring diagnostics to stderr")

	cmd.AddCommand(
		newScoreCmd(opts),
		newLegendCmd(opts),
		newFetchCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

// newEngines builds the scoring and recommendation engines from the
// layered configuration.
func newEngines(cmd *cobra.Command) (*scoring.Engine, *recommend.Engine, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	scorer, err := scoring.New(scoring.WithWeightsFromConfig(cfg.CategoryWeights))
	if err != nil {
		return nil, nil, err
	}
	rules := make([]recommend.RuleSpec, 0, len(cfg.CustomRules))
	for _, r := range cfg.CustomRules {
		rules = append(rules, recommend.RuleSpec{Name: r.Name, Tier: r.Tier, Text: r.Text, When: r.When})
	}
	recommender, err := recommend.New(
		recommend.WithCategories(scorer.Weights().Keys()),
		recommend.WithCustomRules(rules),
	)
	if err != nil {
		return nil, nil, err
	}
	return scorer, recommender, nil
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
