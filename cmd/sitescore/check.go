package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sitescore/internal/loadcheck"
)

func newCheckCmd(_ *rootOptions) *cobra.Command {
	cfg := loadcheck.Config{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load a running server with generated sites and verify its scores",
		Long: `check posts generated metric sets to a server's /score endpoint and
compares every reply with the locally configured engine. It exits non-zero on
any failed request or differing score.`,
		Example: `  sitescore check --url http://localhost:9080 --sites 1000 --workers 16`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("url", cfg.BaseURL); err != nil {
				return err
			}
			scorer, _, err := newEngines(cmd)
			if err != nil {
				return err
			}
			stats, runErr := loadcheck.Run(cmd.Context(), cfg, scorer)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sites %d  ok %d  failed %d  mismatched %d\n",
				stats.SitesGenerated, stats.Succeeded, stats.Failed, len(stats.Mismatches))
			fmt.Fprintf(out, "p50 %s  p99 %s  total %s\n",
				stats.Percentile(50), stats.Percentile(99), stats.Duration.Round(time.Millisecond))
			for _, m := range stats.Mismatches {
				fmt.Fprintf(out, "  %s: local %d %s, server %d %s\n",
					m.SiteID, m.LocalScore, m.LocalGrade, m.ServerScore, m.ServerGrade)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "", "Server base URL")
	cmd.Flags().IntVar(&cfg.NumSites, "sites", 100, "Number of sites to generate")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 8, "Concurrent submitters")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "HTTP request timeout")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "Generator seed")
	return cmd
}
