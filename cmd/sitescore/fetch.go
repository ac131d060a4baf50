package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	service "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/pkg/logger"
)

func newFetchCmd(root *rootOptions) *cobra.Command {
	var baseURL, siteID string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:     "fetch",
		Short:   "Score a site using metrics from the metrics repository",
		Example: `  sitescore fetch --url http://metrics.internal:8081 --site lot-7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("url", baseURL); err != nil {
				return err
			}
			if err := requireFlag("site", siteID); err != nil {
				return err
			}
			client, err := metricsrepo.New(baseURL, metricsrepo.WithTimeout(timeout))
			if err != nil {
				return err
			}
			scorer, recommender, err := newEngines(cmd)
			if err != nil {
				return err
			}
			svc, err := service.New(
				service.WithScorer(scorer),
				service.WithRecommender(recommender),
				service.WithFetcher(client),
				service.WithLogger(logger.GetOrNop().Named("cli")),
			)
			if err != nil {
				return err
			}
			report, err := svc.SiteScore(cmd.Context(), siteID)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), root.format, report)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "Metrics repository base URL")
	cmd.Flags().StringVar(&siteID, "site", "", "Site ID")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Repository request timeout")
	return cmd
}
