package main

import (
	"github.com/spf13/cobra"

	service "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/pkg/logger"
)

func newScoreCmd(root *rootOptions) *cobra.Command {
	var file, siteID string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score metrics read from a JSON or YAML file",
		Example: `  sitescore score --file lot-7.yaml
  sitescore score --file metrics.json --site lot-7 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("file", file); err != nil {
				return err
			}
			doc, err := readMetricsFile(file)
			if err != nil {
				return err
			}
			if siteID != "" {
				doc.SiteID = siteID
			}
			if doc.SiteID == "" && len(doc.Metrics) > 0 {
				doc.SiteID = doc.Metrics[0].SiteID
			}
			for i := range doc.Metrics {
				if doc.Metrics[i].SiteID == "" {
					doc.Metrics[i].SiteID = doc.SiteID
				}
			}

			scorer, recommender, err := newEngines(cmd)
			if err != nil {
				return err
			}
			svc, err := service.New(
				service.WithScorer(scorer),
				service.WithRecommender(recommender),
				service.WithLogger(logger.GetOrNop().Named("cli")),
			)
			if err != nil {
				return err
			}
			report, err := svc.Score(cmd.Context(), doc.SiteID, doc.Metrics)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), root.format, report)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Metrics file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&siteID, "site", "", "Site ID (overrides the file's siteId)")
	return cmd
}
