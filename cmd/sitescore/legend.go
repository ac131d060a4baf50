package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/sitescore/internal/domain/grading"
)

func newLegendCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "legend",
		Short: "Print the grade bands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeLegend(cmd.OutOrStdout(), root.format, grading.Bands())
		},
	}
}
