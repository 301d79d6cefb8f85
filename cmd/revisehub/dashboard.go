package main

import (
	"github.com/spf13/cobra"

	"revisehub/internal/reporef"
	"revisehub/internal/report"
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard <repo-url>",
		Short: "Show contributor, pull request velocity and code churn metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := validateOutput(output); err != nil {
				return err
			}
			ref, err := reporef.Parse(args[0])
			if err != nil {
				return err
			}

			e, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			data, err := e.aggregator.Aggregate(ctx, ref)
			if err != nil {
				return err
			}

			if output == outputJSON {
				return report.WriteJSON(cmd.OutOrStdout(), data)
			}
			repo, err := e.explorer.Repository(ctx, ref)
			if err != nil {
				return err
			}
			return report.WriteDashboard(cmd.OutOrStdout(), ref, repo, data)
		},
	}
	cmd.Flags().StringP("output", "o", outputTable, "Output format: table or json")
	return cmd
}
