package main

import (
	"github.com/spf13/cobra"

	"revisehub/internal/reporef"
	"revisehub/internal/report"
)

func newPullsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pulls <repo-url>",
		Short: "List pull requests of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := validateOutput(output); err != nil {
				return err
			}
			state, _ := cmd.Flags().GetString("state")
			ref, err := reporef.Parse(args[0])
			if err != nil {
				return err
			}

			e, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			pulls, err := e.explorer.PullRequests(ctx, ref, state)
			if err != nil {
				return err
			}

			if output == outputJSON {
				return report.WriteJSON(cmd.OutOrStdout(), pulls)
			}
			return report.WritePullRequests(cmd.OutOrStdout(), pulls)
		},
	}
	cmd.Flags().StringP("state", "s", "open", "Pull request state: open, closed or all")
	cmd.Flags().StringP("output", "o", outputTable, "Output format: table or json")
	return cmd
}
