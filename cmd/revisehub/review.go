package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"revisehub/internal/reporef"
	"revisehub/internal/report"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <repo-url> <number>",
		Short: "Ask the AI assistant to review a pull request diff",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := validateOutput(output); err != nil {
				return err
			}
			ref, err := reporef.Parse(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number %q", args[1])
			}

			e, ctx, cancel, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			asst, err := e.assistant(ctx)
			if err != nil {
				return err
			}
			diff, err := e.explorer.PullRequestDiff(ctx, ref, number)
			if err != nil {
				return err
			}
			suggestions, err := asst.ReviewCode(ctx, diff.Diff)
			if err != nil {
				return err
			}

			if output == outputJSON {
				return report.WriteJSON(cmd.OutOrStdout(), suggestions)
			}
			return report.WriteSuggestions(cmd.OutOrStdout(), suggestions)
		},
	}
	cmd.Flags().StringP("output", "o", outputTable, "Output format: table or json")
	return cmd
}
