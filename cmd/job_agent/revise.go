package main

import (
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/spf13/cobra"
)

func newReviseCmd(root *rootOptions) *cobra.Command {
	var (
		statePath string
		selected  []int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "revise",
		Short: "Apply selected critique suggestions to a saved generation",
		Long: "Apply suggestions, chosen by their number in the feedback list, to the content saved " +
			"with --out. The state file is updated in place so revisions can be chained; suggestions " +
			"that were declined stay selectable.",
		Example: "  job_agent revise --state letter.json --select 1,3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			result, err := readState(statePath)
			if err != nil {
				return err
			}
			items, err := selectSuggestions(result.Turn.Suggestions, selected)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, root, true)
			if err != nil {
				return err
			}
			defer a.Close()

			turn := result.Turn
			revised, err := a.orch.ApplyFeedback(ctx, turn, turn.Content, items, turn.Content.Type)
			if err != nil {
				return describeError(a.logger, err)
			}

			result.Content = turn.Content
			result.Feedback = turn.Suggestions
			if err := writeState(statePath, result); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), revised)
			}
			p := observability.NewPrinter(cmd.OutOrStdout())
			p.PrintRevision(revised)
			p.PrintFeedback(result.Feedback)
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "State file written by cover-letter or answer --out (required)")
	cmd.Flags().IntSliceVar(&selected, "select", nil, "Suggestion numbers to apply, e.g. 1,3 (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the revision as JSON")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("select")
	return cmd
}
