package main

import (
	"errors"

	"github.com/jonathan/job-agent/internal/observability"
	"github.com/spf13/cobra"
)

func newFetchJobCmd(root *rootOptions) *cobra.Command {
	var (
		jobFile string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "fetch-job [url-or-text]",
		Short: "Fetch a job posting and print its structured summary",
		Long: "Fetch a posting from a URL (Greenhouse, Lever, Workday and generic pages) or take pasted " +
			"text, and extract the company, role, responsibilities and qualifications. The model is " +
			"used when an API key is configured; otherwise the heading parser runs alone.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && jobFile == "" {
				return errors.New("pass a URL or text argument, or --job-file")
			}
			if len(args) > 0 && jobFile != "" {
				return errors.New("pass either an argument or --job-file, not both")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var input string
			if len(args) > 0 {
				input = args[0]
			}
			job, err := resolveJob(ctx, a, input, jobFile)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), job)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintJobSummary(job)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobFile, "job-file", "", "Path to a file holding the posting text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
