package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "job_agent",
		Short: "Tailored cover letters and HR answers from your profile",
		Long: "job_agent filters a career profile against a job description, drafts a cover letter " +
			"or an answer to an HR question, critiques the draft, and applies the suggestions you pick.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML or JSON config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newCoverLetterCmd(opts),
		newAnswerCmd(opts),
		newReviseCmd(opts),
		newFetchJobCmd(opts),
		newProfileCmd(opts),
	)
	return cmd
}
