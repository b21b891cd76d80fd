package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/jonathan/job-agent/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	profilePath string
	job         string
	jobFile     string
	question    string
	out         string
	json        bool
}

func (o *generateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.profilePath, "profile", "", "Path to the profile JSON file (required)")
	cmd.Flags().StringVar(&o.job, "job", "", "Job posting URL or pasted text")
	cmd.Flags().StringVar(&o.jobFile, "job-file", "", "Path to a file holding the job posting text")
	cmd.Flags().StringVar(&o.out, "out", "", "Save the generation to this file for 'revise'")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("profile")
	cmd.MarkFlagsMutuallyExclusive("job", "job-file")
	cmd.MarkFlagsOneRequired("job", "job-file")
}

func newCoverLetterCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "cover-letter",
		Short: "Draft and critique a cover letter",
		Example: "  job_agent cover-letter --profile me.json --job https://boards.greenhouse.io/acme/jobs/1 --out letter.json\n" +
			"  job_agent revise --state letter.json --select 1,3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, root, opts, func(ctx context.Context, o *pipeline.Orchestrator, job *types.JobSummary, p *types.Profile) (*pipeline.Result, error) {
				return o.GenerateCoverLetter(ctx, job, p)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newAnswerCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Draft and critique an answer to an HR question",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.question) == "" {
				return errors.New("--question must not be blank")
			}
			return runGenerate(cmd, root, opts, func(ctx context.Context, o *pipeline.Orchestrator, job *types.JobSummary, p *types.Profile) (*pipeline.Result, error) {
				return o.GenerateAnswer(ctx, job, p, opts.question)
			})
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.question, "question", "", "The HR question to answer (required)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

type generateFunc func(context.Context, *pipeline.Orchestrator, *types.JobSummary, *types.Profile) (*pipeline.Result, error)

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, generate generateFunc) error {
	ctx := cmd.Context()
	profile, err := profiles.LoadFile(opts.profilePath)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, root, true)
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := resolveJob(ctx, a, opts.job, opts.jobFile)
	if err != nil {
		return err
	}

	result, err := generate(ctx, a.orch, job, profile)
	if err != nil {
		return describeError(a.logger, err)
	}

	if opts.out != "" {
		if err := writeState(opts.out, result); err != nil {
			return err
		}
	}
	if opts.json {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	p := observability.NewPrinter(cmd.OutOrStdout())
	p.PrintJobSummary(result.JobSummary)
	p.PrintFilteredProfile(result.FilteredProfile)
	p.PrintContent(result.Content)
	p.PrintFeedback(result.Feedback)
	if opts.out != "" && len(result.Feedback) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nApply suggestions with: job_agent revise --state %s --select 1,2\n", opts.out)
	}
	return nil
}

// resolveJob turns --job or --job-file into a summary.
func resolveJob(ctx context.Context, a *app, job, jobFile string) (*types.JobSummary, error) {
	input := job
	if jobFile != "" {
		data, err := os.ReadFile(jobFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read job file: %w", err)
		}
		input = string(data)
	}
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("the job posting is empty")
	}
	summary, err := a.jobs.FetchJobDescription(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	return summary, nil
}

// userError shows the caller-facing message and keeps the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// describeError replaces pipeline errors with their user-facing message.
// The full chain goes to the debug log.
func describeError(log *zap.Logger, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		return err
	}
	log.Debug("pipeline failed", zap.Error(err))
	return &userError{msg: appErr.UserMessage(), err: err}
}
