// Package pipeline sequences the filtering, drafting, critique and revision
// stages and tracks each generation as a Turn.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/critique"
	"github.com/jonathan/job-agent/internal/drafting"
	"github.com/jonathan/job-agent/internal/filtering"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/metrics"
	"github.com/jonathan/job-agent/internal/revision"
	"github.com/jonathan/job-agent/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/pipeline")

// Progress event kinds
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// ProgressEvent reports a stage boundary.
type ProgressEvent struct {
	Stage   apperrors.Stage `json:"stage"`
	Event   string          `json:"event"`
	TurnID  string          `json:"turn_id"`
	Message string          `json:"message,omitempty"`
	Content any             `json:"content,omitempty"`
}

// ProgressCallback receives progress events. It runs on the pipeline goroutine.
type ProgressCallback func(event ProgressEvent)

// Config holds pipeline settings.
type Config struct {
	MaxFeedbackItems int
}

// Result is the envelope returned by a generation.
type Result struct {
	Content         types.GeneratedContent `json:"content"`
	Feedback        []types.FeedbackItem   `json:"feedback"`
	FilteredProfile *types.FilteredProfile `json:"filtered_profile"`
	JobSummary      *types.JobSummary      `json:"job_summary"`
	Turn            *Turn                  `json:"turn"`
}

// Orchestrator runs the pipeline. It holds no per-request state and is safe
// for concurrent use.
type Orchestrator struct {
	filter     *filtering.Stage
	draft      *drafting.Stage
	critique   *critique.Stage
	revise     *revision.Stage
	logger     *zap.Logger
	onProgress ProgressCallback
}

// New creates an Orchestrator whose stages share invoker.
func New(invoker *llm.Invoker, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		filter:   filtering.NewStage(invoker, logger),
		draft:    drafting.NewStage(invoker, logger),
		critique: critique.NewStage(invoker, logger, cfg.MaxFeedbackItems),
		revise:   revision.NewStage(invoker, logger),
		logger:   logger,
	}
}

// WithProgress returns a copy of o that reports progress to cb.
func (o *Orchestrator) WithProgress(cb ProgressCallback) *Orchestrator {
	c := *o
	c.onProgress = cb
	return &c
}

// GenerateCoverLetter filters the profile, drafts a cover letter and critiques it.
func (o *Orchestrator) GenerateCoverLetter(ctx context.Context, job *types.JobSummary, profile *types.Profile) (*Result, error) {
	return o.generate(ctx, drafting.ModeCoverLetter, job, profile, "")
}

// GenerateAnswer filters the profile, drafts an answer to question and critiques it.
func (o *Orchestrator) GenerateAnswer(ctx context.Context, job *types.JobSummary, profile *types.Profile, question string) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewInputError(apperrors.StageInput, "question must not be blank", nil)
	}
	return o.generate(ctx, drafting.ModeHRAnswer, job, profile, question)
}

func (o *Orchestrator) generate(ctx context.Context, mode drafting.Mode, job *types.JobSummary, profile *types.Profile, question string) (_ *Result, err error) {
	operation := "generate_" + string(mode)
	defer func() { metrics.PipelineRuns.WithLabelValues(operation, resultLabel(err)).Inc() }()

	if job.IsEmpty() {
		return nil, apperrors.NewInputError(apperrors.StageInput, "job summary has no role summary, responsibilities or requirements", nil)
	}
	if profile != nil {
		if err := profile.Validate(); err != nil {
			return nil, apperrors.NewInputError(apperrors.StageInput, "profile is invalid", err)
		}
	}

	turn := NewTurn(job)
	ctx, span := tracer.Start(ctx, "pipeline."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("turn_id", turn.ID))
	logger := o.logger.With(zap.String("turn_id", turn.ID), zap.String("operation", operation))

	var fp *types.FilteredProfile
	if err := o.step(ctx, turn, StateFiltering, apperrors.StageFilter, func(ctx context.Context) (any, error) {
		var err error
		fp, err = o.filter.Filter(ctx, job, profile)
		return fp, err
	}); err != nil {
		return nil, err
	}
	turn.FilteredProfile = fp

	var content types.GeneratedContent
	if err := o.step(ctx, turn, StateDrafting, apperrors.StageDraft, func(ctx context.Context) (any, error) {
		var err error
		content, err = o.draft.Draft(ctx, mode, job, fp, question)
		return content, err
	}); err != nil {
		return nil, err
	}

	var feedback []types.FeedbackItem
	if err := o.step(ctx, turn, StateCritiquing, apperrors.StageCritique, func(ctx context.Context) (any, error) {
		var err error
		feedback, err = o.critique.Critique(ctx, content, job, fp)
		return feedback, err
	}); err != nil {
		return nil, err
	}

	turn.setContent(content, feedback)
	if err := turn.Transition(StateAwaitingSelection); err != nil {
		return nil, apperrors.NewInternal(apperrors.StagePipeline, err)
	}
	logger.Info("generation complete",
		zap.String("track", fp.SelectedTrack),
		zap.Int("suggestions", len(feedback)))

	return &Result{
		Content:         content.Clone(),
		Feedback:        append([]types.FeedbackItem{}, feedback...),
		FilteredProfile: fp,
		JobSummary:      job,
		Turn:            turn,
	}, nil
}

// ApplyFeedback revises the turn's current content with selected suggestions.
// original and contentType must match the turn's current content, and every
// selected item must be one of its outstanding suggestions; otherwise a
// feedback mismatch error is returned without calling the model. On success
// the revised content becomes current and the applied suggestions are consumed.
func (o *Orchestrator) ApplyFeedback(ctx context.Context, turn *Turn, original types.GeneratedContent, selected []types.FeedbackItem, contentType types.ContentType) (_ *types.RevisedContent, err error) {
	defer func() { metrics.PipelineRuns.WithLabelValues("apply_feedback", resultLabel(err)).Inc() }()

	if turn == nil {
		return nil, apperrors.NewInputError(apperrors.StageInput, "no generation to revise", nil)
	}
	if len(selected) == 0 {
		return nil, apperrors.NewInputError(apperrors.StageInput, "select at least one suggestion to apply", nil)
	}
	chosen, err := o.checkSelection(turn, original, selected, contentType)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.apply_feedback")
	defer span.End()
	span.SetAttributes(attribute.String("turn_id", turn.ID), attribute.Int("selected", len(chosen)))

	req := types.RevisionRequest{Original: turn.Content.Clone(), SelectedFeedback: chosen}
	var revised *types.RevisedContent
	if err := o.step(ctx, turn, StateRevising, apperrors.StageRevision, func(ctx context.Context) (any, error) {
		var err error
		revised, err = o.revise.Revise(ctx, req, turn.JobSummary, turn.FilteredProfile)
		return revised, err
	}); err != nil {
		return nil, err
	}

	turn.setContent(revised.Content, turn.consume(revised.Applied))
	turn.Revisions++
	if err := turn.Transition(StateDone); err != nil {
		return nil, apperrors.NewInternal(apperrors.StagePipeline, err)
	}
	o.logger.Info("revision applied",
		zap.String("turn_id", turn.ID),
		zap.Int("applied", len(revised.Applied)),
		zap.Int("declined", len(revised.Declined)),
		zap.Int("remaining", len(turn.Suggestions)))
	return revised, nil
}

// checkSelection verifies the request against the turn and returns the
// turn's own copies of the selected items, deduplicated.
func (o *Orchestrator) checkSelection(turn *Turn, original types.GeneratedContent, selected []types.FeedbackItem, contentType types.ContentType) ([]types.FeedbackItem, error) {
	if !CanTransition(turn.State, StateRevising) {
		return nil, apperrors.NewFeedbackMismatch("this generation is not waiting for feedback", "state: "+string(turn.State))
	}
	if contentType != turn.Content.Type || original.Type != turn.Content.Type {
		return nil, apperrors.NewFeedbackMismatch("content type does not match the generation",
			"expected: "+string(turn.Content.Type), "got: "+string(contentType))
	}
	if original.Fingerprint() != turn.Fingerprint {
		return nil, apperrors.NewFeedbackMismatch("content has changed since it was critiqued")
	}

	var chosen []types.FeedbackItem
	var unknown []string
	seen := make(map[string]bool, len(selected))
	for _, item := range selected {
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		s, ok := turn.suggestion(item)
		if !ok {
			unknown = append(unknown, item.Suggestion)
			continue
		}
		chosen = append(chosen, s)
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewFeedbackMismatch("selected feedback is not part of this content's critique", unknown...)
	}
	return chosen, nil
}

// step runs fn as stage after moving the turn to state. Cancellation is
// checked first. Any failure moves the turn to Failed, except that a
// revision which failed transiently or was cancelled returns the turn to
// where it was: its content is untouched and the request can be retried.
func (o *Orchestrator) step(ctx context.Context, turn *Turn, state State, stage apperrors.Stage, fn func(context.Context) (any, error)) error {
	from := turn.State
	settle := func(err error) {
		if state == StateRevising && recoverable(err) {
			if turn.State == StateRevising {
				_ = turn.Transition(from)
			}
			return
		}
		turn.fail()
	}
	if err := ctx.Err(); err != nil {
		settle(err)
		o.emit(ProgressEvent{Stage: stage, Event: EventFailed, TurnID: turn.ID, Message: err.Error()})
		return err
	}
	if err := turn.Transition(state); err != nil {
		return apperrors.NewInternal(apperrors.StagePipeline, err)
	}

	o.emit(ProgressEvent{Stage: stage, Event: EventStarted, TurnID: turn.ID})
	start := time.Now()
	out, err := fn(ctx)
	if err != nil {
		settle(err)
		msg := err.Error()
		if appErr, ok := apperrors.As(err); ok {
			msg = appErr.UserMessage()
		}
		o.logger.Warn("stage failed",
			zap.String("turn_id", turn.ID),
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		o.emit(ProgressEvent{Stage: stage, Event: EventFailed, TurnID: turn.ID, Message: msg})
		return err
	}
	o.emit(ProgressEvent{Stage: stage, Event: EventCompleted, TurnID: turn.ID, Content: out})
	return nil
}

func (o *Orchestrator) emit(event ProgressEvent) {
	if o.onProgress != nil {
		o.onProgress(event)
	}
}

// recoverable reports failures after which the same request may succeed.
func recoverable(err error) bool {
	return apperrors.IsRetryable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.KindOf(err))
}
