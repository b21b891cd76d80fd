// Package drafting writes cover letters and HR answers strictly from a job
// summary and a filtered profile.
package drafting

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/grounding"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/metrics"
	"github.com/jonathan/job-agent/internal/prompts"
	"github.com/jonathan/job-agent/internal/schemas"
	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/validation"
	embedded "github.com/jonathan/job-agent/schemas"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const stage = apperrors.StageDraft

// DefaultGuidance is used when the selected track has no content guidance.
const DefaultGuidance = "Professional, warm and concise."

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/drafting")

// Mode selects what the stage writes.
type Mode string

// Draft modes
const (
	ModeCoverLetter Mode = "cover_letter"
	ModeHRAnswer    Mode = "hr_answer"
)

// Stage drafts application content.
type Stage struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewStage creates a drafting stage.
func NewStage(invoker *llm.Invoker, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{invoker: invoker, logger: logger.With(zap.String("stage", string(stage)))}
}

// CoverLetter drafts a cover letter.
func (s *Stage) CoverLetter(ctx context.Context, job *types.JobSummary, fp *types.FilteredProfile) (types.GeneratedContent, error) {
	return s.Draft(ctx, ModeCoverLetter, job, fp, "")
}

// Answer drafts an answer to an HR question. A blank question is an input error.
func (s *Stage) Answer(ctx context.Context, job *types.JobSummary, fp *types.FilteredProfile, question string) (types.GeneratedContent, error) {
	return s.Draft(ctx, ModeHRAnswer, job, fp, question)
}

// Draft writes content in the given mode. Every entity the draft names must
// come from the job, the filtered profile or the question; a draft that
// names anything else is retried once with the offending entities listed and
// then rejected with a grounding error.
func (s *Stage) Draft(ctx context.Context, mode Mode, job *types.JobSummary, fp *types.FilteredProfile, question string) (content types.GeneratedContent, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stage, start, err) }()

	question = strings.TrimSpace(question)
	switch {
	case mode != ModeCoverLetter && mode != ModeHRAnswer:
		return content, apperrors.NewInputError(stage, "unknown draft mode "+string(mode), nil)
	case mode == ModeHRAnswer && question == "":
		return content, apperrors.NewInputError(stage, "an HR answer needs a non-blank question", nil)
	case job.IsEmpty():
		return content, apperrors.NewInputError(apperrors.StageInput, "job summary has no role summary, responsibilities or requirements", nil)
	case fp == nil:
		return content, apperrors.NewInputError(stage, "filtered profile is required", nil)
	}

	ctx, span := tracer.Start(ctx, "drafting.draft")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(mode)))

	facts := append(job.Texts(), fp.Texts()...)
	corpus := grounding.NewCorpus(append(facts, question)...)

	basePrompt := s.buildPrompt(mode, job, fp, question)
	prompt := basePrompt
	var novel []string
	for attempt := 0; attempt < 2; attempt++ {
		content, err = s.generate(ctx, mode, prompt)
		if err != nil {
			return types.GeneratedContent{}, err
		}

		novel = corpus.NovelEntities(FactTexts(&content)...)
		if len(novel) == 0 {
			break
		}
		metrics.StageRetries.WithLabelValues(string(stage), "grounding").Inc()
		s.logger.Warn("draft names entities outside the job and profile",
			zap.String("mode", string(mode)),
			zap.Int("attempt", attempt+1),
			zap.Strings("entities", novel))
		prompt = basePrompt + "\n\n" + prompts.Render(prompts.DraftingFile, "grounding-retry", map[string]string{
			"Rejected": prompts.QuoteList(novel),
		})
	}
	if len(novel) > 0 {
		return types.GeneratedContent{}, apperrors.NewGroundingViolation(stage, novel)
	}

	switch mode {
	case ModeCoverLetter:
		content.CoverLetter.KeyPointsUsed = OrderKeyPoints(content.CoverLetter.KeyPointsUsed, content.CoverLetter.Body)
	case ModeHRAnswer:
		qa := content.QuestionAnswer
		qa.Question = question
		qa.FollowUpQuestion = FirstQuestion(qa.FollowUpQuestion)
		if qa.FollowUpQuestion == nil {
			if topic, ok := MissingSensitiveTopic(question, grounding.NewCorpus(fp.Texts()...)); ok {
				followUp := prompts.MustGet(prompts.DraftingFile, "follow-up-"+string(topic))
				qa.FollowUpQuestion = &followUp
				s.logger.Debug("added follow-up for missing information", zap.String("topic", string(topic)))
			}
		}
	}
	return content, nil
}

func (s *Stage) buildPrompt(mode Mode, job *types.JobSummary, fp *types.FilteredProfile, question string) string {
	data := map[string]string{
		"FilteredProfile": validation.QuoteExternalContentWithLabel(fp.Format(), "profile"),
		"JobSummary":      validation.QuoteExternalContentWithLabel(validation.Screen(s.logger, "job_summary", job.Format()), "job"),
	}
	if mode == ModeHRAnswer {
		data["Question"] = validation.Screen(s.logger, "question", question)
		return prompts.Render(prompts.DraftingFile, "hr-answer", data)
	}
	guidance := strings.TrimSpace(fp.ContentGuidance)
	if guidance == "" {
		guidance = DefaultGuidance
	}
	data["ContentGuidance"] = guidance
	return prompts.Render(prompts.DraftingFile, "cover-letter", data)
}

func (s *Stage) generate(ctx context.Context, mode Mode, prompt string) (types.GeneratedContent, error) {
	if mode == ModeHRAnswer {
		var qa types.QuestionAnswer
		if err := s.invoker.Invoke(ctx, llm.Call{
			Stage:  stage,
			Prompt: prompt,
			Schema: schemas.MustLoad(embedded.QuestionAnswer),
			Tier:   llm.TierAdvanced,
		}, &qa); err != nil {
			return types.GeneratedContent{}, err
		}
		return types.NewAnswerContent(qa), nil
	}

	var cl types.CoverLetter
	if err := s.invoker.Invoke(ctx, llm.Call{
		Stage:  stage,
		Prompt: prompt,
		Schema: schemas.MustLoad(embedded.CoverLetter),
		Tier:   llm.TierAdvanced,
	}, &cl); err != nil {
		return types.GeneratedContent{}, err
	}
	return types.NewCoverLetterContent(cl), nil
}

// FactTexts are the strings whose entities must be grounded. The follow-up
// question asks the applicant for facts, so it is not checked.
func FactTexts(c *types.GeneratedContent) []string {
	if c.CoverLetter != nil {
		return []string{c.CoverLetter.Title, c.CoverLetter.Body}
	}
	if c.QuestionAnswer != nil {
		return append([]string{c.QuestionAnswer.Answer}, c.QuestionAnswer.Assumptions...)
	}
	return nil
}
