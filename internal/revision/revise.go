// Package revision applies user-selected critique suggestions to a draft
// while keeping every fact the draft already states.
package revision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/drafting"
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

const stage = apperrors.StageRevision

// ReasonWouldRemoveFacts is reported for every item when no revision could
// keep the original facts.
const ReasonWouldRemoveFacts = "would remove facts"

const defaultDeclineReason = "declined by the model"

var tracer = otel.Tracer("github.com/jonathan/job-agent/internal/revision")

// Stage revises drafts.
type Stage struct {
	invoker *llm.Invoker
	logger  *zap.Logger
}

// NewStage creates a revision stage.
func NewStage(invoker *llm.Invoker, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{invoker: invoker, logger: logger.With(zap.String("stage", string(stage)))}
}

type declinedIndex struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type revisionOutput struct {
	Title            string          `json:"title"`
	Body             string          `json:"body"`
	KeyPointsUsed    []string        `json:"key_points_used"`
	Answer           string          `json:"answer"`
	Assumptions      []string        `json:"assumptions"`
	FollowUpQuestion *string         `json:"follow_up_question"`
	Declined         []declinedIndex `json:"declined_feedback"`
}

// Revise applies req.SelectedFeedback to req.Original. The result has the
// same content type. A revision that drops facts is retried once; if it still
// drops them, the original is returned unchanged with every item declined. A
// revision that adds entities outside the original, the filtered profile and
// the job is retried once and then rejected. A revision identical to the
// original despite applied items is retried once.
func (s *Stage) Revise(ctx context.Context, req types.RevisionRequest, job *types.JobSummary, fp *types.FilteredProfile) (result *types.RevisedContent, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stage, start, err) }()

	original := req.Original
	if err := original.Validate(); err != nil {
		return nil, apperrors.NewInputError(stage, "original content is invalid", err)
	}
	if len(req.SelectedFeedback) == 0 {
		return nil, apperrors.NewInputError(stage, "select at least one suggestion to apply", nil)
	}

	ctx, span := tracer.Start(ctx, "revision.revise")
	defer span.End()
	span.SetAttributes(
		attribute.String("content_type", string(original.Type)),
		attribute.Int("selected", len(req.SelectedFeedback)),
	)

	known := grounding.NewCorpus(append(append(original.Texts(), fp.Texts()...), job.Texts()...)...)
	basePrompt := buildPrompt(original, req.SelectedFeedback)
	prompt := basePrompt

	var factsRetried, groundingRetried, identicalRetried bool
	for {
		out, err := s.generate(ctx, original.Type, prompt)
		if err != nil {
			return nil, err
		}
		revised := buildContent(original, out)
		applied, declined := splitFeedback(req.SelectedFeedback, out.Declined, s.logger)

		if missing := MissingFacts(original, revised); len(missing) > 0 {
			if !factsRetried {
				factsRetried = true
				s.retry("preserve_facts", missing)
				prompt = basePrompt + "\n\n" + prompts.Render(prompts.RevisionFile, "preserve-facts-retry", map[string]string{
					"Missing": prompts.QuoteList(missing),
				})
				continue
			}
			s.logger.Warn("revision keeps removing facts, returning original", zap.Strings("missing", missing))
			return declineAll(original, req.SelectedFeedback), nil
		}

		if novel := known.NovelEntities(drafting.FactTexts(&revised)...); len(novel) > 0 {
			if !groundingRetried {
				groundingRetried = true
				s.retry("grounding", novel)
				prompt = basePrompt + "\n\n" + prompts.Render(prompts.RevisionFile, "grounding-retry", map[string]string{
					"Rejected": prompts.QuoteList(novel),
				})
				continue
			}
			return nil, apperrors.NewGroundingViolation(stage, novel)
		}

		if len(applied) > 0 && sameText(original, revised) && !identicalRetried {
			identicalRetried = true
			s.retry("identical", nil)
			prompt = basePrompt + "\n\n" + prompts.MustGet(prompts.RevisionFile, "identical-retry")
			continue
		}

		span.SetAttributes(attribute.Int("applied", len(applied)), attribute.Int("declined", len(declined)))
		return &types.RevisedContent{Content: revised, Applied: applied, Declined: declined}, nil
	}
}

func (s *Stage) retry(reason string, offending []string) {
	metrics.StageRetries.WithLabelValues(string(stage), reason).Inc()
	s.logger.Warn("retrying revision", zap.String("reason", reason), zap.Strings("offending", offending))
}

func (s *Stage) generate(ctx context.Context, contentType types.ContentType, prompt string) (*revisionOutput, error) {
	schema := embedded.RevisedCoverLetter
	if contentType == types.ContentQuestionAnswer {
		schema = embedded.RevisedQuestionAnswer
	}
	var out revisionOutput
	if err := s.invoker.Invoke(ctx, llm.Call{
		Stage:  stage,
		Prompt: prompt,
		Schema: schemas.MustLoad(schema),
		Tier:   llm.TierAdvanced,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func buildPrompt(original types.GeneratedContent, selected []types.FeedbackItem) string {
	var feedback strings.Builder
	for i, item := range selected {
		fmt.Fprintf(&feedback, "%d. [%s] %s\n", i+1, item.Type, item.Suggestion)
	}
	fields := "title, body, key_points_used"
	if original.Type == types.ContentQuestionAnswer {
		fields = "answer, assumptions, follow_up_question"
	}
	return prompts.Render(prompts.RevisionFile, "revise", map[string]string{
		"Content":  validation.QuoteExternalContentWithLabel(original.Format(), "draft"),
		"Feedback": strings.TrimRight(feedback.String(), "\n"),
		"Fields":   fields,
	})
}

// buildContent shapes model output like the original. Key points are the
// original set, reordered by the revised body.
func buildContent(original types.GeneratedContent, out *revisionOutput) types.GeneratedContent {
	if original.Type == types.ContentQuestionAnswer {
		assumptions := out.Assumptions
		if assumptions == nil {
			assumptions = []string{}
		}
		return types.NewAnswerContent(types.QuestionAnswer{
			Question:         original.QuestionAnswer.Question,
			Answer:           out.Answer,
			Assumptions:      assumptions,
			FollowUpQuestion: drafting.FirstQuestion(out.FollowUpQuestion),
		})
	}
	return types.NewCoverLetterContent(types.CoverLetter{
		Title:         out.Title,
		Body:          out.Body,
		KeyPointsUsed: drafting.OrderKeyPoints(original.CoverLetter.KeyPointsUsed, out.Body),
	})
}

// splitFeedback maps the model's 1-based declined indexes onto the selected
// items. Unknown indexes are ignored.
func splitFeedback(selected []types.FeedbackItem, declinedIdx []declinedIndex, logger *zap.Logger) ([]types.FeedbackItem, []types.DeclinedFeedback) {
	reasons := make(map[int]string, len(declinedIdx))
	for _, d := range declinedIdx {
		i := d.Index - 1
		if i < 0 || i >= len(selected) {
			logger.Debug("ignoring declined index out of range", zap.Int("index", d.Index))
			continue
		}
		if _, dup := reasons[i]; dup {
			continue
		}
		reason := strings.TrimSpace(d.Reason)
		if reason == "" {
			reason = defaultDeclineReason
		}
		reasons[i] = reason
	}

	applied := make([]types.FeedbackItem, 0, len(selected))
	declined := make([]types.DeclinedFeedback, 0, len(reasons))
	for i, item := range selected {
		if reason, ok := reasons[i]; ok {
			declined = append(declined, types.DeclinedFeedback{Item: item, Reason: reason})
			continue
		}
		applied = append(applied, item)
	}
	return applied, declined
}

func declineAll(original types.GeneratedContent, selected []types.FeedbackItem) *types.RevisedContent {
	declined := make([]types.DeclinedFeedback, len(selected))
	for i, item := range selected {
		declined[i] = types.DeclinedFeedback{Item: item, Reason: ReasonWouldRemoveFacts}
	}
	return &types.RevisedContent{
		Content:  original.Clone(),
		Applied:  []types.FeedbackItem{},
		Declined: declined,
	}
}

// MissingFacts returns the entities of original that revised no longer states.
func MissingFacts(original, revised types.GeneratedContent) []string {
	return grounding.NewCorpus(drafting.FactTexts(&revised)...).Unstated(drafting.FactTexts(&original)...)
}

func sameText(a, b types.GeneratedContent) bool {
	ta, tb := drafting.FactTexts(&a), drafting.FactTexts(&b)
	if len(ta) != len(tb) {
		return false
	}
	for i := range ta {
		if strings.Join(strings.Fields(ta[i]), " ") != strings.Join(strings.Fields(tb[i]), " ") {
			return false
		}
	}
	return true
}
