package drafting

import (
	"context"
	"regexp"
	"testing"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/llm/llmtest"
	"github.com/jonathan/job-agent/internal/prompts"
	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/types/typestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func coverLetterJSON(body string, points ...string) llmtest.Response {
	if points == nil {
		points = []string{}
	}
	return llmtest.JSON(types.CoverLetter{
		Title:         "Application for Senior Data Engineer",
		Body:          body,
		KeyPointsUsed: points,
	})
}

func answerJSON(answer string, followUp *string) llmtest.Response {
	return llmtest.JSON(types.QuestionAnswer{
		Answer:           answer,
		Assumptions:      []string{},
		FollowUpQuestion: followUp,
	})
}

func TestCoverLetter_Success(t *testing.T) {
	want := typestest.CoverLetter().CoverLetter
	client := llmtest.New(coverLetterJSON(want.Body,
		"B.S. Computer Science",
		"ETL pipelines processing 10TB/day on AWS",
		"b.s. computer science",
		"Ownership mindset",
	))
	stage := NewStage(client.Invoker(), zaptest.NewLogger(t))

	content, err := stage.CoverLetter(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile())
	require.NoError(t, err)

	require.Equal(t, types.ContentCoverLetter, content.Type)
	assert.NoError(t, content.Validate())
	assert.Equal(t, []string{
		"ETL pipelines processing 10TB/day on AWS",
		"B.S. Computer Science",
		"Ownership mindset",
	}, content.CoverLetter.KeyPointsUsed)

	prompt := client.Prompts()[0]
	assert.Contains(t, prompt, "Keep it concise and lead with impact.")
	assert.Contains(t, prompt, "Career Track: Data Engineering")
	assert.NotContains(t, prompt, "Teaching")
	assert.Equal(t, []llm.ModelTier{llm.TierAdvanced}, client.Tiers())
}

func TestCoverLetter_DefaultGuidance(t *testing.T) {
	fp := typestest.DataEngineeringFilteredProfile()
	fp.ContentGuidance = ""
	client := llmtest.New(coverLetterJSON(typestest.CoverLetter().CoverLetter.Body))

	_, err := NewStage(client.Invoker(), nil).CoverLetter(context.Background(), typestest.DataEngineeringJob(), fp)
	require.NoError(t, err)
	assert.Contains(t, client.Prompts()[0], DefaultGuidance)
}

func TestCoverLetter_GroundingRetry(t *testing.T) {
	good := typestest.CoverLetter().CoverLetter.Body
	client := llmtest.New(
		coverLetterJSON("I led the Kafka migration at Globex in 2019."),
		coverLetterJSON(good),
	)

	content, err := NewStage(client.Invoker(), nil).CoverLetter(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile())
	require.NoError(t, err)
	assert.Equal(t, good, content.CoverLetter.Body)

	prompts := client.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], `"Kafka", "Globex", "2019"`)
}

func TestCoverLetter_GroundingViolation(t *testing.T) {
	bad := coverLetterJSON("I also hold a PhD from MIT.")
	client := llmtest.New(bad, bad)

	_, err := NewStage(client.Invoker(), nil).CoverLetter(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindGroundingViolation, appErr.Kind)
	assert.Equal(t, apperrors.StageDraft, appErr.Stage)
	assert.Equal(t, []string{"PhD", "MIT"}, appErr.Details)
}

var digits = regexp.MustCompile(`\d`)

func TestAnswer_SalaryWithoutCompensationData(t *testing.T) {
	client := llmtest.New(
		answerJSON("My expected salary is $150,000.", nil),
		answerJSON("I am flexible and would like to discuss compensation that reflects the Senior Data Engineer scope.", nil),
	)
	stage := NewStage(client.Invoker(), nil)

	content, err := stage.Answer(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), "What are your salary expectations?")
	require.NoError(t, err)

	qa := content.QuestionAnswer
	require.NotNil(t, qa)
	assert.Equal(t, "What are your salary expectations?", qa.Question)
	assert.False(t, digits.MatchString(qa.Answer), "no invented number")
	require.NotNil(t, qa.FollowUpQuestion)
	assert.Equal(t, prompts.MustGet(prompts.DraftingFile, "follow-up-compensation"), *qa.FollowUpQuestion)
	assert.Contains(t, client.Prompts()[1], `"150000"`)
}

func TestAnswer_SalaryInPostingStillNeedsFollowUp(t *testing.T) {
	job := typestest.DataEngineeringJob()
	job.CompanyContext += " We offer a competitive salary and benefits."
	client := llmtest.New(answerJSON("I would welcome a conversation about the package.", nil))

	content, err := NewStage(client.Invoker(), nil).Answer(context.Background(), job, typestest.DataEngineeringFilteredProfile(), "What is your salary expectation?")
	require.NoError(t, err)
	require.NotNil(t, content.QuestionAnswer.FollowUpQuestion)
	assert.Equal(t, prompts.MustGet(prompts.DraftingFile, "follow-up-compensation"), *content.QuestionAnswer.FollowUpQuestion)
}

func TestCoverLetter_RejectsSentenceInitialAndPrefixNames(t *testing.T) {
	bad := coverLetterJSON("Google promoted me after two years. I scaled Databricks deployments for Initech.")
	client := llmtest.New(bad, bad)

	_, err := NewStage(client.Invoker(), nil).CoverLetter(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindGroundingViolation, appErr.Kind)
	assert.Equal(t, []string{"Google", "2", "Databricks"}, appErr.Details)
	assert.Equal(t, 2, client.Calls())
}

func TestAnswer_FollowUpTrimmedToOneQuestion(t *testing.T) {
	followUp := "What range should I give? Also, when can you start?"
	client := llmtest.New(answerJSON("I would welcome a conversation about the package.", &followUp))

	content, err := NewStage(client.Invoker(), nil).Answer(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), "What is your desired pay?")
	require.NoError(t, err)
	require.NotNil(t, content.QuestionAnswer.FollowUpQuestion)
	assert.Equal(t, "What range should I give?", *content.QuestionAnswer.FollowUpQuestion)
}

func TestAnswer_NoFollowUpWhenProfileAnswers(t *testing.T) {
	client := llmtest.New(answerJSON("I built ETL pipelines processing 10TB/day on AWS with PySpark.", nil))

	content, err := NewStage(client.Invoker(), nil).Answer(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), "Describe your experience with AWS.")
	require.NoError(t, err)
	assert.Nil(t, content.QuestionAnswer.FollowUpQuestion)
}

func TestAnswer_QuestionEntitiesMayBeRepeated(t *testing.T) {
	client := llmtest.New(answerJSON("I have not used Snowflake, but I built ETL pipelines on AWS.", nil))

	_, err := NewStage(client.Invoker(), nil).Answer(context.Background(), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), "Have you used Snowflake?")
	assert.NoError(t, err)
	assert.Equal(t, 1, client.Calls())
}

func TestDraft_InputErrors(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		job      *types.JobSummary
		fp       *types.FilteredProfile
		question string
	}{
		{"blank question", ModeHRAnswer, typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), "   "},
		{"unknown mode", Mode("poem"), typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile(), ""},
		{"empty job", ModeCoverLetter, &types.JobSummary{}, typestest.DataEngineeringFilteredProfile(), ""},
		{"missing profile", ModeCoverLetter, typestest.DataEngineeringJob(), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.New()
			_, err := NewStage(client.Invoker(), nil).Draft(context.Background(), tt.mode, tt.job, tt.fp, tt.question)
			assert.True(t, apperrors.IsKind(err, apperrors.KindInput), err)
			assert.Zero(t, client.Calls())
		})
	}
}

func TestDraft_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := llmtest.New(coverLetterJSON("x"))

	_, err := NewStage(client.Invoker(), nil).CoverLetter(ctx, typestest.DataEngineeringJob(), typestest.DataEngineeringFilteredProfile())
	assert.ErrorIs(t, err, context.Canceled)
}
