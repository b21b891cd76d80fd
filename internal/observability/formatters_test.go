package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/types/typestest"
	"github.com/stretchr/testify/assert"
)

func TestPrintJobSummary(t *testing.T) {
	var buf bytes.Buffer
	job := typestest.DataEngineeringJob()
	job.Requirements = append(job.Requirements, "Kafka", "dbt")

	NewPrinter(&buf).PrintJobSummary(job)
	out := buf.String()

	assert.Contains(t, out, "JOB SUMMARY")
	assert.Contains(t, out, "Senior Data Engineer")
	assert.Contains(t, out, "• AWS")
	assert.Contains(t, out, "... and 1 more")
	assert.NotContains(t, out, "dbt")
}

func TestPrintFilteredProfile(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFilteredProfile(typestest.DataEngineeringFilteredProfile())
	out := buf.String()

	assert.Contains(t, out, "Track: Data Engineering")
	assert.Contains(t, out, "Skills: AWS, PySpark, Airflow")
}

func TestPrintContent(t *testing.T) {
	t.Run("cover letter", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintContent(typestest.CoverLetter())
		out := buf.String()

		assert.Contains(t, out, "COVER LETTER: Application for Senior Data Engineer")
		assert.Contains(t, out, "Key points used:")
		// The body wraps instead of being truncated.
		assert.Contains(t, out, "trust.")
		assert.NotContains(t, out, "...")
	})

	t.Run("answer", func(t *testing.T) {
		follow := "Which cloud provider do you prefer?"
		var buf bytes.Buffer
		NewPrinter(&buf).PrintContent(types.NewAnswerContent(types.QuestionAnswer{
			Question:         "Why us?",
			Answer:           "Because of the platform work.",
			Assumptions:      []string{"Remote is fine"},
			FollowUpQuestion: &follow,
		}))
		out := buf.String()

		assert.Contains(t, out, "Q: Why us?")
		assert.Contains(t, out, "Assumptions:")
		assert.Contains(t, out, "Follow-up: "+follow)
	})
}

func TestPrintFeedback(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintFeedback([]types.FeedbackItem{
		{Type: types.FeedbackTone, Suggestion: "Warm up the opening."},
		{Type: types.FeedbackClarity, Suggestion: "Shorten the second paragraph."},
	})
	out := buf.String()
	assert.Contains(t, out, "FEEDBACK (2)")
	assert.Contains(t, out, "1. [tone] Warm up the opening.")
	assert.Contains(t, out, "2. [clarity]")

	buf.Reset()
	p.PrintFeedback(nil)
	assert.Contains(t, buf.String(), "No suggestions.")
}

func TestPrintRevision(t *testing.T) {
	var buf bytes.Buffer
	item := types.FeedbackItem{Type: types.FeedbackEmphasis, Suggestion: "Mention Kubernetes."}
	NewPrinter(&buf).PrintRevision(&types.RevisedContent{
		Content:  typestest.CoverLetter(),
		Declined: []types.DeclinedFeedback{{Item: item, Reason: "not in the profile"}},
	})
	out := buf.String()

	assert.Contains(t, out, "Applied: 0")
	assert.Contains(t, out, "Declined: 1")
	assert.Contains(t, out, "not in the profile")
}

func TestPrinter_NilInputsPrintNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintJobSummary(nil)
	p.PrintFilteredProfile(nil)
	p.PrintRevision(nil)
	p.PrintContent(types.GeneratedContent{})
	assert.Empty(t, buf.String())
}

func TestBoxLinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("T", strings.Repeat("word ", 40)+strings.Repeat("x", 100)+"\nrésumé ✓")

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Equal(t, []string{"  ab cd", "  ef"}, wrap("  ab cd ef", 7))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrap("abcdefghij", 4))
}
