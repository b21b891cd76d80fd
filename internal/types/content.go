package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentType identifies which GeneratedContent variant is populated.
type ContentType string

const (
	// ContentCoverLetter marks a cover letter draft
	ContentCoverLetter ContentType = "cover_letter"
	// ContentQuestionAnswer marks an HR question answer draft
	ContentQuestionAnswer ContentType = "question_answer"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentCoverLetter || t == ContentQuestionAnswer
}

// CoverLetter is a drafted cover letter.
type CoverLetter struct {
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	KeyPointsUsed []string `json:"key_points_used"`
}

// QuestionAnswer is a drafted answer to an HR question.
// FollowUpQuestion is nil when the profile had enough information.
type QuestionAnswer struct {
	Question         string   `json:"question,omitempty"`
	Answer           string   `json:"answer"`
	Assumptions      []string `json:"assumptions"`
	FollowUpQuestion *string  `json:"follow_up_question"`
}

// GeneratedContent is a tagged union of the two draft shapes.
type GeneratedContent struct {
	Type           ContentType     `json:"type"`
	CoverLetter    *CoverLetter    `json:"cover_letter,omitempty"`
	QuestionAnswer *QuestionAnswer `json:"question_answer,omitempty"`
}

// NewCoverLetterContent wraps a cover letter.
func NewCoverLetterContent(cl CoverLetter) GeneratedContent {
	return GeneratedContent{Type: ContentCoverLetter, CoverLetter: &cl}
}

// NewAnswerContent wraps a question answer.
func NewAnswerContent(qa QuestionAnswer) GeneratedContent {
	return GeneratedContent{Type: ContentQuestionAnswer, QuestionAnswer: &qa}
}

// Validate checks that exactly the variant named by Type is populated.
func (c *GeneratedContent) Validate() error {
	switch c.Type {
	case ContentCoverLetter:
		if c.CoverLetter == nil || c.QuestionAnswer != nil {
			return fmt.Errorf("cover_letter content must carry only a cover letter")
		}
		if strings.TrimSpace(c.CoverLetter.Body) == "" {
			return fmt.Errorf("cover letter body is empty")
		}
	case ContentQuestionAnswer:
		if c.QuestionAnswer == nil || c.CoverLetter != nil {
			return fmt.Errorf("question_answer content must carry only an answer")
		}
	default:
		return fmt.Errorf("unknown content type %q", c.Type)
	}
	return nil
}

// PrimaryText is the body of a cover letter or the text of an answer.
func (c *GeneratedContent) PrimaryText() string {
	switch {
	case c.CoverLetter != nil:
		return c.CoverLetter.Body
	case c.QuestionAnswer != nil:
		return c.QuestionAnswer.Answer
	}
	return ""
}

// Texts returns every model-authored string in the content.
// The HR question itself is user input and is excluded.
func (c *GeneratedContent) Texts() []string {
	switch {
	case c.CoverLetter != nil:
		return nonBlank([]string{c.CoverLetter.Title, c.CoverLetter.Body})
	case c.QuestionAnswer != nil:
		out := append([]string{c.QuestionAnswer.Answer}, c.QuestionAnswer.Assumptions...)
		if c.QuestionAnswer.FollowUpQuestion != nil {
			out = append(out, *c.QuestionAnswer.FollowUpQuestion)
		}
		return nonBlank(out)
	}
	return nil
}

// KeyPoints returns key_points_used for cover letters and nil otherwise.
func (c *GeneratedContent) KeyPoints() []string {
	if c.CoverLetter == nil {
		return nil
	}
	return c.CoverLetter.KeyPointsUsed
}

// Format renders the content for inclusion in a prompt.
func (c *GeneratedContent) Format() string {
	var sb strings.Builder
	switch {
	case c.CoverLetter != nil:
		fmt.Fprintf(&sb, "Title: %s\n\n%s\n", c.CoverLetter.Title, c.CoverLetter.Body)
		writeAll(&sb, "\nKey Points Used", c.CoverLetter.KeyPointsUsed)
	case c.QuestionAnswer != nil:
		if c.QuestionAnswer.Question != "" {
			fmt.Fprintf(&sb, "Question: %s\n", c.QuestionAnswer.Question)
		}
		fmt.Fprintf(&sb, "Answer: %s\n", c.QuestionAnswer.Answer)
		writeAll(&sb, "Assumptions", c.QuestionAnswer.Assumptions)
	}
	return strings.TrimSpace(sb.String())
}

// Fingerprint is a stable hash of the content used to pair a draft with its critique.
func (c *GeneratedContent) Fingerprint() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy.
func (c GeneratedContent) Clone() GeneratedContent {
	out := GeneratedContent{Type: c.Type}
	if c.CoverLetter != nil {
		cl := *c.CoverLetter
		cl.KeyPointsUsed = append([]string(nil), c.CoverLetter.KeyPointsUsed...)
		out.CoverLetter = &cl
	}
	if c.QuestionAnswer != nil {
		qa := *c.QuestionAnswer
		qa.Assumptions = append([]string(nil), c.QuestionAnswer.Assumptions...)
		if c.QuestionAnswer.FollowUpQuestion != nil {
			q := *c.QuestionAnswer.FollowUpQuestion
			qa.FollowUpQuestion = &q
		}
		out.QuestionAnswer = &qa
	}
	return out
}
