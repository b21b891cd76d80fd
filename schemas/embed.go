// Package schemas embeds the JSON Schemas that constrain model output and
// uploaded profiles.
package schemas

import "embed"

// Schema file names
const (
	FilteredProfile       = "filtered_profile.schema.json"
	CoverLetter           = "cover_letter.schema.json"
	QuestionAnswer        = "question_answer.schema.json"
	Feedback              = "feedback.schema.json"
	RevisedCoverLetter    = "revised_cover_letter.schema.json"
	RevisedQuestionAnswer = "revised_question_answer.schema.json"
	JobSummary            = "job_summary.schema.json"
	Profile               = "profile.schema.json"
)

// All lists every embedded schema.
var All = []string{
	FilteredProfile, CoverLetter, QuestionAnswer, Feedback,
	RevisedCoverLetter, RevisedQuestionAnswer, JobSummary, Profile,
}

// FS holds the schema files.
//
//go:embed *.schema.json
var FS embed.FS
