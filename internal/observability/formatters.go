// Package observability provides formatted output for the CLI: job
// summaries, filtered profiles, drafts, critique feedback and revisions.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-agent/internal/types"
)

const (
	// boxWidth is the outer width of a formatted box
	boxWidth = 72
	// maxItemsToShow caps list sections
	maxItemsToShow = 5
)

// Printer writes boxed, human-readable summaries.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer that writes to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints title and content in a box, wrapping long lines.
//
//nolint:errcheck // terminal output; nothing to do on failure
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobSummary outputs the extracted job description.
func (p *Printer) PrintJobSummary(job *types.JobSummary) {
	if job == nil {
		return
	}

	var sb strings.Builder
	if job.Title != "" {
		fmt.Fprintf(&sb, "Role:     %s\n", job.Title)
	}
	if job.URL != "" {
		fmt.Fprintf(&sb, "Source:   %s\n", job.URL)
	}
	if job.RoleSummary != "" {
		fmt.Fprintf(&sb, "\n%s\n", job.RoleSummary)
	}
	if job.CompanyContext != "" {
		fmt.Fprintf(&sb, "\nCompany: %s\n", job.CompanyContext)
	}
	writeList(&sb, "Responsibilities", job.Responsibilities)
	writeList(&sb, "Requirements", job.Requirements)

	p.printBox("JOB SUMMARY", strings.TrimRight(sb.String(), "\n"))
}

// PrintFilteredProfile outputs the track and facts chosen for a job.
func (p *Printer) PrintFilteredProfile(fp *types.FilteredProfile) {
	if fp == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Track: %s\n", fp.SelectedTrack)
	if len(fp.RelevantSkills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(fp.RelevantSkills, ", "))
	}
	writeList(&sb, "Experience", fp.RelevantExperience)
	writeList(&sb, "Education", fp.RelevantEducation)
	if fp.MotivationalAlignment != "" {
		fmt.Fprintf(&sb, "\nMotivation: %s\n", fp.MotivationalAlignment)
	}

	p.printBox("FILTERED PROFILE", strings.TrimRight(sb.String(), "\n"))
}

// PrintContent outputs a cover letter or answer in full.
func (p *Printer) PrintContent(c types.GeneratedContent) {
	switch {
	case c.CoverLetter != nil:
		var sb strings.Builder
		sb.WriteString(c.CoverLetter.Body)
		writeList(&sb, "Key points used", c.CoverLetter.KeyPointsUsed)
		title := "COVER LETTER"
		if c.CoverLetter.Title != "" {
			title += ": " + c.CoverLetter.Title
		}
		p.printBox(title, strings.TrimRight(sb.String(), "\n"))

	case c.QuestionAnswer != nil:
		qa := c.QuestionAnswer
		var sb strings.Builder
		if qa.Question != "" {
			fmt.Fprintf(&sb, "Q: %s\n\n", qa.Question)
		}
		sb.WriteString(qa.Answer)
		writeList(&sb, "Assumptions", qa.Assumptions)
		if qa.FollowUpQuestion != nil {
			fmt.Fprintf(&sb, "\nFollow-up: %s\n", *qa.FollowUpQuestion)
		}
		p.printBox("ANSWER", strings.TrimRight(sb.String(), "\n"))
	}
}

// PrintFeedback outputs numbered suggestions. The numbers are what the
// revise command accepts.
func (p *Printer) PrintFeedback(items []types.FeedbackItem) {
	if len(items) == 0 {
		p.printBox("FEEDBACK", "No suggestions.")
		return
	}

	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, item.Type, item.Suggestion)
	}
	p.printBox(fmt.Sprintf("FEEDBACK (%d)", len(items)), strings.TrimRight(sb.String(), "\n"))
}

// PrintRevision outputs revised content and which suggestions were declined.
func (p *Printer) PrintRevision(r *types.RevisedContent) {
	if r == nil {
		return
	}
	p.PrintContent(r.Content)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Applied: %d\n", len(r.Applied))
	for _, item := range r.Applied {
		fmt.Fprintf(&sb, "  ✓ [%s] %s\n", item.Type, item.Suggestion)
	}
	if len(r.Declined) > 0 {
		fmt.Fprintf(&sb, "Declined: %d\n", len(r.Declined))
		for _, d := range r.Declined {
			fmt.Fprintf(&sb, "  ✗ [%s] %s\n    %s\n", d.Item.Type, d.Item.Suggestion, d.Reason)
		}
	}
	p.printBox("REVISION", strings.TrimRight(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", heading)
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// wrap splits line at word boundaries into pieces of at most width runes.
// Words longer than width are cut.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	var out []string
	cur := ""
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width-len(indent) {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			r := []rune(word)
			out = append(out, indent+string(r[:width-len(indent)]))
			word = string(r[width-len(indent):])
		}
		switch {
		case cur == "":
			cur = indent + word
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(word) <= width:
			cur += " " + word
		default:
			out = append(out, cur)
			cur = indent + word
		}
	}
	if cur != "" || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
