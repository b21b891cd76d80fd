package jobsource

import (
	"regexp"
	"strings"

	"github.com/jonathan/job-agent/internal/types"
)

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionCompany
	sectionResponsibilities
	sectionRequirements
	sectionOther
)

// headings maps a heading line to the section it opens, first match wins.
// Headings are matched after trailing colons are removed.
var headings = []struct {
	pattern *regexp.Regexp
	section section
}{
	{regexp.MustCompile(`(?i)^(what you('| wi)ll do|responsibilities|key responsibilities|your role|duties|the role|in this role)`), sectionResponsibilities},
	{regexp.MustCompile(`(?i)^(requirements|qualifications|minimum qualifications|basic qualifications|required skills|what you('| wi)ll bring|what we('| a)re looking for|who you are|skills|you have)`), sectionRequirements},
	{regexp.MustCompile(`(?i)^(about the (role|job|position|team)|overview|job summary|role summary|summary|description)$`), sectionSummary},
	{regexp.MustCompile(`(?i)^(about (us|the company|[a-z0-9 .&-]{1,40})|who we are|our company|company overview)$`), sectionCompany},
	{regexp.MustCompile(`(?i)^(benefits|perks|compensation|salary|pay range|equal opportunity|eeo|how to apply|nice to have|preferred qualifications|bonus points)`), sectionOther},
}

// maxHeadingWords bounds how long a line may be and still count as a heading.
const maxHeadingWords = 8

// ParseSections builds a JobSummary from cleaned posting text using section
// headings. Text before the first heading becomes the role summary.
func ParseSections(text string) *types.JobSummary {
	job := &types.JobSummary{Responsibilities: []string{}, Requirements: []string{}}
	var summary, company []string
	current := sectionNone

	for _, line := range strings.Split(CleanText(text), "\n") {
		if line == "" {
			continue
		}
		if s, ok := headingSection(line); ok {
			if s == sectionSummary && job.Title == "" && current == sectionNone && len(summary) == 1 {
				job.Title = summary[0]
				summary = nil
			}
			current = s
			continue
		}

		item := strings.TrimPrefix(line, "- ")
		switch current {
		case sectionNone, sectionSummary:
			summary = append(summary, item)
		case sectionCompany:
			company = append(company, item)
		case sectionResponsibilities:
			job.Responsibilities = append(job.Responsibilities, item)
		case sectionRequirements:
			job.Requirements = append(job.Requirements, item)
		}
	}

	if len(summary) > 1 && job.Title == "" && looksLikeTitle(summary[0]) {
		job.Title = summary[0]
		summary = summary[1:]
	}
	job.RoleSummary = strings.Join(summary, " ")
	job.CompanyContext = strings.Join(company, " ")
	return job
}

func headingSection(line string) (section, bool) {
	if isBullet(line) {
		return sectionNone, false
	}
	h := strings.TrimSpace(strings.TrimLeft(line, "#"))
	h = strings.TrimRight(h, ":")
	if len(strings.Fields(h)) > maxHeadingWords || strings.HasSuffix(h, ".") {
		return sectionNone, false
	}
	for _, candidate := range headings {
		if candidate.pattern.MatchString(h) {
			return candidate.section, true
		}
	}
	return sectionNone, false
}

// looksLikeTitle accepts a short line with no sentence punctuation.
func looksLikeTitle(line string) bool {
	return len(strings.Fields(line)) <= maxHeadingWords && !strings.ContainsAny(line, ".!?")
}
