// Package types provides type definitions for structured data used throughout the job-agent pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// MaxPromptListItems caps how many responsibilities/requirements are rendered into prompts.
const MaxPromptListItems = 5

// JobSummary is the normalized job-description record produced by a job source.
// It is treated as read-only by every pipeline stage.
type JobSummary struct {
	URL              string   `json:"url,omitempty"`
	Title            string   `json:"title,omitempty"`
	RoleSummary      string   `json:"role_summary"`
	CompanyContext   string   `json:"company_context"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
}

// IsEmpty reports whether the summary carries no usable job content.
func (j *JobSummary) IsEmpty() bool {
	if j == nil {
		return true
	}
	return strings.TrimSpace(j.RoleSummary) == "" &&
		len(nonBlank(j.Responsibilities)) == 0 &&
		len(nonBlank(j.Requirements)) == 0
}

// Texts returns every string the summary carries, in field order.
func (j *JobSummary) Texts() []string {
	if j == nil {
		return nil
	}
	out := []string{j.Title, j.RoleSummary, j.CompanyContext}
	out = append(out, j.Responsibilities...)
	out = append(out, j.Requirements...)
	return nonBlank(out)
}

// Format renders the summary for inclusion in a prompt, keeping only the
// first MaxPromptListItems responsibilities and requirements.
func (j *JobSummary) Format() string {
	if j == nil {
		return ""
	}
	var sb strings.Builder
	if j.Title != "" {
		fmt.Fprintf(&sb, "Job Title: %s\n", j.Title)
	}
	if j.RoleSummary != "" {
		fmt.Fprintf(&sb, "Role Summary: %s\n", j.RoleSummary)
	}
	if j.CompanyContext != "" {
		fmt.Fprintf(&sb, "Company Context: %s\n", j.CompanyContext)
	}
	writeList(&sb, "Key Responsibilities", j.Responsibilities)
	writeList(&sb, "Key Requirements", j.Requirements)
	return strings.TrimSpace(sb.String())
}

func writeList(sb *strings.Builder, heading string, items []string) {
	items = nonBlank(items)
	if len(items) == 0 {
		return
	}
	if len(items) > MaxPromptListItems {
		items = items[:MaxPromptListItems]
	}
	fmt.Fprintf(sb, "%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
