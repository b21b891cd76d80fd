package types

import (
	"fmt"
	"strings"
)

// FilteredProfile is the job-relevant slice of a Profile. Every string it
// carries must be traceable to the source Profile.
type FilteredProfile struct {
	SelectedTrack         string   `json:"selected_track"`
	RelevantSkills        []string `json:"relevant_skills"`
	RelevantExperience    []string `json:"relevant_experience"`
	RelevantEducation     []string `json:"relevant_education"`
	MotivationalAlignment string   `json:"motivational_alignment"`
	ContentGuidance       string   `json:"content_guidance,omitempty"`
}

// Texts returns every factual string in the filtered profile.
// ContentGuidance is a style hint and is excluded.
func (f *FilteredProfile) Texts() []string {
	if f == nil {
		return nil
	}
	out := []string{f.SelectedTrack}
	out = append(out, f.RelevantSkills...)
	out = append(out, f.RelevantExperience...)
	out = append(out, f.RelevantEducation...)
	out = append(out, f.MotivationalAlignment)
	return nonBlank(out)
}

// Format renders the filtered profile for inclusion in a prompt.
func (f *FilteredProfile) Format() string {
	if f == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Career Track: %s\n", f.SelectedTrack)
	writeAll(&sb, "Relevant Skills", f.RelevantSkills)
	writeAll(&sb, "Relevant Experience", f.RelevantExperience)
	writeAll(&sb, "Relevant Education", f.RelevantEducation)
	if f.MotivationalAlignment != "" {
		fmt.Fprintf(&sb, "Motivational Alignment: %s\n", f.MotivationalAlignment)
	}
	return strings.TrimSpace(sb.String())
}

func writeAll(sb *strings.Builder, heading string, items []string) {
	items = nonBlank(items)
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}
