package filtering

import (
	"strings"

	"github.com/jonathan/job-agent/internal/grounding"
	"github.com/jonathan/job-agent/internal/types"
)

// Weights for the track relevance components. They sum to 1.
const (
	skillOverlapWeight     = 0.5
	keywordCoverageWeight  = 0.3
	narrativeDensityWeight = 0.2
)

// TrackScore is the relevance of one career track to a job.
type TrackScore struct {
	Name             string   `json:"name"`
	Score            float64  `json:"score"`
	SkillOverlap     float64  `json:"skill_overlap"`
	KeywordCoverage  float64  `json:"keyword_coverage"`
	NarrativeDensity float64  `json:"narrative_density"`
	MatchedTerms     []string `json:"matched_terms,omitempty"`
}

// ScoreTracks scores every track with narrative content against the job, in
// declaration order. Scoring is purely lexical and deterministic.
func ScoreTracks(job *types.JobSummary, profile *types.Profile) []TrackScore {
	requirementTerms := grounding.Terms(strings.Join(job.Requirements, "\n"))
	keywordTerms := grounding.Terms(strings.Join(append([]string{job.Title, job.RoleSummary}, job.Responsibilities...), "\n"))
	jobTerms := make(map[string]bool, len(requirementTerms)+len(keywordTerms))
	for _, t := range requirementTerms {
		jobTerms[t] = true
	}
	for _, t := range keywordTerms {
		jobTerms[t] = true
	}

	scores := make([]TrackScore, 0, len(profile.Tracks))
	for _, track := range profile.Tracks {
		if !track.HasNarrative() {
			continue
		}
		trackTerms := grounding.Terms(track.Name + "\n" + strings.Join(track.Texts(), "\n"))
		have := make(map[string]bool, len(trackTerms))
		for _, t := range trackTerms {
			have[t] = true
		}

		s := TrackScore{Name: track.Name}
		s.SkillOverlap = coverage(requirementTerms, have)
		s.KeywordCoverage = coverage(keywordTerms, have)

		matched := 0
		for _, t := range trackTerms {
			if jobTerms[t] {
				matched++
				s.MatchedTerms = append(s.MatchedTerms, t)
			}
		}
		if len(trackTerms) > 0 {
			s.NarrativeDensity = float64(matched) / float64(len(trackTerms))
		}

		s.Score = skillOverlapWeight*s.SkillOverlap +
			keywordCoverageWeight*s.KeywordCoverage +
			narrativeDensityWeight*s.NarrativeDensity
		scores = append(scores, s)
	}
	return scores
}

// SelectTrack returns the highest-scoring track. Ties go to the track declared
// first. It returns false when no track has narrative content.
func SelectTrack(job *types.JobSummary, profile *types.Profile) (types.Track, TrackScore, bool) {
	scores := ScoreTracks(job, profile)
	if len(scores) == 0 {
		return types.Track{}, TrackScore{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	track, _ := profile.Track(best.Name)
	return track, best, true
}

func coverage(terms []string, have map[string]bool) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, t := range terms {
		if have[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
