package filtering

import (
	"testing"

	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/types/typestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTrack_PrefersJobOverlap(t *testing.T) {
	track, score, ok := SelectTrack(typestest.DataEngineeringJob(), typestest.MultiTrackProfile())
	require.True(t, ok)
	assert.Equal(t, "Data Engineering", track.Name)
	assert.Greater(t, score.Score, 0.0)
	assert.Contains(t, score.MatchedTerms, "aws")
}

func TestSelectTrack_TieGoesToFirstDeclared(t *testing.T) {
	same := types.CareerTrack{AchievementSample: "Built dashboards in Tableau."}
	profile := &types.Profile{Tracks: []types.Track{
		{Name: "Analytics", CareerTrack: same},
		{Name: "Reporting", CareerTrack: same},
	}}
	job := &types.JobSummary{RoleSummary: "Own payroll compliance.", Requirements: []string{"Payroll"}}

	track, score, ok := SelectTrack(job, profile)
	require.True(t, ok)
	assert.Equal(t, "Analytics", track.Name)
	assert.Zero(t, score.Score)
}

func TestScoreTracks_SkipsTracksWithoutNarrative(t *testing.T) {
	profile := &types.Profile{Tracks: []types.Track{
		{Name: "Empty", CareerTrack: types.CareerTrack{ContentGuidance: "formal"}},
		{Name: "Backend", CareerTrack: types.CareerTrack{AchievementSample: "Wrote Go services"}},
	}}
	scores := ScoreTracks(typestest.DataEngineeringJob(), profile)
	require.Len(t, scores, 1)
	assert.Equal(t, "Backend", scores[0].Name)

	_, _, ok := SelectTrack(typestest.DataEngineeringJob(), &types.Profile{})
	assert.False(t, ok)
}

func TestScoreTracks_Deterministic(t *testing.T) {
	job := typestest.DataEngineeringJob()
	profile := typestest.MultiTrackProfile()
	first := ScoreTracks(job, profile)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreTracks(job, profile))
	}
}
