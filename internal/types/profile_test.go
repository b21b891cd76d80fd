package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfileJSON = `{
  "career_background": {
    "careers": {
      "Software Engineering": {
        "achievement_sample": "Shipped a Go billing service",
        "education_profile": "BSc Computer Science",
        "motivation_goals": "Build reliable systems"
      },
      "Data Engineering": {
        "achievement_sample": "Built ETL pipeline processing 10TB/day on AWS",
        "education_profile": "",
        "motivation_goals": "Scale data platforms",
        "content_guidance": "Keep it concise"
      },
      "Analytics": {
        "achievement_sample": "",
        "education_profile": "",
        "motivation_goals": ""
      }
    }
  },
  "education_background": "BSc Computer Science, 2015",
  "motivation": "Working on data-heavy products"
}`

func TestProfile_UnmarshalPreservesOrder(t *testing.T) {
	var p Profile
	require.NoError(t, json.Unmarshal([]byte(sampleProfileJSON), &p))

	assert.Equal(t, []string{"Software Engineering", "Data Engineering", "Analytics"}, p.TrackNames())
	assert.Equal(t, "BSc Computer Science, 2015", p.EducationBackground)

	track, ok := p.Track("Data Engineering")
	require.True(t, ok)
	assert.Equal(t, "Keep it concise", track.ContentGuidance)
	assert.True(t, track.HasNarrative())

	analytics, _ := p.Track("Analytics")
	assert.False(t, analytics.HasNarrative())
}

func TestProfile_MarshalRoundTripKeepsOrder(t *testing.T) {
	p := Profile{Tracks: []Track{
		{Name: "Zeta", CareerTrack: CareerTrack{AchievementSample: "z"}},
		{Name: "Alpha", CareerTrack: CareerTrack{AchievementSample: "a"}},
	}}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"Zeta", "Alpha"}, decoded.TrackNames())
}

func TestProfile_RejectsDuplicateTracks(t *testing.T) {
	data := `{"career_background":{"careers":{"A":{"achievement_sample":"x"},"A":{"achievement_sample":"y"}}}}`

	var p Profile
	err := json.Unmarshal([]byte(data), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTrack)
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tracks  []Track
		wantErr error
	}{
		{name: "valid", tracks: []Track{{Name: "A"}, {Name: "B"}}},
		{name: "blank name", tracks: []Track{{Name: "  "}}, wantErr: ErrBlankTrackName},
		{name: "duplicate", tracks: []Track{{Name: "A"}, {Name: "A"}}, wantErr: ErrDuplicateTrack},
		{name: "empty profile", tracks: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{Tracks: tt.tracks}
			err := p.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProfile_HasContent(t *testing.T) {
	var nilProfile *Profile
	assert.False(t, nilProfile.HasContent())

	p := Profile{Tracks: []Track{{Name: "A", CareerTrack: CareerTrack{ContentGuidance: "only a hint"}}}}
	assert.False(t, p.HasContent())

	p.Tracks[0].MotivationGoals = "Grow"
	assert.True(t, p.HasContent())
}

func TestDecodeTracks_NotAnObject(t *testing.T) {
	_, err := DecodeTracks(json.RawMessage(`["a"]`))
	assert.Error(t, err)

	tracks, err := DecodeTracks(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, tracks)
}
