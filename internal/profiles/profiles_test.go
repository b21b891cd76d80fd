package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/types"
	"github.com/jonathan/job-agent/internal/types/typestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name: "canonical",
			input: `{"career_background":{"careers":{
				"Teaching":{"achievement_sample":"Taught math."},
				"Data Engineering":{"achievement_sample":"Built ETL pipelines.","content_guidance":"Be brief."}}},
				"education_background":" B.S. CS ","motivation":"Ownership."}`,
		},
		{
			name: "bare careers with legacy initiator",
			input: `{"careers":{
				"Teaching":"Taught math.",
				"Data Engineering":{"achievement_sample":"Built ETL pipelines.","initiator":"Be brief."}},
				"education_background":"B.S. CS","motivation":"Ownership."}`,
		},
		{
			name: "track list",
			input: `{"tracks":[
				{"name":" Teaching ","achievement_sample":"Taught math."},
				{"name":"Data Engineering","achievement_sample":"Built ETL pipelines.","initiator":"Be brief."},
				{"name":"Empty","achievement_sample":"  "}],
				"education_background":"B.S. CS","motivation":"Ownership."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, []string{"Teaching", "Data Engineering"}, p.TrackNames())
			de, ok := p.Track("Data Engineering")
			require.True(t, ok)
			assert.Equal(t, "Built ETL pipelines.", de.AchievementSample)
			assert.Equal(t, "Be brief.", de.ContentGuidance)
			assert.Equal(t, "B.S. CS", p.EducationBackground)
			assert.Equal(t, "Ownership.", p.Motivation)
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not json", `careers: yes`, nil},
		{"unknown shape", `{"resume":"..."}`, nil},
		{"careers not an object", `{"careers":["a"]}`, nil},
		{"only blank tracks", `{"careers":{"Teaching":{"achievement_sample":" "}}}`, apperrors.ErrEmptyProfile},
		{"duplicate names after trimming", `{"tracks":[{"name":"A","achievement_sample":"x"},{"name":"A ","achievement_sample":"y"}]}`, types.ErrDuplicateTrack},
		{"blank name", `{"tracks":[{"name":" ","achievement_sample":"x"}]}`, types.ErrBlankTrackName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.input))
			require.ErrorIs(t, err, ErrInvalidProfile)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNormalize_RoundTripsCanonicalOutput(t *testing.T) {
	data, err := typestest.MultiTrackProfile().MarshalJSON()
	require.NoError(t, err)

	p, err := Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, typestest.MultiTrackProfile(), p)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"careers":{"Data Engineering":"Built ETL pipelines."}}`), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineering"}, p.TrackNames())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.LoadProfile(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	first := &Record{SessionID: "s1", Profile: typestest.MultiTrackProfile()}
	require.NoError(t, store.SaveProfile(ctx, first))
	assert.Equal(t, DefaultName, first.Name)
	assert.True(t, first.IsDefault, "first profile becomes the default")

	second := &Record{SessionID: "s1", Name: "career change", Profile: typestest.MultiTrackProfile()}
	require.NoError(t, store.SaveProfile(ctx, second))

	got, err := store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, got.Name)

	second.IsDefault = true
	require.NoError(t, store.SaveProfile(ctx, second))
	got, err = store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "career change", got.Name)

	require.NoError(t, store.DeleteProfile(ctx, "s1", "career change"))
	got, err = store.LoadProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, got.Name, "falls back to the remaining profile")

	assert.ErrorIs(t, store.DeleteProfile(ctx, "s1", "career change"), ErrNotFound)
	require.NoError(t, store.DeleteProfile(ctx, "s1", ""))
	_, err = store.LoadProfile(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteProfile(ctx, "s1", ""), ErrNotFound)

	_, err = store.LoadProfile(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RejectsInvalidRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.SaveProfile(ctx, &Record{Profile: typestest.MultiTrackProfile()}))
	assert.Error(t, store.SaveProfile(ctx, &Record{SessionID: "s1"}))

	dup := typestest.MultiTrackProfile()
	dup.Tracks[1].Name = dup.Tracks[0].Name
	assert.ErrorIs(t, store.SaveProfile(ctx, &Record{SessionID: "s1", Profile: dup}), types.ErrDuplicateTrack)
}

func TestPick_MostRecentWithoutDefault(t *testing.T) {
	now := time.Now()
	recs := []Record{
		{Name: "old", UpdatedAt: now.Add(-time.Hour)},
		{Name: "new", UpdatedAt: now},
	}
	assert.Equal(t, "new", pick(recs).Name)
}
