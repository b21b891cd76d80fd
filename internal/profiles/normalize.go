package profiles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/job-agent/internal/apperrors"
	"github.com/jonathan/job-agent/internal/schemas"
	"github.com/jonathan/job-agent/internal/types"
	embedded "github.com/jonathan/job-agent/schemas"
)

// ErrInvalidProfile wraps every normalization failure.
var ErrInvalidProfile = errors.New("invalid profile")

// uploadedTrack accepts a track in any supported shape. Initiator is the
// legacy name for ContentGuidance.
type uploadedTrack struct {
	Name string `json:"name"`
	types.CareerTrack
	Initiator string `json:"initiator"`
}

func (u uploadedTrack) track(name string) types.Track {
	t := types.Track{Name: strings.TrimSpace(name), CareerTrack: u.CareerTrack}
	if strings.TrimSpace(t.ContentGuidance) == "" {
		t.ContentGuidance = strings.TrimSpace(u.Initiator)
	}
	return t
}

// Normalize decodes an uploaded profile into the canonical Profile. It
// accepts:
//
//	{"career_background": {"careers": {"<name>": {...}}}, ...}
//	{"careers": {"<name>": {...}}, ...}
//	{"tracks": [{"name": "<name>", ...}], ...}
//
// A career given as a plain string becomes its achievement sample. Tracks
// with no narrative are dropped, and the result must keep at least one.
func Normalize(data []byte) (*types.Profile, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	var tracks []types.Track
	var err error
	switch {
	case top["career_background"] != nil:
		var cb map[string]json.RawMessage
		if err := json.Unmarshal(top["career_background"], &cb); err != nil {
			return nil, fmt.Errorf("%w: career_background: %w", ErrInvalidProfile, err)
		}
		tracks, err = decodeCareers(cb["careers"])
	case top["careers"] != nil:
		tracks, err = decodeCareers(top["careers"])
	case top["tracks"] != nil:
		tracks, err = decodeTrackList(top["tracks"])
	default:
		return nil, fmt.Errorf("%w: expected career_background, careers or tracks", ErrInvalidProfile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	p := &types.Profile{
		EducationBackground: stringField(top, "education_background"),
		Motivation:          stringField(top, "motivation"),
	}
	for _, t := range tracks {
		if t.HasNarrative() {
			p.Tracks = append(p.Tracks, t)
		}
	}
	if len(p.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, apperrors.ErrEmptyProfile)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	canonical, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := schemas.MustLoad(embedded.Profile).Validate(string(canonical)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return p, nil
}

// LoadFile reads and normalizes a profile file.
func LoadFile(path string) (*types.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Normalize(data)
}

// decodeCareers reads a name-to-track object, keeping key order.
func decodeCareers(data json.RawMessage) ([]types.Track, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("careers: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("careers must be a JSON object")
	}

	var tracks []types.Track
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("careers: %w", err)
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("career %q: %w", name, err)
		}
		var text string
		if json.Unmarshal(raw, &text) == nil {
			tracks = append(tracks, types.Track{Name: strings.TrimSpace(name), CareerTrack: types.CareerTrack{AchievementSample: text}})
			continue
		}
		var u uploadedTrack
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("career %q: %w", name, err)
		}
		tracks = append(tracks, u.track(name))
	}
	return tracks, nil
}

func decodeTrackList(data json.RawMessage) ([]types.Track, error) {
	var list []uploadedTrack
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("tracks: %w", err)
	}
	tracks := make([]types.Track, 0, len(list))
	for _, u := range list {
		tracks = append(tracks, u.track(u.Name))
	}
	return tracks, nil
}

func stringField(top map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := top[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return strings.TrimSpace(s)
}
