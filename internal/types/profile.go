package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CareerTrack holds the narrative fields of one named career category.
type CareerTrack struct {
	AchievementSample string `json:"achievement_sample"`
	EducationProfile  string `json:"education_profile"`
	MotivationGoals   string `json:"motivation_goals"`
	ContentGuidance   string `json:"content_guidance,omitempty"`
}

// HasNarrative reports whether any narrative field is non-blank.
// ContentGuidance is a writing hint, not narrative, and does not count.
func (c CareerTrack) HasNarrative() bool {
	return strings.TrimSpace(c.AchievementSample) != "" ||
		strings.TrimSpace(c.EducationProfile) != "" ||
		strings.TrimSpace(c.MotivationGoals) != ""
}

// Texts returns the narrative fields in declaration order.
func (c CareerTrack) Texts() []string {
	return nonBlank([]string{c.AchievementSample, c.EducationProfile, c.MotivationGoals})
}

// Track is a CareerTrack paired with its user-defined name.
type Track struct {
	Name string
	CareerTrack
}

// Profile is an applicant's multi-track career profile. Tracks keep the order
// in which they were declared; that order breaks relevance ties.
type Profile struct {
	Tracks              []Track
	EducationBackground string
	Motivation          string
}

// Profile validation errors
var (
	ErrDuplicateTrack = errors.New("duplicate career track name")
	ErrBlankTrackName = errors.New("career track name must not be blank")
)

// Validate checks that track names are non-blank and unique.
func (p *Profile) Validate() error {
	seen := make(map[string]bool, len(p.Tracks))
	for i, t := range p.Tracks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("track %d: %w", i, ErrBlankTrackName)
		}
		if seen[name] {
			return fmt.Errorf("track %q: %w", name, ErrDuplicateTrack)
		}
		seen[name] = true
	}
	return nil
}

// HasContent reports whether at least one track carries narrative content.
func (p *Profile) HasContent() bool {
	if p == nil {
		return false
	}
	for _, t := range p.Tracks {
		if t.HasNarrative() {
			return true
		}
	}
	return false
}

// Track returns the track with the given name.
func (p *Profile) Track(name string) (Track, bool) {
	for _, t := range p.Tracks {
		if t.Name == name {
			return t, true
		}
	}
	return Track{}, false
}

// TrackNames returns the track names in declaration order.
func (p *Profile) TrackNames() []string {
	names := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		names = append(names, t.Name)
	}
	return names
}

// Texts returns every narrative string in the profile.
func (p *Profile) Texts() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, t := range p.Tracks {
		out = append(out, t.Texts()...)
	}
	return append(out, nonBlank([]string{p.EducationBackground, p.Motivation})...)
}

type profileJSON struct {
	CareerBackground struct {
		Careers json.RawMessage `json:"careers"`
	} `json:"career_background"`
	EducationBackground string `json:"education_background"`
	Motivation          string `json:"motivation"`
}

// MarshalJSON writes tracks as an object keyed by track name, in declaration order.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range p.Tracks {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.CareerTrack)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	var out profileJSON
	out.CareerBackground.Careers = buf.Bytes()
	out.EducationBackground = p.EducationBackground
	out.Motivation = p.Motivation
	return json.Marshal(out)
}

// UnmarshalJSON reads the careers object token by token so declaration order
// survives decoding. Duplicate track names are rejected.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tracks, err := DecodeTracks(raw.CareerBackground.Careers)
	if err != nil {
		return err
	}
	p.Tracks = tracks
	p.EducationBackground = raw.EducationBackground
	p.Motivation = raw.Motivation
	return p.Validate()
}

// DecodeTracks decodes a JSON object of track name to CareerTrack, preserving key order.
func DecodeTracks(data json.RawMessage) ([]Track, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read careers: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("careers must be a JSON object")
	}

	var tracks []Track
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read track name: %w", err)
		}
		name, _ := tok.(string)
		if seen[name] {
			return nil, fmt.Errorf("track %q: %w", name, ErrDuplicateTrack)
		}
		seen[name] = true

		var track CareerTrack
		if err := dec.Decode(&track); err != nil {
			return nil, fmt.Errorf("failed to decode track %q: %w", name, err)
		}
		tracks = append(tracks, Track{Name: name, CareerTrack: track})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to close careers object: %w", err)
	}
	return tracks, nil
}
