// Package profiles stores applicant profiles by session and normalizes the
// profile shapes clients upload.
package profiles

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// ErrNotFound is returned when a session has no stored profile.
var ErrNotFound = errors.New("profile not found")

// DefaultName names a profile saved without one.
const DefaultName = "default"

// Record is a stored profile. A session may hold several named profiles; the
// one marked IsDefault is used for generation.
type Record struct {
	SessionID string         `json:"session_id"`
	Name      string         `json:"name"`
	IsDefault bool           `json:"is_default"`
	Profile   *types.Profile `json:"profile"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store persists profiles by session id.
type Store interface {
	// LoadProfile returns the session's default profile, or its most
	// recently updated one when none is marked default.
	LoadProfile(ctx context.Context, sessionID string) (*Record, error)
	// SaveProfile inserts or replaces the record with the same session and
	// name. Saving a default clears the flag on the session's other profiles.
	SaveProfile(ctx context.Context, rec *Record) error
	// DeleteProfile removes the named profile, or every profile of the
	// session when name is empty.
	DeleteProfile(ctx context.Context, sessionID, name string) error
}

// Prepare validates rec and fills defaults before it is saved.
func Prepare(rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.SessionID) == "" {
		return errors.New("profile record needs a session id")
	}
	if rec.Profile == nil {
		return errors.New("profile record has no profile")
	}
	if err := rec.Profile.Validate(); err != nil {
		return err
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		rec.Name = DefaultName
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryStore is an in-process Store for the CLI and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

// LoadProfile implements Store.
func (m *MemoryStore) LoadProfile(_ context.Context, sessionID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.records[sessionID]
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	rec := pick(recs)
	return &rec, nil
}

// SaveProfile implements Store.
func (m *MemoryStore) SaveProfile(_ context.Context, rec *Record) error {
	if err := Prepare(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[rec.SessionID]
	if len(recs) == 0 {
		rec.IsDefault = true
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.Name == rec.Name {
			continue
		}
		if rec.IsDefault {
			r.IsDefault = false
		}
		kept = append(kept, r)
	}
	m.records[rec.SessionID] = append(kept, *rec)
	return nil
}

// DeleteProfile implements Store.
func (m *MemoryStore) DeleteProfile(_ context.Context, sessionID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[sessionID]
	if name == "" {
		if len(recs) == 0 {
			return ErrNotFound
		}
		delete(m.records, sessionID)
		return nil
	}
	for i, r := range recs {
		if r.Name == name {
			m.records[sessionID] = append(recs[:i:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// pick returns the default record, else the most recently updated.
func pick(recs []Record) Record {
	for _, r := range recs {
		if r.IsDefault {
			return r
		}
	}
	sorted := append([]Record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt) })
	return sorted[0]
}
