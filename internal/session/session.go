// Package session keeps per-session working state between HTTP requests:
// the last job summary, filtered profile and generation turn. Entries are
// short-lived and bounded; nothing here is durable.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/types"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Entry is the cached state of one session.
type Entry struct {
	SessionID       string                 `json:"session_id"`
	JobSummary      *types.JobSummary      `json:"job_summary,omitempty"`
	FilteredProfile *types.FilteredProfile `json:"filtered_profile,omitempty"`
	Turn            *pipeline.Turn         `json:"turn,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Cache stores entries by session id. Implementations store copies: changes
// to an Entry after Put are not visible to later Gets.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, sessionID string) error
}

// Locker is implemented by caches shared between processes. Lock blocks
// until the caller holds the session or ctx is done.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

func encode(entry *Entry) ([]byte, error) {
	if entry == nil || entry.SessionID == "" {
		return nil, errors.New("session entry needs a session id")
	}
	entry.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", entry.SessionID, err)
	}
	return data, nil
}

func decode(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &entry, nil
}
