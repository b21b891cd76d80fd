package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/jonathan/job-agent/internal/types"
)

// ProfileStore is a profiles.Store backed by the profiles table. Profiles
// are stored in their canonical shape in a JSON column; JSONB would reorder
// the careers object and lose track order.
type ProfileStore struct {
	db *DB
}

// NewProfileStore returns a store over db.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

var _ profiles.Store = (*ProfileStore)(nil)

// LoadProfile implements profiles.Store.
func (s *ProfileStore) LoadProfile(ctx context.Context, sessionID string) (*profiles.Record, error) {
	rec := profiles.Record{SessionID: sessionID}
	var raw []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT name, is_default, profile, updated_at
		 FROM profiles WHERE session_id = $1
		 ORDER BY is_default DESC, updated_at DESC
		 LIMIT 1`,
		sessionID,
	).Scan(&rec.Name, &rec.IsDefault, &raw, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profiles.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p types.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	rec.Profile = &p
	return &rec, nil
}

// SaveProfile implements profiles.Store. The first profile of a session
// becomes its default.
func (s *ProfileStore) SaveProfile(ctx context.Context, rec *profiles.Record) error {
	if err := profiles.Prepare(rec); err != nil {
		return err
	}
	raw, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return pgx.BeginFunc(ctx, s.db.pool, func(tx pgx.Tx) error {
		var others int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM profiles WHERE session_id = $1 AND name <> $2`,
			rec.SessionID, rec.Name,
		).Scan(&others); err != nil {
			return fmt.Errorf("failed to count profiles: %w", err)
		}
		if others == 0 {
			rec.IsDefault = true
		}

		if rec.IsDefault {
			if _, err := tx.Exec(ctx,
				`UPDATE profiles SET is_default = FALSE WHERE session_id = $1 AND name <> $2`,
				rec.SessionID, rec.Name,
			); err != nil {
				return fmt.Errorf("failed to clear default profile: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (session_id, name, is_default, profile, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (session_id, name) DO UPDATE
			 SET is_default = $3, profile = $4, updated_at = $5`,
			rec.SessionID, rec.Name, rec.IsDefault, raw, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		return nil
	})
}

// DeleteProfile implements profiles.Store.
func (s *ProfileStore) DeleteProfile(ctx context.Context, sessionID, name string) error {
	query := `DELETE FROM profiles WHERE session_id = $1`
	args := []any{sessionID}
	if name != "" {
		query += ` AND name = $2`
		args = append(args, name)
	}

	tag, err := s.db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return profiles.ErrNotFound
	}
	return nil
}
