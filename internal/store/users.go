package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a local identity bound to a Spotify account. ID keys history rows.
type User struct {
	ID          string
	SpotifyID   string
	Email       string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertUser creates the user on first login and refreshes the profile on
// later ones. The local ID never changes once assigned.
func (s *Store) UpsertUser(ctx context.Context, u User) (User, error) {
	if u.SpotifyID == "" {
		return User{}, fmt.Errorf("spotify id is required")
	}

	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, spotify_id, email, display_name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`, uuid.NewString(), u.SpotifyID, u.Email, u.DisplayName, u.AvatarURL, now, now)
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	stored, err := s.UserBySpotifyID(ctx, u.SpotifyID)
	if err != nil {
		return User{}, err
	}
	if stored == nil {
		return User{}, fmt.Errorf("user %s: %w", u.SpotifyID, ErrNotFound)
	}
	return *stored, nil
}

// UserBySpotifyID returns the user for a Spotify account, or nil if unknown.
func (s *Store) UserBySpotifyID(ctx context.Context, spotifyID string) (*User, error) {
	var (
		u                    User
		email, name, avatar  sql.NullString
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, spotify_id, email, display_name, avatar_url, created_at, updated_at
		FROM users WHERE spotify_id = ?
	`, spotifyID).Scan(&u.ID, &u.SpotifyID, &email, &name, &avatar, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.Email = email.String
	u.DisplayName = name.String
	u.AvatarURL = avatar.String
	u.CreatedAt = time.UnixMilli(createdAt)
	u.UpdatedAt = time.UnixMilli(updatedAt)
	return &u, nil
}
