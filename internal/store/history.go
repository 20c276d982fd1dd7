package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tessro/turntable/internal/core"
)

const upsertHistory = `
	INSERT INTO play_history (
		user_id, track_id, track_name, artist, artists_json,
		album_image, track_uri, duration_ms, played_at, heart
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id, track_id) DO UPDATE SET
		track_name = excluded.track_name,
		artist = excluded.artist,
		artists_json = excluded.artists_json,
		album_image = excluded.album_image,
		track_uri = excluded.track_uri,
		duration_ms = excluded.duration_ms,
		played_at = excluded.played_at
`

const upsertLiked = `
	INSERT INTO play_history (
		user_id, track_id, track_name, artist, artists_json,
		album_image, track_uri, duration_ms, played_at, heart
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id, track_id) DO UPDATE SET heart = excluded.heart
`

const selectHistory = `
	SELECT user_id, track_id, track_name, artist, artists_json,
		album_image, track_uri, duration_ms, played_at, heart
	FROM play_history
`

// UpsertHistory inserts the row or, when (user, track) already exists,
// refreshes its metadata and played_at in place. The liked flag of an
// existing row is left alone; UpdateLiked owns it.
func (s *Store) UpsertHistory(ctx context.Context, row core.HistoryRow) error {
	args, err := historyArgs(row)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertHistory, args...); err != nil {
		return fmt.Errorf("failed to upsert history: %w", err)
	}
	return nil
}

// UpsertHistoryBatch upserts rows in a single transaction.
func (s *Store) UpsertHistoryBatch(ctx context.Context, rows []core.HistoryRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertHistory)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args, err := historyArgs(row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert history for %s: %w", row.Track.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history batch: %w", err)
	}
	return nil
}

// DeleteHistory removes the row for (userID, trackID). Deleting a missing
// row is not an error.
func (s *Store) DeleteHistory(ctx context.Context, userID, trackID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM play_history WHERE user_id = ? AND track_id = ?`,
		userID, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// QueryHistory returns the user's newest rows, at most limit.
func (s *Store) QueryHistory(ctx context.Context, userID string, limit int) ([]core.HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		selectHistory+` WHERE user_id = ? ORDER BY played_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanHistory(rows)
}

// UpdateLiked sets the liked flag for (row.UserID, row.Track.ID). A track
// with no row yet, such as one adopted from the live device, is inserted
// from row; an existing row keeps its metadata and played_at.
func (s *Store) UpdateLiked(ctx context.Context, row core.HistoryRow) error {
	args, err := historyArgs(row)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertLiked, args...); err != nil {
		return fmt.Errorf("failed to update liked: %w", err)
	}
	return nil
}

// LikedHistory returns every liked row for the user, newest first.
func (s *Store) LikedHistory(ctx context.Context, userID string) ([]core.HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		selectHistory+` WHERE user_id = ? AND heart = 1 ORDER BY played_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked history: %w", err)
	}
	return scanHistory(rows)
}

func historyArgs(row core.HistoryRow) ([]any, error) {
	names := make([]string, len(row.Track.Artists))
	for i, a := range row.Track.Artists {
		names[i] = a.Name
	}
	artistsJSON, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artists: %w", err)
	}

	playedAt := row.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	var albumImage sql.NullString
	if url := row.Track.ArtworkURL(); url != "" {
		albumImage = sql.NullString{String: url, Valid: true}
	}

	return []any{
		row.UserID,
		row.Track.ID,
		row.Track.Name,
		row.Track.PrimaryArtist(),
		string(artistsJSON),
		albumImage,
		row.Track.URI,
		row.Track.DurationMs,
		playedAt.UnixMilli(),
		row.Liked,
	}, nil
}

func scanHistory(rows *sql.Rows) ([]core.HistoryRow, error) {
	defer rows.Close()

	var result []core.HistoryRow
	for rows.Next() {
		var (
			r           historyRecord
			albumImage  sql.NullString
			artistsJSON string
		)
		if err := rows.Scan(
			&r.userID, &r.trackID, &r.trackName, &r.artist, &artistsJSON,
			&albumImage, &r.trackURI, &r.durationMs, &r.playedAt, &r.heart,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.albumImage = albumImage.String
		if err := json.Unmarshal([]byte(artistsJSON), &r.artists); err != nil {
			r.artists = nil
		}
		result = append(result, trackFromRow(r))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return result, nil
}

type historyRecord struct {
	userID     string
	trackID    string
	trackName  string
	artist     string
	artists    []string
	albumImage string
	trackURI   string
	durationMs int
	playedAt   int64
	heart      bool
}

// trackFromRow is the store's mapping into the shared Track shape.
func trackFromRow(r historyRecord) core.HistoryRow {
	names := r.artists
	if len(names) == 0 && r.artist != "" {
		names = []string{r.artist}
	}

	t := core.Track{
		ID:         r.trackID,
		Name:       r.trackName,
		Artists:    core.ArtistsFromNames(names...),
		URI:        r.trackURI,
		DurationMs: r.durationMs,
		Liked:      r.heart,
	}
	if r.albumImage != "" {
		t.Album.Images = []core.Image{{URL: r.albumImage}}
	}
	playedAt := r.playedAt
	t.PlayedAt = &playedAt

	return core.HistoryRow{
		UserID:   r.userID,
		Track:    t,
		PlayedAt: time.UnixMilli(r.playedAt),
		Liked:    r.heart,
	}
}

var _ core.HistoryStore = (*Store)(nil)
