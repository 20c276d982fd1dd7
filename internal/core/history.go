package core

import (
	"context"
	"time"
)

// HistoryRow is a persisted play event, keyed by (UserID, Track.ID).
type HistoryRow struct {
	UserID   string
	Track    Track
	PlayedAt time.Time
	Liked    bool
}

// HistoryStore is the durable play-history and like ledger.
type HistoryStore interface {
	// UpsertHistory inserts or updates the row for (userID, row.Track.ID).
	UpsertHistory(ctx context.Context, row HistoryRow) error
	// UpsertHistoryBatch upserts several rows in one call.
	UpsertHistoryBatch(ctx context.Context, rows []HistoryRow) error
	DeleteHistory(ctx context.Context, userID, trackID string) error
	// QueryHistory returns at most limit rows, newest first.
	QueryHistory(ctx context.Context, userID string, limit int) ([]HistoryRow, error)
	// UpdateLiked sets row.Liked for (row.UserID, row.Track.ID), inserting
	// the row when the store has none.
	UpdateLiked(ctx context.Context, row HistoryRow) error
	LikedHistory(ctx context.Context, userID string) ([]HistoryRow, error)
}
