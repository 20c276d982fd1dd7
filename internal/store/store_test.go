package store

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tessro/turntable/internal/core"
)

// createTestStore creates an in-memory SQLite store for testing
func createTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func testTrack(id string) core.Track {
	return core.Track{
		ID:         id,
		Name:       "Track " + id,
		Artists:    core.ArtistsFromNames("Artist "+id, "Guest"),
		Album:      core.Album{Images: []core.Image{{URL: "https://img/" + id}}},
		URI:        "spotify:track:" + id,
		DurationMs: 200000,
	}
}

func row(userID, id string, playedAt time.Time) core.HistoryRow {
	return core.HistoryRow{UserID: userID, Track: testTrack(id), PlayedAt: playedAt}
}

func TestOpen(t *testing.T) {
	t.Run("in-memory database", func(t *testing.T) {
		s, err := Open(":memory:")
		if err != nil {
			t.Fatalf("failed to open in-memory store: %v", err)
		}
		defer func() { _ = s.Close() }()
	})

	t.Run("file-based database in a new directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "turntable.db")
		s, err := Open(path)
		if err != nil {
			t.Fatalf("failed to open file store: %v", err)
		}
		_ = s.Close()

		// Reopening must not fail on the existing schema.
		s, err = Open(path)
		if err != nil {
			t.Fatalf("failed to reopen file store: %v", err)
		}
		_ = s.Close()
	})
}

func TestUpsertAndQueryHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.UpsertHistory(ctx, row("u1", id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("UpsertHistory(%s) error = %v", id, err)
		}
	}
	if err := s.UpsertHistory(ctx, row("u2", "z", base)); err != nil {
		t.Fatal(err)
	}

	rows, err := s.QueryHistory(ctx, "u1", 50)
	if err != nil {
		t.Fatalf("QueryHistory() error = %v", err)
	}

	var ids []string
	for _, r := range rows {
		ids = append(ids, r.Track.ID)
	}
	if !reflect.DeepEqual(ids, []string{"c", "b", "a"}) {
		t.Errorf("ids = %v, want [c b a]", ids)
	}

	got := rows[0]
	if got.Track.ArtistNames() != "Artist c, Guest" {
		t.Errorf("artists = %q", got.Track.ArtistNames())
	}
	if got.Track.ArtworkURL() != "https://img/c" || got.Track.URI != "spotify:track:c" || got.Track.DurationMs != 200000 {
		t.Errorf("track = %+v", got.Track)
	}
	if !got.PlayedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("PlayedAt = %v", got.PlayedAt)
	}
	if got.Track.PlayedAt == nil || *got.Track.PlayedAt != got.PlayedAt.UnixMilli() {
		t.Error("Track.PlayedAt not populated from the row")
	}

	limited, err := s.QueryHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited rows = %d, want 2", len(limited))
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.UpsertHistory(ctx, row("u1", "a", base)); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateLiked(ctx, withLiked(row("u1", "a", base), true)); err != nil {
		t.Fatal(err)
	}

	again := row("u1", "a", base.Add(time.Hour))
	again.Track.Name = "Renamed"
	if err := s.UpsertHistory(ctx, again); err != nil {
		t.Fatal(err)
	}

	rows, err := s.QueryHistory(ctx, "u1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Track.Name != "Renamed" || !rows[0].PlayedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("row not updated: %+v", rows[0])
	}
	if !rows[0].Liked {
		t.Error("re-play cleared the liked flag")
	}
}

func TestUpsertHistoryBatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	batch := make([]core.HistoryRow, 5)
	for i := range batch {
		batch[i] = row("u1", fmt.Sprintf("t%d", i), base.Add(-time.Duration(i)*time.Millisecond))
	}
	if err := s.UpsertHistoryBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertHistoryBatch() error = %v", err)
	}
	if err := s.UpsertHistoryBatch(ctx, nil); err != nil {
		t.Errorf("empty batch error = %v", err)
	}

	rows, err := s.QueryHistory(ctx, "u1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[0].Track.ID != "t0" || rows[4].Track.ID != "t4" {
		t.Errorf("batch order not preserved: %d rows", len(rows))
	}
}

func TestDeleteHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.UpsertHistory(ctx, row("u1", "a", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteHistory(ctx, "u1", "a"); err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	if err := s.DeleteHistory(ctx, "u1", "a"); err != nil {
		t.Errorf("second DeleteHistory() error = %v", err)
	}

	rows, _ := s.QueryHistory(ctx, "u1", 50)
	if len(rows) != 0 {
		t.Errorf("rows = %d after delete, want 0", len(rows))
	}
}

func TestUpdateLikedAndLikedHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.UpsertHistory(ctx, row("u1", id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	for _, id := range []string{"a", "c"} {
		if err := s.UpdateLiked(ctx, withLiked(row("u1", id, base), true)); err != nil {
			t.Fatalf("UpdateLiked(%s) error = %v", id, err)
		}
	}

	liked, err := s.LikedHistory(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(liked) != 2 || liked[0].Track.ID != "c" || liked[1].Track.ID != "a" {
		t.Errorf("liked = %+v", liked)
	}
	for _, r := range liked {
		if !r.Liked || !r.Track.Liked {
			t.Errorf("row %s not marked liked", r.Track.ID)
		}
	}

	if err := s.UpdateLiked(ctx, withLiked(row("u1", "c", base), false)); err != nil {
		t.Fatal(err)
	}
	likedRows, _ := s.LikedHistory(ctx, "u1")
	if len(likedRows) != 1 {
		t.Errorf("liked after unlike = %d, want 1", len(likedRows))
	}

	// Liking keeps the stored play time of an existing row.
	rows, _ := s.QueryHistory(ctx, "u1", 10)
	for _, r := range rows {
		if r.Track.ID == "a" && !r.PlayedAt.Equal(base) {
			t.Errorf("played_at of a = %v, want %v", r.PlayedAt, base)
		}
	}
}

func TestUpdateLikedInsertsMissingRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.UpdateLiked(ctx, withLiked(row("u1", "live", at), true)); err != nil {
		t.Fatalf("UpdateLiked(missing row) error = %v", err)
	}

	likedRows, err := s.LikedHistory(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(likedRows) != 1 || likedRows[0].Track.ID != "live" {
		t.Fatalf("liked = %+v, want the inserted row", likedRows)
	}
	if likedRows[0].Track.Name != "Track live" {
		t.Errorf("name = %q, want metadata from the row", likedRows[0].Track.Name)
	}
}

func withLiked(r core.HistoryRow, v bool) core.HistoryRow {
	r.Liked = v
	return r
}

func TestUpsertUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertUser(ctx, User{SpotifyID: "listener", Email: "l@example.com", DisplayName: "Listener"})
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertUser() did not assign an id")
	}

	second, err := s.UpsertUser(ctx, User{SpotifyID: "listener", DisplayName: "New Name"})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed on re-login: %q -> %q", first.ID, second.ID)
	}
	if second.DisplayName != "New Name" {
		t.Errorf("DisplayName = %q, want New Name", second.DisplayName)
	}

	other, err := s.UpsertUser(ctx, User{SpotifyID: "someone-else"})
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == first.ID {
		t.Error("two accounts share an id")
	}

	missing, err := s.UserBySpotifyID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("UserBySpotifyID(nobody) = %v, %v", missing, err)
	}

	if _, err := s.UpsertUser(ctx, User{}); err == nil {
		t.Error("UpsertUser() without spotify id should fail")
	}
}
