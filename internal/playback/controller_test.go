package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/session"
	sqlstore "github.com/tessro/turntable/internal/store"
)

func startedController(t *testing.T, seed ...core.Track) (*Controller, *fakePlayer, *fakeStore) {
	t.Helper()
	player := newFakePlayer()
	store := newFakeStore()
	store.seed("user-1", seed...)
	c := newTestController(player, store, signedIn)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return c, player, store
}

func TestPlayThenPrevScenario(t *testing.T) {
	ctx := context.Background()
	c, player, store := startedController(t, track("a"), track("b"), track("c"))

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("hydrated history = %v, want [a b c]", got)
	}

	if err := c.PlayTrack(ctx, track("d"), false); err != nil {
		t.Fatalf("PlayTrack(d) error = %v", err)
	}
	snap := c.Snapshot()
	if got := ids(snap.History); !reflect.DeepEqual(got, []string{"d", "a", "b", "c"}) {
		t.Errorf("history after play = %v, want [d a b c]", got)
	}
	if snap.Current == nil || snap.Current.ID != "d" || !snap.IsPlaying {
		t.Errorf("after play: current=%v playing=%v, want d playing", snap.Current, snap.IsPlaying)
	}
	if snap.State != core.StatePlaying {
		t.Errorf("State = %v, want playing", snap.State)
	}

	if err := c.Prev(ctx); err != nil {
		t.Fatalf("Prev() error = %v", err)
	}
	snap = c.Snapshot()
	if snap.Current.ID != "a" {
		t.Errorf("current after prev = %q, want a", snap.Current.ID)
	}
	if got := ids(snap.History); !reflect.DeepEqual(got, []string{"d", "a", "b", "c"}) {
		t.Errorf("history after prev = %v, want unchanged [d a b c]", got)
	}
	if got := player.lastPlay().URIs; !reflect.DeepEqual(got, []string{"spotify:track:a"}) {
		t.Errorf("last play URIs = %v", got)
	}

	if err := c.Next(ctx); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got := c.Snapshot().Current.ID; got != "d" {
		t.Errorf("current after next = %q, want d", got)
	}

	c.Wait()
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.upserts) != 1 || store.upserts[0].Track.ID != "d" || store.upserts[0].UserID != "user-1" {
		t.Errorf("upserts = %+v, want a single row for d", store.upserts)
	}
}

func TestNavigationAtBoundaryIsNoOp(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t, track("a"), track("b"))

	// Newest end
	if err := c.PlayTrack(ctx, track("a"), true); err != nil {
		t.Fatal(err)
	}
	plays := player.playCount()
	if err := c.Next(ctx); err != nil {
		t.Errorf("Next() at newest error = %v", err)
	}
	if player.playCount() != plays {
		t.Error("Next() at newest issued a remote call")
	}
	if snap := c.Snapshot(); snap.Current.ID != "a" || !snap.IsPlaying {
		t.Errorf("Next() at newest changed state: %+v", snap)
	}

	// Oldest end
	if err := c.PlayTrack(ctx, track("b"), true); err != nil {
		t.Fatal(err)
	}
	plays = player.playCount()
	if err := c.Prev(ctx); err != nil {
		t.Errorf("Prev() at oldest error = %v", err)
	}
	if player.playCount() != plays {
		t.Error("Prev() at oldest issued a remote call")
	}
	if snap := c.Snapshot(); snap.Current.ID != "b" || !snap.IsPlaying {
		t.Errorf("Prev() at oldest changed state: %+v", snap)
	}
}

func TestNavigationWithoutCurrentInHistory(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t, track("a"), track("b"))

	if err := c.Next(ctx); err != nil {
		t.Errorf("Next() with no current error = %v", err)
	}

	outsider := track("x")
	if err := c.ApplySnapshot(c.Observe(), &core.PlaybackState{Track: &outsider, IsPlaying: true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Prev(ctx); err != nil {
		t.Errorf("Prev() error = %v", err)
	}
	if player.playCount() != 0 {
		t.Errorf("navigation issued %d remote plays, want 0", player.playCount())
	}
}

func TestNavigationDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"), track("b"), track("c"))

	if err := c.PlayTrack(ctx, track("a"), true); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		_ = c.Prev(ctx)
	}
	for i := 0; i < 4; i++ {
		_ = c.Next(ctx)
	}
	c.Wait()

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("history = %v, want [a b c]", got)
	}
	if len(store.upserts) != 0 {
		t.Errorf("navigation persisted %d rows, want 0", len(store.upserts))
	}
}

func TestPlayTrackErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthenticated", func(t *testing.T) {
		player := newFakePlayer()
		c := newTestController(player, newFakeStore(), session.Static{})
		err := c.PlayTrack(ctx, track("a"), false)
		if !errors.Is(err, tterrors.ErrNotAuthenticated) {
			t.Errorf("error = %v, want ErrNotAuthenticated", err)
		}
		if player.listCalls != 0 {
			t.Error("unauthenticated play listed devices")
		}
	})

	t.Run("no device", func(t *testing.T) {
		player := newFakePlayer()
		player.devices = nil
		c := newTestController(player, newFakeStore(), signedIn)
		err := c.PlayTrack(ctx, track("a"), false)
		if !errors.Is(err, tterrors.ErrNoPlaybackDevice) {
			t.Errorf("error = %v, want ErrNoPlaybackDevice", err)
		}
		snap := c.Snapshot()
		if snap.Current != nil || snap.IsPlaying || len(snap.History) != 0 {
			t.Errorf("state changed after no-device failure: %+v", snap)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		player := newFakePlayer()
		player.playErr = errors.New("502 bad gateway")
		c := newTestController(player, newFakeStore(), signedIn)
		err := c.PlayTrack(ctx, track("a"), false)
		if !errors.Is(err, tterrors.ErrRemoteCommandFailed) {
			t.Errorf("error = %v, want ErrRemoteCommandFailed", err)
		}
		if c.Snapshot().Current != nil {
			t.Error("current set after failed play")
		}
	})

	t.Run("invalid track", func(t *testing.T) {
		c := newTestController(newFakePlayer(), newFakeStore(), signedIn)
		bad := track("a")
		bad.URI = ""
		if err := c.PlayTrack(ctx, bad, false); !errors.Is(err, tterrors.ErrInvalidTrack) {
			t.Errorf("error = %v, want ErrInvalidTrack", err)
		}
	})
}

func TestRemoteTimeout(t *testing.T) {
	player := newFakePlayer()
	player.gates["spotify:track:slow"] = make(chan struct{})
	c := New(Options{
		Player:        player,
		Store:         newFakeStore(),
		Session:       signedIn,
		RemoteTimeout: 20 * time.Millisecond,
	})

	err := c.PlayTrack(context.Background(), track("slow"), false)
	if !errors.Is(err, tterrors.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
	if c.Snapshot().Current != nil {
		t.Error("current set after timeout")
	}
}

func TestPlayWithoutIdentityIsNotPersisted(t *testing.T) {
	store := newFakeStore()
	c := newTestController(newFakePlayer(), store, session.Static{AccessToken: "token"})

	if err := c.PlayTrack(context.Background(), track("a"), false); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("history = %v, want [a]", got)
	}
	if len(store.upserts) != 0 {
		t.Errorf("upserts = %d, want 0 without identity", len(store.upserts))
	}
}

func TestHistoryUniqueAndCapped(t *testing.T) {
	ctx := context.Background()
	c, _, _ := startedController(t)
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 300; i++ {
		if err := c.PlayTrack(ctx, track(fmt.Sprintf("t%d", r.IntN(80))), false); err != nil {
			t.Fatal(err)
		}
	}
	c.Wait()

	hist := c.Snapshot().History
	if len(hist) > 50 {
		t.Errorf("history length = %d, want <= 50", len(hist))
	}
	seen := map[string]bool{}
	for _, h := range hist {
		if seen[h.ID] {
			t.Fatalf("duplicate %q in history", h.ID)
		}
		seen[h.ID] = true
	}
	if hist[0].ID != c.Snapshot().Current.ID {
		t.Errorf("newest entry %q is not the current track", hist[0].ID)
	}
}

func TestHistoryLimitCannotExceedCap(t *testing.T) {
	ctx := context.Background()
	c := New(Options{
		Player:       newFakePlayer(),
		Store:        newFakeStore(),
		Session:      signedIn,
		Logger:       zerolog.Nop(),
		HistoryLimit: 100,
	})

	for i := 0; i < 80; i++ {
		if err := c.PlayTrack(ctx, track(fmt.Sprintf("t%d", i)), false); err != nil {
			t.Fatal(err)
		}
	}
	c.Wait()

	if n := len(c.Snapshot().History); n != 50 {
		t.Errorf("history length = %d, want 50", n)
	}
}

func TestTogglePlayPause(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t)

	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}

	if err := c.TogglePlayPause(ctx); err != nil {
		t.Fatalf("pause error = %v", err)
	}
	if snap := c.Snapshot(); snap.IsPlaying || snap.State != core.StateLoaded {
		t.Errorf("after pause: %+v", snap)
	}
	if player.pauses != 1 {
		t.Errorf("pauses = %d, want 1", player.pauses)
	}

	if err := c.TogglePlayPause(ctx); err != nil {
		t.Fatalf("resume error = %v", err)
	}
	if !c.Snapshot().IsPlaying {
		t.Error("not playing after resume")
	}
	if req := player.lastPlay(); len(req.URIs) != 0 || req.ContextURI != "" {
		t.Errorf("resume sent %+v, want empty request", req)
	}
}

func TestToggleFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t)
	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}

	player.pauseErr = errors.New("device offline")
	if err := c.TogglePlayPause(ctx); !errors.Is(err, tterrors.ErrRemoteCommandFailed) {
		t.Errorf("error = %v, want ErrRemoteCommandFailed", err)
	}
	if !c.Snapshot().IsPlaying {
		t.Error("IsPlaying flipped despite failed pause")
	}
}

func TestShuffle(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		c, player, _ := startedController(t)
		if err := c.Shuffle(ctx); err != nil {
			t.Errorf("Shuffle() error = %v", err)
		}
		if player.playCount() != 0 {
			t.Error("Shuffle() on empty history played something")
		}
	})

	t.Run("excludes current", func(t *testing.T) {
		player := newFakePlayer()
		store := newFakeStore()
		store.seed("user-1", track("a"), track("b"), track("c"))
		c := newTestController(player, store, signedIn)
		c.intn = func(n int) int { return 0 }
		_ = c.Start(ctx)
		if err := c.PlayTrack(ctx, track("a"), true); err != nil {
			t.Fatal(err)
		}

		if err := c.Shuffle(ctx); err != nil {
			t.Fatalf("Shuffle() error = %v", err)
		}
		snap := c.Snapshot()
		if snap.Current.ID != "b" {
			t.Errorf("shuffled to %q, want b", snap.Current.ID)
		}
		if got := ids(snap.History); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
			t.Errorf("history = %v, want [b a c]", got)
		}
	})

	t.Run("single entry replays it", func(t *testing.T) {
		c, _, _ := startedController(t, track("a"))
		if err := c.PlayTrack(ctx, track("a"), true); err != nil {
			t.Fatal(err)
		}
		if err := c.Shuffle(ctx); err != nil {
			t.Fatal(err)
		}
		if got := c.Snapshot().Current.ID; got != "a" {
			t.Errorf("current = %q, want a", got)
		}
	})
}

func TestRepeat(t *testing.T) {
	ctx := context.Background()
	c, player, store := startedController(t, track("a"), track("b"))

	if err := c.Repeat(ctx); err != nil {
		t.Errorf("Repeat() without current error = %v", err)
	}
	if player.playCount() != 0 {
		t.Error("Repeat() without current played something")
	}

	if err := c.PlayTrack(ctx, track("b"), true); err != nil {
		t.Fatal(err)
	}
	if err := c.Repeat(ctx); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("history = %v, want [b a]", got)
	}
	if len(store.upserts) != 1 || store.upserts[0].Track.ID != "b" {
		t.Errorf("upserts = %+v, want one for b", store.upserts)
	}
}

func TestPlayAlbum(t *testing.T) {
	ctx := context.Background()
	c, player, store := startedController(t, track("a"), track("b"))
	player.albums["alb"] = []core.Track{track("x"), track("a"), track("y"), track("x")}

	if err := c.PlayAlbum(ctx, "alb"); err != nil {
		t.Fatalf("PlayAlbum() error = %v", err)
	}
	c.Wait()

	if got := player.lastPlay().ContextURI; got != "spotify:album:alb" {
		t.Errorf("ContextURI = %q, want spotify:album:alb", got)
	}

	snap := c.Snapshot()
	if got := ids(snap.History); !reflect.DeepEqual(got, []string{"x", "a", "y", "b"}) {
		t.Errorf("history = %v, want [x a y b]", got)
	}
	if snap.Current.ID != "x" || !snap.IsPlaying {
		t.Errorf("current = %v playing=%v, want x playing", snap.Current, snap.IsPlaying)
	}
	for i := 1; i < 3; i++ {
		if *snap.History[i-1].PlayedAt <= *snap.History[i].PlayedAt {
			t.Errorf("album timestamps not descending at %d", i)
		}
	}

	if len(store.batches) != 1 {
		t.Fatalf("batch upserts = %d, want 1", len(store.batches))
	}
	if got := len(store.batches[0]); got != 3 {
		t.Errorf("batch size = %d, want 3", got)
	}
}

func TestPlayAlbumFetchFailure(t *testing.T) {
	c, _, _ := startedController(t, track("a"))

	err := c.PlayAlbum(context.Background(), "missing")
	if !errors.Is(err, tterrors.ErrRemoteCommandFailed) {
		t.Errorf("error = %v, want ErrRemoteCommandFailed", err)
	}
	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("history = %v, want [a]", got)
	}
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"), track("b"))

	if err := c.ToggleLike(ctx); !errors.Is(err, tterrors.ErrNoCurrentTrack) {
		t.Errorf("ToggleLike() without current = %v, want ErrNoCurrentTrack", err)
	}

	if err := c.PlayTrack(ctx, track("b"), true); err != nil {
		t.Fatal(err)
	}

	if err := c.ToggleLike(ctx); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	snap := c.Snapshot()
	if !snap.Current.Liked || !snap.History[1].Liked {
		t.Errorf("after like: current=%v entry=%v, want both liked", snap.Current.Liked, snap.History[1].Liked)
	}
	if !store.rows[key("user-1", "b")].Liked {
		t.Error("store row not liked")
	}

	if err := c.ToggleLike(ctx); err != nil {
		t.Fatal(err)
	}
	snap = c.Snapshot()
	if snap.Current.Liked || snap.History[1].Liked {
		t.Error("second toggle did not restore the original value")
	}
}

func TestToggleLikeFailsClosed(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"))
	if err := c.PlayTrack(ctx, track("a"), true); err != nil {
		t.Fatal(err)
	}

	store.likeErr = errors.New("disk full")
	if err := c.ToggleLike(ctx); !errors.Is(err, tterrors.ErrPersistenceFailed) {
		t.Errorf("error = %v, want ErrPersistenceFailed", err)
	}
	snap := c.Snapshot()
	if snap.Current.Liked || snap.History[0].Liked {
		t.Error("local state mutated after failed like")
	}
}

func TestToggleLikeWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	c := newTestController(newFakePlayer(), newFakeStore(), session.Static{AccessToken: "token"})
	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}
	if err := c.ToggleLike(ctx); !errors.Is(err, tterrors.ErrNoUserIdentity) {
		t.Errorf("error = %v, want ErrNoUserIdentity", err)
	}
}

func TestToggleLikeOnAdoptedTrack(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"))

	live := track("live")
	if err := c.ApplySnapshot(c.Observe(), &core.PlaybackState{Track: &live, IsPlaying: true}); err != nil {
		t.Fatalf("ApplySnapshot() error = %v", err)
	}

	if err := c.ToggleLike(ctx); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !c.Snapshot().Current.Liked {
		t.Error("current track not liked")
	}
	row, ok := store.rows[key("user-1", "live")]
	if !ok || !row.Liked {
		t.Errorf("store row = %+v (found %v), want a liked row", row, ok)
	}
	if row.Track.URI != live.URI {
		t.Errorf("row URI = %q, want %q", row.Track.URI, live.URI)
	}
}

func TestToggleLikeOnLiveTrackWithSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	player := newFakePlayer()
	live := track("x")
	player.snapshot = &core.PlaybackState{Track: &live, IsPlaying: true}

	c := New(Options{Player: player, Store: db, Session: signedIn, Logger: zerolog.Nop()})
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.ToggleLike(ctx); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	c.Wait()

	liked, err := db.LikedHistory(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(liked) != 1 || liked[0].Track.ID != "x" {
		t.Errorf("liked rows = %+v, want x", liked)
	}
	if !c.Snapshot().Current.Liked {
		t.Error("current track not liked")
	}
}

func TestLikedSurvivesReplay(t *testing.T) {
	ctx := context.Background()
	liked := track("a")
	liked.Liked = true
	c, _, store := startedController(t, liked, track("b"))

	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if !c.Snapshot().Current.Liked {
		t.Error("replaying a liked track lost the flag")
	}
	if !store.upserts[0].Liked {
		t.Error("upserted row lost the liked flag")
	}
}

func TestRemoveFromHistory(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"), track("b"), track("c"))

	if err := c.RemoveFromHistory(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveFromHistory(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("history = %v, want [a c]", got)
	}
	if !reflect.DeepEqual(store.deletes, []string{"b", "b"}) {
		t.Errorf("deletes = %v, want one per call", store.deletes)
	}
}

func TestRemoveIsNotRolledBack(t *testing.T) {
	ctx := context.Background()
	c, _, store := startedController(t, track("a"), track("b"))
	store.deleteErr = errors.New("locked")

	if err := c.RemoveFromHistory(ctx, "a"); err != nil {
		t.Fatalf("RemoveFromHistory() error = %v", err)
	}
	c.Wait()

	if got := ids(c.Snapshot().History); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("history = %v, want [b]", got)
	}
}

func TestSeekAndVolume(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t)

	if err := c.Seek(ctx, 42000); err != nil {
		t.Fatal(err)
	}
	if err := c.SetVolume(ctx, 65); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(player.seeks, []int{42000}) || !reflect.DeepEqual(player.volumes, []int{65}) {
		t.Errorf("seeks=%v volumes=%v", player.seeks, player.volumes)
	}

	for _, v := range []int{-1, 101} {
		if err := c.SetVolume(ctx, v); err == nil {
			t.Errorf("SetVolume(%d) should fail", v)
		}
	}
	if err := c.Seek(ctx, -5); err == nil {
		t.Error("Seek(-5) should fail")
	}
	if len(player.volumes) != 1 || len(player.seeks) != 1 {
		t.Error("out of range values reached the player")
	}
}

func TestSeekAndVolumeFailures(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t)
	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot()

	player.seekErr = errors.New("device went away")
	player.volumeErr = errors.New("volume control disallowed")

	err := c.Seek(ctx, 1000)
	if !errors.Is(err, player.seekErr) || !errors.Is(err, tterrors.ErrRemoteCommandFailed) {
		t.Errorf("Seek() error = %v, want %v as a failed command", err, player.seekErr)
	}
	if err := c.SetVolume(ctx, 30); !errors.Is(err, player.volumeErr) {
		t.Errorf("SetVolume() error = %v, want %v", err, player.volumeErr)
	}

	after := c.Snapshot()
	if after.Current.ID != before.Current.ID || after.IsPlaying != before.IsPlaying || after.State != before.State {
		t.Errorf("state changed: before %+v, after %+v", before, after)
	}
	if !reflect.DeepEqual(ids(after.History), ids(before.History)) {
		t.Errorf("history = %v, want %v", ids(after.History), ids(before.History))
	}
}

func TestSupersededPlayIsDiscarded(t *testing.T) {
	ctx := context.Background()
	c, player, _ := startedController(t)
	gate := make(chan struct{})
	player.gates["spotify:track:slow"] = gate
	player.entered = make(chan string, 1)

	done := make(chan error, 1)
	go func() { done <- c.PlayTrack(ctx, track("slow"), false) }()
	<-player.entered

	if err := c.PlayTrack(ctx, track("fast"), false); err != nil {
		t.Fatalf("newer play error = %v", err)
	}
	close(gate)

	if err := <-done; !errors.Is(err, tterrors.ErrSuperseded) {
		t.Errorf("older play error = %v, want ErrSuperseded", err)
	}
	snap := c.Snapshot()
	if snap.Current.ID != "fast" {
		t.Errorf("current = %q, want fast", snap.Current.ID)
	}
	if got := ids(snap.History); !reflect.DeepEqual(got, []string{"fast"}) {
		t.Errorf("history = %v, want [fast]", got)
	}
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	ctx := context.Background()
	c, _, _ := startedController(t)

	tok := c.Observe()
	if err := c.PlayTrack(ctx, track("b"), false); err != nil {
		t.Fatal(err)
	}

	stale := track("a")
	err := c.ApplySnapshot(tok, &core.PlaybackState{Track: &stale, IsPlaying: false})
	if !errors.Is(err, tterrors.ErrSuperseded) {
		t.Errorf("ApplySnapshot() error = %v, want ErrSuperseded", err)
	}
	if snap := c.Snapshot(); snap.Current.ID != "b" || !snap.IsPlaying {
		t.Errorf("stale snapshot applied: %+v", snap)
	}
}

func TestStartAdoptsLiveSnapshot(t *testing.T) {
	liked := track("b")
	liked.Liked = true

	player := newFakePlayer()
	live := track("b")
	player.snapshot = &core.PlaybackState{Track: &live, IsPlaying: true, Progress: 90 * time.Second}
	store := newFakeStore()
	store.seed("user-1", track("a"), liked)

	c := newTestController(player, store, signedIn)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Wait()

	snap := c.Snapshot()
	if snap.Current == nil || snap.Current.ID != "b" || snap.State != core.StatePlaying {
		t.Fatalf("after start: %+v", snap)
	}
	if !snap.Current.Liked {
		t.Error("liked flag not recovered from history")
	}
	if snap.Current.ProgressMs == nil || *snap.Current.ProgressMs != 90000 {
		t.Errorf("ProgressMs = %v, want 90000", snap.Current.ProgressMs)
	}
	if got := ids(snap.History); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("history = %v, want [a b] unchanged", got)
	}
	if len(store.upserts) != 0 {
		t.Error("startup reconciliation recorded a play")
	}
}

func TestStartIdle(t *testing.T) {
	c, _, _ := startedController(t, track("a"))
	if snap := c.Snapshot(); snap.State != core.StateIdle {
		t.Errorf("State = %v, want idle", snap.State)
	}
}

func TestStartHydrateFailure(t *testing.T) {
	store := newFakeStore()
	store.seed("user-1", track("a"))
	store.queryErr = errors.New("database is locked")

	c := newTestController(newFakePlayer(), store, signedIn)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(c.Snapshot().History); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
}

func TestStartWithoutIdentity(t *testing.T) {
	store := newFakeStore()
	store.seed("user-1", track("a"))

	c := newTestController(newFakePlayer(), store, session.Static{AccessToken: "token"})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.queryCalls != 0 {
		t.Error("history queried without a user identity")
	}
	if n := len(c.Snapshot().History); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	c, _, _ := startedController(t)
	if err := c.PlayTrack(ctx, track("a"), false); err != nil {
		t.Fatal(err)
	}

	snap := c.Snapshot()
	snap.Current.Name = "mutated"
	snap.History[0].Name = "mutated"

	again := c.Snapshot()
	if again.Current.Name == "mutated" || again.History[0].Name == "mutated" {
		t.Error("Snapshot() exposed internal state")
	}
}
