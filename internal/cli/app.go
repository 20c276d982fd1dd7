package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/tessro/turntable/internal/library"
	"github.com/tessro/turntable/internal/playback"
	"github.com/tessro/turntable/internal/session"
	"github.com/tessro/turntable/internal/spotify/auth"
	"github.com/tessro/turntable/internal/spotify/client"
	"github.com/tessro/turntable/internal/spotify/player"
	"github.com/tessro/turntable/internal/store"

	tterrors "github.com/tessro/turntable/internal/errors"
)

// app holds the services one command invocation needs.
type app struct {
	storage *auth.TokenStorage
	client  *client.Client
	player  *player.Player
	store   *store.Store
	session session.Provider
	library *library.Library

	ctrl *playback.Controller
}

func oauthConfig() *auth.Config {
	oc := auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if cfg.Spotify.RedirectURI != "" {
		oc.RedirectURI = cfg.Spotify.RedirectURI
	}
	return oc
}

func requireClientID() error {
	if cfg.Spotify.ClientID == "" {
		return tterrors.WithSuggestion(
			fmt.Errorf("%w: spotify.client_id not configured", tterrors.ErrInvalidConfig),
			"Set spotify.client_id in ~/.turntablerc or via TURNTABLE_SPOTIFY_CLIENT_ID",
		)
	}
	return nil
}

func openStore() (*store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrPersistenceFailed, err)
	}
	return st, nil
}

// openApp wires the Spotify client, the history store and the library.
// The caller must Close the result.
func openApp(ctx context.Context) (*app, error) {
	if err := requireClientID(); err != nil {
		return nil, err
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return nil, err
	}

	c := client.New(oauthConfig().TokenSource(ctx, storage), client.WithLogger(logger))
	p := player.New(c, cfg.Spotify.Market)

	st, err := openStore()
	if err != nil {
		return nil, err
	}

	return &app{
		storage: storage,
		client:  c,
		player:  p,
		store:   st,
		session: session.NewFileProvider(storage),
		library: library.New(p, st, logger),
	}, nil
}

// controller returns the playback session, starting it on first use.
// A failed startup reconciliation is logged but not fatal: the history
// is still loaded and commands report their own errors.
func (a *app) controller(ctx context.Context) *playback.Controller {
	if a.ctrl != nil {
		return a.ctrl
	}

	a.ctrl = playback.New(playback.Options{
		Player:        a.player,
		Store:         a.store,
		Session:       a.session,
		Logger:        logger,
		RemoteTimeout: cfg.Playback.RemoteTimeout(),
		AlbumSettle:   cfg.Playback.AlbumSettle(),
		HistoryLimit:  cfg.Playback.HistoryLimit,
	})
	if err := a.ctrl.Start(ctx); err != nil {
		logger.Debug().Err(err).Msg("starting without live playback state")
	}
	return a.ctrl
}

// userID returns the signed-in user's local id.
func (a *app) userID(ctx context.Context) (string, error) {
	creds, err := a.session.Current(ctx)
	if err != nil {
		return "", err
	}
	if !creds.Authenticated() {
		return "", tterrors.ErrNotAuthenticated
	}
	if !creds.HasIdentity() {
		return "", tterrors.ErrNoUserIdentity
	}
	return creds.UserID, nil
}

// Close waits for pending history writes and closes the store.
func (a *app) Close() error {
	if a.ctrl != nil {
		a.ctrl.Wait()
	}
	return a.store.Close()
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	runErr := fn(a)
	return errors.Join(runErr, a.Close())
}
