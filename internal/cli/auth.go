package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/tessro/turntable/internal/browser"
	"github.com/tessro/turntable/internal/spotify/auth"
	"github.com/tessro/turntable/internal/spotify/client"
	"github.com/tessro/turntable/internal/store"
)

const loginTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long: `Opens a browser to authenticate with Spotify using the OAuth PKCE flow.

The Spotify profile is linked to a local user so listening history and
likes survive across sessions.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine. History is kept.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if err := requireClientID(); err != nil {
		return err
	}

	oc := oauthConfig()
	addr, path, err := auth.CallbackAddr(oc.RedirectURI)
	if err != nil {
		return err
	}

	flow, err := auth.NewFlow()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	callbackServer, err := auth.NewCallbackServer(addr, path, logger)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL := oc.AuthCodeURL(flow)

	fmt.Println("Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Printf("Could not open browser automatically.\n")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Println("Waiting for authentication...")
	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	result, err := callbackServer.Wait(ctx)
	if err != nil {
		return fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("authentication failed: %s", result.Error)
	}
	if result.State != flow.State {
		return errors.New("state mismatch: possible CSRF attack")
	}

	fmt.Println("Exchanging code for tokens...")
	token, err := oc.Exchange(ctx, flow, result.Code)
	if err != nil {
		return err
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	creds := &auth.Credentials{Token: token}
	user, linkErr := linkUser(ctx, token)
	if linkErr != nil {
		logger.Warn().Err(linkErr).Msg("could not link listening history to this account")
	} else {
		creds.UserID = user.ID
		creds.SpotifyID = user.SpotifyID
		creds.DisplayName = user.DisplayName
	}

	if err := storage.Save(creds); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if JSONOutput() {
		output := map[string]any{
			"status":       "authenticated",
			"user_id":      creds.UserID,
			"spotify_id":   creds.SpotifyID,
			"display_name": creds.DisplayName,
		}
		_ = json.NewEncoder(os.Stdout).Encode(output)
		return nil
	}

	if linkErr != nil {
		fmt.Println("Authentication successful! Token stored, but history is disabled until the profile can be read.")
		return nil
	}
	fmt.Printf("Successfully authenticated as %s\n", user.DisplayName)
	return nil
}

// linkUser reads the Spotify profile with the fresh token and upserts the
// matching local user.
func linkUser(ctx context.Context, token *oauth2.Token) (store.User, error) {
	c := client.New(oauth2.StaticTokenSource(token), client.WithLogger(logger))
	profile, err := c.GetCurrentUser(ctx)
	if err != nil {
		return store.User{}, err
	}

	st, err := openStore()
	if err != nil {
		return store.User{}, err
	}
	defer st.Close()

	u := store.User{
		SpotifyID:   profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	}
	if len(profile.Images) > 0 {
		u.AvatarURL = profile.Images[0].URL
	}
	if u.DisplayName == "" {
		u.DisplayName = profile.ID
	}
	return st.UpsertUser(ctx, u)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "not_authenticated"})
		} else {
			fmt.Println("Not authenticated with Spotify.")
		}
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"status": "logged_out"})
	} else {
		fmt.Println("Logged out of Spotify.")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	creds, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if creds == nil || creds.Token == nil {
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]any{"authenticated": false})
		} else {
			fmt.Println("Not authenticated with Spotify.")
			fmt.Println("Run 'turntable auth login' to authenticate.")
		}
		return nil
	}

	expired := auth.IsExpired(creds.Token)
	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
			"authenticated": true,
			"user_id":       creds.UserID,
			"display_name":  creds.DisplayName,
			"expires_at":    creds.Token.Expiry,
			"expired":       expired,
			"refreshable":   creds.Token.RefreshToken != "",
			"history":       creds.UserID != "",
		})
		return nil
	}

	name := creds.DisplayName
	if name == "" {
		name = "unknown user"
	}
	fmt.Printf("Authenticated as %s\n", name)
	switch {
	case expired && creds.Token.RefreshToken != "":
		fmt.Println("Token expired; it will refresh on the next request.")
	case expired:
		fmt.Println("Token expired. Run 'turntable auth login' again.")
	case !creds.Token.Expiry.IsZero():
		fmt.Printf("Token valid until %s\n", creds.Token.Expiry.Local().Format(time.Kitchen))
	}
	if creds.UserID == "" {
		fmt.Println("History is disabled: no linked user. Run 'turntable auth login' again.")
	}
	return nil
}
