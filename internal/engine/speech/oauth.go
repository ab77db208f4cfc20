package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// OAuth2 authorization-code flow with a loopback redirect listener.
// The exchanged token is cached on disk; later runs refresh it silently
// through the TokenSource.

const (
	loopbackPort = 8766
	authWaitMax  = 5 * time.Minute
	tokenFile    = ".speech-token.json"
)

// googleEndpoint is defined inline to avoid the oauth2/google metadata
// dependency — only the two URLs are needed.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// newOAuthConfig builds the oauth2 config from engine configuration.
func newOAuthConfig() (*oauth2.Config, error) {
	if engine.Cfg.OAuthClientID == "" || engine.Cfg.OAuthClientSecret == "" {
		return nil, errors.New("speech: OAuth client credentials not configured")
	}
	return &oauth2.Config{
		ClientID:     engine.Cfg.OAuthClientID,
		ClientSecret: engine.Cfg.OAuthClientSecret,
		Endpoint:     googleEndpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", loopbackPort),
		Scopes:       []string{"https://www.googleapis.com/auth/cloud-platform"},
	}, nil
}

func tokenPath() string {
	return filepath.Join(engine.Cfg.OutputRoot, tokenFile)
}

// tokenSource returns a refreshing token source, running the interactive
// loopback flow when no cached token exists.
func tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	conf, err := newOAuthConfig()
	if err != nil {
		return nil, err
	}

	if tok, err := loadToken(tokenPath()); err == nil {
		return conf.TokenSource(ctx, tok), nil
	}

	tok, err := authorizeInteractive(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokenPath(), tok); err != nil {
		slog.Warn("speech: token cache write failed", slog.Any("error", err))
	}
	return conf.TokenSource(ctx, tok), nil
}

// authorizeInteractive prints the consent URL and blocks on the loopback
// listener until the redirect arrives or the wait ceiling elapses.
func authorizeInteractive(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	state := fmt.Sprintf("st%d", time.Now().UnixNano())
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", loopbackPort))
	if err != nil {
		return nil, fmt.Errorf("speech: loopback listener: %w", err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("state"); got != state {
			errCh <- errors.New("state mismatch in OAuth redirect")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- fmt.Errorf("authorization denied: %s", r.URL.Query().Get("error"))
			fmt.Fprintln(w, "Authorization failed. You can close this tab.")
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this tab.")
		codeCh <- code
	})}
	go srv.Serve(ln) //nolint:errcheck // Shutdown below returns the final error
	defer srv.Shutdown(context.Background())

	slog.Info("speech: open this URL to authorize", slog.String("url", authURL))

	waitCtx, cancel := context.WithTimeout(ctx, authWaitMax)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-waitCtx.Done():
		return nil, fmt.Errorf("speech: no OAuth redirect within %s", authWaitMax)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("speech: code exchange: %w", err)
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, errors.New("cached token expired with no refresh token")
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
