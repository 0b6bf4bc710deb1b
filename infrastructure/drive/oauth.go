package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// callbackAddr is where the local OAuth redirect listener runs
const callbackAddr = "localhost:8085"

// OAuthConfig holds the configuration for OAuth 2.0 authentication
type OAuthConfig struct {
	CredentialsFile string // Path to OAuth client credentials JSON
	TokenFile       string // Path to store/load token
	Output          io.Writer
}

// NewClientWithOAuth creates a new Google Drive client authorized as the user
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.driveService == nil {
		svc, err := newOAuthDriveService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

func newOAuthDriveService(ctx context.Context, cfg OAuthConfig) (*GoogleDriveService, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	token, err := tokenFor(ctx, config, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// tokenFor reuses a cached token when it can still be refreshed, otherwise runs the browser flow
func tokenFor(ctx context.Context, config *oauth2.Config, cfg OAuthConfig) (*oauth2.Token, error) {
	if cached, err := readToken(cfg.TokenFile); err == nil {
		fresh, err := config.TokenSource(ctx, cached).Token()
		if err == nil {
			if fresh.AccessToken != cached.AccessToken {
				_ = writeToken(cfg.TokenFile, fresh)
			}
			return fresh, nil
		}
	}

	token, err := authorizeInBrowser(ctx, config, cfg.Output)
	if err != nil {
		return nil, err
	}
	if err := writeToken(cfg.TokenFile, token); err != nil {
		fmt.Fprintf(cfg.Output, "Warning: couldn't save token: %v\n", err)
	}
	return token, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, err
	}
	return token, nil
}

func writeToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// authorizeInBrowser receives the authorization code on a local redirect listener
func authorizeInBrowser(ctx context.Context, config *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	config.RedirectURL = "http://" + callbackAddr + "/callback"

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "no authorization code received", http.StatusBadRequest)
			errs <- fmt.Errorf("no code in callback")
			return
		}
		fmt.Fprint(w, "clip-editor is authorized. You can close this window.")
		codes <- code
	})

	server := &http.Server{Addr: callbackAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("clip-editor", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "\nAuthorize uploads to Google Drive by visiting:\n\n%s\n\n", authURL)
	openBrowser(authURL)

	select {
	case code := <-codes:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange auth code: %w", err)
		}
		fmt.Fprintln(out, "Authentication successful!")
		return token, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// openBrowser opens a URL in the default browser, best effort
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command("xdg-open", url)
		} else if _, err := exec.LookPath("wslview"); err == nil {
			cmd = exec.Command("wslview", url)
		}
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}

	if cmd != nil {
		_ = cmd.Start()
	}
}
