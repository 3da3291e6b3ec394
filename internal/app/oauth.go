package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/semmidev/argus/internal/infrastructure/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// GoogleOAuthService obtains a refresh token for the Google Drive target.
// It backs the `argus auth gdrive` command.
type GoogleOAuthService struct {
	config     *oauth2.Config
	logger     *logger.Logger
	authServer *http.Server
}

func NewGoogleOAuthService(log *logger.Logger, clientSecretPath string) (*GoogleOAuthService, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if clientSecretPath == "" {
		return nil, errors.New("client secret path cannot be empty")
	}

	b, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret: %w", err)
	}

	return &GoogleOAuthService{
		config: cfg,
		logger: log,
	}, nil
}

// StartAuthServer starts the OAuth HTTP flow in a goroutine.
func (s *GoogleOAuthService) StartAuthServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/google/drive", func(w http.ResponseWriter, r *http.Request) {
		authURL := s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	})

	mux.HandleFunc("GET /auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		token, err := s.config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		tokenJSON, err := json.MarshalIndent(token, "", "  ")
		if err != nil {
			http.Error(w, "failed to marshal token", http.StatusInternalServerError)
			return
		}

		if token.RefreshToken == "" {
			fmt.Fprintln(w, "No refresh token returned. Revoke app access and re-authorize.")
			return
		}

		fmt.Fprintf(w, "Refresh token:\n%s\n\nFull token JSON:\n%s", token.RefreshToken, tokenJSON)
	})

	s.authServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Infof("Google Drive OAuth server listening on %s", s.authServer.Addr)
		if err := s.authServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("OAuth server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the OAuth server.
func (s *GoogleOAuthService) Shutdown(ctx context.Context) error {
	if s.authServer == nil {
		return nil
	}

	if err := s.authServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown OAuth server: %w", err)
	}
	s.logger.Infof("OAuth server stopped")
	return nil
}
