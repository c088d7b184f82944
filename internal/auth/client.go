package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
)

// NewHTTPClient returns an HTTP client authorized for scopes
func NewHTTPClient(ctx context.Context, cfg config.AuthConfig, scopes []string, prompter Prompter, logger *slog.Logger) (*http.Client, error) {
	logger = infrastructure.WithComponent(logger, "auth")

	if cfg.SecretsFile == "" || cfg.CredentialsFile == "" {
		logger.DebugContext(ctx, "using application default credentials")
		client, err := google.DefaultClient(ctx, scopes...)
		if err != nil {
			return nil, apperrors.NewConfigError("no application default credentials", err)
		}
		return client, nil
	}

	secrets, err := os.ReadFile(cfg.SecretsFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to read client secrets", err).WithContext("file", cfg.SecretsFile)
	}
	oauthCfg, err := google.ConfigFromJSON(secrets, scopes...)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid client secrets", err).WithContext("file", cfg.SecretsFile)
	}

	tok, err := loadToken(cfg.CredentialsFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if prompter == nil {
			return nil, apperrors.NewConfigError("no stored credentials and no prompter", err)
		}
		tok, err = authorize(ctx, oauthCfg, prompter)
		if err != nil {
			return nil, err
		}
		if err := saveToken(cfg.CredentialsFile, tok); err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "stored new credentials", slog.String("file", cfg.CredentialsFile))
	case err != nil:
		return nil, err
	}

	src := &persistingSource{
		base:   oauthCfg.TokenSource(ctx, tok),
		path:   cfg.CredentialsFile,
		last:   tok.AccessToken,
		logger: logger,
	}
	return oauth2.NewClient(ctx, src), nil
}

// authorize runs the consent flow and exchanges the returned code
func authorize(ctx context.Context, oauthCfg *oauth2.Config, prompter Prompter) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline)

	code, err := prompter.Prompt(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to exchange authorization code", err)
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
		return nil, apperrors.NewParsingError("invalid stored credentials", err).WithContext("file", path)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return apperrors.NewStorageError("failed to create credentials directory", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return apperrors.NewStorageError("failed to store credentials", err).WithContext("file", path)
	}
	return os.Chmod(path, 0600)
}

// persistingSource writes every newly issued token back to path
type persistingSource struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			s.logger.Warn("failed to store refreshed credentials", slog.String("error", err.Error()))
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}
