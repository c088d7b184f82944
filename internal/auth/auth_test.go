package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
)

var testScopes = []string{"https://www.googleapis.com/auth/analytics"}

// tokenServer issues access tokens for authorization codes and refresh tokens
type tokenServer struct {
	*httptest.Server
	exchanges atomic.Int32
	refreshes atomic.Int32
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		var access string
		switch r.FormValue("grant_type") {
		case "authorization_code":
			assert.Equal(t, "code-1", r.FormValue("code"))
			ts.exchanges.Add(1)
			access = "issued-token"
		case "refresh_token":
			assert.Equal(t, "refresh-1", r.FormValue("refresh_token"))
			ts.refreshes.Add(1)
			access = "refreshed-token"
		default:
			t.Errorf("unexpected grant %q", r.FormValue("grant_type"))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`, access)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeSecrets(t *testing.T, dir, tokenURL string) string {
	t.Helper()

	path := filepath.Join(dir, "secrets.json")
	secrets := map[string]interface{}{
		"installed": map[string]interface{}{
			"client_id":     "client-1",
			"client_secret": "secret-1",
			"auth_uri":      "https://accounts.example.test/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"urn:ietf:wg:oauth:2.0:oob"},
		},
	}
	data, err := json.Marshal(secrets)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// bearerOf performs one request with client and returns the Authorization header seen
func bearerOf(t *testing.T, client *http.Client) string {
	t.Helper()

	var seen string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
	}))
	defer api.Close()

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	return seen
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClient_InteractiveFlow(t *testing.T) {
	tokens := newTokenServer(t)
	dir := t.TempDir()
	cfg := config.AuthConfig{
		SecretsFile:     writeSecrets(t, dir, tokens.URL),
		CredentialsFile: filepath.Join(dir, "creds", "token.json"),
	}

	var promptedURL string
	prompter := PrompterFunc(func(_ context.Context, authURL string) (string, error) {
		promptedURL = authURL
		return "code-1", nil
	})

	client, err := NewHTTPClient(context.Background(), cfg, testScopes, prompter, discard())
	require.NoError(t, err)

	assert.Contains(t, promptedURL, "https://accounts.example.test/auth")
	assert.Contains(t, promptedURL, "client_id=client-1")
	assert.Contains(t, promptedURL, "access_type=offline")
	assert.Equal(t, int32(1), tokens.exchanges.Load())

	info, err := os.Stat(cfg.CredentialsFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	stored, err := loadToken(cfg.CredentialsFile)
	require.NoError(t, err)
	assert.Equal(t, "issued-token", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)

	assert.Equal(t, "Bearer issued-token", bearerOf(t, client))
}

func TestNewHTTPClient_StoredToken(t *testing.T) {
	tokens := newTokenServer(t)
	dir := t.TempDir()
	cfg := config.AuthConfig{
		SecretsFile:     writeSecrets(t, dir, tokens.URL),
		CredentialsFile: filepath.Join(dir, "token.json"),
	}
	require.NoError(t, saveToken(cfg.CredentialsFile, &oauth2.Token{
		AccessToken:  "stored-token",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}))

	prompter := PrompterFunc(func(context.Context, string) (string, error) {
		t.Error("prompter must not be called with stored credentials")
		return "", errors.New("unexpected")
	})

	client, err := NewHTTPClient(context.Background(), cfg, testScopes, prompter, discard())
	require.NoError(t, err)

	assert.Equal(t, "Bearer stored-token", bearerOf(t, client))
	assert.Zero(t, tokens.exchanges.Load())
	assert.Zero(t, tokens.refreshes.Load())
}

func TestNewHTTPClient_RefreshIsPersisted(t *testing.T) {
	tokens := newTokenServer(t)
	dir := t.TempDir()
	cfg := config.AuthConfig{
		SecretsFile:     writeSecrets(t, dir, tokens.URL),
		CredentialsFile: filepath.Join(dir, "token.json"),
	}
	require.NoError(t, saveToken(cfg.CredentialsFile, &oauth2.Token{
		AccessToken:  "expired-token",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	client, err := NewHTTPClient(context.Background(), cfg, testScopes, nil, discard())
	require.NoError(t, err)

	assert.Equal(t, "Bearer refreshed-token", bearerOf(t, client))
	assert.Equal(t, int32(1), tokens.refreshes.Load())

	stored, err := loadToken(cfg.CredentialsFile)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-token", stored.AccessToken)
}

func TestNewHTTPClient_Errors(t *testing.T) {
	dir := t.TempDir()
	secrets := writeSecrets(t, dir, "http://127.0.0.1:1/token")

	tests := []struct {
		name     string
		cfg      config.AuthConfig
		prompter Prompter
	}{
		{
			name: "missing secrets file",
			cfg:  config.AuthConfig{SecretsFile: filepath.Join(dir, "absent.json"), CredentialsFile: filepath.Join(dir, "t.json")},
		},
		{
			name: "no token and no prompter",
			cfg:  config.AuthConfig{SecretsFile: secrets, CredentialsFile: filepath.Join(dir, "t.json")},
		},
		{
			name: "prompter fails",
			cfg:  config.AuthConfig{SecretsFile: secrets, CredentialsFile: filepath.Join(dir, "t.json")},
			prompter: PrompterFunc(func(context.Context, string) (string, error) {
				return "", errors.New("closed")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPClient(context.Background(), tt.cfg, testScopes, tt.prompter, discard())
			assert.Error(t, err)
			assert.NoFileExists(t, tt.cfg.CredentialsFile)
		})
	}
}

func TestNewHTTPClient_ExchangeFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AuthConfig{
		SecretsFile:     writeSecrets(t, dir, "http://127.0.0.1:1/token"),
		CredentialsFile: filepath.Join(dir, "t.json"),
	}
	prompter := PrompterFunc(func(context.Context, string) (string, error) {
		return "code-1", nil
	})

	_, err := NewHTTPClient(context.Background(), cfg, testScopes, prompter, discard())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNetwork, appErr.Type)
	assert.NoFileExists(t, cfg.CredentialsFile)
}

func TestNewHTTPClient_CorruptToken(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AuthConfig{
		SecretsFile:     writeSecrets(t, dir, "http://127.0.0.1:1/token"),
		CredentialsFile: filepath.Join(dir, "token.json"),
	}
	require.NoError(t, os.WriteFile(cfg.CredentialsFile, []byte("{not json"), 0600))

	_, err := NewHTTPClient(context.Background(), cfg, testScopes, nil, discard())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
}

func TestNewHTTPClient_DefaultCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"type": "authorized_user",
		"client_id": "client-1",
		"client_secret": "secret-1",
		"refresh_token": "refresh-1"
	}`), 0600))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	client, err := NewHTTPClient(context.Background(), config.AuthConfig{}, testScopes, nil, discard())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestConsolePrompter(t *testing.T) {
	var out strings.Builder
	p := NewConsolePrompter(strings.NewReader("  4/abc-def \n"), &out)

	code, err := p.Prompt(context.Background(), "https://accounts.example.test/auth?x=1")
	require.NoError(t, err)
	assert.Equal(t, "4/abc-def", code)
	assert.Contains(t, out.String(), "https://accounts.example.test/auth?x=1")
}

func TestConsolePrompter_Errors(t *testing.T) {
	p := NewConsolePrompter(strings.NewReader(""), io.Discard)
	_, err := p.Prompt(context.Background(), "u")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewConsolePrompter(strings.NewReader("code\n"), io.Discard).Prompt(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
}
