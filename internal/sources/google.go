package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Read-only scopes requested by the Google sources.
const (
	GmailScope = "https://www.googleapis.com/auth/gmail.readonly"
	DriveScope = "https://www.googleapis.com/auth/drive.readonly"
)

// GoogleAuth locates the OAuth client secrets and the stored user token.
type GoogleAuth struct {
	CredentialsFile string
	TokenFile       string
}

// Ready reports whether both files exist.
func (a GoogleAuth) Ready() error {
	if a.CredentialsFile == "" {
		return fmt.Errorf("%w: google credentials file not set", ErrNotConfigured)
	}
	if _, err := os.Stat(a.CredentialsFile); err != nil {
		return fmt.Errorf("%w: google credentials file %s not found", ErrNotConfigured, a.CredentialsFile)
	}
	if a.TokenFile == "" {
		return fmt.Errorf("%w: google token file not set", ErrNotConfigured)
	}
	if _, err := os.Stat(a.TokenFile); err != nil {
		return fmt.Errorf("%w: no google token at %s, run 'necromancer auth google'", ErrNotConfigured, a.TokenFile)
	}
	return nil
}

func (a GoogleAuth) oauthConfig(scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(a.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid google credentials: %w", err)
	}
	return cfg, nil
}

// ClientOptions builds API client options backed by a refreshing token
// source.
func (a GoogleAuth) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	cfg, err := a.oauthConfig(scopes...)
	if err != nil {
		return nil, err
	}
	tok, err := readToken(a.TokenFile)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(cfg.TokenSource(ctx, tok))}, nil
}

// AuthCodeURL returns the consent page URL for an out-of-band authorization.
func (a GoogleAuth) AuthCodeURL(scopes ...string) (string, error) {
	cfg, err := a.oauthConfig(scopes...)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("necromancer", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and stores it in
// TokenFile.
func (a GoogleAuth) Exchange(ctx context.Context, code string, scopes ...string) error {
	cfg, err := a.oauthConfig(scopes...)
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return writeToken(a.TokenFile, tok)
}

// storedToken accepts both the oauth2 field names and the ones written by
// Google's Python client ("token", "expiry").
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read google token: %w", err)
	}
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid google token file: %w", err)
	}
	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = st.Token
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("google token file %s holds no token", path)
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
