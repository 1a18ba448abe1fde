package google

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
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/servar-dev/servar/internal/instrumentation"
	"github.com/servar-dev/servar/internal/logging"
)

// Credential is an OAuth2 credential bound to exactly one provider.
type Credential struct {
	Provider  Provider
	Config    *oauth2.Config
	Token     *oauth2.Token
	TokenPath string

	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// TokenSource returns a refreshing token source that writes refreshed tokens
// back to the credential's token file. ctx is used for refresh requests.
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	return newPersistingTokenSource(ctx, c)
}

// HTTPClient returns an authorized HTTP client with the given timeout.
func (c *Credential) HTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	client := oauth2.NewClient(ctx, c.TokenSource(ctx))
	client.Timeout = timeout
	return client
}

func (c *Credential) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Option configures Acquire.
type Option func(*acquireOptions)

type acquireOptions struct {
	handshaker Handshaker
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// WithHandshaker sets the flow used when no token file exists. Nil disables
// interactive authorization so a missing token file yields ErrNoToken.
func WithHandshaker(h Handshaker) Option {
	return func(o *acquireOptions) {
		o.handshaker = h
	}
}

// WithMetrics records handshake and refresh outcomes on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *acquireOptions) {
		o.metrics = m
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *acquireOptions) {
		o.logger = l
	}
}

// Acquire loads the provider's credential from tokenPath, or runs the
// handshake with the client secrets at credsPath and persists the result.
// Stored scopes are not validated against the provider's scopes; a revoked
// token surfaces at the first API call.
func Acquire(ctx context.Context, provider Provider, credsPath, tokenPath string, opts ...Option) (*Credential, error) {
	o := acquireOptions{
		handshaker: &LocalServerHandshake{OpenBrowser: OpenBrowser},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := logging.WithProvider(o.logger, provider.String())

	ctx, span := instrumentation.StartOAuthSpan(ctx, provider.String(), "acquire")
	defer span.End()

	cred, err := acquire(ctx, provider, credsPath, tokenPath, o, logger)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &AuthError{Provider: provider, Err: err}
	}
	cred.metrics = o.metrics
	cred.logger = logger
	instrumentation.SetSpanSuccess(span)
	return cred, nil
}

func acquire(ctx context.Context, provider Provider, credsPath, tokenPath string, o acquireOptions, logger *slog.Logger) (*Credential, error) {
	scopes := provider.Scopes()

	stored, err := readTokenFile(tokenPath)
	switch {
	case err == nil:
		cfg := stored.oauthConfig(scopes)
		if cfg.ClientID == "" {
			fileCfg, err := loadClientConfig(credsPath, scopes)
			if err != nil {
				return nil, err
			}
			cfg.ClientID = fileCfg.ClientID
			cfg.ClientSecret = fileCfg.ClientSecret
			if stored.TokenURI == "" {
				cfg.Endpoint = fileCfg.Endpoint
			}
		}
		tok, err := stored.oauthToken()
		if err != nil {
			return nil, fmt.Errorf("invalid token file %s: %w", filepath.Base(tokenPath), err)
		}
		logger.Debug("loaded token file", logging.Path(tokenPath))
		return &Credential{Provider: provider, Config: cfg, Token: tok, TokenPath: tokenPath}, nil

	case errors.Is(err, fs.ErrNotExist):
		// fall through to the handshake

	default:
		return nil, err
	}

	if o.handshaker == nil {
		return nil, ErrNoToken
	}

	cfg, err := loadClientConfig(credsPath, scopes)
	if err != nil {
		return nil, err
	}

	logger.Info("no token file, starting authorization flow", logging.Path(tokenPath))
	tok, err := o.handshaker.Handshake(ctx, cfg)
	if err != nil {
		o.metrics.RecordOAuthHandshake(ctx, provider.String(), instrumentation.OAuthResultFailure)
		return nil, err
	}
	o.metrics.RecordOAuthHandshake(ctx, provider.String(), instrumentation.OAuthResultSuccess)

	if err := writeTokenFile(tokenPath, newAuthorizedUser(cfg, tok)); err != nil {
		return nil, err
	}
	logger.Info("authorization complete, token saved", logging.Path(tokenPath))

	return &Credential{Provider: provider, Config: cfg, Token: tok, TokenPath: tokenPath}, nil
}

// loadClientConfig reads an "installed" or "web" client secrets file.
func loadClientConfig(path string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// authorizedUser is the persisted token file layout.
type authorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry,omitempty"`
}

func newAuthorizedUser(cfg *oauth2.Config, tok *oauth2.Token) authorizedUser {
	u := authorizedUser{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	if !tok.Expiry.IsZero() {
		u.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	return u
}

func (u authorizedUser) oauthConfig(scopes []string) *oauth2.Config {
	endpoint := google.Endpoint
	if u.TokenURI != "" {
		endpoint.TokenURL = u.TokenURI
	}
	return &oauth2.Config{
		ClientID:     u.ClientID,
		ClientSecret: u.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

func (u authorizedUser) oauthToken() (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  u.Token,
		RefreshToken: u.RefreshToken,
		TokenType:    "Bearer",
	}
	if u.Expiry != "" {
		expiry, err := time.Parse(time.RFC3339, u.Expiry)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry %q: %w", u.Expiry, err)
		}
		tok.Expiry = expiry
	}
	return tok, nil
}

func readTokenFile(path string) (authorizedUser, error) {
	var u authorizedUser
	data, err := os.ReadFile(path)
	if err != nil {
		return u, fmt.Errorf("failed to read token file: %w", err)
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("failed to parse token file %s: %w", filepath.Base(path), err)
	}
	return u, nil
}

func writeTokenFile(path string, u authorizedUser) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}
	return nil
}
