package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// Scopes requested at sign-in.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// TokenManager performs the Google authorization-code and refresh-token grants.
type TokenManager struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	now         func() time.Time
}

// NewTokenManager creates a TokenManager from the given OAuth2 credentials.
//
// Recognized keys are client_id, client_secret, redirect_uri, auth_url, token_url and userinfo_url.
// A nil httpClient uses [http.DefaultClient].
func NewTokenManager(credentials map[string]string, httpClient *http.Client) (*TokenManager, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/auth/callback"
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   valueOr(credentials["auth_url"], googleAuthURL),
			TokenURL:  valueOr(credentials["token_url"], googleTokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &TokenManager{
		config:      config,
		userInfoURL: valueOr(credentials["userinfo_url"], googleUserInfoURL),
		httpClient:  httpClient,
		now:         time.Now,
	}, nil
}

// SetClock replaces the time source used for expiry decisions.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// RedirectURL returns the configured OAuth callback URL.
func (m *TokenManager) RedirectURL() string {
	return m.config.RedirectURL
}

// WithRedirectURL returns a copy of m that uses a different callback URL.
func (m *TokenManager) WithRedirectURL(redirectURL string) *TokenManager {
	config := *m.config
	config.RedirectURL = redirectURL
	clone := *m
	clone.config = &config
	return &clone
}

// AuthCodeURL returns the consent screen URL requesting offline access.
//
// prompt=consent makes Google issue a refresh token on every sign-in.
func (m *TokenManager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token record.
func (m *TokenManager) Exchange(ctx context.Context, code string) (models.TokenRecord, error) {
	if code == "" {
		return models.TokenRecord{}, fmt.Errorf("%w: empty authorization code", shared.ErrAuthExchangeFailed)
	}

	now := m.now()
	token, err := m.config.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: %w", shared.ErrAuthExchangeFailed, err)
	}

	return models.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt(token, now),
	}, nil
}

// EnsureValidToken returns rec unchanged when it has not expired. Otherwise it makes one refresh
// request and returns a record with the new access token, or rec flagged with [models.RefreshFailed].
//
// The refresh token is never replaced, even when the provider returns a new one.
func (m *TokenManager) EnsureValidToken(ctx context.Context, rec models.TokenRecord) models.TokenRecord {
	now := m.now()
	if !rec.Expired(now) {
		return rec
	}

	failed := rec
	failed.Error = models.RefreshFailed

	if rec.RefreshToken == "" {
		return failed
	}

	// An already-expired seed forces the token source to hit the token endpoint.
	seed := &oauth2.Token{RefreshToken: rec.RefreshToken, Expiry: time.Unix(1, 0)}
	token, err := m.config.TokenSource(m.clientContext(ctx), seed).Token()
	if err != nil || token.AccessToken == "" {
		return failed
	}

	return models.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresAt:    expiresAt(token, now),
	}
}

// Profile fetches the signed-in user's identity from the userinfo endpoint.
func (m *TokenManager) Profile(ctx context.Context, accessToken string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	bearer(accessToken)(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, body)
	}

	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	return &profile, nil
}

func (m *TokenManager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// expiresAt resolves the absolute expiry of a freshly issued token against now.
//
// expires_in is preferred; an explicit expires_at is honored next, then the library's computed expiry.
// A token with no expiry information is treated as already due.
func expiresAt(token *oauth2.Token, now time.Time) int64 {
	if token.ExpiresIn > 0 {
		return now.Unix() + token.ExpiresIn
	}
	if secs, ok := extraInt(token, "expires_in"); ok && secs > 0 {
		return now.Unix() + secs
	}
	if at, ok := extraInt(token, "expires_at"); ok && at > 0 {
		return at
	}
	if !token.Expiry.IsZero() {
		return token.Expiry.Unix()
	}
	return now.Unix()
}

func extraInt(token *oauth2.Token, key string) (int64, bool) {
	switch v := token.Extra(key).(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
