// package session encodes the signed-in user's session into a signed cookie and carries it through request contexts.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultCookieName is used when the config leaves session.cookie_name empty.
	DefaultCookieName = "tubelist_session"

	// StateCookieName holds the OAuth state between sign-in and callback.
	StateCookieName = "tubelist_oauth_state"

	stateTTL = 10 * time.Minute
)

// Session is what a signed-in browser carries between requests.
type Session struct {
	ID      string             `json:"sid"`
	Token   models.TokenRecord `json:"token"`
	Profile models.Profile     `json:"profile"`
}

// New creates a session with a fresh ID.
func New(token models.TokenRecord, profile models.Profile) *Session {
	return &Session{ID: shared.GenerateID(), Token: token, Profile: profile}
}

type claims struct {
	Token   models.TokenRecord `json:"token"`
	Profile models.Profile     `json:"profile"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session cookies with HS256.
type Codec struct {
	secret     []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

// NewCodec creates a Codec from session config.
func NewCodec(cfg shared.SessionConfig) (*Codec, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("%w: session secret must be at least 32 bytes", shared.ErrInvalidConfig)
	}

	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}

	days := cfg.MaxAgeDays
	if days <= 0 {
		days = 30
	}

	return &Codec{
		secret:     []byte(cfg.Secret),
		cookieName: name,
		maxAge:     time.Duration(days) * 24 * time.Hour,
		secure:     cfg.Secure,
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source used when issuing and verifying sessions.
func (c *Codec) SetClock(now func() time.Time) {
	c.now = now
}

// CookieName returns the name of the session cookie.
func (c *Codec) CookieName() string {
	return c.cookieName
}

// Encode signs s into a compact JWT.
func (c *Codec) Encode(s *Session) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Token:   s.Token,
		Profile: s.Profile,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Profile.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies a JWT produced by [Codec.Encode].
func (c *Codec) Decode(raw string) (*Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var cl claims
	token, err := parser.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidSession, err)
	}
	if !token.Valid || cl.ID == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidSession, jwt.ErrTokenInvalidClaims)
	}

	return &Session{ID: cl.ID, Token: cl.Token, Profile: cl.Profile}, nil
}

// Write sets the session cookie on w.
func (c *Codec) Write(w http.ResponseWriter, s *Session) error {
	value, err := c.Encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read decodes the session cookie from r.
//
// A missing cookie is reported as [shared.ErrNotAuthenticated], a bad one as [shared.ErrInvalidSession].
func (c *Codec) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(c.cookieName)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidSession, err)
	}
	return c.Decode(cookie.Value)
}

// Clear expires the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// WriteState stores the OAuth state for the callback to verify.
func (c *Codec) WriteState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ConsumeState returns the stored OAuth state and expires its cookie.
func (c *Codec) ConsumeState(w http.ResponseWriter, r *http.Request) (string, error) {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" {
		return "", shared.ErrInvalidState
	}

	http.SetCookie(w, &http.Cookie{Name: StateCookieName, Path: "/auth", MaxAge: -1})
	return cookie.Value, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by [WithSession], if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Load decodes the session cookie, when present and valid, into the request context.
//
// It never rejects a request; enforcement is left to the handlers that need a session.
func (c *Codec) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, err := c.Read(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}
