package web

import (
	"context"
	"net/http"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/session"
	"github.com/desertthunder/tubelist/internal/shared"
)

type responseMode int

const (
	pageMode responseMode = iota
	jsonMode
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

func sessionFrom(r *http.Request) (*session.Session, bool) {
	return session.FromContext(r.Context())
}

// requireSession runs next with a session whose token is usable.
//
// Without a session pages redirect to / and JSON routes answer 401. An expired token is refreshed
// once; success re-issues the cookie, failure clears it and forces a new sign-in.
func (a *App) requireSession(mode responseMode, next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFrom(r)
		if !ok {
			if mode == jsonMode {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
				return
			}
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		rec := a.auth.EnsureValidToken(r.Context(), s.Token)
		if rec.Failed() {
			a.logger.Warn("session token unusable, forcing sign-in", "email", s.Profile.Email)
			a.reauthenticate(w, r, mode)
			return
		}

		if rec != s.Token {
			s.Token = rec
			if err := a.sessions.Write(w, s); err != nil {
				a.logger.Error("failed to re-issue session", "error", err)
			}
			a.mirror(r.Context(), s.Profile.Email, rec)
			a.logger.Debug("access token refreshed", "email", s.Profile.Email)
		}

		next(w, r.WithContext(session.WithSession(r.Context(), s)), s)
	})
}

// reauthenticate drops the session and sends the client back through sign-in.
func (a *App) reauthenticate(w http.ResponseWriter, r *http.Request, mode responseMode) {
	a.sessions.Clear(w)

	if mode == jsonMode {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   string(models.RefreshFailed),
			"message": "Session expired, sign in again.",
		})
		return
	}
	http.Redirect(w, r, "/auth/signin", http.StatusFound)
}

// signIn starts the authorization-code flow.
func (a *App) signIn(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()
	a.sessions.WriteState(w, state)
	http.Redirect(w, r, a.auth.AuthCodeURL(state), http.StatusFound)
}

// callback completes sign-in: state check, code exchange, profile lookup, session cookie.
func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	expected, err := a.sessions.ConsumeState(w, r)
	if err != nil || q.Get("state") != expected {
		a.logger.Warn("oauth state mismatch")
		a.renderError(w, r, http.StatusBadRequest, "Your sign-in link expired or was tampered with. Please sign in again.")
		return
	}

	if e := q.Get("error"); e != "" {
		a.logger.Info("sign-in declined", "error", e)
		a.renderError(w, r, http.StatusUnauthorized, "Sign-in was cancelled.")
		return
	}

	rec, err := a.auth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		a.logger.Error("code exchange failed", "error", err)
		a.renderError(w, r, http.StatusBadGateway, "Could not complete sign-in with Google.")
		return
	}

	profile, err := a.auth.Profile(r.Context(), rec.AccessToken)
	if err != nil {
		a.logger.Error("profile lookup failed", "error", err)
		a.renderError(w, r, http.StatusBadGateway, "Could not load your Google profile.")
		return
	}

	s := session.New(rec, *profile)
	if err := a.sessions.Write(w, s); err != nil {
		a.logger.Error("failed to issue session", "error", err)
		a.renderError(w, r, http.StatusInternalServerError, "Could not start your session.")
		return
	}
	a.mirror(r.Context(), profile.Email, rec)

	a.logger.Info("signed in", "email", profile.Email)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// signOut clears the cookie and the mirrored token.
func (a *App) signOut(w http.ResponseWriter, r *http.Request) {
	a.sessions.Clear(w)
	if s, ok := sessionFrom(r); ok {
		a.unmirror(context.WithoutCancel(r.Context()), s.Profile.Email)
		a.logger.Info("signed out", "email", s.Profile.Email)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
