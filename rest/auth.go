package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/session"
)

const (
	cookieName   = "ff_session"
	cookieMaxAge = 365 * 24 * time.Hour
	browserIDKey = "id"
)

type ctxKey struct{}

func newCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(cookieMaxAge.Seconds()))
	return store
}

// browserKey returns the slot key carried by a correctly signed session
// cookie. Anything else counts as no browser session.
func (a *App) browserKey(r *http.Request) (string, bool) {
	sess, err := a.cookies.Get(r, cookieName)
	if err != nil {
		logger.Get().Debugf("rejected session cookie: %v", err)
		return "", false
	}
	id, ok := sess.Values[browserIDKey].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ensureBrowser returns the browser's slot key, issuing a new signed cookie
// when the request carries none.
func (a *App) ensureBrowser(w http.ResponseWriter, r *http.Request) (string, error) {
	if key, ok := a.browserKey(r); ok {
		return key, nil
	}

	// a cookie that failed to decode still yields a fresh session
	sess, _ := a.cookies.New(r, cookieName)
	id := uuid.NewString()
	sess.Values[browserIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// currentSession is the Session of the request's browser, or nil.
func (a *App) currentSession(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(ctxKey{}).(*session.Session); ok {
		return s
	}
	key, ok := a.browserKey(r)
	if !ok {
		return nil
	}
	return session.New(a.Tokens, key)
}

func (a *App) authenticated(r *http.Request) bool {
	s := a.currentSession(r)
	return s != nil && s.HasSession()
}

// RequireSession sends browsers without a stored token to /login before
// the wrapped handler runs.
func (a *App) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := a.currentSession(r)
		if s == nil || !s.HasSession() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
