package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/yashjainme/friend-finder-frontend/auth"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/model"
	"github.com/yashjainme/friend-finder-frontend/search"
	"github.com/yashjainme/friend-finder-frontend/session"
)

// Pages //

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "home", model.PageTemplate{
		Title:         "Friend Finder",
		Authenticated: a.authenticated(r),
	})
}

func (a *App) signupForm(w http.ResponseWriter, r *http.Request) {
	a.renderAuth(w, r, http.StatusOK, model.AuthTemplate{Signup: true})
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	a.renderAuth(w, r, http.StatusOK, model.AuthTemplate{})
}

func (a *App) renderAuth(w http.ResponseWriter, r *http.Request, code int, page model.AuthTemplate) {
	page.Title = "Login"
	if page.Signup {
		page.Title = "Sign Up"
	}
	page.Authenticated = a.authenticated(r)
	a.render(w, code, "auth", page)
}

// Users //

func (a *App) signup(w http.ResponseWriter, r *http.Request) {
	a.submitAuth(w, r, auth.Signup)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	a.submitAuth(w, r, auth.Login)
}

func (a *App) submitAuth(w http.ResponseWriter, r *http.Request, kind auth.Kind) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	creds := model.Credentials{
		Username: r.PostForm.Get("username"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	page := model.AuthTemplate{Signup: kind == auth.Signup, Username: creds.Username, Email: creds.Email}

	key, err := a.ensureBrowser(w, r)
	if err != nil {
		logger.Get().Errorf("issue session cookie: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Could not start a session")
		return
	}

	s := session.New(a.Tokens, key)
	err = a.Auth.Submit(r.Context(), s, kind, creds, func() {
		// a new login starts with fresh dashboard state
		a.dropWorkspace(key)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	var verr *auth.ValidationError
	var authErr *auth.Error
	switch {
	case err == nil:
	case errors.As(err, &verr):
		page.Hints = verr.Messages
		a.renderAuth(w, r, http.StatusBadRequest, page)
	case errors.As(err, &authErr):
		page.Error = authErr.Message
		a.renderAuth(w, r, http.StatusUnauthorized, page)
	default:
		logger.Get().Errorf("%s: %v", kind, err)
		page.Error = "Something went wrong, please try again"
		a.renderAuth(w, r, http.StatusInternalServerError, page)
	}
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	key, ok := a.browserKey(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	err := a.Auth.Logout(session.New(a.Tokens, key), func() {
		a.dropWorkspace(key)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	if err != nil {
		logger.Get().Errorf("logout: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Could not log out")
	}
}

// Dashboard //

// actionDone marks the redirect back from an action that refreshed already.
const actionDone = "done"

func (a *App) getDashboard(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	q, searching := r.URL.Query()["query"]

	// every page open pulls fresh state, except the redirect after an action
	// that already refreshed and a search on a loaded dashboard
	_, done := r.URL.Query()[actionDone]
	if !ws.dashboard.Loaded() || (!done && !searching) {
		_ = ws.dashboard.Refresh(r.Context())
	}
	if searching && len(q) > 0 {
		if _, err := ws.search.Search(r.Context(), q[0]); err != nil && err != search.ErrEmptyQuery {
			logger.Get().Debugf("dashboard search: %v", err)
		}
	}

	snap := ws.dashboard.Snapshot()
	query, results := ws.search.Results()
	pending := map[string]bool{}
	for _, id := range snap.Pending {
		pending[id] = true
	}

	a.render(w, http.StatusOK, "dashboard", model.DashboardTemplate{
		PageTemplate:    model.PageTemplate{Title: "Dashboard", Authenticated: true},
		Friends:         snap.Friends,
		FriendRequests:  snap.FriendRequests,
		Recommendations: snap.Recommendations,
		Banners:         snap.Banners,
		Query:           query,
		SearchResults:   results,
		Pending:         pending,
	})
}

func (a *App) getState(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	respondWithJSON(w, http.StatusOK, ws.dashboard.Snapshot())
}

func (a *App) refresh(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	_ = ws.dashboard.Refresh(r.Context())
	a.afterAction(w, r, ws)
}

func (a *App) sendRequest(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	_ = ws.dashboard.SendFriendRequest(r.Context(), formValue(r, "friendId"))
	a.afterAction(w, r, ws)
}

func (a *App) addFromSearch(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	_ = ws.search.AddFriend(r.Context(), formValue(r, "friendId"))
	a.afterAction(w, r, ws)
}

func (a *App) respondToRequest(w http.ResponseWriter, r *http.Request) {
	accept, err := strconv.ParseBool(formValue(r, "accept"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid accept parameter")
		return
	}
	ws := a.workspace(a.currentSession(r))
	_ = ws.dashboard.RespondToRequest(r.Context(), mux.Vars(r)["id"], accept)
	a.afterAction(w, r, ws)
}

func (a *App) removeFriend(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(a.currentSession(r))
	_ = ws.dashboard.RemoveFriend(r.Context(), mux.Vars(r)["id"])
	a.afterAction(w, r, ws)
}

// afterAction answers JSON clients with the new state and sends browsers
// back to the dashboard.
func (a *App) afterAction(w http.ResponseWriter, r *http.Request, ws *workspace) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		respondWithJSON(w, http.StatusOK, ws.dashboard.Snapshot())
		return
	}
	http.Redirect(w, r, "/dashboard?"+actionDone+"=1", http.StatusSeeOther)
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
