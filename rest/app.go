package rest

import (
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/yashjainme/friend-finder-frontend/auth"
	"github.com/yashjainme/friend-finder-frontend/client"
	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/dashboard"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/search"
	"github.com/yashjainme/friend-finder-frontend/session"
)

type Options struct {
	BackendURL    string
	SessionSecret string
	CookieSecure  bool
	Tokens        contract.TokenRepo

	// DashboardOptions are passed to every new Synchronizer.
	DashboardOptions []dashboard.Option

	// WorkspaceIdleTimeout drops the in-memory dashboard of a browser that
	// made no guarded request for this long. Defaults to 30 minutes.
	WorkspaceIdleTimeout time.Duration
}

const (
	defaultIdleTimeout = 30 * time.Minute
	sweepEvery         = time.Minute
)

// workspace is the in-memory UI state of one browser session.
type workspace struct {
	dashboard *dashboard.Synchronizer
	search    *search.Panel
	lastSeen  time.Time
}

type App struct {
	Router *mux.Router
	Tokens contract.TokenRepo
	API    *client.Client
	Auth   *auth.Flow

	cookies     *sessions.CookieStore
	pages       map[string]*template.Template
	dashOpts    []dashboard.Option
	idleTimeout time.Duration
	now         func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspace
	nextSweep  time.Time
}

func (a *App) Init(opts Options) error {
	if opts.Tokens == nil {
		return errors.New("rest: token repository is required")
	}
	if opts.SessionSecret == "" {
		return errors.New("rest: session secret is required")
	}

	a.Tokens = opts.Tokens
	a.API = client.New(opts.BackendURL)
	a.cookies = newCookieStore([]byte(opts.SessionSecret), opts.CookieSecure)
	a.dashOpts = opts.DashboardOptions
	a.idleTimeout = opts.WorkspaceIdleTimeout
	if a.idleTimeout <= 0 {
		a.idleTimeout = defaultIdleTimeout
	}
	a.now = time.Now
	a.workspaces = map[string]*workspace{}

	var err error
	if a.Auth, err = auth.NewFlow(a.API); err != nil {
		return err
	}
	if a.pages, err = parsePages(); err != nil {
		return err
	}

	a.Router = mux.NewRouter()
	a.initializeRoutes()
	return nil
}

func (a *App) Run(addr string) error {
	logger.Get().Infof("serving on %s, backend %s", addr, a.API.BaseURL())
	return http.ListenAndServe(addr, a.Router)
}

func (a *App) initializeRoutes() {
	a.Router.HandleFunc("/", a.home).Methods(http.MethodGet)
	a.Router.HandleFunc("/signup", a.signupForm).Methods(http.MethodGet)
	a.Router.HandleFunc("/signup", a.signup).Methods(http.MethodPost)
	a.Router.HandleFunc("/login", a.loginForm).Methods(http.MethodGet)
	a.Router.HandleFunc("/login", a.login).Methods(http.MethodPost)
	a.Router.HandleFunc("/logout", a.logout).Methods(http.MethodPost)

	// Guarded routes
	s := a.Router.PathPrefix("/dashboard").Subrouter()
	s.Use(a.RequireSession)
	s.HandleFunc("", a.getDashboard).Methods(http.MethodGet)
	s.HandleFunc("/state", a.getState).Methods(http.MethodGet)
	s.HandleFunc("/refresh", a.refresh).Methods(http.MethodPost)
	s.HandleFunc("/requests", a.sendRequest).Methods(http.MethodPost)
	s.HandleFunc("/requests/{id}/respond", a.respondToRequest).Methods(http.MethodPost)
	s.HandleFunc("/friends/{id}/remove", a.removeFriend).Methods(http.MethodPost)
	s.HandleFunc("/search/add", a.addFromSearch).Methods(http.MethodPost)
}

// workspace returns the UI state bound to s, creating it on first use.
func (a *App) workspace(s *session.Session) *workspace {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if !now.Before(a.nextSweep) {
		a.evictIdle(now)
		a.nextSweep = now.Add(sweepEvery)
	}

	ws, ok := a.workspaces[s.Key()]
	if !ok {
		synchronizer := dashboard.New(a.API, s, a.dashOpts...)
		ws = &workspace{
			dashboard: synchronizer,
			search:    search.NewPanel(a.API, s, synchronizer),
		}
		a.workspaces[s.Key()] = ws
	}
	ws.lastSeen = now
	return ws
}

// evictIdle drops workspaces not used within the idle timeout. The token
// slot is untouched, so the browser stays logged in and reloads its
// dashboard on the next visit. Callers hold a.mu.
func (a *App) evictIdle(now time.Time) {
	for key, ws := range a.workspaces {
		if now.Sub(ws.lastSeen) >= a.idleTimeout {
			logger.Get().Debugf("dropping idle workspace %s", key)
			delete(a.workspaces, key)
		}
	}
}

func (a *App) dropWorkspace(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.workspaces, key)
}
