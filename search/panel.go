package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/model"
)

var (
	ErrEmptyQuery = errors.New("search: empty query")
	ErrNoSession  = errors.New("search: no session token")
)

// Requester sends friend requests on the panel's behalf.
type Requester interface {
	SendFriendRequest(ctx context.Context, userID string) error
}

// Panel runs text searches over users. Each successful search replaces the
// previous results entirely.
type Panel struct {
	api       contract.UserSearchAPI
	session   contract.Session
	requester Requester

	mu      sync.Mutex
	query   string
	results []model.User
}

func NewPanel(api contract.UserSearchAPI, session contract.Session, requester Requester) *Panel {
	return &Panel{api: api, session: session, requester: requester, results: []model.User{}}
}

// Search rejects blank queries without a network call. A failed search is
// logged and keeps the previous results.
func (p *Panel) Search(ctx context.Context, query string) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	token, ok := p.session.GetToken()
	if !ok {
		return nil, ErrNoSession
	}

	users, err := p.api.SearchUsers(ctx, token, query)
	if err != nil {
		logger.Get().Warnf("search %q failed: %v", query, err)
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
	p.results = users
	return append([]model.User{}, users...), nil
}

// Results returns the last successful query and its results.
func (p *Panel) Results() (string, []model.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query, append([]model.User{}, p.results...)
}

func (p *Panel) AddFriend(ctx context.Context, userID string) error {
	return p.requester.SendFriendRequest(ctx, userID)
}
