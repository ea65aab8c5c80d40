package session

import (
	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/logger"
)

// Session is the single bearer token slot of one browser. A token is
// trusted until the backend rejects it; there is no expiry here.
type Session struct {
	repo contract.TokenRepo
	key  string
}

func New(repo contract.TokenRepo, key string) *Session {
	return &Session{repo: repo, key: key}
}

func (s *Session) Key() string {
	return s.key
}

func (s *Session) HasSession() bool {
	_, ok := s.GetToken()
	return ok
}

// GetToken reports a storage failure as an absent token.
func (s *Session) GetToken() (string, bool) {
	if s.key == "" {
		return "", false
	}
	token, found, err := s.repo.Get(s.key)
	if err != nil {
		logger.Get().Errorf("session %s: read token: %v", s.key, err)
		return "", false
	}
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func (s *Session) SetToken(token string) error {
	return s.repo.Set(s.key, token)
}

func (s *Session) ClearToken() error {
	return s.repo.Delete(s.key)
}

var _ contract.Session = (*Session)(nil)
