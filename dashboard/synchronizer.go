package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yashjainme/friend-finder-frontend/client"
	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/model"
	"golang.org/x/sync/errgroup"
)

const (
	msgFetchFailed   = "Failed to fetch data"
	msgRequestSent   = "Friend request sent successfully!"
	msgSendFailed    = "Failed to send request"
	msgRespondFailed = "Failed to respond to request"
	msgRemoveFailed  = "Failed to remove friend"
)

var (
	ErrNoSession = errors.New("dashboard: no session token")
	ErrEmptyID   = errors.New("dashboard: empty id")
)

// Snapshot is a consistent copy of the dashboard state for one render.
type Snapshot struct {
	Friends         []model.User           `json:"friends"`
	FriendRequests  []model.FriendRequest  `json:"friendRequests"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Banners         []model.Banner         `json:"banners"`
	Pending         []string               `json:"pending"`
	Loaded          bool                   `json:"loaded"`
}

type Option func(*Synchronizer)

func WithAfterFunc(after AfterFunc) Option {
	return func(s *Synchronizer) { s.after = after }
}

func WithBannerTTL(d time.Duration) Option {
	return func(s *Synchronizer) { s.bannerTTL = d }
}

// Synchronizer owns the friends, friend requests and recommendations of one
// browser session. The backend is the only source of truth for the three
// collections: they are replaced wholesale by refreshes and never patched
// locally. The one local prediction is the set of users a friend request was
// already sent to, which only blocks duplicate submissions.
type Synchronizer struct {
	api       contract.FriendsAPI
	session   contract.Session
	after     AfterFunc
	bannerTTL time.Duration

	mu              sync.Mutex
	friends         []model.User
	friendRequests  []model.FriendRequest
	recommendations []model.Recommendation
	loaded          bool
	issued          uint64
	committed       uint64
	pending         idSet
	inflight        idSet
	banners         map[string]bannerSlot
}

func New(api contract.FriendsAPI, session contract.Session, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:             api,
		session:         session,
		after:           defaultAfter,
		bannerTTL:       BannerTTL,
		friends:         []model.User{},
		friendRequests:  []model.FriendRequest{},
		recommendations: []model.Recommendation{},
		pending:         idSet{},
		inflight:        idSet{},
		banners:         map[string]bannerSlot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Friends:         append([]model.User{}, s.friends...),
		FriendRequests:  append([]model.FriendRequest{}, s.friendRequests...),
		Recommendations: append([]model.Recommendation{}, s.recommendations...),
		Banners:         s.visibleBanners(),
		Pending:         s.pending.sorted(),
		Loaded:          s.loaded,
	}
}

func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Requested reports whether a friend request to userID was sent, or is being
// sent, from this session.
func (s *Synchronizer) Requested(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.has(userID) || s.inflight.has(userID)
}

// Refresh fetches friends with requests and recommendations concurrently and
// commits all three only when both calls succeed. A failure leaves the
// previous collections in place. A refresh that completes after a later
// issued one was committed is discarded.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	token, ok := s.session.GetToken()
	if !ok {
		return ErrNoSession
	}
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	var (
		friends         *model.Friends
		recommendations []model.Recommendation
		g               errgroup.Group
	)
	g.Go(func() error {
		var err error
		friends, err = s.api.Friends(ctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		recommendations, err = s.api.Recommendations(ctx, token)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	s.loaded = true
	if err != nil {
		s.mu.Unlock()
		logger.Get().Warnf("dashboard refresh failed: %v", err)
		s.showBanner(model.BannerError, msgFetchFailed)
		return err
	}
	defer s.mu.Unlock()

	if seq < s.committed {
		logger.Get().Debugf("dashboard refresh %d discarded, %d already committed", seq, s.committed)
		return nil
	}
	s.committed = seq
	s.friends = nonNilUsers(friends.Friends)
	s.friendRequests = nonNilRequests(friends.FriendRequests)
	s.recommendations = nonNilRecommendations(recommendations)
	return nil
}

// SendFriendRequest is a no-op when a request to userID was already sent
// from this session or is still in flight. Only a successful call records
// userID, so a failed one can be retried.
func (s *Synchronizer) SendFriendRequest(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyID
	}
	token, ok := s.session.GetToken()
	if !ok {
		return ErrNoSession
	}
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.pending.has(userID) || s.inflight.has(userID) {
		s.mu.Unlock()
		return nil
	}
	s.inflight.add(userID)
	s.mu.Unlock()

	err := s.api.SendFriendRequest(ctx, token, userID)

	s.mu.Lock()
	s.inflight.remove(userID)
	if err == nil {
		s.pending.add(userID)
	}
	s.mu.Unlock()

	if err != nil {
		logger.Get().Warnf("send friend request to %s failed: %v", userID, err)
		s.showBanner(model.BannerError, client.MessageOr(err, msgSendFailed))
		return err
	}

	s.showBanner(model.BannerSuccess, msgRequestSent)
	_ = s.Refresh(ctx)
	return nil
}

func (s *Synchronizer) RespondToRequest(ctx context.Context, requestID string, accept bool) error {
	if requestID == "" {
		return ErrEmptyID
	}
	return s.mutate(ctx, msgRespondFailed, func(ctx context.Context, token string) error {
		return s.api.RespondToRequest(ctx, token, requestID, accept)
	})
}

func (s *Synchronizer) RemoveFriend(ctx context.Context, friendID string) error {
	if friendID == "" {
		return ErrEmptyID
	}
	return s.mutate(ctx, msgRemoveFailed, func(ctx context.Context, token string) error {
		return s.api.RemoveFriend(ctx, token, friendID)
	})
}

// mutate issues call and pulls the new state from the backend on success.
// Nothing is predicted locally on either branch.
func (s *Synchronizer) mutate(ctx context.Context, fallback string, call func(context.Context, string) error) error {
	token, ok := s.session.GetToken()
	if !ok {
		return ErrNoSession
	}
	ctx = context.WithoutCancel(ctx)

	if err := call(ctx, token); err != nil {
		logger.Get().Warnf("dashboard mutation failed: %v", err)
		s.showBanner(model.BannerError, client.MessageOr(err, fallback))
		return err
	}
	_ = s.Refresh(ctx)
	return nil
}

func nonNilUsers(users []model.User) []model.User {
	if users == nil {
		return []model.User{}
	}
	return users
}

func nonNilRequests(requests []model.FriendRequest) []model.FriendRequest {
	if requests == nil {
		return []model.FriendRequest{}
	}
	return requests
}

func nonNilRecommendations(recommendations []model.Recommendation) []model.Recommendation {
	if recommendations == nil {
		return []model.Recommendation{}
	}
	return recommendations
}
