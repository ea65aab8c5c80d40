package contract

import (
	"context"
	"github.com/yashjainme/friend-finder-frontend/model"
)

// TokenRepo is the durable key-value store behind browser sessions.
// Each key owns exactly one bearer token slot.
type TokenRepo interface {
	Get(key string) (token string, found bool, err error)
	Set(key, token string) error
	Delete(key string) error
}

type Session interface {
	HasSession() bool
	GetToken() (string, bool)
	SetToken(token string) error
	ClearToken() error
}

type AuthAPI interface {
	Signup(ctx context.Context, user *model.UserSignup) (string, error)
	Login(ctx context.Context, user *model.UserLogin) (string, error)
}

type FriendsAPI interface {
	Friends(ctx context.Context, token string) (*model.Friends, error)
	Recommendations(ctx context.Context, token string) ([]model.Recommendation, error)
	SendFriendRequest(ctx context.Context, token, friendID string) error
	RespondToRequest(ctx context.Context, token, requestID string, accept bool) error
	RemoveFriend(ctx context.Context, token, friendID string) error
}

type UserSearchAPI interface {
	SearchUsers(ctx context.Context, token, query string) ([]model.User, error)
}
