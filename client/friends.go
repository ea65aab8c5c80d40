package client

import (
	"context"
	"net/url"

	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/model"
)

var (
	_ contract.AuthAPI       = (*Client)(nil)
	_ contract.FriendsAPI    = (*Client)(nil)
	_ contract.UserSearchAPI = (*Client)(nil)
)

// Users //

func (c *Client) Signup(ctx context.Context, user *model.UserSignup) (string, error) {
	resp := &model.AuthResponse{}
	if err := c.Post(ctx, "/signup", user, nil, resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Login(ctx context.Context, user *model.UserLogin) (string, error) {
	resp := &model.AuthResponse{}
	if err := c.Post(ctx, "/login", user, nil, resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) SearchUsers(ctx context.Context, token, query string) ([]model.User, error) {
	users := []model.User{}
	if err := c.Get(ctx, "/users/search?query="+url.QueryEscape(query), Bearer(token), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Friendship //

func (c *Client) Friends(ctx context.Context, token string) (*model.Friends, error) {
	friends := &model.Friends{}
	if err := c.Get(ctx, "/friends", Bearer(token), friends); err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) Recommendations(ctx context.Context, token string) ([]model.Recommendation, error) {
	recommendations := []model.Recommendation{}
	if err := c.Get(ctx, "/friends/recommendations", Bearer(token), &recommendations); err != nil {
		return nil, err
	}
	return recommendations, nil
}

func (c *Client) SendFriendRequest(ctx context.Context, token, friendID string) error {
	return c.Post(ctx, "/friends/request", &model.SendRequest{FriendID: friendID}, Bearer(token), nil)
}

func (c *Client) RespondToRequest(ctx context.Context, token, requestID string, accept bool) error {
	body := &model.RespondRequest{RequestID: requestID, Accept: accept}
	return c.Post(ctx, "/friends/respond", body, Bearer(token), nil)
}

func (c *Client) RemoveFriend(ctx context.Context, token, friendID string) error {
	return c.Delete(ctx, "/friends/"+url.PathEscape(friendID), Bearer(token), nil)
}
