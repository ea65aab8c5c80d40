package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashjainme/friend-finder-frontend/client"
	"github.com/yashjainme/friend-finder-frontend/model"
	"github.com/yashjainme/friend-finder-frontend/repository"
	"github.com/yashjainme/friend-finder-frontend/session"
)

// fakeAPI serves a mutable server state and counts calls per endpoint.
type fakeAPI struct {
	mu              sync.Mutex
	calls           map[string]int
	friends         model.Friends
	recommendations []model.Recommendation

	friendsHook func(n int) error
	recsHook    func(n int) error
	sendHook    func(id string) error
	respondHook func(id string, accept bool) error
	removeHook  func(id string) error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: map[string]int{},
		friends: model.Friends{
			Friends:        []model.User{{ID: "f1", Username: "bob"}},
			FriendRequests: []model.FriendRequest{{ID: "r1", From: model.User{ID: "u9", Username: "carol"}}},
		},
		recommendations: []model.Recommendation{{ID: "u1", Username: "dave", MutualFriendCount: 2}},
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) hit(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeAPI) Friends(_ context.Context, token string) (*model.Friends, error) {
	n := f.hit("friends")
	if f.friendsHook != nil {
		if err := f.friendsHook(n); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Friends{
		Friends:        append([]model.User{}, f.friends.Friends...),
		FriendRequests: append([]model.FriendRequest{}, f.friends.FriendRequests...),
	}, nil
}

func (f *fakeAPI) Recommendations(_ context.Context, token string) ([]model.Recommendation, error) {
	n := f.hit("recommendations")
	if f.recsHook != nil {
		if err := f.recsHook(n); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Recommendation{}, f.recommendations...), nil
}

func (f *fakeAPI) SendFriendRequest(_ context.Context, token, friendID string) error {
	f.hit("send")
	if f.sendHook != nil {
		return f.sendHook(friendID)
	}
	return nil
}

func (f *fakeAPI) RespondToRequest(_ context.Context, token, requestID string, accept bool) error {
	f.hit("respond")
	if f.respondHook != nil {
		return f.respondHook(requestID, accept)
	}
	return nil
}

func (f *fakeAPI) RemoveFriend(_ context.Context, token, friendID string) error {
	f.hit("remove")
	if f.removeHook != nil {
		return f.removeHook(friendID)
	}
	return nil
}

// fakeClock collects scheduled banner clears; tests fire them by hand.
type fakeClock struct {
	mu        sync.Mutex
	scheduled []func()
	delays    []time.Duration
}

func (c *fakeClock) After(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append(c.scheduled, f)
	c.delays = append(c.delays, d)
}

func (c *fakeClock) FireAll() {
	c.mu.Lock()
	fs := c.scheduled
	c.scheduled = nil
	c.mu.Unlock()
	for _, f := range fs {
		f()
	}
}

func (c *fakeClock) FireFirst() {
	c.mu.Lock()
	f := c.scheduled[0]
	c.scheduled = c.scheduled[1:]
	c.mu.Unlock()
	f()
}

func newSynchronizer(t *testing.T, api *fakeAPI) (*Synchronizer, *fakeClock) {
	s := session.New(repository.NewTokenRepoMemory(), "browser-1")
	require.NoError(t, s.SetToken("tok-1"))
	clock := &fakeClock{}
	return New(api, s, WithAfterFunc(clock.After)), clock
}

func bannerTexts(snap Snapshot) []string {
	texts := []string{}
	for _, b := range snap.Banners {
		texts = append(texts, b.Text)
	}
	return texts
}

func TestRefresh_CommitsAllCollections(t *testing.T) {
	api := newFakeAPI()
	dash, _ := newSynchronizer(t, api)

	assert.False(t, dash.Loaded())
	require.NoError(t, dash.Refresh(context.Background()))

	snap := dash.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, api.friends.Friends, snap.Friends)
	assert.Equal(t, api.friends.FriendRequests, snap.FriendRequests)
	assert.Equal(t, api.recommendations, snap.Recommendations)
	assert.Empty(t, snap.Banners)
}

func TestRefresh_FailureKeepsPreviousState(t *testing.T) {
	tests := []struct {
		name        string
		failFriends bool
		failRecs    bool
	}{
		{name: "friends fails", failFriends: true},
		{name: "recommendations fails", failRecs: true},
		{name: "both fail", failFriends: true, failRecs: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			dash, clock := newSynchronizer(t, api)
			require.NoError(t, dash.Refresh(context.Background()))
			before := dash.Snapshot()

			// the server moves on, but the next refresh fails
			api.mu.Lock()
			api.friends.Friends = nil
			api.recommendations = []model.Recommendation{{ID: "u7", Username: "erin"}}
			api.mu.Unlock()
			api.friendsHook = func(int) error {
				if tt.failFriends {
					return errors.New("boom")
				}
				return nil
			}
			api.recsHook = func(int) error {
				if tt.failRecs {
					return errors.New("boom")
				}
				return nil
			}

			assert.Error(t, dash.Refresh(context.Background()))
			after := dash.Snapshot()
			assert.Equal(t, before.Friends, after.Friends)
			assert.Equal(t, before.FriendRequests, after.FriendRequests)
			assert.Equal(t, before.Recommendations, after.Recommendations)
			assert.Equal(t, []string{"Failed to fetch data"}, bannerTexts(after))

			clock.FireAll()
			assert.Empty(t, dash.Snapshot().Banners)
		})
	}
}

func TestRefresh_FirstFailureEndsLoading(t *testing.T) {
	api := newFakeAPI()
	api.friendsHook = func(int) error { return errors.New("boom") }
	dash, _ := newSynchronizer(t, api)

	assert.Error(t, dash.Refresh(context.Background()))
	snap := dash.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Empty(t, snap.Friends)
}

func TestRefresh_StaleCompletionIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	started := make(chan struct{})
	api.friendsHook = func(n int) error {
		if n == 1 {
			close(started)
			<-release
		}
		return nil
	}
	dash, _ := newSynchronizer(t, api)

	// the slow refresh reads the old server state
	var slowFriends model.Friends
	api.mu.Lock()
	slowFriends = api.friends
	api.mu.Unlock()

	done := make(chan error)
	go func() { done <- dash.Refresh(context.Background()) }()
	<-started

	api.mu.Lock()
	api.friends = model.Friends{Friends: []model.User{{ID: "f2", Username: "frank"}}}
	api.mu.Unlock()
	require.NoError(t, dash.Refresh(context.Background()))

	api.mu.Lock()
	api.friends = slowFriends
	api.mu.Unlock()
	close(release)
	require.NoError(t, <-done)

	snap := dash.Snapshot()
	require.Len(t, snap.Friends, 1)
	assert.Equal(t, "frank", snap.Friends[0].Username)
}

func TestRefresh_WithoutSession(t *testing.T) {
	api := newFakeAPI()
	s := session.New(repository.NewTokenRepoMemory(), "browser-1")
	dash := New(api, s)

	assert.Equal(t, ErrNoSession, dash.Refresh(context.Background()))
	assert.Equal(t, ErrNoSession, dash.SendFriendRequest(context.Background(), "u1"))
	assert.Equal(t, 0, api.count("friends"))
	assert.Equal(t, 0, api.count("send"))
}

func TestSendFriendRequest_Success(t *testing.T) {
	api := newFakeAPI()
	dash, clock := newSynchronizer(t, api)

	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))

	snap := dash.Snapshot()
	assert.Equal(t, 1, api.count("send"))
	assert.Equal(t, 1, api.count("friends"))
	assert.Equal(t, 1, api.count("recommendations"))
	assert.Equal(t, []string{"u1"}, snap.Pending)
	assert.Equal(t, []model.Banner{{Kind: model.BannerSuccess, Text: "Friend request sent successfully!"}}, snap.Banners)
	assert.True(t, dash.Requested("u1"))

	require.Len(t, clock.delays, 1)
	assert.Equal(t, 1500*time.Millisecond, clock.delays[0])
	clock.FireAll()
	assert.Empty(t, dash.Snapshot().Banners)

	// repeated submissions never reach the backend
	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))
	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))
	assert.Equal(t, 1, api.count("send"))
	assert.Equal(t, 1, api.count("friends"))
}

func TestSendFriendRequest_DuplicateBeforeRefreshCompletes(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.friendsHook = func(n int) error {
		close(started)
		<-release
		return nil
	}
	dash, _ := newSynchronizer(t, api)

	done := make(chan error)
	go func() { done <- dash.SendFriendRequest(context.Background(), "u1") }()
	<-started

	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))
	assert.Equal(t, 1, api.count("send"))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.count("send"))
}

func TestSendFriendRequest_DuplicateWhileInFlight(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.sendHook = func(string) error {
		close(started)
		<-release
		return nil
	}
	dash, _ := newSynchronizer(t, api)

	done := make(chan error)
	go func() { done <- dash.SendFriendRequest(context.Background(), "u1") }()
	<-started

	assert.True(t, dash.Requested("u1"))
	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.count("send"))
}

func TestSendFriendRequest_FailureAllowsRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "backend message", err: &client.APIError{Status: 400, Message: "You are already friends"}, message: "You are already friends"},
		{name: "fallback", err: errors.New("connection reset"), message: "Failed to send request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.sendHook = func(string) error { return tt.err }
			dash, clock := newSynchronizer(t, api)

			assert.Error(t, dash.SendFriendRequest(context.Background(), "u1"))
			snap := dash.Snapshot()
			assert.Equal(t, []model.Banner{{Kind: model.BannerError, Text: tt.message}}, snap.Banners)
			assert.Empty(t, snap.Pending)
			assert.False(t, dash.Requested("u1"))
			assert.Equal(t, 0, api.count("friends"))

			clock.FireAll()
			assert.Empty(t, dash.Snapshot().Banners)

			api.sendHook = nil
			require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))
			assert.Equal(t, 2, api.count("send"))
			assert.Equal(t, []string{"u1"}, dash.Snapshot().Pending)
		})
	}
}

func TestRespondToRequest_SuccessRefreshesOnce(t *testing.T) {
	api := newFakeAPI()
	api.respondHook = func(id string, accept bool) error {
		api.mu.Lock()
		defer api.mu.Unlock()
		req := api.friends.FriendRequests[0]
		api.friends.FriendRequests = nil
		if accept {
			api.friends.Friends = append(api.friends.Friends, req.From)
		}
		return nil
	}
	dash, _ := newSynchronizer(t, api)
	require.NoError(t, dash.Refresh(context.Background()))

	require.NoError(t, dash.RespondToRequest(context.Background(), "r1", true))

	assert.Equal(t, 1, api.count("respond"))
	assert.Equal(t, 2, api.count("friends"))
	assert.Equal(t, 2, api.count("recommendations"))
	snap := dash.Snapshot()
	assert.Empty(t, snap.FriendRequests)
	require.Len(t, snap.Friends, 2)
	assert.Equal(t, "carol", snap.Friends[1].Username)
	assert.Empty(t, snap.Banners)
}

func TestRespondToRequest_FailureShowsBackendMessage(t *testing.T) {
	api := newFakeAPI()
	api.respondHook = func(string, bool) error {
		return &client.APIError{Status: 410, Message: "Request expired"}
	}
	dash, clock := newSynchronizer(t, api)
	require.NoError(t, dash.Refresh(context.Background()))
	before := dash.Snapshot().FriendRequests

	assert.Error(t, dash.RespondToRequest(context.Background(), "r1", true))

	snap := dash.Snapshot()
	require.Len(t, snap.Banners, 1)
	assert.Equal(t, "Request expired", snap.Banners[0].Text)
	assert.Equal(t, before, snap.FriendRequests)
	assert.Equal(t, 1, api.count("friends"))

	clock.FireAll()
	assert.Empty(t, dash.Snapshot().Banners)
}

func TestRemoveFriend(t *testing.T) {
	t.Run("success refreshes once", func(t *testing.T) {
		api := newFakeAPI()
		api.removeHook = func(id string) error {
			api.mu.Lock()
			defer api.mu.Unlock()
			api.friends.Friends = nil
			return nil
		}
		dash, _ := newSynchronizer(t, api)
		require.NoError(t, dash.Refresh(context.Background()))

		require.NoError(t, dash.RemoveFriend(context.Background(), "f1"))
		assert.Equal(t, 2, api.count("friends"))
		assert.Empty(t, dash.Snapshot().Friends)
	})
	t.Run("failure keeps the list", func(t *testing.T) {
		api := newFakeAPI()
		api.removeHook = func(string) error { return errors.New("boom") }
		dash, _ := newSynchronizer(t, api)
		require.NoError(t, dash.Refresh(context.Background()))

		assert.Error(t, dash.RemoveFriend(context.Background(), "f1"))
		snap := dash.Snapshot()
		assert.Len(t, snap.Friends, 1)
		assert.Equal(t, []string{"Failed to remove friend"}, bannerTexts(snap))
		assert.Equal(t, 1, api.count("friends"))
	})
}

func TestEmptyIDsMakeNoCall(t *testing.T) {
	api := newFakeAPI()
	dash, _ := newSynchronizer(t, api)

	assert.Equal(t, ErrEmptyID, dash.SendFriendRequest(context.Background(), ""))
	assert.Equal(t, ErrEmptyID, dash.RespondToRequest(context.Background(), "", true))
	assert.Equal(t, ErrEmptyID, dash.RemoveFriend(context.Background(), ""))
	assert.Equal(t, 0, api.count("send")+api.count("respond")+api.count("remove"))
}

func TestBanner_NewerMessageSurvivesOlderClear(t *testing.T) {
	api := newFakeAPI()
	api.removeHook = func(id string) error { return &client.APIError{Status: 404, Message: "Friend " + id + " not found"} }
	dash, clock := newSynchronizer(t, api)

	_ = dash.RemoveFriend(context.Background(), "a")
	_ = dash.RemoveFriend(context.Background(), "b")
	assert.Equal(t, []string{"Friend b not found"}, bannerTexts(dash.Snapshot()))

	clock.FireFirst()
	assert.Equal(t, []string{"Friend b not found"}, bannerTexts(dash.Snapshot()))

	clock.FireFirst()
	assert.Empty(t, dash.Snapshot().Banners)
}

func TestBanner_SuccessAndErrorAreIndependent(t *testing.T) {
	api := newFakeAPI()
	api.friendsHook = func(int) error { return errors.New("boom") }
	dash, clock := newSynchronizer(t, api)

	require.NoError(t, dash.SendFriendRequest(context.Background(), "u1"))

	snap := dash.Snapshot()
	assert.Equal(t, []model.Banner{
		{Kind: model.BannerError, Text: "Failed to fetch data"},
		{Kind: model.BannerSuccess, Text: "Friend request sent successfully!"},
	}, snap.Banners)

	clock.FireAll()
	assert.Empty(t, dash.Snapshot().Banners)
}

func TestBanner_RealTimerClears(t *testing.T) {
	api := newFakeAPI()
	api.sendHook = func(string) error { return errors.New("boom") }
	s := session.New(repository.NewTokenRepoMemory(), "browser-1")
	require.NoError(t, s.SetToken("tok-1"))
	dash := New(api, s, WithBannerTTL(10*time.Millisecond))

	_ = dash.SendFriendRequest(context.Background(), "u1")
	assert.NotEmpty(t, dash.Snapshot().Banners)
	assert.Eventually(t, func() bool { return len(dash.Snapshot().Banners) == 0 }, time.Second, 5*time.Millisecond)
}
