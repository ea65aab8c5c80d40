package model

type FriendRequest struct {
	ID   string `json:"_id"`
	From User   `json:"from"`
}

type Recommendation struct {
	ID                string `json:"_id"`
	Username          string `json:"username"`
	MutualFriendCount int    `json:"mutualFriendCount"`
}

// Friends is the combined payload of GET /friends.
type Friends struct {
	Friends        []User          `json:"friends"`
	FriendRequests []FriendRequest `json:"friendRequests"`
}

type SendRequest struct {
	FriendID string `json:"friendId"`
}

type RespondRequest struct {
	RequestID string `json:"requestId"`
	Accept    bool   `json:"accept"`
}
