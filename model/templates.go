package model

const (
	BannerSuccess = "success"
	BannerError   = "error"
)

type Banner struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type PageTemplate struct {
	Title         string
	Authenticated bool
}

type AuthTemplate struct {
	PageTemplate
	Signup   bool
	Error    string
	Hints    []string
	Username string
	Email    string
}

type DashboardTemplate struct {
	PageTemplate
	Friends         []User
	FriendRequests  []FriendRequest
	Recommendations []Recommendation
	Banners         []Banner
	Query           string
	SearchResults   []User
	Pending         map[string]bool
}
