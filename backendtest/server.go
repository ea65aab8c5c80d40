// Package backendtest runs an in-process fake of the friend-finder backend
// REST API. Tests use it to drive the client, the dashboard and the pages
// against real HTTP.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/yashjainme/friend-finder-frontend/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	pending  = "pending"
	accepted = "accepted"
	declined = "declined"
)

type UserToken struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

type account struct {
	model.User
	password string
}

type request struct {
	id     string
	from   string
	to     string
	status string
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	order    []string
	users    map[string]*account
	friends  map[string]map[string]bool
	requests []*request
	calls    map[string]int
	failures map[string]failure
	gate     map[string]chan struct{}
}

func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		users:    map[string]*account{},
		friends:  map[string]map[string]bool{},
		calls:    map[string]int{},
		failures: map[string]failure{},
		gate:     map[string]chan struct{}{},
	}

	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.verify)
	authed.HandleFunc("/users/search", s.searchUsers).Methods(http.MethodGet)
	authed.HandleFunc("/friends", s.getFriends).Methods(http.MethodGet)
	authed.HandleFunc("/friends/recommendations", s.getRecommendations).Methods(http.MethodGet)
	authed.HandleFunc("/friends/request", s.sendRequest).Methods(http.MethodPost)
	authed.HandleFunc("/friends/respond", s.respond).Methods(http.MethodPost)
	authed.HandleFunc("/friends/{friendId}", s.removeFriend).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	return s
}

// Setup //

func (s *Server) AddUser(username, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(username, email, password)
}

func (s *Server) addUser(username, email, password string) string {
	pass, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	id := uuid.NewString()
	s.users[id] = &account{
		User:     model.User{ID: id, Username: username, Email: email},
		password: string(pass),
	}
	s.order = append(s.order, id)
	return id
}

func (s *Server) TokenFor(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(s.users[userID])
}

func (s *Server) MakeFriends(userOne, userTwo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link(userOne, userTwo)
}

func (s *Server) AddRequest(from, to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := &request{id: uuid.NewString(), from: from, to: to, status: pending}
	s.requests = append(s.requests, req)
	return req.id
}

func (s *Server) AreFriends(userOne, userTwo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[userOne][userTwo]
}

// PendingFrom lists the ids of users with a pending request from userID.
func (s *Server) PendingFrom(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, req := range s.requests {
		if req.from == userID && req.status == pending {
			ids = append(ids, req.to)
		}
	}
	return ids
}

// Fault injection //

// Fail makes every call to method+path answer status with message until
// Recover is called.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hold parks calls to method+path until the returned release func runs.
func (s *Server) Hold(method, path string) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gate[method+" "+path] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gate, method+" "+path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls counts requests received for method+path, query excluded.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		f, failing := s.failures[key]
		gate := s.gate[key]
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if failing {
			respondWithError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Users //

func (s *Server) issueToken(user *account) string {
	if user == nil {
		return ""
	}
	claims := &UserToken{
		UserID:   user.ID,
		Username: user.Username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString(s.secret)
	return tokenString
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	user := &model.UserSignup{}
	if err := json.NewDecoder(r.Body).Decode(user); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if user.Username == "" || user.Email == "" || user.Password == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			respondWithError(w, http.StatusConflict, "User already exists")
			return
		}
	}
	id := s.addUser(user.Username, user.Email, user.Password)
	respondWithJSON(w, http.StatusCreated, model.AuthResponse{Token: s.issueToken(s.users[id])})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	credentials := &model.UserLogin{}
	if err := json.NewDecoder(r.Body).Decode(credentials); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if !strings.EqualFold(user.Email, credentials.Email) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.password), []byte(credentials.Password)); err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondWithJSON(w, http.StatusOK, model.AuthResponse{Token: s.issueToken(user)})
		return
	}
	respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
}

type ctxKey struct{}

func (s *Server) verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			respondWithError(w, http.StatusUnauthorized, "Missing auth token")
			return
		}
		claims := &UserToken{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		s.mu.Lock()
		_, known := s.users[claims.UserID]
		s.mu.Unlock()
		if !known {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims.UserID)))
	})
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))

	s.mu.Lock()
	defer s.mu.Unlock()
	users := []model.User{}
	for _, id := range s.order {
		user := s.users[id]
		if id == me || query == "" {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), query) || strings.Contains(strings.ToLower(user.Email), query) {
			users = append(users, user.User)
		}
	}
	respondWithJSON(w, http.StatusOK, users)
}

// Friendship //

func (s *Server) link(userOne, userTwo string) {
	if s.friends[userOne] == nil {
		s.friends[userOne] = map[string]bool{}
	}
	if s.friends[userTwo] == nil {
		s.friends[userTwo] = map[string]bool{}
	}
	s.friends[userOne][userTwo] = true
	s.friends[userTwo][userOne] = true
}

func (s *Server) getFriends(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	resp := model.Friends{Friends: []model.User{}, FriendRequests: []model.FriendRequest{}}
	for _, id := range s.order {
		if s.friends[me][id] {
			resp.Friends = append(resp.Friends, s.users[id].User)
		}
	}
	for _, req := range s.requests {
		if req.to == me && req.status == pending {
			resp.FriendRequests = append(resp.FriendRequests, model.FriendRequest{ID: req.id, From: s.users[req.from].User})
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// getRecommendations suggests friends of friends, most mutual friends first.
func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	mutual := map[string]int{}
	for friend := range s.friends[me] {
		for candidate := range s.friends[friend] {
			if candidate != me && !s.friends[me][candidate] {
				mutual[candidate]++
			}
		}
	}

	recommendations := []model.Recommendation{}
	for _, id := range s.order {
		if count, ok := mutual[id]; ok {
			recommendations = append(recommendations, model.Recommendation{
				ID:                id,
				Username:          s.users[id].Username,
				MutualFriendCount: count,
			})
		}
	}
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].MutualFriendCount > recommendations[j].MutualFriendCount
	})
	respondWithJSON(w, http.StatusOK, recommendations)
}

func (s *Server) sendRequest(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	body := &model.SendRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil || body.FriendID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.users[body.FriendID] == nil:
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	case body.FriendID == me:
		respondWithError(w, http.StatusBadRequest, "You cannot befriend yourself")
		return
	case s.friends[me][body.FriendID]:
		respondWithError(w, http.StatusBadRequest, "You are already friends")
		return
	}
	for _, req := range s.requests {
		if req.status == pending && req.from == me && req.to == body.FriendID {
			respondWithError(w, http.StatusBadRequest, "Friend request already sent")
			return
		}
	}
	s.requests = append(s.requests, &request{id: uuid.NewString(), from: me, to: body.FriendID, status: pending})
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Friend request sent"})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	body := &model.RespondRequest{}
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.id != body.RequestID || req.to != me || req.status != pending {
			continue
		}
		if body.Accept {
			req.status = accepted
			s.link(req.from, req.to)
		} else {
			req.status = declined
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend request " + req.status})
		return
	}
	respondWithError(w, http.StatusNotFound, "Request not found")
}

func (s *Server) removeFriend(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	friendID := mux.Vars(r)["friendId"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.friends[me][friendID] {
		respondWithError(w, http.StatusNotFound, "Friend not found")
		return
	}
	delete(s.friends[me], friendID)
	delete(s.friends[friendID], me)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}
