package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/techagentng/ecodenuncia/models"
)

// Store is the process-wide session record: empty at startup, filled by a successful
// login, torn down on logout or on any unauthorized response. Every outbound call
// reads it, so it is shared by pointer rather than held in a package variable.
type Store struct {
	mu    sync.RWMutex
	token string
	user  *models.User
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Set(token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
}

// Token returns the bearer token, or "" when there is none or its exp claim has passed.
// Tokens that are not JWTs are returned as they are.
func (s *Store) Token() string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" || s.expired(token) {
		return ""
	}
	return token
}

func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(s.now().Unix(), false)
}

func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Store) Role() models.Role {
	u, ok := s.User()
	if !ok {
		return ""
	}
	return u.Role
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Clear empties the session and reports whether it held anything.
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	return had
}
