// Package session holds the signed-in user and notifies subscribers when it changes.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"toolrent-cli/api"
	"toolrent-cli/storage"

	"github.com/rs/zerolog"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrExpired     = errors.New("session expired")
)

type EventType string

const (
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"
)

type Event struct {
	Type    EventType
	Session Session
}

type Handler func(Event)

// Backend persists the raw session. storage.FileSession is the production backend.
type Backend interface {
	Load() (*storage.SessionData, error)
	Save(*storage.SessionData) error
	Clear() error
}

type Session struct {
	Token string
	User  *api.User
}

func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Claims decodes the token payload without checking the signature; the client
// never holds the signing key.
func (s Session) Claims() (*Claims, error) {
	return ParseClaims(s.Token)
}

// Expired is true only when the token carries an exp claim in the past.
// Tokens without a readable exp are left for the server to reject.
func (s Session) Expired(now time.Time) bool {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}

func (s Session) IsAdmin() bool {
	if s.User != nil && s.User.IsAdmin() {
		return true
	}
	claims, err := s.Claims()
	if err != nil {
		return false
	}
	return claims.HasRole(api.RoleAdmin)
}

func (s Session) UserID() int64 {
	if s.User != nil && s.User.ID != 0 {
		return s.User.ID
	}
	if claims, err := s.Claims(); err == nil {
		return claims.UserID
	}
	return 0
}

func (s Session) DisplayName() string {
	if s.User != nil {
		if s.User.Email != "" {
			return s.User.Email
		}
		if s.User.Name != "" {
			return s.User.Name
		}
	}
	if claims, err := s.Claims(); err == nil && claims.Subject != "" {
		return claims.Subject
	}
	return "unknown user"
}

type Store struct {
	backend Backend
	logger  zerolog.Logger

	mu          sync.Mutex
	subscribers map[int]Handler
	nextID      int
}

func NewStore(backend Backend, logger zerolog.Logger) *Store {
	return &Store{
		backend:     backend,
		logger:      logger,
		subscribers: map[int]Handler{},
	}
}

// Current never fails: an unreadable session is reported as logged out.
func (s *Store) Current() Session {
	data, err := s.backend.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring unreadable session")
		return Session{}
	}
	if data == nil || strings.TrimSpace(data.JWT) == "" {
		return Session{}
	}
	user, err := data.DecodeUser()
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring unreadable user profile")
		return Session{}
	}
	return Session{Token: data.JWT, User: user}
}

// Require returns the current session, or ErrNotLoggedIn / ErrExpired.
func (s *Store) Require(now time.Time) (Session, error) {
	current := s.Current()
	if !current.LoggedIn() {
		return Session{}, ErrNotLoggedIn
	}
	if current.Expired(now) {
		return Session{}, ErrExpired
	}
	return current, nil
}

func (s *Store) Login(token string, user api.User) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.backend.Save(&storage.SessionData{JWT: token, User: raw}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	u := user
	s.publish(Event{Type: EventLogin, Session: Session{Token: token, User: &u}})
	return nil
}

func (s *Store) Logout() error {
	if err := s.backend.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.publish(Event{Type: EventLogout})
	return nil
}

// Subscribe registers fn for login and logout events and returns a func that removes it.
func (s *Store) Subscribe(fn Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) publish(event Event) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, s.subscribers[id])
	}
	s.mu.Unlock()

	// Handlers run synchronously in subscription order.
	for _, handler := range handlers {
		handler(event)
	}
}
