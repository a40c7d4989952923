package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// DefaultKey is the namespaced storage key for the session.
const DefaultKey = "persist:auth"

// persistVersion is written into the _persist header.
const persistVersion = -1

// Store owns the session. Every change goes through Dispatch, which reduces,
// persists synchronously and then notifies listeners.
type Store struct {
	mu        sync.RWMutex
	state     State
	reducer   Reducer
	storage   Storage
	key       string
	logger    *logging.Logger
	listeners map[int]func(State)
	nextID    int
}

// Option customises a Store.
type Option func(*Store)

func WithReducer(r Reducer) Option {
	return func(s *Store) {
		if r != nil {
			s.reducer = r
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore builds an Anonymous store. A nil storage keeps the session in memory.
func NewStore(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		reducer:   Reduce,
		storage:   storage,
		key:       DefaultKey,
		logger:    logging.Default(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, making Store a transport token source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Subscribe registers fn for every committed state. The returned func
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies a. The new state is committed even if persisting it
// fails; the error is returned so callers can warn that it will not survive
// a restart.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	next := s.reducer(s.state, a)
	s.state = next
	err := s.persistLocked(ctx, next)
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("session action", "type", a.Type, "authenticated", next.IsAuthenticated)
	for _, fn := range listeners {
		fn(next)
	}
	return err
}

func (s *Store) LoginSuccess(ctx context.Context, user *models.UserProfile, token string) error {
	return s.Dispatch(ctx, LoginSuccess(user, token))
}

func (s *Store) RegisterSuccess(ctx context.Context, user *models.UserProfile, token string) error {
	return s.Dispatch(ctx, RegisterSuccess(user, token))
}

func (s *Store) Logout(ctx context.Context) error {
	return s.Dispatch(ctx, Logout())
}

func (s *Store) UpdateUser(ctx context.Context, user *models.UserProfile) error {
	return s.Dispatch(ctx, UpdateUser(user))
}

// Rehydrate restores the persisted session. A missing key leaves the store
// Anonymous, and so does a corrupt payload, which is logged and ignored.
func (s *Store) Rehydrate(ctx context.Context) error {
	raw, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, ErrNotPersisted) {
		s.set(Anonymous)
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: rehydrate: %w", err)
	}

	restored, err := decodePersisted(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt persisted session", "key", s.key, "error", err)
		s.set(Anonymous)
		return nil
	}
	s.set(restored)
	s.logger.Debug("session rehydrated", "authenticated", restored.IsAuthenticated)
	return nil
}

// Purge removes the persisted session and resets to Anonymous.
func (s *Store) Purge(ctx context.Context) error {
	s.set(Anonymous)
	if err := s.storage.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("session: purge: %w", err)
	}
	return nil
}

func (s *Store) set(state State) {
	s.mu.Lock()
	s.state = state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(state)
	}
}

func (s *Store) persistLocked(ctx context.Context, state State) error {
	raw, err := encodePersisted(state)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, raw); err != nil {
		s.logger.Warn("session not persisted", "key", s.key, "error", err)
		return err
	}
	return nil
}

// The persisted layout stores each whitelisted field as its own JSON string
// next to a _persist header, so other readers of the key can decode one
// field without the rest.
type persistHeader struct {
	Version    int  `json:"version"`
	Rehydrated bool `json:"rehydrated"`
}

func encodePersisted(state State) ([]byte, error) {
	fields := map[string]any{
		"user":            state.User,
		"token":           nil,
		"isAuthenticated": state.IsAuthenticated,
		"_persist":        persistHeader{Version: persistVersion, Rehydrated: true},
	}
	if state.Token != "" {
		fields["token"] = state.Token
	}
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = string(encoded)
	}
	return json.Marshal(out)
}

func decodePersisted(raw []byte) (State, error) {
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return State{}, err
	}
	if _, ok := fields["_persist"]; !ok {
		return State{}, errors.New("missing _persist header")
	}

	var state State
	if v, ok := fields["user"]; ok && v != "" {
		if err := json.Unmarshal([]byte(v), &state.User); err != nil {
			return State{}, fmt.Errorf("user: %w", err)
		}
	}
	if v, ok := fields["token"]; ok && v != "" {
		var token *string
		if err := json.Unmarshal([]byte(v), &token); err != nil {
			return State{}, fmt.Errorf("token: %w", err)
		}
		if token != nil {
			state.Token = *token
		}
	}
	if v, ok := fields["isAuthenticated"]; ok && v != "" {
		if err := json.Unmarshal([]byte(v), &state.IsAuthenticated); err != nil {
			return State{}, fmt.Errorf("isAuthenticated: %w", err)
		}
	}
	return state, nil
}
