package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound means the state is unknown, expired or already used.
var ErrStateNotFound = errors.New("identity: login state not found")

// LoginState is what the callback needs to finish a login it started.
type LoginState struct {
	Nonce      string `json:"nonce"`
	RememberMe bool   `json:"remember_me"`
}

// StateStore keeps pending logins in Redis. Each state can be consumed once.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStateStore returns a store whose entries expire after ttl.
func NewStateStore(rdb *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{rdb: rdb, ttl: ttl}
}

func stateKey(state string) string {
	return "oidc:state:" + state
}

// Begin records a fresh state and nonce pair and returns both.
func (s *StateStore) Begin(ctx context.Context, rememberMe bool) (state, nonce string, err error) {
	if s.rdb == nil {
		return "", "", errors.New("identity: redis unavailable")
	}
	state = uuid.NewString()
	nonce = uuid.NewString()

	payload, err := json.Marshal(LoginState{Nonce: nonce, RememberMe: rememberMe})
	if err != nil {
		return "", "", err
	}
	if err := s.rdb.Set(ctx, stateKey(state), payload, s.ttl).Err(); err != nil {
		return "", "", fmt.Errorf("store login state: %w", err)
	}
	return state, nonce, nil
}

// Consume returns and deletes the pending login for state.
func (s *StateStore) Consume(ctx context.Context, state string) (LoginState, error) {
	if s.rdb == nil {
		return LoginState{}, errors.New("identity: redis unavailable")
	}
	if state == "" {
		return LoginState{}, ErrStateNotFound
	}
	raw, err := s.rdb.GetDel(ctx, stateKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return LoginState{}, ErrStateNotFound
	}
	if err != nil {
		return LoginState{}, fmt.Errorf("load login state: %w", err)
	}
	var ls LoginState
	if err := json.Unmarshal(raw, &ls); err != nil {
		return LoginState{}, fmt.Errorf("decode login state: %w", err)
	}
	return ls, nil
}
