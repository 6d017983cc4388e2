// Package cognito is the facade over all user pools: it caches pool stores
// and maintains the global client-id → pool-id index.
package cognito

import (
	"context"
	"sort"
	"sync"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/pool/store"
	"cognito-emulator/internal/storage"
)

// Service resolves pools by id or client id. Pool stores are loaded from
// persistence on first access and cached for the process lifetime.
type Service struct {
	mu      sync.Mutex
	backend storage.Backend
	clock   clock.Clock
	pools   map[string]*store.Store
	clients map[string]string // client id → pool id
}

// New builds the facade and eagerly indexes clients of already-persisted
// pools so client-id resolution works before first pool access.
func New(ctx context.Context, backend storage.Backend, clk clock.Clock) (*Service, error) {
	s := &Service{
		backend: backend,
		clock:   clk,
		pools:   make(map[string]*store.Store),
		clients: make(map[string]string),
	}
	keys, err := backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	for _, poolID := range keys {
		st, ok, err := store.Load(ctx, backend, clk, poolID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s.pools[poolID] = st
		for _, c := range st.ListClients() {
			s.clients[c.ClientID] = poolID
		}
	}
	return s, nil
}

// GetUserPool returns the cached or freshly loaded pool store.
func (s *Service) GetUserPool(ctx context.Context, poolID string) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPoolLocked(ctx, poolID)
}

func (s *Service) getPoolLocked(ctx context.Context, poolID string) (*store.Store, error) {
	if st, ok := s.pools[poolID]; ok {
		return st, nil
	}
	st, ok, err := store.Load(ctx, s.backend, s.clock, poolID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.ResourceNotFound("User pool " + poolID)
	}
	s.pools[poolID] = st
	for _, c := range st.ListClients() {
		s.clients[c.ClientID] = poolID
	}
	return st, nil
}

// GetUserPoolForClientID resolves a client id to its pool via the reverse
// index, failing with ResourceNotFound when unknown.
func (s *Service) GetUserPoolForClientID(ctx context.Context, clientID string) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poolID, ok := s.clients[clientID]
	if !ok {
		return nil, apperr.ResourceNotFound("Client " + clientID)
	}
	return s.getPoolLocked(ctx, poolID)
}

// GetAppClient resolves a client id to the client record and its pool store.
func (s *Service) GetAppClient(ctx context.Context, clientID string) (*domain.AppClient, *store.Store, error) {
	st, err := s.GetUserPoolForClientID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	c := st.GetClient(clientID)
	if c == nil {
		return nil, nil, apperr.ResourceNotFound("Client " + clientID)
	}
	return c, st, nil
}

// CreateUserPool persists a new pool and caches its store.
func (s *Service) CreateUserPool(ctx context.Context, pool domain.UserPool) (*store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[pool.ID]; ok {
		return nil, apperr.InvalidParameter("User pool %s already exists", pool.ID)
	}
	now := s.clock.Now()
	pool.CreatedAt = now
	pool.UpdatedAt = now
	st, err := store.Create(ctx, s.backend, s.clock, pool)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.pools[pool.ID] = st
	return st, nil
}

// DeleteUserPool removes the pool document, its cache entry, and all of its
// clients from the index.
func (s *Service) DeleteUserPool(ctx context.Context, poolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.getPoolLocked(ctx, poolID)
	if err != nil {
		return err
	}
	for _, c := range st.ListClients() {
		delete(s.clients, c.ClientID)
	}
	delete(s.pools, poolID)
	if err := s.backend.Delete(ctx, poolID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ListUserPools returns pool metadata for all pools ordered by id.
func (s *Service) ListUserPools(ctx context.Context) ([]domain.UserPool, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sort.Strings(keys)
	out := make([]domain.UserPool, 0, len(keys))
	for _, poolID := range keys {
		st, err := s.GetUserPool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		out = append(out, st.Pool())
	}
	return out, nil
}

// RegisterClient records a new client in the pool and the reverse index.
// Client ids are unique across pools.
func (s *Service) RegisterClient(ctx context.Context, c *domain.AppClient) error {
	s.mu.Lock()
	if _, taken := s.clients[c.ClientID]; taken {
		s.mu.Unlock()
		return apperr.InvalidParameter("Client id %s already exists", c.ClientID)
	}
	st, err := s.getPoolLocked(ctx, c.UserPoolID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	if err := st.SaveClient(ctx, c); err != nil {
		return apperr.Internal(err)
	}
	s.mu.Lock()
	s.clients[c.ClientID] = c.UserPoolID
	s.mu.Unlock()
	return nil
}

// UnregisterClient removes a client from its pool and the reverse index.
func (s *Service) UnregisterClient(ctx context.Context, poolID, clientID string) error {
	st, err := s.GetUserPool(ctx, poolID)
	if err != nil {
		return err
	}
	if err := st.DeleteClient(ctx, clientID); err != nil {
		return apperr.Internal(err)
	}
	s.mu.Lock()
	delete(s.clients, clientID)
	s.mu.Unlock()
	return nil
}
