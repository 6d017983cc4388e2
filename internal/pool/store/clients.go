package store

import (
	"context"
	"sort"

	"cognito-emulator/internal/pool/domain"
)

// GetClient returns a copy of the app client, or nil.
func (s *Store) GetClient(clientID string) *domain.AppClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.doc.Clients[clientID]; ok {
		copied := *c
		return &copied
	}
	return nil
}

// SaveClient upserts the app client, stamps LastModifiedDate, and persists.
func (s *Store) SaveClient(ctx context.Context, c *domain.AppClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *c
	saved.UpdatedAt = s.clock.Now()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}
	prev, existed := s.doc.Clients[saved.ClientID]
	s.doc.Clients[saved.ClientID] = &saved
	if err := s.persist(ctx); err != nil {
		if existed {
			s.doc.Clients[saved.ClientID] = prev
		} else {
			delete(s.doc.Clients, saved.ClientID)
		}
		return err
	}
	c.CreatedAt = saved.CreatedAt
	c.UpdatedAt = saved.UpdatedAt
	return nil
}

// DeleteClient removes the app client. Missing clients are a no-op.
func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.doc.Clients[clientID]
	if !ok {
		return nil
	}
	delete(s.doc.Clients, clientID)
	if err := s.persist(ctx); err != nil {
		s.doc.Clients[clientID] = c
		return err
	}
	return nil
}

// ListClients returns copies of all app clients ordered by client id.
func (s *Store) ListClients() []*domain.AppClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AppClient, 0, len(s.doc.Clients))
	for _, c := range s.doc.Clients {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}
