package store

import (
	"context"
	"sort"
	"strings"

	"cognito-emulator/internal/pool/domain"
)

// GetGroup returns a copy of the group, or nil.
func (s *Store) GetGroup(name string) *domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.doc.Groups[name]; ok {
		return g.Clone()
	}
	return nil
}

// SaveGroup upserts the group, stamps LastModifiedDate, and persists.
func (s *Store) SaveGroup(ctx context.Context, g *domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := g.Clone()
	saved.UpdatedAt = s.clock.Now()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}
	prev, existed := s.doc.Groups[saved.Name]
	s.doc.Groups[saved.Name] = saved
	if err := s.persist(ctx); err != nil {
		if existed {
			s.doc.Groups[saved.Name] = prev
		} else {
			delete(s.doc.Groups, saved.Name)
		}
		return err
	}
	g.CreatedAt = saved.CreatedAt
	g.UpdatedAt = saved.UpdatedAt
	return nil
}

// DeleteGroup removes the group. Missing groups are a no-op.
func (s *Store) DeleteGroup(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.doc.Groups[name]
	if !ok {
		return nil
	}
	delete(s.doc.Groups, name)
	if err := s.persist(ctx); err != nil {
		s.doc.Groups[name] = g
		return err
	}
	return nil
}

// ListGroups returns copies of all groups ordered by name.
func (s *Store) ListGroups() []*domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Group, 0, len(s.doc.Groups))
	for _, g := range s.doc.Groups {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddUserToGroup adds the user's canonical username to the group's member
// list. Idempotent.
func (s *Store) AddUserToGroup(ctx context.Context, groupName, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.doc.Groups[groupName]
	if !ok {
		return nil
	}
	u, ok := s.doc.Users[userKey(username)]
	if !ok {
		return nil
	}
	if g.HasMember(u.Username) {
		return nil
	}
	g.Members = append(g.Members, u.Username)
	g.UpdatedAt = s.clock.Now()
	if err := s.persist(ctx); err != nil {
		g.Members = removeString(g.Members, u.Username)
		return err
	}
	return nil
}

// RemoveUserFromGroup removes the user from the group. Idempotent.
func (s *Store) RemoveUserFromGroup(ctx context.Context, groupName, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.doc.Groups[groupName]
	if !ok {
		return nil
	}
	member := username
	if u, ok := s.doc.Users[userKey(username)]; ok {
		member = u.Username
	}
	if !g.HasMember(member) {
		return nil
	}
	prev := append([]string(nil), g.Members...)
	g.Members = removeString(g.Members, member)
	g.UpdatedAt = s.clock.Now()
	if err := s.persist(ctx); err != nil {
		g.Members = prev
		return err
	}
	return nil
}

// ListGroupsForUser returns copies of the groups the user belongs to,
// ordered by precedence then name.
func (s *Store) ListGroupsForUser(username string) []*domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var member string
	if u, ok := s.doc.Users[userKey(username)]; ok {
		member = u.Username
	} else {
		member = username
	}
	var out []*domain.Group
	for _, g := range s.doc.Groups {
		if g.HasMember(member) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := groupPrecedence(out[i]), groupPrecedence(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GroupNamesForUser returns the names of the user's groups in precedence
// order, for the cognito:groups claim.
func (s *Store) GroupNamesForUser(username string) []string {
	groups := s.ListGroupsForUser(username)
	if len(groups) == 0 {
		return nil
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

// ListUsersInGroup returns copies of the group's members ordered by sub.
func (s *Store) ListUsersInGroup(groupName string) []*domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.doc.Groups[groupName]
	if !ok {
		return nil
	}
	var out []*domain.User
	for _, m := range g.Members {
		if u, ok := s.doc.Users[strings.ToLower(m)]; ok {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sub() < out[j].Sub() })
	return out
}

func groupPrecedence(g *domain.Group) int {
	if g.Precedence != nil {
		return *g.Precedence
	}
	return int(^uint(0) >> 1)
}
