// Package store implements the per-pool domain store: users, groups, app
// clients, and the refresh-token index, with read-modify-write-persist
// mutations serialized by a per-pool mutex.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/storage"
)

// Store owns one pool's state. All mutators hold the pool mutex for the
// whole read-modify-write-persist sequence, so each mutation is
// linearizable with respect to this pool. Lookups return deep copies.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	clock   clock.Clock
	doc     *document

	// Derived indexes, rebuilt on load and after every mutation.
	bySub   map[string]string // sub → user key
	byEmail map[string]string // lowercased email → user key
	byToken map[string]string // refresh token → user key
}

// Load reads the pool document for poolID. ok is false when absent.
func Load(ctx context.Context, backend storage.Backend, clk clock.Clock, poolID string) (*Store, bool, error) {
	var doc document
	ok, err := backend.Get(ctx, poolID, &doc)
	if err != nil || !ok {
		return nil, ok, err
	}
	doc.normalize()
	s := &Store{backend: backend, clock: clk, doc: &doc}
	s.reindex()
	return s, true, nil
}

// Create persists a new pool document and returns its store.
func Create(ctx context.Context, backend storage.Backend, clk clock.Clock, pool domain.UserPool) (*Store, error) {
	s := &Store{backend: backend, clock: clk, doc: newDocument(pool)}
	s.reindex()
	if err := s.backend.Put(ctx, pool.ID, s.doc); err != nil {
		return nil, err
	}
	return s, nil
}

// userKey is the canonical lookup key for a username.
func userKey(username string) string { return strings.ToLower(username) }

// reindex rebuilds all secondary indexes from the canonical tables.
// Callers must hold the write lock (or have exclusive access).
func (s *Store) reindex() {
	s.bySub = make(map[string]string, len(s.doc.Users))
	s.byEmail = make(map[string]string, len(s.doc.Users))
	s.byToken = make(map[string]string)
	for key, u := range s.doc.Users {
		if sub := u.Sub(); sub != "" {
			s.bySub[sub] = key
		}
		if email := u.Email(); email != "" {
			s.byEmail[strings.ToLower(email)] = key
		}
		for _, t := range u.RefreshTokens {
			s.byToken[t] = key
		}
	}
}

// persist writes the document through the backend. Callers must hold the
// write lock. A cancelled context abandons the write.
func (s *Store) persist(ctx context.Context) error {
	return s.backend.Put(ctx, s.doc.Pool.ID, s.doc)
}

// Pool returns a copy of the pool metadata.
func (s *Store) Pool() domain.UserPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Pool
}

// UpdatePool replaces the pool metadata and persists.
func (s *Store) UpdatePool(ctx context.Context, pool domain.UserPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool.UpdatedAt = s.clock.Now()
	prev := s.doc.Pool
	s.doc.Pool = pool
	if err := s.persist(ctx); err != nil {
		s.doc.Pool = prev
		return err
	}
	return nil
}

// GetUserByUsername returns a copy of the user, or nil. Lookup is
// case-insensitive; the stored username keeps its original case.
func (s *Store) GetUserByUsername(username string) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.doc.Users[userKey(username)]; ok {
		return u.Clone()
	}
	return nil
}

// GetUserByEmail returns a copy of the user with the given email, or nil.
func (s *Store) GetUserByEmail(email string) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.byEmail[strings.ToLower(email)]; ok {
		return s.doc.Users[key].Clone()
	}
	return nil
}

// GetUserBySub returns a copy of the user with the given sub, or nil.
func (s *Store) GetUserBySub(sub string) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.bySub[sub]; ok {
		return s.doc.Users[key].Clone()
	}
	return nil
}

// GetUserByRefreshToken resolves a refresh token to its user via the
// reverse index, or nil.
func (s *Store) GetUserByRefreshToken(token string) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.byToken[token]; ok {
		return s.doc.Users[key].Clone()
	}
	return nil
}

// SaveUser upserts the user, stamps LastModifiedDate, rebuilds indexes,
// and persists before returning.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := u.Clone()
	saved.UpdatedAt = s.clock.Now()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}
	key := userKey(saved.Username)
	prev, existed := s.doc.Users[key]
	s.doc.Users[key] = saved
	s.reindex()
	if err := s.persist(ctx); err != nil {
		if existed {
			s.doc.Users[key] = prev
		} else {
			delete(s.doc.Users, key)
		}
		s.reindex()
		return err
	}
	u.UpdatedAt = saved.UpdatedAt
	u.CreatedAt = saved.CreatedAt
	return nil
}

// DeleteUser removes the user from the user table, every group, and every
// secondary index including the refresh-token index.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey(username)
	u, ok := s.doc.Users[key]
	if !ok {
		return nil
	}
	delete(s.doc.Users, key)
	prevMembers := make(map[string][]string)
	for name, g := range s.doc.Groups {
		if g.HasMember(u.Username) {
			prevMembers[name] = append([]string(nil), g.Members...)
			g.Members = removeString(g.Members, u.Username)
		}
	}
	s.reindex()
	if err := s.persist(ctx); err != nil {
		s.doc.Users[key] = u
		for name, members := range prevMembers {
			s.doc.Groups[name].Members = members
		}
		s.reindex()
		return err
	}
	return nil
}

// StoreRefreshToken appends token to the user's refresh-token set and the
// pool's reverse index. Adding an already-present token is a no-op.
func (s *Store) StoreRefreshToken(ctx context.Context, token, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.doc.Users[userKey(username)]
	if !ok {
		return nil
	}
	if u.HasRefreshToken(token) {
		return nil
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	s.byToken[token] = userKey(username)
	if err := s.persist(ctx); err != nil {
		u.RefreshTokens = removeString(u.RefreshTokens, token)
		delete(s.byToken, token)
		return err
	}
	return nil
}

// RevokeRefreshToken removes a single token from its user and the index.
func (s *Store) RevokeRefreshToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byToken[token]
	if !ok {
		return nil
	}
	u := s.doc.Users[key]
	prev := append([]string(nil), u.RefreshTokens...)
	u.RefreshTokens = removeString(u.RefreshTokens, token)
	delete(s.byToken, token)
	if err := s.persist(ctx); err != nil {
		u.RefreshTokens = prev
		s.byToken[token] = key
		return err
	}
	return nil
}

// RevokeAllRefreshTokens purges every token for the user (global sign-out).
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.doc.Users[userKey(username)]
	if !ok {
		return nil
	}
	prev := u.RefreshTokens
	u.RefreshTokens = nil
	s.reindex()
	if err := s.persist(ctx); err != nil {
		u.RefreshTokens = prev
		s.reindex()
		return err
	}
	return nil
}

// SetUserMFAPreference updates MFAOptions, UserMFASettingList, and
// PreferredMfaSetting atomically. A nil setting leaves that factor
// untouched; Enabled=false clears it.
func (s *Store) SetUserMFAPreference(ctx context.Context, username string, sms, softwareToken *domain.MFAPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.doc.Users[userKey(username)]
	if !ok {
		return nil
	}
	prev := u.Clone()
	applyPreference(u, domain.MFASettingSMS, "SMS", domain.AttrPhoneNumber, sms)
	applyPreference(u, domain.MFASettingSoftwareToken, "", "", softwareToken)
	if u.PreferredMFASetting != "" && !u.HasMFASetting(u.PreferredMFASetting) {
		u.PreferredMFASetting = ""
	}
	u.UpdatedAt = s.clock.Now()
	if err := s.persist(ctx); err != nil {
		s.doc.Users[userKey(username)] = prev
		return err
	}
	return nil
}

func applyPreference(u *domain.User, setting, medium, attr string, pref *domain.MFAPreference) {
	if pref == nil {
		return
	}
	if !pref.Enabled {
		u.UserMFASettingList = removeString(u.UserMFASettingList, setting)
		if medium != "" {
			u.MFAOptions = removeMFAOption(u.MFAOptions, medium)
		}
		if u.PreferredMFASetting == setting {
			u.PreferredMFASetting = ""
		}
		return
	}
	if !u.HasMFASetting(setting) {
		u.UserMFASettingList = append(u.UserMFASettingList, setting)
	}
	if medium != "" && !hasMFAOption(u.MFAOptions, medium) {
		u.MFAOptions = append(u.MFAOptions, domain.MFAOption{DeliveryMedium: medium, AttributeName: attr})
	}
	if pref.Preferred {
		u.PreferredMFASetting = setting
	}
}

// Users returns copies of all users ordered by sub.
func (s *Store) Users() []*domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.doc.Users))
	for _, u := range s.doc.Users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sub() < out[j].Sub() })
	return out
}

func removeString(in []string, v string) []string {
	out := in[:0]
	for _, s := range in {
		if s != v {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func hasMFAOption(opts []domain.MFAOption, medium string) bool {
	for _, o := range opts {
		if o.DeliveryMedium == medium {
			return true
		}
	}
	return false
}

func removeMFAOption(opts []domain.MFAOption, medium string) []domain.MFAOption {
	out := opts[:0]
	for _, o := range opts {
		if o.DeliveryMedium != medium {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
