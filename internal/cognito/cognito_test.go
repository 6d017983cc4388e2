package cognito

import (
	"context"
	"errors"
	"testing"
	"time"

	"cognito-emulator/internal/apperr"
	"cognito-emulator/internal/clock"
	"cognito-emulator/internal/pool/domain"
	"cognito-emulator/internal/storage"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, storage.Backend) {
	t.Helper()
	backend, err := storage.OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	s, err := New(context.Background(), backend, clock.Fixed{T: testNow})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, backend
}

func TestCreateUserPool(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	st, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_a", Name: "a"})
	if err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	if got := st.Pool(); got.CreatedAt != testNow || got.UpdatedAt != testNow {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_a"}); !errors.Is(err, apperr.ErrInvalidParameter) {
		t.Fatalf("duplicate pool err = %v", err)
	}

	got, err := s.GetUserPool(ctx, "local_a")
	if err != nil || got != st {
		t.Fatalf("GetUserPool: st=%p got=%p err=%v", st, got, err)
	}
}

func TestGetUserPool_NotFound(t *testing.T) {
	s, _ := newService(t)
	_, err := s.GetUserPool(context.Background(), "local_ghost")
	if !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestClientIndex(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_a"}); err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	if err := s.RegisterClient(ctx, &domain.AppClient{ClientID: "c1", UserPoolID: "local_a"}); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}

	client, st, err := s.GetAppClient(ctx, "c1")
	if err != nil {
		t.Fatalf("GetAppClient: %v", err)
	}
	if client.ClientID != "c1" || st.Pool().ID != "local_a" {
		t.Errorf("resolved %q in pool %q", client.ClientID, st.Pool().ID)
	}

	// Client ids are unique across pools.
	if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_b"}); err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	err = s.RegisterClient(ctx, &domain.AppClient{ClientID: "c1", UserPoolID: "local_b"})
	if !errors.Is(err, apperr.ErrInvalidParameter) {
		t.Fatalf("duplicate client err = %v", err)
	}

	// Registering into a missing pool fails and leaves no index entry.
	err = s.RegisterClient(ctx, &domain.AppClient{ClientID: "c2", UserPoolID: "local_ghost"})
	if !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("missing pool err = %v", err)
	}
	if _, _, err := s.GetAppClient(ctx, "c2"); !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("c2 should not resolve, err = %v", err)
	}
}

func TestUnregisterClient(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_a"}); err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	if err := s.RegisterClient(ctx, &domain.AppClient{ClientID: "c1", UserPoolID: "local_a"}); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if err := s.UnregisterClient(ctx, "local_a", "c1"); err != nil {
		t.Fatalf("UnregisterClient: %v", err)
	}
	if _, _, err := s.GetAppClient(ctx, "c1"); !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("c1 should not resolve after unregister, err = %v", err)
	}
}

func TestDeleteUserPool(t *testing.T) {
	s, backend := newService(t)
	ctx := context.Background()

	if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: "local_a"}); err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	if err := s.RegisterClient(ctx, &domain.AppClient{ClientID: "c1", UserPoolID: "local_a"}); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	if err := s.DeleteUserPool(ctx, "local_a"); err != nil {
		t.Fatalf("DeleteUserPool: %v", err)
	}

	if _, err := s.GetUserPool(ctx, "local_a"); !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("deleted pool still resolves, err = %v", err)
	}
	if _, _, err := s.GetAppClient(ctx, "c1"); !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Fatalf("client of deleted pool still resolves, err = %v", err)
	}
	var doc map[string]any
	if ok, err := backend.Get(ctx, "local_a", &doc); err != nil || ok {
		t.Fatalf("document should be gone: ok=%v err=%v", ok, err)
	}
}

func TestNew_IndexesPersistedPools(t *testing.T) {
	dir := t.TempDir()
	backend, err := storage.OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	ctx := context.Background()

	first, err := New(ctx, backend, clock.Fixed{T: testNow})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := first.CreateUserPool(ctx, domain.UserPool{ID: "local_a"}); err != nil {
		t.Fatalf("CreateUserPool: %v", err)
	}
	if err := first.RegisterClient(ctx, &domain.AppClient{ClientID: "c1", UserPoolID: "local_a"}); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}

	// A fresh service over the same backend resolves the client immediately.
	second, err := New(ctx, backend, clock.Fixed{T: testNow})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client, st, err := second.GetAppClient(ctx, "c1")
	if err != nil {
		t.Fatalf("GetAppClient after reload: %v", err)
	}
	if client.ClientID != "c1" || st.Pool().ID != "local_a" {
		t.Errorf("resolved %q in pool %q", client.ClientID, st.Pool().ID)
	}
}

func TestListUserPools(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	for _, id := range []string{"local_b", "local_a"} {
		if _, err := s.CreateUserPool(ctx, domain.UserPool{ID: id, Name: id}); err != nil {
			t.Fatalf("CreateUserPool(%s): %v", id, err)
		}
	}
	pools, err := s.ListUserPools(ctx)
	if err != nil {
		t.Fatalf("ListUserPools: %v", err)
	}
	if len(pools) != 2 || pools[0].ID != "local_a" || pools[1].ID != "local_b" {
		t.Fatalf("pools = %+v", pools)
	}
}
