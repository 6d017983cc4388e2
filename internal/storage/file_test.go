package storage

import (
	"context"
	"testing"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileBackend_RoundTrip(t *testing.T) {
	b, err := OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	ctx := context.Background()

	if err := b.Put(ctx, "pool_a", testDoc{Name: "a", Count: 2}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got testDoc
	ok, err := b.Get(ctx, "pool_a", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "a" || got.Count != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestFileBackend_GetMissing(t *testing.T) {
	b, err := OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	var got testDoc
	ok, err := b.Get(context.Background(), "absent", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get should report absent document")
	}
}

func TestFileBackend_DeleteIdempotent(t *testing.T) {
	b, err := OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "k", testDoc{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	ok, err := b.Get(ctx, "k", &testDoc{})
	if err != nil || ok {
		t.Errorf("document survived delete: ok=%v err=%v", ok, err)
	}
}

func TestFileBackend_Keys(t *testing.T) {
	b, err := OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"pool_a", "pool_b"} {
		if err := b.Put(ctx, k, testDoc{Name: k}); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2: %v", len(keys), keys)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["pool_a"] || !seen["pool_b"] {
		t.Errorf("keys = %v", keys)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "dynamo"})
	if err != ErrUnknownBackend {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}
