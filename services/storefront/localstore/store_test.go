package localstore

import (
	"context"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.sqlite3")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"quantity"`
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	var got []line
	ok, err := s.Get(ctx, KeyCart, &got)
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	want := []line{{"a", 1}, {"b", 2}}
	if err := s.Put(ctx, KeyCart, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, KeyCart, want[:1]); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	ok, err = s.Get(ctx, KeyCart, &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("got %+v", got)
	}

	if err := s.Delete(ctx, KeyCart); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, KeyCart); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok, _ := s.Get(ctx, KeyCart, &got); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	_ = s.Put(ctx, KeyCart, []line{{"a", 1}})
	_ = s.Put(ctx, KeyOrderHistory, []string{"order-1"})
	_ = s.Delete(ctx, KeyCart)

	var history []string
	if ok, err := s.Get(ctx, KeyOrderHistory, &history); !ok || err != nil || len(history) != 1 {
		t.Fatalf("history affected by cart delete: ok=%v err=%v %v", ok, err, history)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)
	if err := s.Put(ctx, KeyCart, []line{{"a", 3}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = s.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var got []line
	if ok, err := reopened.Get(ctx, KeyCart, &got); !ok || err != nil || got[0].Qty != 3 {
		t.Fatalf("after reopen: ok=%v err=%v %+v", ok, err, got)
	}
}
