package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/datakit/entity"
)

func TestMemFetchAndList(t *testing.T) {
	m := NewMem(map[string][]byte{"b": []byte("2"), "a": []byte("1")})

	ids, err := m.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List() = %v, want [a b]", ids)
	}

	raw, err := m.Fetch(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "1" {
		t.Errorf("Fetch(a) = %q, want 1", raw)
	}
	if _, err := m.Fetch(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestMemCacheRoundTrip(t *testing.T) {
	m := NewMem(map[string][]byte{"a": []byte("1")})
	if m.IsCached() {
		t.Fatal("expected no cache initially")
	}

	ctx := context.Background()
	e, err := StaticFactory()(ctx, "a", m)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Cache(ctx, []entity.Entity{e}); err != nil {
		t.Fatal(err)
	}
	if !m.IsCached() {
		t.Fatal("expected cache after Cache()")
	}
}

func TestStaticEntityCounts(t *testing.T) {
	e := &StaticEntity{ID: "x", Data: 1.0, Label: "x"}

	if _, err := e.Sample(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Evict()
	e.Evict()

	if e.SampleCalls() != 1 {
		t.Errorf("SampleCalls() = %d, want 1", e.SampleCalls())
	}
	if e.Evictions() != 2 {
		t.Errorf("Evictions() = %d, want 2", e.Evictions())
	}
}

func TestWaitFor(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()
	WaitFor(t, time.Second, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, "goroutine to finish")
}
