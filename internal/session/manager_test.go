package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeClient struct{ name string }

func TestManagerAddGetEnd(t *testing.T) {
	m := NewManager[*fakeClient](time.Minute)
	s := m.Add("user_1_a", &fakeClient{name: "one"})
	if s.Status != StatusActive {
		t.Fatalf("status = %q, want %q", s.Status, StatusActive)
	}

	got, err := m.Get("user_1_a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Client.name != "one" {
		t.Fatalf("client = %+v", got.Client)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", m.ActiveCount())
	}

	ended, err := m.End("user_1_a")
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
	if _, err := m.Get("user_1_a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after End error = %v, want ErrNotFound", err)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}

func TestManagerTouchUnknown(t *testing.T) {
	m := NewManager[int](time.Minute)
	if _, err := m.Touch("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Touch() error = %v, want ErrNotFound", err)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager[int](30 * time.Millisecond)
	var expired atomic.Int32
	m.SetExpireHook(func(s *Session[int]) {
		if s.Status == StatusEnded {
			expired.Add(1)
		}
	})
	m.Add("idle", 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	if _, err := m.Get("idle"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound after expiry", err)
	}
	if expired.Load() != 1 {
		t.Fatalf("expire hook calls = %d, want 1", expired.Load())
	}
}

func TestManagerJanitorStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager[int](time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	m.StartJanitor(ctx, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
}
