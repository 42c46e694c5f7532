package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventRecipeCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	_ = d.Publish(context.Background(), NewEvent(EventRecipeCreated, "alice", 1, nil))
	_ = d.Publish(context.Background(), NewEvent(EventRecipeDeleted, "alice", 1, nil))

	if len(got) != 1 || got[0] != EventRecipeCreated {
		t.Fatalf("delivered %v", got)
	}
}

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	called := false
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error { return boom })
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventLoginFailed, "ghost", 0, LoginFailedPayload{Reason: "invalid_credentials"}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !called {
		t.Fatal("second handler skipped")
	}
}

func TestNewEvent_StampsIDAndTime(t *testing.T) {
	a := NewEvent(EventUserRegistered, "alice", 3, nil)
	b := NewEvent(EventUserRegistered, "alice", 3, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() || a.Timestamp.Location().String() != "UTC" {
		t.Fatalf("timestamp %v", a.Timestamp)
	}
}

func TestDispatcher_RecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventUserDeleted, func(context.Context, Event) error { panic("audit sink gone") })
	d.Subscribe(EventUserDeleted, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventUserDeleted, "alice", 1, nil))
	if err == nil || !strings.Contains(err.Error(), "audit sink gone") {
		t.Fatalf("err = %v, want recovered panic", err)
	}
	if !delivered {
		t.Fatal("handler after the panicking one was skipped")
	}
}

func TestDispatcher_SubscribeDuringPublish(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	d.Subscribe(EventUserUpdated, func(context.Context, Event) error {
		calls++
		d.Subscribe(EventUserUpdated, func(context.Context, Event) error {
			calls++
			return nil
		})
		return nil
	})

	_ = d.Publish(context.Background(), NewEvent(EventUserUpdated, "alice", 1, nil))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1: a handler added mid-publish must wait for the next event", calls)
	}
}
