package ws

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTypingFixture(t *testing.T, timeout time.Duration) (*TypingCoordinator, *recordingPub, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.setMembers("chat1", "alice", "bob", "carol")

	pub := newRecordingPub("alice", "bob", "carol")
	rooms := NewRoomResolver(store, time.Minute)
	t.Cleanup(rooms.Close)

	return NewTypingCoordinator(pub, rooms, timeout), pub, store
}

// İlk keystroke START_TYPING yayınlamalı — yazan hariç tüm üyelere.
func TestTypingFirstKeystrokeEmitsStart(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, time.Minute)

	if err := typing.Keystroke(context.Background(), "chat1", "alice", "Alice"); err != nil {
		t.Fatalf("Keystroke failed: %v", err)
	}

	starts := pub.eventsFor(OpStartTyping)
	if len(starts) != 2 {
		t.Fatalf("expected START_TYPING to 2 members, got %d", len(starts))
	}
	for _, e := range starts {
		if e.UserID == "alice" {
			t.Error("typist must not receive their own START_TYPING")
		}
	}
}

// Gösterge açıkken gelen keystroke yeniden yayın YAPMAMALI.
func TestTypingRepeatKeystrokeDoesNotReEmit(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, time.Minute)
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	pub.reset()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	typing.Keystroke(ctx, "chat1", "alice", "Alice")

	if got := len(pub.eventsFor(OpStartTyping)); got != 0 {
		t.Errorf("expected no re-emit while indicator is open, got %d events", got)
	}
	if typing.ActiveCount() != 1 {
		t.Errorf("expected 1 active indicator, got %d", typing.ActiveCount())
	}
}

// Explicit Stop, STOP_TYPING yayınlamalı; ikinci Stop no-op olmalı.
func TestTypingStopIsIdempotent(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, time.Minute)
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	pub.reset()

	typing.Stop(ctx, "chat1", "alice")
	stops := pub.eventsFor(OpStopTyping)
	if len(stops) != 2 {
		t.Fatalf("expected STOP_TYPING to 2 members, got %d", len(stops))
	}

	pub.reset()
	typing.Stop(ctx, "chat1", "alice")
	if got := len(pub.eventsFor(OpStopTyping)); got != 0 {
		t.Errorf("second Stop must be a no-op, got %d events", got)
	}
}

// Zamanlayıcı dolunca STOP_TYPING otomatik yayınlanmalı.
func TestTypingExpiresAfterTimeout(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, 30*time.Millisecond)
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")

	// Zamanlayıcının dolmasını bekle
	deadline := time.Now().Add(2 * time.Second)
	for typing.ActiveCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("indicator did not expire in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := len(pub.eventsFor(OpStopTyping)); got != 2 {
		t.Errorf("expected auto STOP_TYPING to 2 members, got %d", got)
	}
}

// Keystroke kazanır: zamanlayıcı ateşlenmeden hemen önce gelen keystroke
// göstergeyi açık tutmalı — expire callback'i lastActivity'yi yeniden
// kontrol eder ve zamanlayıcıyı kurar.
func TestTypingKeystrokeWinsRace(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, time.Minute)
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	pub.reset()

	// lastActivity'yi şimdiye çekip expire'ı elle tetikle — gerçek yarışta
	// timer callback'i tam bu durumda çalışır.
	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	typing.expire(typingKey{chatID: "chat1", userID: "alice"})

	if typing.ActiveCount() != 1 {
		t.Error("indicator must stay open when a keystroke beat the timer")
	}
	if got := len(pub.eventsFor(OpStopTyping)); got != 0 {
		t.Errorf("no STOP_TYPING expected in keystroke-wins case, got %d", got)
	}
}

// Üye olmayan kullanıcının keystroke'u ErrStaleMembership dönmeli.
func TestTypingStaleMembership(t *testing.T) {
	typing, pub, _ := newTypingFixture(t, time.Minute)

	err := typing.Keystroke(context.Background(), "chat1", "mallory", "Mallory")
	if !errors.Is(err, ErrStaleMembership) {
		t.Fatalf("expected ErrStaleMembership, got %v", err)
	}
	if len(pub.events()) != 0 {
		t.Error("rejected keystroke must not broadcast anything")
	}
}

// Var olmayan sohbete keystroke ErrUnknownChat dönmeli.
func TestTypingUnknownChat(t *testing.T) {
	typing, _, _ := newTypingFixture(t, time.Minute)

	err := typing.Keystroke(context.Background(), "yok", "alice", "Alice")
	if !errors.Is(err, ErrUnknownChat) {
		t.Fatalf("expected ErrUnknownChat, got %v", err)
	}
}

// Disconnect'te kullanıcının TÜM göstergeleri kapanmalı.
func TestTypingStopAllForUser(t *testing.T) {
	typing, pub, store := newTypingFixture(t, time.Minute)
	store.setMembers("chat2", "alice", "dave")
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	typing.Keystroke(ctx, "chat2", "alice", "Alice")
	if typing.ActiveCount() != 2 {
		t.Fatalf("expected 2 active indicators, got %d", typing.ActiveCount())
	}
	pub.reset()

	typing.StopAllForUser(ctx, "alice")

	if typing.ActiveCount() != 0 {
		t.Errorf("expected all indicators closed, got %d", typing.ActiveCount())
	}
	// chat1: bob+carol, chat2: dave → toplam 3 STOP_TYPING
	if got := len(pub.eventsFor(OpStopTyping)); got != 3 {
		t.Errorf("expected 3 STOP_TYPING events, got %d", got)
	}
}

// Aynı kullanıcı iki sohbette bağımsız yazabilmeli.
func TestTypingIndependentPerChat(t *testing.T) {
	typing, _, store := newTypingFixture(t, time.Minute)
	store.setMembers("chat2", "alice", "dave")
	ctx := context.Background()

	typing.Keystroke(ctx, "chat1", "alice", "Alice")
	typing.Keystroke(ctx, "chat2", "alice", "Alice")

	typing.Stop(ctx, "chat1", "alice")

	if typing.ActiveCount() != 1 {
		t.Errorf("stopping chat1 must not close chat2 indicator, active=%d", typing.ActiveCount())
	}
}
