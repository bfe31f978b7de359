package ws

import (
	"context"
	"testing"
	"time"
)

func newPresenceFixture(t *testing.T, onlineUsers ...string) (*PresenceTracker, *recordingPub, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.setMembers("chat1", "alice", "bob")
	store.setMembers("chat2", "alice", "carol")

	pub := newRecordingPub(onlineUsers...)
	rooms := NewRoomResolver(store, time.Minute)
	t.Cleanup(rooms.Close)

	return NewPresenceTracker(pub, rooms), pub, store
}

// Online geçişi, kullanıcının HER sohbetine sohbet kapsamlı liste yayınlamalı.
func TestPresenceOnlineBroadcastsPerChat(t *testing.T) {
	presence, pub, _ := newPresenceFixture(t, "alice", "bob")

	presence.UserOnline(context.Background(), "alice")

	events := pub.eventsFor(OpOnlineUsers)
	// chat1: bob alır; chat2: carol alır. alice kendi geçişini almaz.
	if len(events) != 2 {
		t.Fatalf("expected 2 ONLINE_USERS events, got %d", len(events))
	}
	for _, e := range events {
		if e.UserID == "alice" {
			t.Error("transitioning user must not receive their own boundary event")
		}
		data, ok := e.Event.Data.(OnlineUsersData)
		if !ok {
			t.Fatalf("unexpected payload type %T", e.Event.Data)
		}
		// Liste sohbet kapsamlı olmalı — sohbetin üyesi olmayan kimse listede olamaz.
		for _, id := range data.UserIDs {
			if data.ChatID == "chat1" && id == "carol" {
				t.Error("chat1 list must not contain carol")
			}
			if data.ChatID == "chat2" && id == "bob" {
				t.Error("chat2 list must not contain bob")
			}
		}
	}
}

// Offline geçişinde liste, kopan kullanıcıyı içermemeli
// (Hub registry'den çıkardıktan sonra çağrılır — IsOnline false döner).
func TestPresenceOfflineExcludesUser(t *testing.T) {
	presence, pub, _ := newPresenceFixture(t, "bob") // alice artık online değil

	presence.UserOffline(context.Background(), "alice")

	for _, e := range pub.eventsFor(OpOnlineUsers) {
		data := e.Event.Data.(OnlineUsersData)
		for _, id := range data.UserIDs {
			if id == "alice" {
				t.Errorf("offline user must not appear in %s online list", data.ChatID)
			}
		}
	}
}

// Hiç sohbeti olmayan kullanıcının geçişi yayın üretmemeli.
func TestPresenceNoChatsNoBroadcast(t *testing.T) {
	presence, pub, _ := newPresenceFixture(t, "zed")

	presence.UserOnline(context.Background(), "zed")

	if got := len(pub.events()); got != 0 {
		t.Errorf("user with no chats must not trigger broadcasts, got %d", got)
	}
}

// Snapshot, yeni bağlantı için sohbet başına bir ONLINE_USERS üretmeli.
func TestPresenceSnapshotEvents(t *testing.T) {
	presence, _, _ := newPresenceFixture(t, "alice", "bob")

	events := presence.SnapshotEvents(context.Background(), "alice")
	if len(events) != 2 {
		t.Fatalf("expected snapshot event per chat (2), got %d", len(events))
	}
	for _, e := range events {
		if e.Op != OpOnlineUsers {
			t.Errorf("unexpected op %s in snapshot", e.Op)
		}
	}
}

// Bir sohbetin üyelik hatası diğer sohbetlerin yayınını durdurmamalı.
func TestPresencePartialFailure(t *testing.T) {
	store := newFakeStore()
	store.setMembers("chat1", "alice", "bob")
	// alice'in listesinde var olmayan bir sohbet — Members ErrNotFound verir
	store.mu.Lock()
	store.chats["alice"] = append(store.chats["alice"], "silinmis")
	store.mu.Unlock()

	pub := newRecordingPub("alice", "bob")
	rooms := NewRoomResolver(store, time.Minute)
	t.Cleanup(rooms.Close)
	presence := NewPresenceTracker(pub, rooms)

	presence.UserOnline(context.Background(), "alice")

	if got := len(pub.eventsFor(OpOnlineUsers)); got != 1 {
		t.Errorf("healthy chat must still broadcast, got %d events", got)
	}
}
