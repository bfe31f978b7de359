package ws

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newRouterFixture(t *testing.T) (*Router, *recordingPub, *fakeStore, *RoomResolver, *FocusStore) {
	t.Helper()
	store := newFakeStore()
	store.setMembers("chat1", "alice", "bob", "carol")

	pub := newRecordingPub("alice", "bob", "carol")
	rooms := NewRoomResolver(store, time.Minute)
	t.Cleanup(rooms.Close)

	focus := NewFocusStore()
	typing := NewTypingCoordinator(pub, rooms, time.Minute)
	router := NewRouter(pub, rooms, focus, typing)

	return router, pub, store, rooms, focus
}

// Join üyelik doğrulamalı: üye olmayan odak iddia edemez.
func TestRouterJoinValidatesMembership(t *testing.T) {
	router, _, _, _, focus := newRouterFixture(t)
	ctx := context.Background()

	if err := router.Join(ctx, "alice", "chat1"); err != nil {
		t.Fatalf("member join failed: %v", err)
	}
	if !focus.IsViewing("alice", "chat1") {
		t.Error("join must set focus")
	}

	if err := router.Join(ctx, "mallory", "chat1"); !errors.Is(err, ErrStaleMembership) {
		t.Errorf("expected ErrStaleMembership for non-member, got %v", err)
	}
	if err := router.Join(ctx, "alice", "yok"); !errors.Is(err, ErrUnknownChat) {
		t.Errorf("expected ErrUnknownChat, got %v", err)
	}
}

// NEW_MESSAGE her üyeye gitmeli; NEW_MESSAGE_ALERT gönderene ve
// sohbete bakanlara GİTMEMELİ.
func TestRouterPublishSuppressesAlertForViewers(t *testing.T) {
	router, pub, _, _, _ := newRouterFixture(t)
	ctx := context.Background()

	// bob sohbete bakıyor, carol bakmıyor
	if err := router.Join(ctx, "bob", "chat1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	pub.reset()

	err := router.Publish(ctx, NewMessageData{
		MessageID: "m1", ChatID: "chat1", SenderID: "alice",
		SenderName: "Alice", Content: "selam",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if got := len(pub.eventsFor(OpNewMessage)); got != 3 {
		t.Errorf("NEW_MESSAGE must reach all 3 members, got %d", got)
	}

	alerts := pub.eventsFor(OpNewMessageAlert)
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert (carol), got %d", len(alerts))
	}
	if alerts[0].UserID != "carol" {
		t.Errorf("alert should go to carol, went to %s", alerts[0].UserID)
	}
}

// Odak başka sohbete geçtiyse bu sohbetin alert'i tekrar akmalı.
func TestRouterAlertAfterFocusSwitch(t *testing.T) {
	router, pub, store, _, _ := newRouterFixture(t)
	store.setMembers("chat2", "alice", "bob")
	ctx := context.Background()

	router.Join(ctx, "bob", "chat1")
	router.Join(ctx, "bob", "chat2") // odak chat2'ye geçti
	pub.reset()

	router.Publish(ctx, NewMessageData{
		MessageID: "m1", ChatID: "chat1", SenderID: "alice",
		SenderName: "Alice", Content: "selam",
	})

	alerts := pub.eventsFor(OpNewMessageAlert)
	alertedBob := false
	for _, a := range alerts {
		if a.UserID == "bob" {
			alertedBob = true
		}
	}
	if !alertedBob {
		t.Error("bob switched focus away from chat1, alert must resume")
	}
}

// Geciken CHAT_LEAVED önceki sohbete aitse yeni odağı düşürmemeli.
func TestRouterLeaveOutOfOrder(t *testing.T) {
	router, _, store, _, focus := newRouterFixture(t)
	store.setMembers("chat2", "alice", "bob")
	ctx := context.Background()

	router.Join(ctx, "bob", "chat1")
	router.Join(ctx, "bob", "chat2")
	router.Leave(ctx, "bob", "chat1") // geciken leave

	if !focus.IsViewing("bob", "chat2") {
		t.Error("late CHAT_LEAVED for chat1 must not clear focus on chat2")
	}
}

// REFETCH_CHATS, güncel üyeler ∪ affected kümesine TAM BİR kez gitmeli.
func TestRouterStructuralChangeExactlyOnce(t *testing.T) {
	router, pub, store, rooms, _ := newRouterFixture(t)
	ctx := context.Background()

	// Cache'i ısıt, sonra dave'i ekle — invalidation taze listeyi getirmeli.
	rooms.Members(ctx, "chat1")
	store.setMembers("chat1", "alice", "bob", "carol", "dave")
	pub.reset()

	// dave hem affected hem güncel üye — yine de tek event almalı.
	router.PublishStructuralChange(ctx, "chat1", ChangeMemberAdded, []string{"dave"})

	refetches := pub.eventsFor(OpRefetchChats)
	seen := make(map[string]int)
	for _, e := range refetches {
		seen[e.UserID]++
	}

	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		if seen[id] != 1 {
			t.Errorf("user %s received %d REFETCH_CHATS, want exactly 1", id, seen[id])
		}
	}
	if len(refetches) != 4 {
		t.Errorf("expected 4 REFETCH_CHATS total, got %d", len(refetches))
	}
}

// Çıkarılan üye artık listede olmasa da bildirimi ALMALI,
// odağı ve açık typing göstergesi temizlenmeli.
func TestRouterStructuralChangeRemovedMember(t *testing.T) {
	router, pub, store, rooms, focus := newRouterFixture(t)
	ctx := context.Background()

	router.Join(ctx, "carol", "chat1")
	if err := router.typing.Keystroke(ctx, "chat1", "carol", "Carol"); err != nil {
		t.Fatalf("keystroke failed: %v", err)
	}

	// carol çıkarıldı
	rooms.Members(ctx, "chat1")
	store.setMembers("chat1", "alice", "bob")
	pub.reset()

	router.PublishStructuralChange(ctx, "chat1", ChangeMemberRemoved, []string{"carol"})

	carolNotified := false
	for _, e := range pub.eventsFor(OpRefetchChats) {
		if e.UserID == "carol" {
			carolNotified = true
		}
	}
	if !carolNotified {
		t.Error("removed member must still receive REFETCH_CHATS")
	}
	if focus.IsViewing("carol", "chat1") {
		t.Error("removed member's focus must be cleared")
	}
	if router.typing.ActiveCount() != 0 {
		t.Error("removed member's typing indicator must be stopped")
	}
}

// Silinen sohbette sadece affected listesi bildirilmeli.
func TestRouterStructuralChangeDeletedChat(t *testing.T) {
	router, pub, store, rooms, _ := newRouterFixture(t)
	ctx := context.Background()

	rooms.Members(ctx, "chat1")
	members := []string{"alice", "bob", "carol"}

	// Sohbet DB'den silindi
	store.mu.Lock()
	delete(store.members, "chat1")
	store.mu.Unlock()
	pub.reset()

	router.PublishStructuralChange(ctx, "chat1", ChangeChatDeleted, members)

	if got := len(pub.eventsFor(OpRefetchChats)); got != 3 {
		t.Errorf("expected 3 REFETCH_CHATS to former members, got %d", got)
	}
}

// Silinen sohbetin kilit kaydı map'ten düşmeli — yaşayan sohbetlerinki kalır.
func TestRouterForgetsLockOfDeletedChat(t *testing.T) {
	router, _, store, rooms, _ := newRouterFixture(t)
	store.setMembers("chat2", "alice", "bob")
	ctx := context.Background()

	rooms.Members(ctx, "chat1")
	router.PublishStructuralChange(ctx, "chat2", ChangeMemberAdded, nil)

	// chat1 DB'den silindi
	store.mu.Lock()
	delete(store.members, "chat1")
	store.mu.Unlock()

	router.PublishStructuralChange(ctx, "chat1", ChangeChatDeleted, []string{"alice", "bob", "carol"})

	router.locks.mu.Lock()
	_, deletedKept := router.locks.locks["chat1"]
	_, liveKept := router.locks.locks["chat2"]
	router.locks.mu.Unlock()

	if deletedKept {
		t.Error("deleted chat's lock entry must be evicted")
	}
	if !liveKept {
		t.Error("live chat's lock entry must survive")
	}
}

// SystemAlert: chatID boşsa herkese, doluysa sadece üyelere.
func TestRouterSystemAlert(t *testing.T) {
	router, pub, _, _, _ := newRouterFixture(t)
	ctx := context.Background()

	if err := router.SystemAlert(ctx, "", "bakım var"); err != nil {
		t.Fatalf("global alert failed: %v", err)
	}
	global := pub.eventsFor(OpAlert)
	if len(global) != 1 || global[0].UserID != "*" {
		t.Fatalf("global alert must broadcast to all, got %v", global)
	}

	pub.reset()
	if err := router.SystemAlert(ctx, "chat1", "bu sohbet arşivlenecek"); err != nil {
		t.Fatalf("chat alert failed: %v", err)
	}
	if got := len(pub.eventsFor(OpAlert)); got != 3 {
		t.Errorf("chat-scoped alert must reach 3 members, got %d", got)
	}
}
