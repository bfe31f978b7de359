// Package main — WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın WS mesaj callback'ini service katmanına bağlar.
//
// Bu callback neden burada (main package'da)?
// Hub ws paketinde yaşıyor, mesaj kalıcılaştırma service katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
// main package wire-up noktasıdır — tüm katmanları birbirine bağlar.
package main

import (
	"context"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/ws"
)

// registerHubCallbacks, Hub'ın NEW_MESSAGE callback'ini MessageService'e bağlar.
//
// WS üzerinden gelen mesaj da REST ile aynı akıştan geçer:
// validation → üyelik kontrolü → rate limit → DB → dağıtım.
// Hata dönerse client.handleEvent bunu sadece gönderen bağlantıya
// ERROR event'i olarak iletir.
func registerHubCallbacks(hub *ws.Hub, svcs *Services) {
	hub.SetChatMessageCallback(func(ctx context.Context, userID, username, chatID, content string) error {
		req := &models.CreateMessageRequest{Content: content}
		_, err := svcs.Message.Create(ctx, userID, username, chatID, req)
		return err
	})
}
