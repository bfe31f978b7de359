// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/akinalp/sohbet/handlers"
	"github.com/akinalp/sohbet/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Chat       *handlers.ChatHandler
	Message    *handlers.MessageHandler
	Friendship *handlers.FriendshipHandler
	Admin      *handlers.AdminHandler
	WS         *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, router *ws.Router) *Handlers {
	return &Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Chat:       handlers.NewChatHandler(svcs.Chat),
		Message:    handlers.NewMessageHandler(svcs.Message),
		Friendship: handlers.NewFriendshipHandler(svcs.Friendship),
		Admin:      handlers.NewAdminHandler(router),
		WS:         ws.NewHandler(hub, svcs.Auth),
	}
}
