// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması
//   - authAdmin: auth + platform admin yetkisi
package main

import (
	"fmt"
	"net/http"

	"github.com/akinalp/sohbet/middleware"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE tanımlanmalı.
// Örnek: "/api/chats/direct" → "/api/chats/{id}" öncesinde,
// yoksa Go router "direct" kelimesini bir chat ID olarak yorumlar.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	adminMw := middleware.NewPlatformAdminMiddleware()

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(adminMw.Require(http.HandlerFunc(handler)))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"sohbet"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Chats — literal path'ler önce
	mux.Handle("GET /api/chats", auth(h.Chat.List))
	mux.Handle("POST /api/chats/direct", auth(h.Chat.CreateDirect))
	mux.Handle("POST /api/chats/group", auth(h.Chat.CreateGroup))
	mux.Handle("PATCH /api/chats/{id}", auth(h.Chat.Rename))
	mux.Handle("DELETE /api/chats/{id}", auth(h.Chat.Delete))
	mux.Handle("POST /api/chats/{id}/members", auth(h.Chat.AddMember))
	mux.Handle("DELETE /api/chats/{id}/members/{userId}", auth(h.Chat.RemoveMember))

	// Messages
	mux.Handle("GET /api/chats/{id}/messages", auth(h.Message.List))
	mux.Handle("POST /api/chats/{id}/messages", auth(h.Message.Create))

	// Friends
	mux.Handle("GET /api/friends/requests", auth(h.Friendship.ListRequests))
	mux.Handle("POST /api/friends/requests", auth(h.Friendship.SendRequest))
	mux.Handle("POST /api/friends/requests/{id}/accept", auth(h.Friendship.AcceptRequest))
	mux.Handle("DELETE /api/friends/requests/{id}", auth(h.Friendship.DeclineRequest))
	mux.Handle("GET /api/friends", auth(h.Friendship.ListFriends))
	mux.Handle("DELETE /api/friends/{id}", auth(h.Friendship.RemoveFriend))

	// Platform Admin — sistem duyurusu
	mux.Handle("POST /api/admin/alerts", authAdmin(h.Admin.Broadcast))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
