// Package models — Friendship domain modeli.
//
// Arkadaşlık sistemi tek tablo üzerinden çalışır:
// - "pending": İstek gönderildi, henüz kabul edilmedi
// - "accepted": Arkadaşlık aktif
//
// requester_id her zaman isteği gönderen taraftır, addressee_id hedef
// kullanıcıdır. Reddedilen istek satırı silinir — ayrı bir status tutulmaz.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FriendshipStatus, arkadaşlık durumunu temsil eden typed constant.
// Go'da enum yoktur — typed string constant'lar kullanılır.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship, bir arkadaşlık kaydını temsil eder.
// DB'deki "friendships" tablosunun Go karşılığıdır.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"` // İsteği gönderen
	AddresseeID string           `json:"addressee_id"` // Hedef kullanıcı
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// FriendshipWithUser, arkadaşlık kaydını karşı tarafın bilgisiyle döner.
// Frontend'de arkadaş listesi ve istek listesi gösterirken kullanılır.
//
// "Karşı taraf" = Eğer ben requester isem → addressee bilgisi,
// eğer ben addressee isem → requester bilgisi. Repository bu ayrımı yapar.
type FriendshipWithUser struct {
	ID        string           `json:"id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	// Karşı tarafın bilgileri (JOIN ile gelir)
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// SendFriendRequestRequest, arkadaşlık isteği gönderme payload'ı.
// Username ile arama yapılır — ID frontend'de bilinmeyebilir.
type SendFriendRequestRequest struct {
	Username string `json:"username"`
}

// Validate, SendFriendRequestRequest kontrolü.
func (r *SendFriendRequestRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
