// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// main.go'daki wire-up'ı modülerleştirmek için bu dosyaya taşındı.
package main

import (
	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Neden struct? Ayrı ayrı değişkenler yerine tek struct kullanmak:
// 1. Fonksiyon imzalarını temiz tutar
// 2. Yeni repository eklendiğinde sadece struct + initRepositories güncellenir
// 3. IDE auto-complete ile kolay erişim (repos.User, repos.Chat, vb.)
type Repositories struct {
	User       repository.UserRepository
	Session    repository.SessionRepository
	Chat       repository.ChatRepository
	Message    repository.MessageRepository
	Friendship repository.FriendshipRepository
	ResetToken repository.ResetTokenRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Go'nun sql.DB'si thread-safe connection pool'dur — aynı bağlantının
// tüm repository'lerce paylaşılması güvenlidir. ChatRepo transaction
// kullandığı için DB wrapper'ını alır, diğerleri düz bağlantıyı.
func initRepositories(db *database.DB) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(db.Conn),
		Session:    repository.NewSQLiteSessionRepo(db.Conn),
		Chat:       repository.NewSQLiteChatRepo(db),
		Message:    repository.NewSQLiteMessageRepo(db.Conn),
		Friendship: repository.NewSQLiteFriendshipRepo(db.Conn),
		ResetToken: repository.NewSQLiteResetTokenRepo(db.Conn),
	}
}
