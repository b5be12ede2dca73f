// Package model はドメインモデルを定義する。
// クライアントとサーバーの双方が同じ型をJSONで受け渡す。
package model

import "time"

// User はサービス利用ユーザーを表す。
// emailは登録後に変更されない。
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Session はサーバー側で保持するログインセッションを表す。
// ベアラートークンそのものは保存せず、SHA-256ハッシュのみを保持する。
type Session struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
