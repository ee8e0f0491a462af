// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す列挙型。
// DB上は整数（0=一般、1=管理者）で保存されるが、
// アプリケーションコードでは必ず名前付きバリアントで判定する。
type Role int

const (
	// RoleUser は一般ユーザーを表す。
	RoleUser Role = 0
	// RoleAdmin は管理者権限を持つユーザーを表す。
	RoleAdmin Role = 1
)

// String はロールの表示名を返す。
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// User はストアの利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	Address      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin はユーザーが管理者権限を持つかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser はAPIレスポンスに含めるユーザー情報。
// パスワードハッシュ等の内部フィールドを含まない。
type PublicUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Role    string `json:"role"`
}

// Public はAPIレスポンス用のユーザー情報を返す。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Address: u.Address,
		Role:    u.Role.String(),
	}
}

// Claims は検証済みクレデンシャルから取り出したクレームを表す。
// 認証ミドルウェアがリクエストコンテキストに格納し、
// 後段のハンドラーが呼び出し元の識別に使用する。
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
