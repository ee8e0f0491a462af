// Package session はクライアント側のログインセッション状態を提供する。
// ユーザー情報とトークンを永続化し、認証に依存するUI
// （ヘッダーメニュー、ダッシュボードの出し分け等）へ変更を通知する。
package session

import (
	"log/slog"

	"github.com/hitoshi/storeman/internal/model"
	"github.com/hitoshi/storeman/internal/state"
)

// SlotName はセッション状態の永続化キー。
const SlotName = "auth"

// Service はログインセッションの操作を提供する。
type Service struct {
	store *state.Store[model.AuthSession]
}

// NewService はセッションサービスを生成する。
// 永続ストレージに保存済みのセッションがあれば復元する。
func NewService(storage state.Storage, logger *slog.Logger) *Service {
	return &Service{
		store: state.New(SlotName, storage, model.AuthSession{}, logger),
	}
}

// Current は現在のセッション状態を返す。
func (s *Service) Current() model.AuthSession {
	return s.store.Get()
}

// SignedIn はログイン済みかどうかを返す。
func (s *Service) SignedIn() bool {
	return s.store.Get().SignedIn()
}

// SignIn はログイン成功時のユーザー情報とトークンを保存する。
func (s *Service) SignIn(user model.PublicUser, token string) {
	s.store.Set(model.AuthSession{
		User:  &user,
		Token: token,
	})
}

// Token は現在のクレデンシャル文字列を返す。未ログインの場合は空文字列。
func (s *Service) Token() string {
	return s.store.Get().Token
}

// SignOut はセッションを破棄し、永続キーを削除する。
func (s *Service) SignOut() {
	s.store.Clear()
}

// Subscribe はセッション変更の購読者を登録し、解除関数を返す。
func (s *Service) Subscribe(fn func(model.AuthSession)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}
