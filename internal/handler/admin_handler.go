package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storeman/internal/middleware"
	"github.com/hitoshi/storeman/internal/model"
)

// UserLister は管理者ハンドラーが必要とするリポジトリインターフェース。
type UserLister interface {
	List(ctx context.Context) ([]*model.User, error)
}

// AdminHandler は管理者専用のHTTPハンドラー。
// ルーティング側で管理者ゲートを通過していることを前提とする。
type AdminHandler struct {
	users UserLister
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(users UserLister) *AdminHandler {
	return &AdminHandler{users: users}
}

// userListResponse はユーザー一覧のレスポンス。
type userListResponse struct {
	Success bool               `json:"success"`
	Users   []model.PublicUser `json:"users"`
}

// ListUsers は全ユーザーの一覧を返す。パスワードハッシュは含めない。
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("failed to list users", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	public := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	middleware.WriteJSON(w, http.StatusOK, userListResponse{
		Success: true,
		Users:   public,
	})
}
