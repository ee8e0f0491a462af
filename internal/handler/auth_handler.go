// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storeman/internal/auth"
	"github.com/hitoshi/storeman/internal/middleware"
	"github.com/hitoshi/storeman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// LoginMetrics はログイン試行の結果を記録するインターフェース。nil可。
type LoginMetrics interface {
	RecordLogin(success bool)
}

// AuthHandler は登録・ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics LoginMetrics) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// registerRequest はユーザー登録のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// registerResponse はユーザー登録成功時のレスポンス。
type registerResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// Register は新規ユーザーを登録する。
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			middleware.WriteError(w, http.StatusConflict, "email is already registered")
			return
		}
		if errors.Is(err, auth.ErrInvalidInput) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to register user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "registration successful",
		User:    user.Public(),
	})
}

// loginRequest はログインのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。発行済みトークンを含む。
type loginResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// Login はクレデンシャルを検証しトークンを発行する。
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin(false)
		if errors.Is(err, auth.ErrBadCredentials) {
			middleware.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.Error("failed to login", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.recordLogin(true)
	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

// UserAuthProbe は署名済みトークンでの到達確認に応答する。
// このハンドラーに到達した時点で認証ゲートを通過している。
// GET /api/v1/auth/user-auth
func (h *AuthHandler) UserAuthProbe(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AdminAuthProbe は管理者権限での到達確認に応答する。
// GET /api/v1/auth/admin-auth
func (h *AuthHandler) AdminAuthProbe(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) recordLogin(success bool) {
	if h.metrics != nil {
		h.metrics.RecordLogin(success)
	}
}
