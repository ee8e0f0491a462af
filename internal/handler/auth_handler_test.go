package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/storeman/internal/auth"
	"github.com/hitoshi/storeman/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	return m.registerFn(ctx, input)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return m.loginFn(ctx, email, password)
}

type mockLoginMetrics struct {
	results []bool
}

func (m *mockLoginMetrics) RecordLogin(success bool) {
	m.results = append(m.results, success)
}

func testUser() *model.User {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		ID:        "user-1",
		Email:     "alice@example.com",
		Name:      "Alice",
		Address:   "1 Main St",
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- POST /api/v1/auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			if input.Email != "alice@example.com" {
				t.Errorf("email = %q, want %q", input.Email, "alice@example.com")
			}
			return testUser(), nil
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"email":"alice@example.com","password":"secret-pass","name":"Alice","address":"1 Main St"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got.Success {
		t.Error("expected success=true")
	}
	if got.User.Email != "alice@example.com" {
		t.Errorf("user.email = %q, want %q", got.User.Email, "alice@example.com")
	}
}

func TestAuthHandler_Register_EmailTaken_ReturnsConflict(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			return nil, auth.ErrEmailTaken
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"email":"alice@example.com","password":"secret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

func TestAuthHandler_Register_InvalidInput_ReturnsBadRequest(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			return nil, auth.ErrInvalidInput
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"email":"not-an-email","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_MalformedBody_ReturnsBadRequest(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// --- POST /api/v1/auth/login テスト ---

func TestAuthHandler_Login_Success_ReturnsTokenAndUser(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return &auth.LoginResult{Token: "token-abc", User: testUser()}, nil
		},
	}
	metrics := &mockLoginMetrics{}
	h := NewAuthHandler(svc, metrics)

	body := `{"email":"alice@example.com","password":"secret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Token != "token-abc" {
		t.Errorf("token = %q, want %q", got.Token, "token-abc")
	}
	if got.User.ID != "user-1" {
		t.Errorf("user.id = %q, want %q", got.User.ID, "user-1")
	}
	if len(metrics.results) != 1 || !metrics.results[0] {
		t.Errorf("expected one successful login recorded, got %v", metrics.results)
	}
}

func TestAuthHandler_Login_BadCredentials_ReturnsUnauthorized(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, auth.ErrBadCredentials
		},
	}
	metrics := &mockLoginMetrics{}
	h := NewAuthHandler(svc, metrics)

	body := `{"email":"alice@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
	if len(metrics.results) != 1 || metrics.results[0] {
		t.Errorf("expected one failed login recorded, got %v", metrics.results)
	}
}

func TestAuthHandler_Login_ServiceError_ReturnsInternalError(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"email":"alice@example.com","password":"secret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	// 内部エラーの詳細がクライアントに漏れないこと
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, v := range got {
		if s, ok := v.(string); ok && strings.Contains(s, "db down") {
			t.Errorf("internal error detail leaked to client: %v", got)
		}
	}
}

// --- 到達確認エンドポイント テスト ---

func TestAuthHandler_UserAuthProbe_ReturnsOK(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/user-auth", nil)
	w := httptest.NewRecorder()

	h.UserAuthProbe(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got["ok"] {
		t.Errorf("expected {\"ok\":true}, got %v", got)
	}
}
