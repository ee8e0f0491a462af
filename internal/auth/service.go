package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/storeman/internal/model"
	"github.com/hitoshi/storeman/internal/repository"
)

// RegisterInput はユーザー登録のリクエストパラメータ。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Address  string
}

// LoginResult はログイン成功時の結果。発行済みトークンとユーザー情報を含む。
type LoginResult struct {
	Token string
	User  *model.User
}

// ErrEmailTaken は登録済みメールアドレスでの再登録を表す。
var ErrEmailTaken = fmt.Errorf("email is already registered")

// ErrInvalidInput は登録パラメータの検証エラーを表す。
var ErrInvalidInput = fmt.Errorf("invalid input")

// ErrBadCredentials はメールアドレスまたはパスワードの不一致を表す。
// どちらが間違っているかは呼び出し元に区別して伝えない。
var ErrBadCredentials = fmt.Errorf("invalid email or password")

// Service は登録・ログインに関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	tokens    *TokenService
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenService) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		// 名前・住所は管理者ダッシュボードにそのまま表示されるため、
		// HTMLタグをすべて除去して保存する
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Register は新規ユーザーを作成する。
// パスワードはbcryptでハッシュ化し、プロフィール項目はHTMLを除去して保存する。
// ロールは常に一般ユーザー（管理者への昇格はこのAPIでは行えない）。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(s.sanitizer.Sanitize(input.Name)),
		Address:      strings.TrimSpace(s.sanitizer.Sanitize(input.Address)),
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{Token: token, User: user}, nil
}
