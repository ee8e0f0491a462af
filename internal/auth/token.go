// Package auth はクレデンシャルの発行・検証とユーザー登録/ログインを提供する。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/storeman/internal/model"
)

// ErrInvalidToken はクレデンシャル検証の失敗を表す。
// 署名不正・期限切れ・フォーマット不正は呼び出し元に区別して伝えない。
var ErrInvalidToken = errors.New("invalid token")

// TokenService は共有シークレットによる署名付きトークンの発行と検証を行う。
// HMAC-SHA256で署名し、サブジェクト（ユーザーID）と有効期限を運ぶ。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // テストで時刻を差し替えるためのフック
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は指定ユーザーIDをサブジェクトとするトークンを発行する。
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、デコード済みクレームを返す。
// 構造的に正しく署名が有効で未失効の場合のみ成功する。
// それ以外はすべてErrInvalidTokenを返す（部分的な有効性はない）。
func (s *TokenService) Verify(tokenString string) (*model.Claims, error) {
	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if parsed.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &model.Claims{
		UserID:    parsed.Subject,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}

	return claims, nil
}
