// Package payment は決済ゲートウェイとの連携を提供する。
// ゲートウェイ本体は外部サービスであり、このパッケージは
// クライアントトークンの取得と決済送信の薄いクライアントのみを持つ。
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storeman/internal/model"
)

// ErrDeclined はゲートウェイが決済を拒否したことを表す。
var ErrDeclined = errors.New("payment was declined")

// Result は決済成功時のゲートウェイ応答。
type Result struct {
	TransactionID string
	Amount        float64
}

// GatewayClient は決済ゲートウェイの操作インターフェース。
// ハンドラーとチェックアウトフローはこのインターフェースのみに依存する。
type GatewayClient interface {
	// ClientToken はフロントエンドの決済フォーム初期化用トークンを取得する。
	ClientToken(ctx context.Context) (string, error)
	// Submit はカート内容と決済ノンスをゲートウェイに送信する。
	Submit(ctx context.Context, nonce string, items []model.CartItem) (*Result, error)
}

// Client は決済ゲートウェイのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// clientTokenResponse はトークン取得エンドポイントの応答。
type clientTokenResponse struct {
	ClientToken string `json:"clientToken"`
}

// ClientToken はフロントエンド決済フォーム初期化用のトークンを取得する。
func (c *Client) ClientToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/client_token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to reach payment gateway",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("failed to fetch client token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("payment gateway returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var body clientTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if body.ClientToken == "" {
		return "", fmt.Errorf("gateway returned empty client token")
	}

	return body.ClientToken, nil
}

// transactionRequest は決済送信エンドポイントへのリクエストボディ。
type transactionRequest struct {
	Nonce  string `json:"nonce"`
	Amount string `json:"amount"`
}

// transactionResponse は決済送信エンドポイントの応答。
type transactionResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// Submit はカート内容の合計金額と決済ノンスをゲートウェイに送信する。
// ゲートウェイが決済を拒否した場合はErrDeclinedを返す。
func (c *Client) Submit(ctx context.Context, nonce string, items []model.CartItem) (*Result, error) {
	if nonce == "" {
		return nil, fmt.Errorf("payment nonce is required")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	amount := model.CartTotal(items)
	payload, err := json.Marshal(transactionRequest{
		Nonce:  nonce,
		Amount: model.FormatPrice(amount),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to reach payment gateway",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to submit payment: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var body transactionResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		c.logger.Error("payment gateway returned unparseable response",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		c.logger.Warn("payment declined by gateway",
			slog.Int("http_status", resp.StatusCode),
			slog.String("gateway_message", body.Message),
		)
		return nil, ErrDeclined
	}

	return &Result{
		TransactionID: body.TransactionID,
		Amount:        amount,
	}, nil
}

// compile-time interface check
var _ GatewayClient = (*Client)(nil)
