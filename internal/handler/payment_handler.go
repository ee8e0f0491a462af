package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/storeman/internal/middleware"
	"github.com/hitoshi/storeman/internal/model"
	"github.com/hitoshi/storeman/internal/payment"
)

// PaymentMetrics は決済の結果とレイテンシを記録するインターフェース。nil可。
type PaymentMetrics interface {
	RecordPayment(outcome string)
	RecordPaymentLatency(duration time.Duration)
}

// PaymentHandler は決済関連のHTTPハンドラー。
type PaymentHandler struct {
	gateway payment.GatewayClient
	metrics PaymentMetrics
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(gateway payment.GatewayClient, metrics PaymentMetrics) *PaymentHandler {
	return &PaymentHandler{
		gateway: gateway,
		metrics: metrics,
	}
}

// clientTokenResponse はクライアントトークン取得のレスポンス。
type clientTokenResponse struct {
	Success     bool   `json:"success"`
	ClientToken string `json:"clientToken"`
}

// ClientToken はフロントエンド決済フォーム初期化用のトークンを返す。
// GET /api/v1/product/braintree/token
func (h *PaymentHandler) ClientToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.gateway.ClientToken(r.Context())
	if err != nil {
		slog.Error("failed to fetch gateway client token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, clientTokenResponse{
		Success:     true,
		ClientToken: token,
	})
}

// paymentRequest は決済送信のリクエストボディ。
type paymentRequest struct {
	Nonce string           `json:"nonce"`
	Cart  []model.CartItem `json:"cart"`
}

// paymentResponse は決済成功時のレスポンス。
type paymentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
}

// SubmitPayment はカート内容と決済ノンスをゲートウェイに送信する。
// ゲートウェイが決済を拒否した場合は402を返す。
// POST /api/v1/product/braintree/payment
func (h *PaymentHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Nonce == "" {
		middleware.WriteError(w, http.StatusBadRequest, "payment nonce is required")
		return
	}
	if len(req.Cart) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	start := time.Now()
	result, err := h.gateway.Submit(r.Context(), req.Nonce, req.Cart)
	h.recordLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			h.recordOutcome("declined")
			userID, _ := middleware.UserIDFromContext(r.Context())
			slog.Warn("payment declined",
				slog.String("user_id", userID),
			)
			middleware.WriteError(w, http.StatusPaymentRequired, "payment was declined")
			return
		}
		h.recordOutcome("error")
		slog.Error("failed to submit payment", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.recordOutcome("success")
	middleware.WriteJSON(w, http.StatusOK, paymentResponse{
		Success:       true,
		TransactionID: result.TransactionID,
	})
}

func (h *PaymentHandler) recordOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordPayment(outcome)
	}
}

func (h *PaymentHandler) recordLatency(d time.Duration) {
	if h.metrics != nil {
		h.metrics.RecordPaymentLatency(d)
	}
}
