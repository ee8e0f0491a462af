// Package checkout は決済フロー全体のオーケストレーションを提供する。
// ゲートウェイからのクライアントトークン取得、決済送信、
// 成功時のカートクリアまでを一つの操作にまとめる。
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/storeman/internal/cart"
	"github.com/hitoshi/storeman/internal/model"
	"github.com/hitoshi/storeman/internal/payment"
)

// Completion は決済完了時に呼ばれるコールバック。
type Completion func(result *payment.Result)

// Flow はカートとゲートウェイをまたぐチェックアウト処理を実行する。
type Flow struct {
	gateway    payment.GatewayClient
	cart       *cart.Service
	logger     *slog.Logger
	onComplete Completion
}

// NewFlow はFlowの新しいインスタンスを生成する。
// onCompleteはnilでもよい。
func NewFlow(gateway payment.GatewayClient, cartService *cart.Service, logger *slog.Logger, onComplete Completion) *Flow {
	return &Flow{
		gateway:    gateway,
		cart:       cartService,
		logger:     logger,
		onComplete: onComplete,
	}
}

// ClientToken は決済フォーム初期化用のトークンを取得する。
func (f *Flow) ClientToken(ctx context.Context) (string, error) {
	return f.gateway.ClientToken(ctx)
}

// Pay は現在のカート内容で決済を実行する。
// 決済が成功した場合のみカートをクリアし、完了コールバックを呼ぶ。
// 失敗時はカート内容を変更しない。
func (f *Flow) Pay(ctx context.Context, nonce string) (*payment.Result, error) {
	items := f.cart.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	result, err := f.gateway.Submit(ctx, nonce, items)
	if err != nil {
		return nil, err
	}

	f.cart.Clear()

	f.logger.Info("payment completed",
		slog.String("transaction_id", result.TransactionID),
		slog.String("amount", model.FormatPrice(result.Amount)),
		slog.Int("item_count", len(items)),
	)

	if f.onComplete != nil {
		f.onComplete(result)
	}

	return result, nil
}
