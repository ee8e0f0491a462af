// Package cart はクライアント側の買い物カート状態を提供する。
// カートの内容はプロセス再起動をまたいで永続化され、
// 変更はすべての購読者（ヘッダーのバッジ、カートページ等）に同期通知される。
package cart

import (
	"log/slog"
	"slices"

	"github.com/hitoshi/storeman/internal/model"
	"github.com/hitoshi/storeman/internal/state"
)

// SlotName はカート状態の永続化キー。
const SlotName = "cart"

// Service は買い物カートの操作を提供する。
type Service struct {
	store *state.Store[[]model.CartItem]
}

// NewService はカートサービスを生成する。
// 永続ストレージに保存済みのカートがあれば復元する。
func NewService(storage state.Storage, logger *slog.Logger) *Service {
	return &Service{
		store: state.New(SlotName, storage, []model.CartItem{}, logger),
	}
}

// Items は現在のカート内容を返す。
func (s *Service) Items() []model.CartItem {
	return s.store.Get()
}

// Add は商品をカートに追加する。
func (s *Service) Add(item model.CartItem) {
	s.store.Update(func(prev []model.CartItem) []model.CartItem {
		return append(slices.Clone(prev), item)
	})
}

// Remove は指定IDの商品をカートから取り除く。
// 同一IDが複数ある場合は最初の1件のみ取り除く。
func (s *Service) Remove(itemID string) {
	s.store.Update(func(prev []model.CartItem) []model.CartItem {
		next := slices.Clone(prev)
		for i, item := range next {
			if item.ID == itemID {
				return append(next[:i], next[i+1:]...)
			}
		}
		return next
	})
}

// Clear はカートを空にし、永続キーを削除する。
// 決済成功時に呼ばれる。購読者からはアトミックな1回の変更として観測される。
func (s *Service) Clear() {
	s.store.Clear()
}

// Total はカート内商品の合計金額を返す。
func (s *Service) Total() float64 {
	return model.CartTotal(s.store.Get())
}

// Subscribe はカート変更の購読者を登録し、解除関数を返す。
func (s *Service) Subscribe(fn func([]model.CartItem)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}
