package model

import "fmt"

// CartItem はカート内の1商品を表す。
// JSONフィールド名は決済ゲートウェイおよびフロントエンドとの
// ワイヤーフォーマットに合わせている（_id等）。
type CartItem struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CartTotal はカート内商品の合計金額を返す。
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return total
}

// FormatPrice は金額を小数点以下2桁の表示用文字列に整形する。
func FormatPrice(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// AuthSession はクライアント側で永続化するログインセッション状態を表す。
// ユーザー情報とクレデンシャル文字列を保持する。
type AuthSession struct {
	User  *PublicUser `json:"user"`
	Token string      `json:"token"`
}

// SignedIn はセッションがログイン済み状態かどうかを返す。
func (s AuthSession) SignedIn() bool {
	return s.Token != "" && s.User != nil
}
