package middleware

import (
	"encoding/json"
	"net/http"
)

// APIResponse はAPIレスポンスの統一フォーマット。
// クライアントはmessageフィールドで分岐するため、文言は安定契約として扱う。
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON は任意のペイロードをJSONレスポンスとして書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// WriteError は統一フォーマットのエラーレスポンスを書き込む。
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
