package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
)

// ErrorResponse は API 共通のエラーペイロード。
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Warn("JSON エンコードに失敗", zap.Error(err))
	}
}

// WriteError はドメインエラーを HTTP ステータスへ変換して書き込む。
// 分類できないエラーは 500 とし、詳細はログにだけ残す。
func WriteError(logger *zap.Logger, w http.ResponseWriter, err error) {
	status, body := ErrorStatus(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	WriteJSON(logger, w, status, body)
}

// ErrorStatus maps an error onto its HTTP status and response body.
func ErrorStatus(err error) (int, ErrorResponse) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: verr.Message, Field: verr.Field}
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "店舗が見つかりません"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "この店舗を編集する権限がありません"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "店舗のスラッグが重複しました。時間をおいて再度お試しください"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "サーバー内部でエラーが発生しました"}
	}
}
