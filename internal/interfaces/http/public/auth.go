package public

import (
	"net/http"

	"github.com/sngm3741/store-catalog/api/internal/interfaces/http/common"
)

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.requestLogger(r), w, http.StatusInternalServerError, common.ErrorResponse{Error: "認証情報の取得に失敗しました"})
			return
		}

		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}
