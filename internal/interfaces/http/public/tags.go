package public

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/store-catalog/api/internal/catalog/ranking"
	"github.com/sngm3741/store-catalog/api/internal/interfaces/http/common"
)

func (h *Handler) tagHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		view, err := h.catalog.StoresByTag(ctx, chi.URLParam(r, "tag"))
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildTagViewResponse(view))
	}
}

func (h *Handler) topStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		limit, _ := common.ParseBoundedInt(r.URL.Query().Get("limit"), ranking.DefaultTopLimit, ranking.MaxTopLimit)
		stores, err := h.catalog.TopStores(ctx, limit)
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildRankedStoreResponses(stores))
	}
}
