package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/interfaces/http/common"
)

func (h *Handler) searchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		stores, err := h.catalog.SearchByText(ctx, r.URL.Query().Get("q"))
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildStoreResponses(stores))
	}
}

func (h *Handler) nearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		point, err := domain.ParsePoint(query.Get("lng"), query.Get("lat"))
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		stores, err := h.catalog.SearchNear(ctx, point.Lng, point.Lat)
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildStoreResponses(stores))
	}
}
