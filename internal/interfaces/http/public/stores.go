package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/store-catalog/api/internal/catalog/application"
	"github.com/sngm3741/store-catalog/api/internal/catalog/domain"
	"github.com/sngm3741/store-catalog/api/internal/interfaces/http/common"
)

func (h *Handler) storeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		page, _ := common.ParsePositiveInt(chi.URLParam(r, "page"), 1)

		result, err := h.catalog.List(ctx, page)
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}

		// 範囲外のページは最終ページへ誘導する
		if result.Overflow() {
			http.Redirect(w, r, fmt.Sprintf("/stores/page/%d", result.LastPage), http.StatusFound)
			return
		}

		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, storePageResponse{
			Stores: buildStoreResponses(result.Stores),
			Page:   result.Page,
			Pages:  result.Pages,
			Count:  result.Count,
		})
	}
}

func (h *Handler) storeBySlugHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		store, err := h.catalog.FindBySlug(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildStoreResponse(*store))
	}
}

func (h *Handler) storeByIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		store, err := h.catalog.FindByID(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildStoreResponse(*store))
	}
}

func (h *Handler) storeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.requestLogger(r), w, http.StatusUnauthorized, common.ErrorResponse{Error: "認証が必要です"})
			return
		}

		req, ok := h.decodeStoreRequest(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		store, err := h.catalog.Create(ctx, application.CreateStoreCommand{Input: req.toInput(user.ID)})
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}

		h.requestLogger(r).Info("店舗を登録しました",
			zap.String("storeId", store.ID),
			zap.String("slug", store.Slug),
			zap.String("author", user.ID),
		)
		common.WriteJSON(h.requestLogger(r), w, http.StatusCreated, buildStoreResponse(*store))
	}
}

func (h *Handler) storeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.requestLogger(r), w, http.StatusUnauthorized, common.ErrorResponse{Error: "認証が必要です"})
			return
		}

		req, ok := h.decodeStoreRequest(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		store, err := h.catalog.Update(ctx, application.UpdateStoreCommand{
			ID:       chi.URLParam(r, "id"),
			EditorID: user.ID,
			Input:    req.toInput(user.ID),
		})
		if err != nil {
			common.WriteError(h.requestLogger(r), w, err)
			return
		}
		common.WriteJSON(h.requestLogger(r), w, http.StatusOK, buildStoreResponse(*store))
	}
}

func (h *Handler) decodeStoreRequest(w http.ResponseWriter, r *http.Request) (storeRequest, bool) {
	var req storeRequest
	body := io.LimitReader(r.Body, common.MaxStoreRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		common.WriteJSON(h.requestLogger(r), w, http.StatusBadRequest, common.ErrorResponse{Error: "JSON の形式が正しくありません"})
		return storeRequest{}, false
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Description)) > common.MaxStoreDescriptionRunes {
		common.WriteError(h.requestLogger(r), w, domain.NewValidationError("description", "説明文が長すぎます"))
		return storeRequest{}, false
	}
	return req, true
}
