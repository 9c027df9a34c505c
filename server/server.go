// Package server exposes the video intake endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"videos-midjourney/model"
	"videos-midjourney/store"
)

// Triggerer kicks off a pass over the pending download queue.
type Triggerer interface {
	Trigger(ctx context.Context)
}

type handlers struct {
	// baseCtx outlives individual requests; download passes triggered by a
	// request must not die with it.
	baseCtx context.Context
	store   *store.Store
	fetcher Triggerer
	logger  *zap.Logger
}

// NewHandler builds the intake HTTP handler: POST /dailyvids plus a health
// endpoint, wrapped in the middleware chain.
func NewHandler(baseCtx context.Context, st *store.Store, fetcher Triggerer, logger *zap.Logger) http.Handler {
	h := &handlers{baseCtx: baseCtx, store: st, fetcher: fetcher, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/dailyvids", h.handleDailyVids)
	mux.HandleFunc("/health", h.handleHealth)

	return Chain(mux,
		Recovery(logger),
		RequestID(),
		RequestLogger(logger),
	)
}

// handleDailyVids receives the daily video list, stores the entries it has
// not seen before, and starts downloading when anything new arrived.
func (h *handlers) handleDailyVids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var payload struct {
		Videos []model.Video `json:"videos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	h.logger.Info("incoming video list",
		zap.Int("count", len(payload.Videos)),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)

	added, err := h.store.AddNew(payload.Videos)
	if err != nil {
		h.logger.Error("could not save videos", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save videos"})
		return
	}

	if added > 0 {
		h.logger.Info("starting download pass", zap.Int("added", added))
		h.fetcher.Trigger(h.baseCtx)
	} else {
		h.logger.Info("no new videos to download")
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Saved %d new videos", added),
	})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
