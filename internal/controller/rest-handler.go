package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (c controller) roomStats(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	stats := c.relayService.RoomStats(r.Context(), roomId)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		c.logger.WarnContext(r.Context(), "failed to encode room stats", "error", err)
	}
}
