package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Get("/healthz", c.healthz)
	r.Get("/api/rooms/{room-id}/stats", c.roomStats)
	r.HandleFunc("/ws", c.ws)

	return r
}
