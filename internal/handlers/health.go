package handlers

import (
	"net/http"

	"github.com/nkiryanov/authd/internal/handlers/render"
)

func handleHealth(db pinger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			render.JSONWithStatus(w, response{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{Status: "ok"})
	})
}
