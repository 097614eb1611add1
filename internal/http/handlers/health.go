package handlers

import (
	"context"
	"net/http"
	"time"

	"tryon/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready checks the database connection.
func (a *App) Ready(w http.ResponseWriter, r *http.Request) {
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			a.logger(r).Error().Err(err).Msg("readiness check failed")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, r, http.StatusNotFound, domain.KindNotFound, "not found")
}
