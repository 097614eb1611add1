package handlers

import (
	"errors"
	"net/http"

	"tryon/internal/auth"
	"tryon/internal/domain"
)

type quotaResponse struct {
	Plan      string `json:"plan"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Date      string `json:"date"`
}

// Quota handles GET /v1/quota. It never charges usage.
func (a *App) Quota(w http.ResponseWriter, r *http.Request) {
	credential := auth.BearerToken(r.Header.Get("Authorization"))
	if credential == "" {
		a.fail(w, r, domain.NewError(domain.KindUnauthorized, "unauthorized", errors.New("missing bearer credential")))
		return
	}
	identity, err := a.Auth.Authenticate(r.Context(), credential)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	usage, err := a.QuotaSvc.Status(r.Context(), identity.UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, quotaResponse{
		Plan:      string(usage.Plan),
		Limit:     usage.Limit,
		Used:      usage.Used,
		Remaining: usage.Remaining,
		Date:      usage.Date,
	})
}
