package handlers

import (
	"errors"
	"net/http"

	"tryon/internal/auth"
	"tryon/internal/domain"
	"tryon/internal/tryon"
)

// TryOn handles POST /v1/tryon. A request without a bearer credential is
// rejected before the body is read.
func (a *App) TryOn(w http.ResponseWriter, r *http.Request) {
	credential := auth.BearerToken(r.Header.Get("Authorization"))
	if credential == "" {
		a.fail(w, r, domain.NewError(domain.KindUnauthorized, "unauthorized", errors.New("missing bearer credential")))
		return
	}

	var req tryon.Request
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	resp, err := a.TryOnSvc.TryOn(r.Context(), credential, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}
