package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"tryon/internal/auth"
	"tryon/internal/domain"
	"tryon/internal/i18n"
	"tryon/internal/middleware"
	"tryon/internal/quota"
	"tryon/internal/tryon"
)

// maxBodyBytes bounds request bodies; two inline base64 photos fit easily.
const maxBodyBytes = 20 << 20

type TryOnService interface {
	TryOn(ctx context.Context, credential string, req tryon.Request) (tryon.Response, error)
}

type ChatService interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type QuotaService interface {
	Status(ctx context.Context, userID string) (quota.Usage, error)
}

// Pinger reports database reachability for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	TryOnSvc TryOnService
	ChatSvc  ChatService
	QuotaSvc QuotaService
	Auth     auth.Authenticator
	DB       Pinger
	Logger   zerolog.Logger
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the localized envelope for key.
func (a *App) error(w http.ResponseWriter, r *http.Request, code int, kind domain.Kind, key string) {
	a.json(w, code, errorBody{
		Error: i18n.Localize(middleware.LocaleFromContext(r.Context()), key),
		Code:  string(kind),
	})
}

// fail classifies err and writes it. Internal errors and messages without a
// catalog entry are logged and replaced with the generic text.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away; nothing useful can be written.
		a.logger(r).Debug().Err(err).Msg("request cancelled")
		return
	}
	classified := domain.AsError(err)
	status := classified.Status()
	key := classified.Message
	if classified.Kind == domain.KindInternal || !i18n.Known(key) {
		key = i18n.GenericError
	}
	event := a.logger(r).Warn()
	if status >= http.StatusInternalServerError {
		event = a.logger(r).Error()
	}
	event.Err(err).Str("kind", string(classified.Kind)).Int("status", status).Msg("request failed")
	a.error(w, r, status, classified.Kind, key)
}

// decode reads a JSON body into dst.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewError(domain.KindValidation, "invalid request body", err)
	}
	return nil
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
