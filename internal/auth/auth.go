// Package auth resolves a bearer credential into the caller's identity,
// either by verifying the Supabase access token locally or by asking the
// Supabase auth service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/infra"
)

// Authenticator maps a raw access token to an identity. Every failure is
// reported as a domain.KindUnauthorized error.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (domain.Identity, error)
}

var errMissingCredential = errors.New("missing bearer credential")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// New builds the authenticator selected by cfg.AuthMode.
func New(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (Authenticator, error) {
	issuer := ""
	if cfg.SupabaseURL != "" {
		issuer = cfg.SupabaseURL + "/auth/v1"
	}
	switch cfg.AuthMode {
	case infra.AuthModeHS256:
		logger.Info().Msg("auth: verifying HS256 tokens locally")
		return NewHS256Verifier(cfg.SupabaseJWTSecret, issuer)
	case infra.AuthModeJWKS:
		logger.Info().Str("jwks", cfg.JWKSURL).Msg("auth: verifying tokens against jwks")
		return NewJWKSVerifier(ctx, cfg.JWKSURL, issuer)
	case infra.AuthModeRemote:
		logger.Info().Msg("auth: delegating to supabase auth service")
		return NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, &http.Client{Timeout: 10 * time.Second}), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.AuthMode)
	}
}

func unauthorized(cause error) error {
	return domain.NewError(domain.KindUnauthorized, "unauthorized", cause)
}
