package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"tryon/internal/domain"
)

const (
	defaultLeeway = 30 * time.Second
	// supabaseAudience is the aud claim on signed-in user tokens.
	supabaseAudience = "authenticated"
)

// supabaseClaims is the subset of the Supabase access token we read.
type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier validates Supabase access tokens without a network round trip.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewHS256Verifier verifies tokens signed with the project's JWT secret.
func NewHS256Verifier(secret, issuer string) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	key := []byte(secret)
	return newJWTVerifier(func(*jwt.Token) (any, error) { return key, nil }, issuer, jwt.SigningMethodHS256.Name), nil
}

// NewJWKSVerifier verifies asymmetric tokens against the project's JWKS
// endpoint. Keys are refreshed in the background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer string) (*JWTVerifier, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, errors.New("auth: jwks url is required")
	}
	provider, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("auth: init jwks keyfunc: %w", err)
	}
	return NewKeyfuncVerifier(provider, issuer), nil
}

// NewKeyfuncVerifier wraps an existing key set.
func NewKeyfuncVerifier(provider keyfunc.Keyfunc, issuer string) *JWTVerifier {
	return newJWTVerifier(provider.Keyfunc, issuer,
		jwt.SigningMethodRS256.Name, jwt.SigningMethodES256.Name)
}

func newJWTVerifier(kf jwt.Keyfunc, issuer string, methods ...string) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithAudience(supabaseAudience),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods(methods),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{keyfunc: kf, parser: jwt.NewParser(opts...)}
}

func (v *JWTVerifier) Authenticate(_ context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, unauthorized(errMissingCredential)
	}
	claims := &supabaseClaims{}
	token, err := v.parser.ParseWithClaims(credential, claims, v.keyfunc)
	if err != nil {
		return domain.Identity{}, unauthorized(err)
	}
	if !token.Valid {
		return domain.Identity{}, unauthorized(errors.New("invalid token"))
	}
	if claims.Subject == "" {
		return domain.Identity{}, unauthorized(errors.New("token missing sub"))
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
