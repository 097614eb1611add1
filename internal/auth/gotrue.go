package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tryon/internal/domain"
)

// GoTrueClient resolves tokens by calling the Supabase auth service's
// GET /auth/v1/user endpoint. Revoked sessions are rejected immediately.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGoTrueClient(supabaseURL, apiKey string, httpClient *http.Client) *GoTrueClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoTrueClient{baseURL: supabaseURL, apiKey: apiKey, http: httpClient}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (c *GoTrueClient) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, unauthorized(errMissingCredential)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return domain.Identity{}, unauthorized(err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Identity{}, unauthorized(fmt.Errorf("gotrue request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Identity{}, unauthorized(fmt.Errorf("gotrue read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Identity{}, unauthorized(fmt.Errorf("gotrue status %d", resp.StatusCode))
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.Identity{}, unauthorized(fmt.Errorf("gotrue decode: %w", err))
	}
	if user.ID == "" {
		return domain.Identity{}, unauthorized(errors.New("gotrue returned no user id"))
	}
	return domain.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
