package tryon

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon/internal/adapter/repo/repotest"
	"tryon/internal/domain"
	"tryon/internal/generation"
	"tryon/internal/imagesource"
	"tryon/internal/providers/gemini"
	"tryon/internal/quota"
)

const (
	userID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	token  = "valid-token"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, credential string) (domain.Identity, error) {
	if credential != token {
		return domain.Identity{}, domain.NewError(domain.KindUnauthorized, "unauthorized", errors.New("bad token"))
	}
	return domain.Identity{UserID: userID}, nil
}

type countingStore struct {
	calls int
	data  []byte
}

func (c *countingStore) Download(context.Context, string, string) ([]byte, error) {
	c.calls++
	return c.data, nil
}

type stubModel struct {
	calls int
	image []byte
	mime  string
}

func (m *stubModel) GenerateImage(context.Context, gemini.ImageRequest) ([]gemini.Candidate, error) {
	m.calls++
	if m.image == nil {
		return []gemini.Candidate{{Parts: []gemini.Part{{Text: "no"}}}}, nil
	}
	mime := m.mime
	if mime == "" {
		mime = "image/png"
	}
	return []gemini.Candidate{{Parts: []gemini.Part{{MIMEType: mime, Data: m.image}}}}, nil
}

type harness struct {
	svc   *Service
	subs  *repotest.Subscriptions
	store *countingStore
	model *stubModel
}

func newHarness(sub domain.Subscription) *harness {
	h := &harness{
		subs:  repotest.NewSubscriptions(sub),
		store: &countingStore{data: []byte("\x89PNG\r\n\x1a\n")},
		model: &stubModel{image: []byte("composited")},
	}
	ledger := quota.NewLedger(h.subs, zerolog.Nop(), quota.WithClock(func() time.Time { return now }))
	resolver := imagesource.NewResolver(h.store, imagesource.Collections("wardrobe", "products", "avatars"), nil, zerolog.Nop())
	gen := generation.NewClient(h.model, zerolog.Nop(), generation.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	h.svc = NewService(stubAuth{}, ledger, resolver, gen, nil, zerolog.Nop())
	return h
}

func inline(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func freeUser(used int) domain.Subscription {
	return domain.Subscription{UserID: userID, Plan: domain.PlanFree, DailyUsageCount: used, LastResetDate: domain.Today(now)}
}

func TestTryOnSuccessConsumesLastFreeUnit(t *testing.T) {
	h := newHarness(freeUser(4))

	resp, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+inline("composited"), resp.Image)
	assert.Equal(t, 1, h.model.calls)

	sub, _ := h.subs.Snapshot(userID)
	assert.Equal(t, 5, sub.DailyUsageCount)
}

func TestTryOnKeepsReturnedImageType(t *testing.T) {
	h := newHarness(freeUser(0))
	h.model.mime = "image/jpeg"

	resp, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,"+inline("composited"), resp.Image)
}

func TestTryOnAtCeilingSkipsGeneration(t *testing.T) {
	h := newHarness(freeUser(5))

	_, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
	require.Error(t, err)
	assert.Equal(t, 403, domain.AsError(err).Status())
	assert.Zero(t, h.model.calls)
	assert.Zero(t, h.store.calls)

	sub, _ := h.subs.Snapshot(userID)
	assert.Equal(t, 5, sub.DailyUsageCount)
}

func TestTryOnAuthentication(t *testing.T) {
	for _, credential := range []string{"", "   ", "forged"} {
		h := newHarness(freeUser(0))
		_, err := h.svc.TryOn(context.Background(), credential, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
		require.Error(t, err)
		assert.Equal(t, 401, domain.AsError(err).Status(), "credential %q", credential)
		assert.Zero(t, h.subs.Writes)
		assert.Zero(t, h.model.calls)
	}
}

func TestTryOnMissingSlotHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		message string
	}{
		{name: "no clothing", req: Request{AvatarImage: inline("me")}, message: "clothing image is required"},
		{name: "blank clothing", req: Request{AvatarPath: "avatar/me.jpg", ClothingImage: "  ", ClothingPath: " "}, message: "clothing image is required"},
		{name: "no avatar", req: Request{ClothingPath: "wardrobe/x.png"}, message: "avatar image is required"},
		{name: "nothing", req: Request{}, message: "avatar image is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(freeUser(0))
			_, err := h.svc.TryOn(context.Background(), token, tc.req)
			require.Error(t, err)
			classified := domain.AsError(err)
			assert.Equal(t, 400, classified.Status())
			assert.Equal(t, tc.message, classified.Message)
			assert.Zero(t, h.subs.Writes, "quota must not be charged")
			assert.Zero(t, h.store.calls, "nothing may be downloaded")
			assert.Zero(t, h.model.calls, "model must not be called")
		})
	}
}

func TestTryOnResolvesLocators(t *testing.T) {
	h := newHarness(freeUser(0))
	resp, err := h.svc.TryOn(context.Background(), token, Request{AvatarPath: userID + "/avatar/me.jpg", ClothingPath: "wardrobe/" + userID + "/shirt.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Image)
	assert.Equal(t, 2, h.store.calls)
}

func TestTryOnUnresolvableLocatorStillCharges(t *testing.T) {
	h := newHarness(freeUser(0))
	_, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingPath: "misc/shirt.png"})
	require.Error(t, err)
	assert.Equal(t, 400, domain.AsError(err).Status())
	assert.Equal(t, domain.KindUnresolvableLocation, domain.AsError(err).Kind)
	sub, _ := h.subs.Snapshot(userID)
	assert.Equal(t, 1, sub.DailyUsageCount)
}

func TestTryOnGenerationFailure(t *testing.T) {
	h := newHarness(freeUser(0))
	h.model.image = nil

	_, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
	require.Error(t, err)
	assert.Equal(t, 422, domain.AsError(err).Status())
	assert.Equal(t, generation.MaxAttempts, h.model.calls)
}

func TestTryOnMissingSubscription(t *testing.T) {
	h := newHarness(domain.Subscription{UserID: "someone-else", Plan: domain.PlanFree})
	_, err := h.svc.TryOn(context.Background(), token, Request{AvatarImage: inline("me"), ClothingImage: inline("shirt")})
	require.Error(t, err)
	assert.Equal(t, 404, domain.AsError(err).Status())
	assert.Zero(t, h.model.calls)
}
