// Package generation drives the image model for a try-on: it decodes the two
// input images, calls the model, and retries until an image comes back.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/imagesource"
	"tryon/internal/observability/metrics"
	"tryon/internal/observability/tracing"
	"tryon/internal/providers/gemini"
)

const (
	MaxAttempts = 3
	RetryDelay  = 1000 * time.Millisecond

	defaultAvatarMIME   = "image/jpeg"
	defaultClothingMIME = "image/png"
)

var errNoImage = errors.New("model response contained no image")

// ImageModel is the generative capability.
type ImageModel interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) ([]gemini.Candidate, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result is the first image part found in a model response.
type Result struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the result for a JSON response body.
func (r Result) DataURI() string {
	mime := r.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

type Client struct {
	model          ImageModel
	sleep          Sleeper
	attemptTimeout time.Duration
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

type Option func(*Client)

func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithAttemptTimeout bounds each model call. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.attemptTimeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(model ImageModel, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{model: model, sleep: sleepContext, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is the instruction plus the person and garment images, in that order.
type Request struct {
	Instruction string
	AspectRatio string
	Avatar      imagesource.Image
	Clothing    imagesource.Image
}

// Generate makes up to MaxAttempts model calls with a fixed RetryDelay
// between them. Both an imageless response and a call error are retried; the
// error from the final attempt is returned as generation_failed.
func (c *Client) Generate(ctx context.Context, req Request) (res Result, err error) {
	started := time.Now()
	ctx, span := tracing.Start(ctx, "generation.generate")
	defer func() {
		tracing.End(span, err)
		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		c.metrics.GenerationFinished(outcome, time.Since(started))
	}()

	avatar, err := decodeImage(req.Avatar, defaultAvatarMIME)
	if err != nil {
		return Result{}, domain.NewError(domain.KindGenerationFailed, "invalid avatar image data", err)
	}
	clothing, err := decodeImage(req.Clothing, defaultClothingMIME)
	if err != nil {
		return Result{}, domain.NewError(domain.KindGenerationFailed, "invalid clothing image data", err)
	}
	modelReq := gemini.ImageRequest{
		Prompt:      req.Instruction,
		Images:      []gemini.InlineImage{avatar, clothing},
		AspectRatio: req.AspectRatio,
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, RetryDelay); err != nil {
				return Result{}, domain.NewError(domain.KindGenerationFailed, "generation cancelled", err)
			}
		}

		res, err := c.attempt(ctx, modelReq)
		switch {
		case err == nil:
			c.metrics.GenerationAttempt("image")
			c.logger.Debug().Int("attempt", attempt).Str("mime", res.MIMEType).Msg("generation produced image")
			return res, nil
		case errors.Is(err, errNoImage):
			c.metrics.GenerationAttempt("no_image")
			c.logger.Warn().Int("attempt", attempt).Msg("generation returned no image")
		default:
			c.metrics.GenerationAttempt("error")
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("generation call failed")
		}
		lastErr = err
	}

	if errors.Is(lastErr, errNoImage) {
		return Result{}, domain.NewError(domain.KindGenerationFailed, "unable to recognize image", lastErr)
	}
	return Result{}, domain.NewError(domain.KindGenerationFailed, "image generation failed", lastErr)
}

func (c *Client) attempt(ctx context.Context, req gemini.ImageRequest) (Result, error) {
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}
	candidates, err := c.model.GenerateImage(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if res, ok := firstImage(candidates); ok {
		return res, nil
	}
	return Result{}, errNoImage
}

// firstImage scans candidates in order, then parts in order.
func firstImage(candidates []gemini.Candidate) (Result, bool) {
	for _, cand := range candidates {
		for _, part := range cand.Parts {
			if strings.HasPrefix(part.MIMEType, "image/") && len(part.Data) > 0 {
				return Result{MIMEType: part.MIMEType, Data: part.Data}, true
			}
		}
	}
	return Result{}, false
}

// decodeImage accepts raw base64 or a data URI. The MIME type comes from the
// URI, then from the resolver, then from fallback.
func decodeImage(img imagesource.Image, fallback string) (gemini.InlineImage, error) {
	data := strings.TrimSpace(img.Data)
	mime := img.MIMEType
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok {
			return gemini.InlineImage{}, errors.New("malformed data uri")
		}
		if m, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); m != "" {
			mime = m
		}
		data = payload
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return gemini.InlineImage{}, fmt.Errorf("decode base64: %w", err)
	}
	if mime == "" {
		mime = fallback
	}
	return gemini.InlineImage{MIMEType: mime, Data: raw}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
