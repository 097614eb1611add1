// Package tryon composes authentication, quota, image resolution and
// generation into the virtual try-on operation.
package tryon

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"tryon/internal/auth"
	"tryon/internal/domain"
	"tryon/internal/generation"
	"tryon/internal/imagesource"
	"tryon/internal/observability/metrics"
	"tryon/internal/observability/tracing"
	"tryon/internal/quota"
)

const (
	Instruction = "Dress the person in the first photo in the clothing from the second photo. " +
		"Keep the face sharp and the pose natural, and produce one complete composite image. " +
		"Output a portrait image with a 9:16 aspect ratio."
	AspectRatio = "9:16"
)

type QuotaLedger interface {
	CheckAndIncrement(ctx context.Context, userID string) (quota.Usage, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, ref imagesource.Ref) (imagesource.Image, error)
}

type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

// Request carries the two image slots. Each slot needs inline data or a
// storage path.
type Request struct {
	AvatarImage   string `json:"avatar_image" validate:"required_without=AvatarPath"`
	AvatarPath    string `json:"avatar_path"`
	ClothingImage string `json:"clothing_image" validate:"required_without=ClothingPath"`
	ClothingPath  string `json:"clothing_path"`
}

type Response struct {
	Image string `json:"image"`
}

type Service struct {
	auth     auth.Authenticator
	quota    QuotaLedger
	resolver ImageResolver
	gen      Generator
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(a auth.Authenticator, q QuotaLedger, r ImageResolver, g Generator, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		auth:     a,
		quota:    q,
		resolver: r,
		gen:      g,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
		logger:   logger,
	}
}

// TryOn runs authenticate, validate, charge quota, resolve both images and
// generate, stopping at the first failure.
func (s *Service) TryOn(ctx context.Context, credential string, req Request) (resp Response, err error) {
	ctx, span := tracing.Start(ctx, "tryon.run")
	defer func() {
		tracing.End(span, err)
		outcome := "ok"
		if err != nil {
			outcome = string(domain.AsError(err).Kind)
		}
		s.metrics.TryOnOutcome(outcome)
	}()

	if strings.TrimSpace(credential) == "" {
		return Response{}, domain.NewError(domain.KindUnauthorized, "unauthorized", errors.New("missing credential"))
	}
	identity, err := s.auth.Authenticate(ctx, credential)
	if err != nil {
		return Response{}, err
	}
	if identity.UserID == "" {
		return Response{}, domain.NewError(domain.KindUnauthorized, "unauthorized", errors.New("empty identity"))
	}
	log := s.logger.With().Str("user_id", identity.UserID).Logger()

	if err := s.validateRequest(&req); err != nil {
		return Response{}, err
	}

	usage, err := s.quota.CheckAndIncrement(ctx, identity.UserID)
	if err != nil {
		return Response{}, err
	}
	log.Info().Str("plan", string(usage.Plan)).Int("used", usage.Used).Int("limit", usage.Limit).Msg("try-on quota charged")

	avatar, err := s.resolver.Resolve(ctx, imagesource.Ref{Data: req.AvatarImage, Path: req.AvatarPath})
	if err != nil {
		return Response{}, err
	}
	clothing, err := s.resolver.Resolve(ctx, imagesource.Ref{Data: req.ClothingImage, Path: req.ClothingPath})
	if err != nil {
		return Response{}, err
	}

	result, err := s.gen.Generate(ctx, generation.Request{
		Instruction: Instruction,
		AspectRatio: AspectRatio,
		Avatar:      avatar,
		Clothing:    clothing,
	})
	if err != nil {
		return Response{}, err
	}
	log.Info().Str("mime", result.MIMEType).Int("bytes", len(result.Data)).Msg("try-on image generated")
	return Response{Image: result.DataURI()}, nil
}

var slotMessages = map[string]string{
	"AvatarImage":   "avatar image is required",
	"ClothingImage": "clothing image is required",
}

func (s *Service) validateRequest(req *Request) error {
	req.AvatarImage = strings.TrimSpace(req.AvatarImage)
	req.AvatarPath = strings.TrimSpace(req.AvatarPath)
	req.ClothingImage = strings.TrimSpace(req.ClothingImage)
	req.ClothingPath = strings.TrimSpace(req.ClothingPath)

	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg, ok := slotMessages[verrs[0].StructField()]
		if !ok {
			msg = "invalid request"
		}
		return domain.NewError(domain.KindValidation, msg, err)
	}
	return domain.NewError(domain.KindValidation, "invalid request", err)
}
