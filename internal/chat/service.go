// Package chat answers free-form styling questions with the text model.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
)

// MaxPromptLength bounds the prompt accepted from clients, in runes.
const MaxPromptLength = 4000

// TextModel is the text generation capability.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	model  TextModel
	logger zerolog.Logger
}

func NewService(model TextModel, logger zerolog.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// Reply sends prompt to the model and returns its text.
func (s *Service) Reply(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.NewError(domain.KindValidation, "prompt is required", nil)
	}
	if len([]rune(prompt)) > MaxPromptLength {
		return "", domain.NewError(domain.KindValidation, "prompt is too long", nil)
	}
	text, err := s.model.GenerateText(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		s.logger.Error().Err(err).Msg("chat generation failed")
		return "", domain.NewError(domain.KindInternal, "", err)
	}
	return text, nil
}
