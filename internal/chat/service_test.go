package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon/internal/domain"
)

type stubModel struct {
	prompt string
	text   string
	err    error
}

func (s *stubModel) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestReply(t *testing.T) {
	model := &stubModel{text: "Try a white tee."}
	got, err := NewService(model, zerolog.Nop()).Reply(context.Background(), "  what goes with jeans?  ")
	require.NoError(t, err)
	assert.Equal(t, "Try a white tee.", got)
	assert.Equal(t, "what goes with jeans?", model.prompt)
}

func TestReplyValidation(t *testing.T) {
	model := &stubModel{}
	svc := NewService(model, zerolog.Nop())

	for _, prompt := range []string{"", "   ", strings.Repeat("a", MaxPromptLength+1)} {
		_, err := svc.Reply(context.Background(), prompt)
		require.Error(t, err)
		assert.Equal(t, 400, domain.AsError(err).Status())
	}
	assert.Empty(t, model.prompt, "model must not be called for invalid prompts")
}

func TestReplyHidesModelErrors(t *testing.T) {
	model := &stubModel{err: errors.New("googleapi: Error 500: backend exploded")}
	_, err := NewService(model, zerolog.Nop()).Reply(context.Background(), "hi")
	require.Error(t, err)
	classified := domain.AsError(err)
	assert.Equal(t, domain.KindInternal, classified.Kind)
	assert.Empty(t, classified.Message)
	assert.Equal(t, 500, classified.Status())
}
