package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGenerateImageBuildsOrderedParts(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "here you go"},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}},
		}}},
		{Content: nil},
	}}}
	client := NewWithModel(fake, zerolog.Nop())

	cands, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:      "dress the person",
		Images:      []InlineImage{{MIMEType: "image/jpeg", Data: []byte("avatar")}, {MIMEType: "image/png", Data: []byte("shirt")}},
		AspectRatio: "9:16",
	})
	require.NoError(t, err)

	assert.Equal(t, ImageModel, fake.model)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "dress the person", parts[0].Text)
	assert.Equal(t, []byte("avatar"), parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("shirt"), parts[2].InlineData.Data)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, fake.config.ResponseModalities)
	assert.Equal(t, "9:16", fake.config.ImageConfig.AspectRatio)

	require.Len(t, cands, 2)
	assert.Equal(t, []Part{{Text: "here you go"}, {MIMEType: "image/png", Data: []byte("png")}}, cands[0].Parts)
	assert.Empty(t, cands[1].Parts)
}

func TestGenerateImageWrapsErrors(t *testing.T) {
	boom := errors.New("429 resource exhausted")
	client := NewWithModel(&fakeModels{err: boom}, zerolog.Nop())
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestGenerateText(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "Navy pairs well with beige."}}}},
	}}}
	text, err := NewWithModel(fake, zerolog.Nop()).GenerateText(context.Background(), "what goes with navy?")
	require.NoError(t, err)
	assert.Equal(t, "Navy pairs well with beige.", text)
	assert.Equal(t, TextModel, fake.model)
	assert.Nil(t, fake.config)
}

func TestNewClientTalksToBaseURL(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"inlineData":{"mimeType":"image/png","data":"`+img+`"}}]}}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client(), Logger: zerolog.Nop()})
	require.NoError(t, err)

	cands, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "compose", AspectRatio: "9:16"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Len(t, cands[0].Parts, 1)
	assert.Equal(t, []byte("png-bytes"), cands[0].Parts[0].Data)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+ImageModel+":generateContent"), gotPath)
	assert.Contains(t, gotBody, "9:16")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.Error(t, err)
}
