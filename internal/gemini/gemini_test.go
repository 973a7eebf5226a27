package gemini

import (
	"context"
	"testing"

	"github.com/dafterai/dafter/internal/generate"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ generate.ContentGenerator = (*Client)(nil)
	_ generate.ImageGenerator   = (*Client)(nil)
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse(`{"title":"T","pages":[{"title":"A","content":"<p>x</p>","imagePrompt":"cell","isCover":true}]}`)
	require.NoError(t, err)
	assert.Equal(t, "T", resp.Title)
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, generate.PageDraft{Title: "A", Content: "<p>x</p>", ImagePrompt: "cell", IsCover: true}, resp.Pages[0])
}

func TestParseResponseFenced(t *testing.T) {
	resp, err := ParseResponse("```json\n{\"title\":\"T\",\"pages\":[{\"title\":\"A\",\"content\":\"c\",\"imagePrompt\":\"\"}]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "A", resp.Pages[0].Title)
}

func TestParseResponseErrors(t *testing.T) {
	_, err := ParseResponse("not json")
	assert.Error(t, err)

	_, err = ParseResponse(`{"title":"T","pages":[]}`)
	assert.ErrorIs(t, err, generate.ErrEmptyResponse)
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"title", "pages"}, s.Required)
	pages := s.Properties["pages"]
	require.NotNil(t, pages)
	assert.Equal(t, genai.TypeArray, pages.Type)
	assert.Contains(t, pages.Items.Required, "imagePrompt")
}

func TestImageFromParts(t *testing.T) {
	url, err := imageFromParts([]genai.Part{
		genai.Text("here you go"),
		genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", url)

	_, err = imageFromParts([]genai.Part{genai.Text("sorry")})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestFirstText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
	}}}
	text, err := firstText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	_, err = firstText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}
