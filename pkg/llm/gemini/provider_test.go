package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnly-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_Chat(t *testing.T) {
	var got GeminiChatRequest
	var gotPath, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(GeminiChatResponse{
			Candidates: []*GeminiChatCandidate{{
				Content: &GeminiChatContent{Parts: []*GeminiChatParts{{Text: "Let's "}, {Text: "start with x."}}},
			}},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider("secret", "gemini-1.5-flash", 5*time.Second)
	p.BaseURL = srv.URL

	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "solve 2x = 4"},
		{Role: llm.RoleAssistant, Content: "what is x?"},
		{Role: llm.RoleUser, Content: "2"},
	}, llm.WithSystemInstruction("be a tutor"))
	require.NoError(t, err)

	assert.Equal(t, "Let's start with x.", reply)
	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be a tutor", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "user", got.Contents[2].Role)
}

func TestGeminiProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{name: "non-200", status: http.StatusTooManyRequests, body: `{"error":"quota"}`},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, is: llm.ErrEmptyCompletion},
		{name: "blank text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, is: llm.ErrEmptyCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewGeminiProvider("k", "m", time.Second)
			p.BaseURL = srv.URL

			_, err := p.Generate(context.Background(), "hi")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
