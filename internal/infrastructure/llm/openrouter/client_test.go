package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/ports"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

func testProcessing() config.ProcessingConfig {
	return config.ProcessingConfig{
		ConcurrentRequests:    1,
		RequestDelayMS:        1,
		MaxRetries:            3,
		RequestTimeoutSeconds: 5,
	}
}

// newTestClient points a client at a fake completion endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.LLMConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		ExtractionModel: "test/extract",
		WordModel:       "test/word",
		GrammarModel:    "test/grammar",
	}, testProcessing(), nil)
	require.NoError(t, err)
	return client, srv
}

// completionResponse writes a chat completion whose single choice holds content.
func completionResponse(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     config.LLMConfig{APIKey: "test-key"},
			wantErr: false,
		},
		{
			name:    "missing API key",
			cfg:     config.LLMConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg, testProcessing(), nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestAnalyzeWord_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// max_retries = 3: fail twice, succeed on the third attempt.
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		completionResponse(w, "<div>analysis</div>")
	})

	got, err := client.AnalyzeWord(context.Background(), entities.WordCandidate{
		Word: "帯", Kana: "おび", Pitch: "0", PartOfSpeech: []string{"名词"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<div>analysis</div>", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnalyzeWord_RetryExhaustedAfterExactlyMaxRetries(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "upstream overloaded", http.StatusInternalServerError)
	})

	_, err := client.AnalyzeWord(context.Background(), entities.WordCandidate{Word: "帯", Kana: "おび"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRetryExhausted)
	// Never more than max_retries attempts.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExtract_Success(t *testing.T) {
	payload := `{"words":[{"word":"帯","kana":"おび","pitch":"0","part_of_speech":["名词"]}],"grammar":[{"grammar":"〜ばかりに","kana":"ばかりに"}]}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionResponse(w, "```json\n"+payload+"\n```")
	})

	extraction, err := client.Extract(context.Background(), "some japanese text")
	require.NoError(t, err)
	require.Len(t, extraction.Words, 1)
	require.Len(t, extraction.Grammar, 1)
	assert.Equal(t, "帯", extraction.Words[0].Word)
	assert.Equal(t, []string{"名词"}, extraction.Words[0].PartOfSpeech)
	assert.Equal(t, "〜ばかりに", extraction.Grammar[0].Grammar)
}

func TestExtract_MalformedResponseIsNotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		completionResponse(w, "sorry, I cannot produce JSON today")
	})

	_, err := client.Extract(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrResponseMalformed)
	// Structural failures are reported once, never retried.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExtract_RejectsEmptySurface(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionResponse(w, `{"words":[{"word":"","kana":"おび"}],"grammar":[]}`)
	})

	_, err := client.Extract(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrResponseMalformed)
}

func TestExtract_ProseWrappedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionResponse(w, `Here is the result: {"words":[],"grammar":[{"grammar":"〜わけだ","kana":"わけだ"}]} hope it helps`)
	})

	extraction, err := client.Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, extraction.Words)
	require.Len(t, extraction.Grammar, 1)
}

func TestPartOfSpeech(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionResponse(w, `{"part_of_speech":["自动词","他动词"]}`)
	})

	labels, err := client.PartOfSpeech(context.Background(), entities.WordCandidate{Word: "開く", Kana: "ひらく"})
	require.NoError(t, err)
	assert.Equal(t, []string{"自动词", "他动词"}, labels)
}

func TestPartOfSpeech_EmptyTagsMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		completionResponse(w, `{"part_of_speech":[]}`)
	})

	_, err := client.PartOfSpeech(context.Background(), entities.WordCandidate{Word: "開く"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrResponseMalformed)
}

func TestAnalyzeGrammar_SendsConfiguredModel(t *testing.T) {
	var gotModel string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		completionResponse(w, "explanation")
	})

	got, err := client.AnalyzeGrammar(context.Background(), entities.GrammarCandidate{Grammar: "〜ばかりに", Kana: "ばかりに"})
	require.NoError(t, err)
	assert.Equal(t, "explanation", got)
	assert.Equal(t, "test/grammar", gotModel)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "caller cancellation is not retried",
			err:      context.Canceled,
			expected: false,
		},
		{
			name:     "timeout is retryable",
			err:      context.DeadlineExceeded,
			expected: true,
		},
		{
			name:     "server failure is retryable",
			err:      &openai.APIError{HTTPStatusCode: 503},
			expected: true,
		},
		{
			name:     "rate limiting is retryable",
			err:      &openai.APIError{HTTPStatusCode: 429},
			expected: true,
		},
		{
			name:     "client rejection is not retryable",
			err:      &openai.APIError{HTTPStatusCode: 400},
			expected: false,
		},
		{
			name:     "wrapped API error keeps its classification",
			err:      fmt.Errorf("calling model: %w", &openai.APIError{HTTPStatusCode: 401}),
			expected: false,
		},
		{
			name:     "plain transport error is retryable",
			err:      errors.New("connection reset by peer"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransient(tt.err))
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain content",
			input:    `{"words":[]}`,
			expected: `{"words":[]}`,
		},
		{
			name:     "json code fence",
			input:    "```json\n{\"words\":[]}\n```",
			expected: `{"words":[]}`,
		},
		{
			name:     "html code fence",
			input:    "```html\n<div>x</div>\n```",
			expected: "<div>x</div>",
		},
		{
			name:     "bare code fence",
			input:    "```\n{\"words\":[]}\n```",
			expected: `{"words":[]}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n<div>x</div>\n ",
			expected: "<div>x</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanResponse(tt.input))
		})
	}
}
