// Package openrouter provides an AnalysisClient implementation backed by
// the OpenRouter chat-completions endpoint.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/ports"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

const extractionPrompt = `You are a Japanese language tutor. Analyze the following Japanese text and extract every word and grammar point.

For words:
- Convert each word to its dictionary form
- Provide the kana reading
- Provide the pitch accent as a digit string (0-9)
- Tag the part of speech precisely

Part-of-speech tagging rules:
- Verbs must be tagged transitive ("他动词") or intransitive ("自动词"), never just "verb"; a verb that is both gets both tags
- Adjectives are split into i-adjectives ("一类形容词") and na-adjectives ("二类形容词")
- Use Simplified Chinese labels throughout: 名词, 自动词, 他动词, 一类形容词, 二类形容词, 副词, 连词, 助词, 感叹词

For grammar points:
- Identify grammatical structures and set expressions
- Provide the kana reading

Return ONLY a valid JSON object in exactly this shape, no other text:
{
  "words": [
    {"word": "dictionary form", "kana": "かな", "pitch": "0", "part_of_speech": ["名词"]}
  ],
  "grammar": [
    {"grammar": "pattern", "kana": "かな"}
  ]
}

Text to analyze:
%s`

const wordAnalysisPrompt = `You are a Japanese language tutor writing flashcard backs. Explain the usage of this Japanese word in Simplified Chinese, as plain HTML.

Word: %s
Kana: %s
Pitch: %s
Part of speech: %s

Structure the explanation as <div> blocks separated by <hr>: core meaning first, then each major usage with example sentences, then nuance notes, and finally contrasts with near-synonyms.

Rules:
1. Reply with the HTML content directly, without markdown code fences
2. Use <b></b> for emphasis, never ** markers
3. If the word has several parts of speech, cover all of them
4. Do not repeat boilerplate headings`

const grammarAnalysisPrompt = `You are a Japanese language tutor writing flashcard backs. Explain this Japanese grammar point in detail, in Simplified Chinese.

Grammar: %s
Kana: %s

Cover:
1. Meaning and grammatical function
2. Register and typical contexts
3. Conjugation/attachment rules (what precedes and follows it)
4. Example sentences with notes on pitfalls
5. Differences from similar grammar points

Reply with the explanation text only, no JSON.`

const partOfSpeechPrompt = `Re-examine the part of speech of this Japanese word and return only the corrected tags.

Word: %s
Kana: %s
Pitch: %s

Tagging rules:
- Verbs must be tagged "自动词" or "他动词", never just "动词"; a verb that is both gets both tags
- Adjectives are "一类形容词" or "二类形容词"
- Use Simplified Chinese labels: 名词, 自动词, 他动词, 一类形容词, 二类形容词, 副词, 连词, 助词, 感叹词

Return ONLY a valid JSON object in exactly this shape, no other text:
{"part_of_speech": ["tag1", "tag2"]}`

const (
	analysisMaxTokens   = 8192
	extractionMaxTokens = 32768
	requestTemperature  = 0.1
)

// Client implements ports.AnalysisClient against OpenRouter.
type Client struct {
	client     *openai.Client
	cfg        config.LLMConfig
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a new OpenRouter analysis client.
func NewClient(cfg config.LLMConfig, proc config.ProcessingConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:     openai.NewClientWithConfig(clientCfg),
		cfg:        cfg,
		timeout:    proc.RequestTimeout(),
		maxRetries: proc.MaxRetries,
		retryDelay: proc.RequestDelay(),
		logger:     logger,
	}, nil
}

// Extract segments raw text into word and grammar candidates.
func (c *Client) Extract(ctx context.Context, text string) (*entities.Extraction, error) {
	prompt := fmt.Sprintf(extractionPrompt, text)

	content, err := c.complete(ctx, c.cfg.ExtractionModel, prompt, extractionMaxTokens)
	if err != nil {
		return nil, err
	}

	var extraction entities.Extraction
	if err := json.Unmarshal([]byte(sliceJSONObject(content)), &extraction); err != nil {
		return nil, fmt.Errorf("%w: parsing extraction: %v", ports.ErrResponseMalformed, err)
	}

	for _, w := range extraction.Words {
		if w.Word == "" {
			return nil, fmt.Errorf("%w: extraction contains a word with empty surface", ports.ErrResponseMalformed)
		}
	}
	for _, g := range extraction.Grammar {
		if g.Grammar == "" {
			return nil, fmt.Errorf("%w: extraction contains a grammar point with empty pattern", ports.ErrResponseMalformed)
		}
	}

	return &extraction, nil
}

// AnalyzeWord returns the free-text analysis for a word candidate.
func (c *Client) AnalyzeWord(ctx context.Context, word entities.WordCandidate) (string, error) {
	prompt := fmt.Sprintf(wordAnalysisPrompt,
		word.Word, word.Kana, word.Pitch, strings.Join(word.PartOfSpeech, "、"))

	content, err := c.complete(ctx, c.cfg.WordModel, prompt, analysisMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// AnalyzeGrammar returns the free-text analysis for a grammar candidate.
func (c *Client) AnalyzeGrammar(ctx context.Context, grammar entities.GrammarCandidate) (string, error) {
	prompt := fmt.Sprintf(grammarAnalysisPrompt, grammar.Grammar, grammar.Kana)

	content, err := c.complete(ctx, c.cfg.GrammarModel, prompt, analysisMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// PartOfSpeech re-derives the part-of-speech labels for a word.
func (c *Client) PartOfSpeech(ctx context.Context, word entities.WordCandidate) ([]string, error) {
	prompt := fmt.Sprintf(partOfSpeechPrompt, word.Word, word.Kana, word.Pitch)

	content, err := c.complete(ctx, c.cfg.WordModel, prompt, analysisMaxTokens)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		PartOfSpeech []string `json:"part_of_speech"`
	}
	if err := json.Unmarshal([]byte(sliceJSONObject(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing part of speech: %v", ports.ErrResponseMalformed, err)
	}
	if len(parsed.PartOfSpeech) == 0 {
		return nil, fmt.Errorf("%w: no part-of-speech tags in response", ports.ErrResponseMalformed)
	}
	return parsed.PartOfSpeech, nil
}

// complete issues one chat completion with a bounded retry loop.
// Transient failures are retried up to maxRetries total attempts with a
// flat inter-attempt delay; anything else is returned as-is.
func (c *Client) complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying model call",
				"model", model,
				"attempt", attempt,
				"max_attempts", c.maxRetries,
				"error", lastErr)
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			}
		}

		content, err := c.completeOnce(ctx, model, prompt, maxTokens)
		if err == nil {
			return content, nil
		}
		if !isTransient(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ports.ErrRetryExhausted, c.maxRetries, lastErr)
}

// completeOnce issues a single request under the per-request timeout.
func (c *Client) completeOnce(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: requestTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("calling model %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from model %s", model)
	}

	return cleanResponse(resp.Choices[0].Message.Content), nil
}

// isTransient classifies failures the remote may recover from on retry:
// transport errors, timeouts, rate limiting and server-side conditions.
// Caller cancellation and client-side request errors are not retried.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 408, apiErr.HTTPStatusCode == 429:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// go-openai wraps transport failures without a typed error; treat
	// anything that is not an API-level rejection as network trouble.
	return true
}

// cleanResponse removes markdown code fences if present.
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```html") {
		content = strings.TrimPrefix(content, "```html")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}

// sliceJSONObject narrows content to its outermost JSON object, tolerating
// models that wrap the payload in prose.
func sliceJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
