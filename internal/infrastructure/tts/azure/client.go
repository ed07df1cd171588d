// Package azure provides a Synthesizer implementation using the Azure
// Speech REST endpoint.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/karuta/ankigen/internal/infrastructure/config"
)

const (
	endpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	outputFormat   = "riff-24khz-16bit-mono-pcm"
	defaultVoice   = "ja-JP-NanamiNeural"
)

// Client implements ports.Synthesizer against the Azure Speech service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	key        string
	voice      string
}

// NewClient creates a new Azure speech client.
func NewClient(cfg config.TTSConfig, timeout time.Duration) (*Client, error) {
	if cfg.Key == "" || cfg.Region == "" {
		return nil, errors.New("azure speech key and region are required")
	}
	voice := cfg.Voice
	if voice == "" {
		voice = defaultVoice
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   fmt.Sprintf(endpointFormat, cfg.Region),
		key:        cfg.Key,
		voice:      voice,
	}, nil
}

// Synthesize returns WAV audio for the given text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text to synthesize is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(c.ssml(text)))
	if err != nil {
		return nil, fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling speech service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech service returned no audio")
	}
	return audio, nil
}

// ssml wraps text in the synthesis markup the endpoint expects.
func (c *Client) ssml(text string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(text)
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='ja-JP'><voice name='%s'>%s</voice></speak>`,
		c.voice, escaped,
	)
}
