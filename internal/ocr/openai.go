package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = openai.ChatModelGPT4o

	openAIDefaultPrompt = "Transcribe all text in this scanned page. " +
		"Output the text as markdown, preserving reading order. " +
		"Output only the transcription, nothing else."
)

// OpenAIConfig configures the OpenAI vision engine.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	Prompt     string
	Timeout    time.Duration // Default 120s
	MaxRetries int           // Transport retry attempts (default 3)
	RetryDelay time.Duration // Base delay between retries (default 2s)
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIEngine recognizes pages by sending them to an OpenAI vision
// model. It is a plain-text engine: the model returns markdown directly
// and no per-region confidence is available.
type OpenAIEngine struct {
	model      string
	prompt     string
	maxRetries int
	retryDelay time.Duration
	client     openai.Client
}

// NewOpenAIEngine creates an OpenAI vision engine.
func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = openAIDefaultPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEngine{
		model:      cfg.Model,
		prompt:     cfg.Prompt,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
	}
}

// Name returns "openai".
func (e *OpenAIEngine) Name() string { return OpenAIName }

// Structured returns false: the model returns a single markdown string.
func (e *OpenAIEngine) Structured() bool { return false }

// Reentrant returns true: the HTTP client is safe for concurrent use.
func (e *OpenAIEngine) Reentrant() bool { return true }

// Recognize sends the page image as a data URL and returns the model's
// transcription. Confidence is always absent for this engine.
func (e *OpenAIEngine) Recognize(ctx context.Context, image []byte) Recognition {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	var text string
	err := retry.Do(
		func() error {
			resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: e.model,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(e.prompt),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL: dataURL,
						}),
					}),
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("no choices in response")
			}
			text = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.maxRetries)),
		retry.Delay(e.retryDelay),
	)
	if err != nil {
		return Recognition{
			Outcome: ClassifyError(err),
			Err:     fmt.Errorf("openai recognition failed: %w", err),
		}
	}

	return Recognition{Outcome: OutcomeOK, Text: text}
}

// Verify interface
var _ Engine = (*OpenAIEngine)(nil)
