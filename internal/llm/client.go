// Package llm generates candidate puzzle groups with an LLM provider.
//
// The package owns prompt construction and response parsing; the provider
// call is behind the small Provider interface so tests and alternative
// backends can substitute it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/quadra-game/quadra/internal/telemetry"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 60 * time.Second
	maxTokens      = 4096
)

// errAPIKeyRequired is returned when an API key is needed but not provided.
var errAPIKeyRequired = errors.New("API key required")

// Provider is the abstract LLM completion contract the generator consumes.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnthropicClient wraps the Anthropic API for group generation.
type AnthropicClient struct {
	client         anthropic.Client
	model          anthropic.Model
	maxRetries     int
	initialBackoff time.Duration
}

// NewAnthropicClient creates a provider client. Env var ANTHROPIC_API_KEY
// takes precedence over the explicit apiKey.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or configure llm-api-key", errAPIKeyRequired)
	}
	if model == "" {
		model = DefaultModel
	}

	llmMetricsOnce.Do(initLLMMetrics)

	return &AnthropicClient{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.Model(model),
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// llmMetrics holds lazily-initialized OTel instruments for provider calls.
var llmMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var llmMetricsOnce sync.Once

func initLLMMetrics() {
	m := telemetry.Meter("github.com/quadra-game/quadra/llm")
	llmMetrics.inputTokens, _ = m.Int64Counter("quadra.llm.input_tokens",
		metric.WithDescription("LLM input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	llmMetrics.outputTokens, _ = m.Int64Counter("quadra.llm.output_tokens",
		metric.WithDescription("LLM output tokens generated"),
		metric.WithUnit("{token}"),
	)
	llmMetrics.duration, _ = m.Float64Histogram("quadra.llm.request.duration",
		metric.WithDescription("LLM request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// Complete sends one prompt and returns the text of the first content block.
// Transient failures (timeouts, 429, 5xx) are retried with exponential
// backoff up to maxRetries.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	tracer := telemetry.Tracer("github.com/quadra-game/quadra/llm")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("quadra.llm.model", string(c.model)),
		attribute.String("quadra.llm.operation", "generate-groups"),
	)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(c.initialBackoff),
		), uint64(c.maxRetries)), ctx)

	var text string
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		t0 := time.Now()
		message, err := c.client.Messages.New(callCtx, params)
		ms := float64(time.Since(t0).Milliseconds())

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !isRetryable(err) {
				return backoff.Permanent(fmt.Errorf("non-retryable error: %w", err))
			}
			return err
		}

		modelAttr := attribute.String("quadra.llm.model", string(c.model))
		if llmMetrics.inputTokens != nil {
			llmMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
			llmMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
			llmMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
		}
		span.SetAttributes(
			attribute.Int64("quadra.llm.input_tokens", message.Usage.InputTokens),
			attribute.Int64("quadra.llm.output_tokens", message.Usage.OutputTokens),
		)

		if len(message.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("unexpected response format: no content blocks"))
		}
		content := message.Content[0]
		if content.Type != "text" {
			return backoff.Permanent(fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type))
		}
		text = content.Text
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A per-request deadline is a transient timeout; ambient cancellation is
	// caught by the caller before classification.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}

var _ Provider = (*AnthropicClient)(nil)
