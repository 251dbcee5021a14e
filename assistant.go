package multipal

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Assistant answers support questions about the app. Implementations are
// stateless: no conversation memory is kept beyond what the caller resends.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

const assistantSystemPrompt = `You are a helpful and friendly support assistant for the 'Multipal' app cloner.
Your goal is to answer user questions about the app's features, limitations, and usage.
Be concise and clear. Only talk about the features of this specific app.
Known features include: app cloning, isolated data storage for each clone, separate notifications, custom naming for clones, automatic cloud backup of the clone list, and restore from a previous backup.
Known limitations: some apps like banking or DRM-protected apps might not work when cloned due to their own security measures, and the app warns users about this before cloning. The app does not and will not bypass these security measures.`

// AnthropicAssistant answers questions with a Claude model.
type AnthropicAssistant struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicAssistant creates an assistant backed by the Anthropic API.
func NewAnthropicAssistant(apiKey, model string) *AnthropicAssistant {
	return &AnthropicAssistant{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Ask implements Assistant.
func (a *AnthropicAssistant) Ask(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: assistantSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &SyncError{Operation: "assistant", Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// MockAssistant returns a canned response with artificial latency. It is the
// transparent fallback when no API key is configured.
type MockAssistant struct {
	Latency time.Duration
}

// Ask implements Assistant.
func (m *MockAssistant) Ask(ctx context.Context, prompt string) (string, error) {
	latency := m.Latency
	if latency == 0 {
		latency = 300 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(latency):
	}
	return "This is a mock response. To use the AI assistant, please provide a valid API key. You asked: '" + prompt + "'", nil
}

// NewAssistant selects the Anthropic-backed assistant when an API key is
// configured, falling back to the mock.
func NewAssistant(cfg Config) Assistant {
	if cfg.AnthropicAPIKey == "" {
		return &MockAssistant{}
	}
	return NewAnthropicAssistant(cfg.AnthropicAPIKey, cfg.AssistantModel)
}
