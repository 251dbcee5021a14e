package multipal

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMockAssistantEchoesQuestion(t *testing.T) {
	assistant := &MockAssistant{Latency: time.Millisecond}

	answer, err := assistant.Ask(context.Background(), "Can I clone SecureBank?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(answer, "Can I clone SecureBank?") {
		t.Errorf("expected answer to reference the question, got %q", answer)
	}
}

func TestMockAssistantHonorsContext(t *testing.T) {
	assistant := &MockAssistant{Latency: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := assistant.Ask(ctx, "hello"); err == nil {
		t.Error("expected context error")
	}
}

func TestNewAssistantSelection(t *testing.T) {
	if _, ok := NewAssistant(Config{}).(*MockAssistant); !ok {
		t.Error("expected mock assistant without an API key")
	}
	if _, ok := NewAssistant(Config{AnthropicAPIKey: "sk-test"}).(*AnthropicAssistant); !ok {
		t.Error("expected real assistant with an API key")
	}
}
