package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/store"
	"stock-insight/internal/trace"
)

const DefaultModel = "gpt-4o-mini"

type Narrator struct {
	cfg    store.LLMConfig
	apiKey string
	client openai.Client
}

var _ interfaces.NarrativeGenerator = (*Narrator)(nil)

// NewNarrator reads OPENAI_API_KEY; a missing key surfaces on the first Explain
func NewNarrator(cfg store.LLMConfig, opts ...option.RequestOption) *Narrator {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Narrator{
		cfg:    cfg,
		apiKey: apiKey,
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

func (n *Narrator) Explain(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if n.apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if n.cfg.System != "" {
		messages = append(messages, openai.SystemMessage(n.cfg.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(n.cfg.Model),
		Messages:            messages,
		Temperature:         openai.Float(float64(n.cfg.Temperature)),
		MaxCompletionTokens: openai.Int(int64(n.cfg.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty response from OpenAI API")
	}
	return out, nil
}
