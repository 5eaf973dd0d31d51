package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/store"
	"stock-insight/internal/trace"
)

// DefaultModel is used when llm.model is empty
const DefaultModel = "claude-sonnet-4-5"

// Narrator explains analyses with the Anthropic Messages API
type Narrator struct {
	cfg    store.LLMConfig
	apiKey string
	client anthropic.Client
}

var _ interfaces.NarrativeGenerator = (*Narrator)(nil)

// NewNarrator reads CLAUDE_API_KEY (or ANTHROPIC_API_KEY). CLAUDE_API_ENDPOINT
// points the client at a proxy. A missing key surfaces on the first Explain.
func NewNarrator(cfg store.LLMConfig, opts ...option.RequestOption) *Narrator {
	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		base = append(base, option.WithBaseURL(ep))
	}
	return &Narrator{
		cfg:    cfg,
		apiKey: apiKey,
		client: anthropic.NewClient(append(base, opts...)...),
	}
}

func (n *Narrator) Explain(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if n.apiKey == "" {
		return "", errors.New("CLAUDE_API_KEY missing")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(n.cfg.Model),
		MaxTokens: int64(n.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(n.cfg.Temperature)),
	}
	if n.cfg.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: n.cfg.System}}
	}

	resp, err := n.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", errors.New("empty response from Claude API")
	}
	return out, nil
}
