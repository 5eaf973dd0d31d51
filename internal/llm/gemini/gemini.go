package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"stock-insight/internal/interfaces"
	"stock-insight/internal/store"
	"stock-insight/internal/trace"
)

const DefaultModel = "gemini-2.5-flash"

// Narrator explains analyses with the Gemini API. The client is created on
// first use so a missing key degrades narration instead of startup.
type Narrator struct {
	cfg     store.LLMConfig
	apiKey  string
	baseURL string

	once    sync.Once
	client  *genai.Client
	initErr error
}

var _ interfaces.NarrativeGenerator = (*Narrator)(nil)

type Option func(*Narrator)

// WithBaseURL overrides the Gemini endpoint
func WithBaseURL(url string) Option {
	return func(n *Narrator) { n.baseURL = url }
}

// WithAPIKey overrides GEMINI_API_KEY / GOOGLE_API_KEY
func WithAPIKey(key string) Option {
	return func(n *Narrator) { n.apiKey = key }
}

func NewNarrator(cfg store.LLMConfig, opts ...Option) *Narrator {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	n := &Narrator{cfg: cfg, apiKey: apiKey}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Narrator) init(ctx context.Context) (*genai.Client, error) {
	n.once.Do(func() {
		if n.apiKey == "" {
			n.initErr = errors.New("GEMINI_API_KEY missing")
			return
		}
		cc := &genai.ClientConfig{
			APIKey:  n.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if n.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: n.baseURL}
		}
		n.client, n.initErr = genai.NewClient(ctx, cc)
	})
	return n.client, n.initErr
}

func (n *Narrator) Explain(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	client, err := n.init(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(n.cfg.Temperature),
		MaxOutputTokens: int32(n.cfg.MaxTokens),
	}
	if n.cfg.System != "" {
		config.SystemInstruction = genai.NewContentFromText(n.cfg.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, n.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	// first candidate with text wins
	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				out.WriteString(part.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("no response generated from Gemini")
	}
	return text, nil
}
