// Package finbert runs a FinBERT sequence classifier exported to ONNX.
package finbert

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"stock-insight/internal/interfaces"
)

// DefaultLabels is the output order of the finbert-tone checkpoint
var DefaultLabels = []string{"neutral", "positive", "negative"}

type Config struct {
	ModelPath   string
	VocabPath   string
	LibraryPath string   // onnxruntime shared library; empty uses the platform default
	MaxTokens   int      // sequence budget including [CLS] and [SEP]
	Labels      []string // logits order; defaults to DefaultLabels
}

// Classifier returns P(positive) - P(negative) for a text
type Classifier struct {
	session *ort.DynamicAdvancedSession
	tok     *Tokenizer
	maxLen  int
	pos     int
	neg     int
	classes int
}

var _ interfaces.SentimentClassifier = (*Classifier)(nil)

var envOnce sync.Once
var envErr error

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if ort.IsInitialized() {
			return
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// Load initializes the ONNX runtime and opens the model. It is expensive and
// meant to run once per process, usually behind sentiment.LazyClassifier.
func Load(cfg Config) (*Classifier, error) {
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	pos, neg := indexOf(labels, "positive"), indexOf(labels, "negative")
	if pos < 0 || neg < 0 {
		return nil, fmt.Errorf("labels %v must include positive and negative", labels)
	}
	if cfg.MaxTokens < 3 {
		return nil, fmt.Errorf("max tokens must be at least 3, got %d", cfg.MaxTokens)
	}

	tok, err := LoadVocab(cfg.VocabPath)
	if err != nil {
		return nil, err
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		options)
	if err != nil {
		return nil, fmt.Errorf("failed to load ONNX model: %w", err)
	}

	return &Classifier{
		session: session,
		tok:     tok,
		maxLen:  cfg.MaxTokens,
		pos:     pos,
		neg:     neg,
		classes: len(labels),
	}, nil
}

// Classify tokenizes text, truncating beyond the token budget, and runs inference
func (c *Classifier) Classify(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	enc := c.tok.Encode(text, c.maxLen)
	shape := ort.NewShape(1, int64(len(enc.InputIDs)))

	ids, err := ort.NewTensor(shape, enc.InputIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer ids.Destroy()
	mask, err := ort.NewTensor(shape, enc.AttentionMask)
	if err != nil {
		return 0, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer mask.Destroy()
	typeIDs, err := ort.NewTensor(shape, enc.TypeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typeIDs.Destroy()

	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(c.classes)))
	if err != nil {
		return 0, fmt.Errorf("failed to create logits tensor: %w", err)
	}
	defer logits.Destroy()

	if err := c.session.Run([]ort.Value{ids, mask, typeIDs}, []ort.Value{logits}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	probs := Softmax(logits.GetData())
	return probs[c.pos] - probs[c.neg], nil
}

// Close releases the session
func (c *Classifier) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

// Softmax converts logits to probabilities
func Softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	m := float64(logits[0])
	for _, l := range logits[1:] {
		m = math.Max(m, float64(l))
	}
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - m)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func indexOf(xs []string, want string) int {
	for i, x := range xs {
		if x == want {
			return i
		}
	}
	return -1
}
