package integrations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/julianshen/docgen/internal/docgen"
)

// ErrEmptyAnswer is returned when the model produced no text.
var ErrEmptyAnswer = errors.New("gemini: empty answer")

// ErrConversationClosed is returned by Ask after Close.
var ErrConversationClosed = errors.New("gemini: conversation closed")

// ContentGenerator is the subset of genai.Models used by GeminiAssistant.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures a GeminiAssistant.
type GeminiConfig struct {
	APIKey        string
	Model         string
	RetryInterval time.Duration // fixed delay between failed calls
	MaxAttempts   int           // used when Ask gets maxAttempts <= 0
}

// GeminiAssistant answers questions with a Gemini model. Each conversation
// keeps its own turn history.
type GeminiAssistant struct {
	models ContentGenerator
	cfg    GeminiConfig
}

// NewGeminiAssistant creates a genai client for the Gemini API.
func NewGeminiAssistant(ctx context.Context, cfg GeminiConfig) (*GeminiAssistant, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return NewGeminiAssistantWithGenerator(cli.Models, cfg), nil
}

// NewGeminiAssistantWithGenerator uses models for all calls.
func NewGeminiAssistantWithGenerator(models ContentGenerator, cfg GeminiConfig) *GeminiAssistant {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &GeminiAssistant{models: models, cfg: cfg}
}

// NewConversation starts an empty conversation.
func (a *GeminiAssistant) NewConversation() docgen.Conversation {
	return &geminiConversation{assistant: a}
}

type geminiConversation struct {
	assistant *GeminiAssistant

	mu      sync.Mutex
	history []*genai.Content
	closed  bool
}

// Ask sends message with the previous turns. Failed calls are retried up to
// maxAttempts times in total.
func (c *geminiConversation) Ask(ctx context.Context, message string, maxAttempts int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrConversationClosed
	}
	cfg := c.assistant.cfg
	if maxAttempts <= 0 {
		maxAttempts = cfg.MaxAttempts
	}

	contents := append(append([]*genai.Content(nil), c.history...), genai.NewContentFromText(message, genai.RoleUser))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		answer, err := c.generate(ctx, contents)
		if err == nil {
			c.history = append(contents, genai.NewContentFromText(answer, genai.RoleModel))
			return answer, nil
		}
		lastErr = err
		log.Printf("WARNING: gemini attempt %d/%d failed: %v", attempt, maxAttempts, err)

		if attempt < maxAttempts {
			if err := wait(ctx, cfg.RetryInterval); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("gemini: %d attempts failed: %w", maxAttempts, lastErr)
}

func (c *geminiConversation) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := c.assistant.models.GenerateContent(ctx, c.assistant.cfg.Model, contents, nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyAnswer
	}
	var parts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			parts = append(parts, p.Text)
		}
	}
	answer := strings.Join(parts, "")
	if strings.TrimSpace(answer) == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// Close drops the history; the API keeps no server-side session.
func (c *geminiConversation) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.history = nil
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
