// Package aiclient talks to an OpenAI-compatible chat-completions service
// that turns source text into flashcards.
package aiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/metrics"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// CardsPerRequest is how many flashcards the model is asked for.
const CardsPerRequest = 5

const breakerName = "ai-service"

const instruction = "\n\nBased on the following content, generate exactly 5 flashcards in the following JSON format. " +
	"Each flashcard should have a question and a detailed answer. Return ONLY the JSON array, no additional text:\n" +
	`[{"question": "Your question here?", "answer": "Your detailed answer here"}, ...]`

// maxReplyBytes bounds how much of an upstream reply is read.
const maxReplyBytes = 4 << 20

var (
	ErrNoChoices  = errors.New("ai service returned no choices")
	ErrNoCards    = errors.New("ai reply contained no flashcards")
	ErrBadReply   = errors.New("ai reply is not a JSON array of flashcards")
	errStatusCode = errors.New("ai service returned unexpected status")
)

// CardGenerator produces question/answer drafts from free text.
type CardGenerator interface {
	GenerateCards(ctx context.Context, sourceText string) ([]models.CardDraft, error)
}

type Options struct {
	URL     string
	Token   string
	Model   string
	Timeout time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Defaults to 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Defaults to 30s.
	OpenTimeout time.Duration
}

type Client struct {
	url   string
	token string
	model string
	http  *http.Client
	cb    *gobreaker.CircuitBreaker[[]models.CardDraft]
	log   logging.Logger
}

func New(opts Options, log logging.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	c := &Client{
		url:   opts.URL,
		token: opts.Token,
		model: opts.Model,
		http:  httpClient,
		log:   log.With("component", breakerName),
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	c.cb = gobreaker.NewCircuitBreaker[[]models.CardDraft](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// a caller giving up is not the upstream's fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn(context.Background(), "circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateCards asks the model for flashcards about sourceText. At most
// CardsPerRequest non-blank drafts are returned.
func (c *Client) GenerateCards(ctx context.Context, sourceText string) ([]models.CardDraft, error) {
	drafts, err := c.cb.Execute(func() ([]models.CardDraft, error) {
		return c.generate(ctx, sourceText)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return drafts, nil
}

func (c *Client) generate(ctx context.Context, sourceText string) ([]models.CardDraft, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: sourceText + instruction}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errStatusCode, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return ParseFlashcards(chat.Choices[0].Message.Content)
}

// ParseFlashcards extracts the outermost JSON array from a model reply,
// tolerating prose or code fences around it.
func ParseFlashcards(content string) ([]models.CardDraft, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, ErrBadReply
	}

	var cards []flashcard
	if err := json.Unmarshal([]byte(content[start:end+1]), &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}

	drafts := make([]models.CardDraft, 0, len(cards))
	for _, fc := range cards {
		q, a := strings.TrimSpace(fc.Question), strings.TrimSpace(fc.Answer)
		if q == "" || a == "" {
			continue
		}
		drafts = append(drafts, models.CardDraft{Question: q, Answer: a})
		if len(drafts) == CardsPerRequest {
			break
		}
	}
	if len(drafts) == 0 {
		return nil, ErrNoCards
	}

	return drafts, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
