package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tiendabot/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 6 * time.Second
	defaultMaxCandidates = 15
)

// RerankerConfig holds configuration for the re-ranking adapter
type RerankerConfig struct {
	Timeout       time.Duration
	MaxCandidates int
}

// Reranker asks an external language model to pick the candidate that
// best fits an utterance. Every failure mode — timeout, transport error,
// malformed reply, out-of-range index — resolves to "no opinion"; a
// reranker can degrade but never abort the surrounding flow. A circuit
// breaker stops repeated doomed calls once the model misbehaves.
type Reranker struct {
	generator     domain.TextGenerator
	timeout       time.Duration
	maxCandidates int
	breaker       *gobreaker.CircuitBreaker
	limiter       *rate.Limiter
	logger        *zap.SugaredLogger
}

// NewReranker creates a new re-ranking adapter around a text generator.
func NewReranker(generator domain.TextGenerator, config RerankerConfig, logger *zap.Logger) *Reranker {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxCandidates := config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-reranker",
		MaxRequests: 1,                // half-open: allow a single trial call
		Timeout:     30 * time.Second, // open -> half-open after 30s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})

	// Keeps a chatty session from hammering the model endpoint.
	limiter := rate.NewLimiter(rate.Limit(2), 4)

	return &Reranker{
		generator:     generator,
		timeout:       timeout,
		maxCandidates: maxCandidates,
		breaker:       breaker,
		limiter:       limiter,
		logger:        logger.Sugar(),
	}
}

// rerankCandidate is the bounded per-product payload sent to the model.
type rerankCandidate struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Brand string  `json:"brand,omitempty"`
}

// rerankReply is the strict shape the model is asked to return.
type rerankReply struct {
	SelectedID *int   `json:"selectedId"`
	Reason     string `json:"reason"`
}

// Rerank sends the utterance plus a bounded candidate list and parses a
// structured selection. A nil *Selection with nil error means the caller
// must fall back to its own heuristic.
func (r *Reranker) Rerank(ctx context.Context, utterance string, candidates []domain.Product) (*domain.Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}

	payload := make([]rerankCandidate, len(candidates))
	for i, p := range candidates {
		payload[i] = rerankCandidate{ID: i, Name: p.Description, Price: p.Price, Brand: p.Brand}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Un cliente pidió: %q\n\nProductos disponibles:\n%s\n\n"+
			"Elige el producto que mejor corresponde al pedido. Responde SOLO con JSON estricto, "+
			"sin texto adicional: {\"selectedId\": <id>, \"reason\": \"<motivo breve>\"}",
		utterance, payloadJSON)

	reply, err := r.generate(ctx, prompt)
	if err != nil {
		r.logger.Debugw("rerank call failed", "error", err)
		return nil, nil
	}

	var parsed rerankReply
	if err := json.Unmarshal([]byte(stripFences(reply)), &parsed); err != nil {
		r.logger.Debugw("rerank reply unparseable", "reply", reply, "error", err)
		return nil, nil
	}
	if parsed.SelectedID == nil || *parsed.SelectedID < 0 || *parsed.SelectedID >= len(candidates) {
		r.logger.Debugw("rerank reply out of range", "reply", reply)
		return nil, nil
	}

	return &domain.Selection{Index: *parsed.SelectedID, Reason: parsed.Reason}, nil
}

// InterpretQuantity maps a vague quantity phrase ("un poco", "varios")
// to a number, defaulting to 1 on any failure.
func (r *Reranker) InterpretQuantity(ctx context.Context, phrase string) int {
	prompt := fmt.Sprintf(
		"¿Qué cantidad numérica representa la frase %q en un pedido de mercado? "+
			"Responde SOLO con un número entero.", phrase)

	reply, err := r.generate(ctx, prompt)
	if err != nil {
		return 1
	}

	n, err := strconv.Atoi(strings.TrimSpace(stripFences(reply)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// generate runs one model call through the rate limiter and circuit
// breaker with the configured timeout.
func (r *Reranker) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := r.breaker.Execute(func() (any, error) {
		return r.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	return result.(string), nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripFences removes a markdown code fence wrapping, which models emit
// even when asked for bare JSON.
func stripFences(reply string) string {
	if m := fenceRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}
