package usecase

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
	"go.uber.org/zap"
)

// Resolver policy defaults. A clarification is escalated to the user only
// when the candidate count reaches the minimum AND the max/min price
// ratio exceeds the spread threshold; both are configurable.
const (
	defaultPriceSpreadRatio    = 2.0
	defaultMinChoiceCandidates = 5
	defaultMaxClarifyOptions   = 4

	singleCandidateConfidence = 0.95
	rerankedConfidence        = 0.9
)

// ResolverConfig holds configuration for the ambiguity resolver
type ResolverConfig struct {
	PriceSpreadRatio    float64
	MinChoiceCandidates int
	MaxClarifyOptions   int
}

// Resolution is the outcome for one sub-request: exactly one of Match,
// Clarification or NotFound is set.
type Resolution struct {
	Match         *domain.Match
	Clarification *domain.Clarification
	NotFound      bool
}

// Resolver decides what to do with a ranked candidate list: accept,
// auto-pick, ask the language model, or surface a clarification.
type Resolver struct {
	priceSpreadRatio    float64
	minChoiceCandidates int
	maxClarifyOptions   int
	reranker            domain.Reranker
	logger              *zap.SugaredLogger
}

// NewResolver creates a new resolver. The reranker may be nil, in which
// case every ambiguous case falls through to the size/price heuristic.
func NewResolver(config ResolverConfig, reranker domain.Reranker, logger *zap.Logger) *Resolver {
	ratio := config.PriceSpreadRatio
	if ratio <= 1 {
		ratio = defaultPriceSpreadRatio
	}

	minCandidates := config.MinChoiceCandidates
	if minCandidates <= 0 {
		minCandidates = defaultMinChoiceCandidates
	}

	maxOptions := config.MaxClarifyOptions
	if maxOptions <= 0 {
		maxOptions = defaultMaxClarifyOptions
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		priceSpreadRatio:    ratio,
		minChoiceCandidates: minCandidates,
		maxClarifyOptions:   maxOptions,
		reranker:            reranker,
		logger:              logger.Sugar(),
	}
}

// Resolve maps a ranked candidate list to an outcome. quantity must
// already be a resolved integer >= 1.
func (r *Resolver) Resolve(ctx context.Context, utterance string, quantity int, candidates []domain.SearchResult) Resolution {
	if quantity < 1 {
		quantity = 1
	}

	switch {
	case len(candidates) == 0:
		return Resolution{NotFound: true}

	case len(candidates) == 1:
		return Resolution{Match: &domain.Match{
			Product:      candidates[0].Product,
			Quantity:     quantity,
			Confidence:   singleCandidateConfidence,
			AutoSelected: false,
		}}

	case len(candidates) > r.minChoiceCandidates:
		return Resolution{Clarification: r.clarification(utterance, quantity, candidates)}
	}

	if r.needsUserChoice(candidates) {
		if match := r.tryRerank(ctx, utterance, quantity, candidates); match != nil {
			return Resolution{Match: match}
		}
	}

	return Resolution{Match: r.heuristicPick(quantity, candidates)}
}

// InterpretQuantity delegates a vague quantity phrase to the language
// model; without one the quantity stays at the usual default.
func (r *Resolver) InterpretQuantity(ctx context.Context, phrase string) int {
	if r.reranker == nil {
		return 1
	}
	return r.reranker.InterpretQuantity(ctx, phrase)
}

// needsUserChoice is true only when the price spread is extreme and the
// candidate count meets the configured minimum.
func (r *Resolver) needsUserChoice(candidates []domain.SearchResult) bool {
	if len(candidates) < r.minChoiceCandidates {
		return false
	}

	minPrice, maxPrice := candidates[0].Product.Price, candidates[0].Product.Price
	for _, c := range candidates[1:] {
		if c.Product.Price < minPrice {
			minPrice = c.Product.Price
		}
		if c.Product.Price > maxPrice {
			maxPrice = c.Product.Price
		}
	}
	if minPrice <= 0 {
		return false
	}
	return maxPrice/minPrice > r.priceSpreadRatio
}

// tryRerank asks the language model to pick. Any failure, timeout or
// out-of-range answer yields nil and the caller falls back to the
// heuristic; a reranker failure is never an error.
func (r *Resolver) tryRerank(ctx context.Context, utterance string, quantity int, candidates []domain.SearchResult) *domain.Match {
	if r.reranker == nil {
		return nil
	}

	products := make([]domain.Product, len(candidates))
	for i, c := range candidates {
		products[i] = c.Product
	}

	selection, err := r.reranker.Rerank(ctx, utterance, products)
	if err != nil || selection == nil {
		r.logger.Debugw("rerank unavailable, falling back to heuristic", "error", err)
		return nil
	}
	if selection.Index < 0 || selection.Index >= len(candidates) {
		r.logger.Debugw("rerank returned out-of-range index", "index", selection.Index)
		return nil
	}

	return &domain.Match{
		Product:      candidates[selection.Index].Product,
		Quantity:     quantity,
		Confidence:   rerankedConfidence,
		AutoSelected: true,
	}
}

// heuristicPick prefers the smallest parseable package size; when no
// candidate has a parseable size it takes the lowest price.
func (r *Resolver) heuristicPick(quantity int, candidates []domain.SearchResult) *domain.Match {
	bestIdx := -1
	bestSize := 0.0
	for i, c := range candidates {
		size, ok := parsePackageSize(c.Product.Description)
		if !ok {
			continue
		}
		if bestIdx == -1 || size < bestSize {
			bestIdx = i
			bestSize = size
		}
	}

	if bestIdx == -1 {
		bestIdx = 0
		for i, c := range candidates[1:] {
			if c.Product.Price < candidates[bestIdx].Product.Price {
				bestIdx = i + 1
			}
		}
	}

	chosen := candidates[bestIdx]
	return &domain.Match{
		Product:      chosen.Product,
		Quantity:     quantity,
		Confidence:   chosen.Score,
		AutoSelected: true,
	}
}

func (r *Resolver) clarification(utterance string, quantity int, candidates []domain.SearchResult) *domain.Clarification {
	limit := r.maxClarifyOptions
	if limit > len(candidates) {
		limit = len(candidates)
	}
	options := make([]domain.Product, limit)
	for i := 0; i < limit; i++ {
		options[i] = candidates[i].Product
	}
	return &domain.Clarification{
		Utterance: utterance,
		Quantity:  quantity,
		Options:   options,
	}
}

// Package-size patterns, in grams/milliliters equivalents so sizes are
// comparable across units. Pounds approximate to 500 g, the local
// convention for "libra" in grocery listings.
var (
	packSizeRe  = regexp.MustCompile(`(\d+)\s*x\s*(\d+(?:[.,]\d+)?)\s*(kg|g|gr|l|lt|ml)?\b`)
	kgSizeRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:kg|kilos?|kilogramos?)\b`)
	lbSizeRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:lb|libras?)\b`)
	literSizeRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:litros?|lt|l)\b`)
	gramSizeRe  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:gramos?|gr|g)\b`)
	mlSizeRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:mililitros?|ml)\b`)
)

// unitFactors converts a pack unit suffix to the base magnitude.
var unitFactors = map[string]float64{
	"kg": 1000, "g": 1, "gr": 1,
	"l": 1000, "lt": 1000, "ml": 1,
}

// parsePackageSize extracts a comparable package magnitude from a product
// description: kg → ×1000 g, lb → ×500 g, l → ×1000 ml, "N x M unit"
// packs → N×M. Returns false when nothing parseable is found.
func parsePackageSize(description string) (float64, bool) {
	folded := textnorm.Fold(description)

	if m := packSizeRe.FindStringSubmatch(folded); m != nil {
		count, ok1 := parseNumber(m[1])
		each, ok2 := parseNumber(m[2])
		if ok1 && ok2 {
			factor := 1.0
			if f, ok := unitFactors[m[3]]; ok {
				factor = f
			}
			return count * each * factor, true
		}
	}
	if m := kgSizeRe.FindStringSubmatch(folded); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return n * 1000, true
		}
	}
	if m := lbSizeRe.FindStringSubmatch(folded); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return n * 500, true
		}
	}
	if m := mlSizeRe.FindStringSubmatch(folded); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return n, true
		}
	}
	if m := literSizeRe.FindStringSubmatch(folded); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return n * 1000, true
		}
	}
	if m := gramSizeRe.FindStringSubmatch(folded); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}

// ClarificationStore keeps the pending clarification per customer until
// a selection or cancellation arrives. Injected state, not a package
// global, so hosts and tests can isolate tenants.
type ClarificationStore struct {
	mu      sync.Mutex
	pending map[string]*domain.Clarification
}

// NewClarificationStore creates an empty clarification store
func NewClarificationStore() *ClarificationStore {
	return &ClarificationStore{pending: make(map[string]*domain.Clarification)}
}

// Put stores the pending clarification for a customer, replacing any
// previous one.
func (s *ClarificationStore) Put(customerID string, c *domain.Clarification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[customerID] = c
}

// Get returns the pending clarification for a customer, if any.
func (s *ClarificationStore) Get(customerID string) (*domain.Clarification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.pending[customerID]
	return c, ok
}

// Clear drops the pending clarification for a customer.
func (s *ClarificationStore) Clear(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, customerID)
}

// MatchOption resolves a clarification answer against the stored options:
// first a numeric/ordinal selection, then word-wise against the option
// descriptions. Articles and fillers in the answer ("el florhuila",
// "quiero el de diana") are ignored; every remaining word must appear in
// the description. Returns false when the answer names no option.
func MatchOption(answer string, options []domain.Product, extractor *EntityExtractor) (domain.Product, bool) {
	if idx, ok := extractor.ParseSelection(answer); ok {
		if idx >= 0 && idx < len(options) {
			return options[idx], true
		}
		return domain.Product{}, false
	}

	var words []string
	for _, w := range strings.Fields(textnorm.Normalize(answer)) {
		if fillerWords[w] || len(w) <= 2 {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return domain.Product{}, false
	}

	for _, option := range options {
		description := textnorm.Normalize(option.Description)
		all := true
		for _, w := range words {
			if !strings.Contains(description, w) {
				all = false
				break
			}
		}
		if all {
			return option, true
		}
	}
	return domain.Product{}, false
}
