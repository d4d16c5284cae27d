package usecase

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
	"go.uber.org/zap"
)

// ProcessResult is what the conversational layer gets back for one
// utterance: resolved matches, segments that matched nothing, or a
// clarification that must go back to the user.
type ProcessResult struct {
	Intent             domain.Intent    `json:"intent"`
	Matches            []domain.Match   `json:"matches,omitempty"`
	NotFound           []string         `json:"notFound,omitempty"`
	NeedsClarification bool             `json:"needsClarification"`
	Options            []domain.Product `json:"options,omitempty"`
	Order              *domain.Order    `json:"order,omitempty"`
}

// RequestService drives the full resolution pipeline: split the
// utterance, extract entities per segment, search the catalog, resolve
// ambiguity, and apply the outcome to the customer's cart.
type RequestService struct {
	catalog        domain.CatalogProvider
	splitter       *RequestSplitter
	extractor      *EntityExtractor
	search         *SearchService
	resolver       *Resolver
	orders         *OrderService
	clarifications *ClarificationStore
	logger         *zap.SugaredLogger
}

// NewRequestService creates a new request service
func NewRequestService(
	catalog domain.CatalogProvider,
	search *SearchService,
	resolver *Resolver,
	orders *OrderService,
	logger *zap.Logger,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if search == nil {
		search = NewSearchService(SearchServiceConfig{}, nil)
	}
	return &RequestService{
		catalog:        catalog,
		splitter:       NewRequestSplitter(),
		extractor:      NewEntityExtractor(),
		search:         search,
		resolver:       resolver,
		orders:         orders,
		clarifications: NewClarificationStore(),
		logger:         logger.Sugar(),
	}
}

// Search exposes a plain catalog search to the conversational layer.
func (s *RequestService) Search(query string) []domain.SearchResult {
	return s.search.Search(query, s.catalog.Products(), SearchOptions{})
}

// ProcessRequest resolves one utterance for one customer. A pending
// clarification for the customer is answered first; otherwise the
// utterance is split and each segment runs through the pipeline.
func (s *RequestService) ProcessRequest(ctx context.Context, customerID, utterance string) (*ProcessResult, error) {
	if customerID == "" || strings.TrimSpace(utterance) == "" {
		return nil, domain.ErrInvalidRequest
	}

	if pending, ok := s.clarifications.Get(customerID); ok {
		return s.answerClarification(customerID, utterance, pending)
	}

	intent := s.extractor.ClassifyIntent(utterance)

	switch intent.Intent {
	case domain.IntentGreeting:
		return &ProcessResult{Intent: intent.Intent}, nil

	case domain.IntentFinalize:
		order, err := s.orders.Confirm(customerID)
		if err != nil {
			return nil, err
		}
		return &ProcessResult{Intent: intent.Intent, Order: order}, nil

	case domain.IntentModify:
		return s.processModify(customerID, intent)
	}

	return s.processSegments(ctx, customerID, utterance, intent.Intent)
}

// answerClarification matches the reply against the stored options. An
// unrecognized reply keeps the clarification pending and surfaces the
// options again; "cancelar" drops it.
func (s *RequestService) answerClarification(customerID, answer string, pending *domain.Clarification) (*ProcessResult, error) {
	folded := textnorm.Fold(answer)
	if strings.Contains(folded, "cancelar") || strings.Contains(folded, "ninguno") || strings.Contains(folded, "ninguna") {
		s.clarifications.Clear(customerID)
		return &ProcessResult{Intent: domain.IntentModify}, nil
	}

	product, ok := MatchOption(answer, pending.Options, s.extractor)
	if !ok {
		return &ProcessResult{
			Intent:             domain.IntentSearch,
			NeedsClarification: true,
			Options:            pending.Options,
		}, nil
	}

	s.clarifications.Clear(customerID)
	order, err := s.orders.AddItem(customerID, product, pending.Quantity)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{
		Intent: domain.IntentAddItem,
		Matches: []domain.Match{{
			Product:      product,
			Quantity:     pending.Quantity,
			Confidence:   singleCandidateConfidence,
			AutoSelected: false,
		}},
		Order: order,
	}, nil
}

func (s *RequestService) processModify(customerID string, intent domain.IntentResult) (*ProcessResult, error) {
	if intent.Entities.ProductName == "" {
		return nil, domain.ErrInvalidRequest
	}
	order, err := s.orders.RemoveItem(customerID, intent.Entities.ProductName)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Intent: domain.IntentModify, Order: order}, nil
}

// vagueQuantityRe spots quantity phrases no pattern can turn into a
// number. Only consulted when the segment carries no digit.
var vagueQuantityRe = regexp.MustCompile(`\b(?:un poco|poquito|unos cuantos|unas cuantas|varios|varias|bastantes?|hartos|hartas)\b`)

// processSegments runs the core pipeline over every sub-request of the
// utterance. Segments resolve independently; the first clarification
// stops cart mutation for that segment but the rest still resolve.
// Price and info questions resolve matches but never touch the cart.
func (s *RequestService) processSegments(ctx context.Context, customerID, utterance string, intent domain.Intent) (*ProcessResult, error) {
	catalog := s.catalog.Products()
	result := &ProcessResult{Intent: intent}
	applyToCart := intent != domain.IntentPrice && intent != domain.IntentInfo

	for _, segment := range s.splitter.Split(utterance) {
		entities := s.extractor.Extract(segment)

		query := entities.ProductName
		if query == "" {
			query = segment
		}

		candidates := s.search.Search(query, catalog, SearchOptions{})
		candidates = filterByPrice(candidates, entities)

		quantity := resolveQuantity(entities)
		if !strings.ContainsAny(segment, "0123456789") && vagueQuantityRe.MatchString(textnorm.Fold(segment)) {
			quantity = s.resolver.InterpretQuantity(ctx, segment)
		}
		resolution := s.resolver.Resolve(ctx, segment, quantity, candidates)

		switch {
		case resolution.NotFound:
			result.NotFound = append(result.NotFound, segment)

		case resolution.Clarification != nil:
			if applyToCart {
				s.clarifications.Put(customerID, resolution.Clarification)
			}
			result.NeedsClarification = true
			result.Options = resolution.Clarification.Options

		case resolution.Match != nil:
			result.Matches = append(result.Matches, *resolution.Match)
			if !applyToCart {
				continue
			}
			order, err := s.orders.AddItem(customerID, resolution.Match.Product, resolution.Match.Quantity)
			if err != nil {
				return nil, err
			}
			result.Order = order
		}
	}

	s.logger.Debugw("request processed",
		"customerId", customerID,
		"matches", len(result.Matches),
		"notFound", len(result.NotFound),
		"clarification", result.NeedsClarification)

	return result, nil
}

// filterByPrice narrows candidates to an explicit price range when the
// utterance carried one. An empty filtered set falls back to the
// unfiltered candidates rather than degrading to "not found".
func filterByPrice(candidates []domain.SearchResult, entities domain.ExtractedEntities) []domain.SearchResult {
	if !entities.HasPrice {
		return candidates
	}

	var filtered []domain.SearchResult
	for _, c := range candidates {
		if entities.MinPrice > 0 && c.Product.Price < entities.MinPrice {
			continue
		}
		if entities.MaxPrice > 0 && c.Product.Price > entities.MaxPrice {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return candidates
	}
	return filtered
}

// resolveQuantity turns the extracted (possibly fractional) quantity into
// the integer the cart needs, defaulting to 1.
func resolveQuantity(entities domain.ExtractedEntities) int {
	if !entities.HasQuantity || entities.Quantity <= 0 {
		return 1
	}
	q := int(math.Ceil(entities.Quantity))
	if q < 1 {
		q = 1
	}
	return q
}
