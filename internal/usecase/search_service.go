package usecase

import (
	"sort"
	"strings"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
	"go.uber.org/zap"
)

// Strategy score bands. Each strategy scores inside its own band so the
// merged ranking stays meaningful across strategies.
const (
	exactScore           = 1.0
	partialBaseScore     = 0.85
	partialBonusMax      = 0.10
	partialScoreCap      = 0.95
	keywordBaseScore     = 0.70
	keywordBonusPerExtra = 0.05
	keywordScoreCap      = 0.85
	fuzzyScoreFactor     = 0.7
	categoryScore        = 0.5
)

// Fuzzy strategy thresholds.
const (
	fuzzySimilarityMin  = 0.7 // per-word Levenshtein similarity floor
	fuzzyCoverageMin    = 0.6 // fraction of query words that must match
	fuzzyMinQueryLen    = 4   // query words shorter than this are skipped
	fuzzyMinProductLen  = 3   // product words shorter than this are skipped
	partialMinWordLen   = 3   // partial strategy ignores shorter query words
	partialSubstringLen = 4   // minimum query-word length for substring credit
)

const (
	defaultMaxResults = 10
	defaultMinScore   = 0.3
)

// SearchOptions tunes a single search call. Zero values fall back to the
// service-level defaults.
type SearchOptions struct {
	MaxResults      int
	MinScore        float64
	IncludeCategory bool
}

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	MaxResults int
	MinScore   float64
}

// SearchService scores catalog entries against a free-text query using
// five independent strategies and merges the results.
type SearchService struct {
	maxResults int
	minScore   float64
	logger     *zap.SugaredLogger
}

// NewSearchService creates a new search service with the given configuration
func NewSearchService(config SearchServiceConfig, logger *zap.Logger) *SearchService {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	minScore := config.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &SearchService{
		maxResults: maxResults,
		minScore:   minScore,
		logger:     logger.Sugar(),
	}
}

// scoredHit is one strategy's verdict on one catalog entry. The catalog
// index is kept for stable tie-breaking.
type scoredHit struct {
	index     int
	score     float64
	matchType domain.MatchType
}

// Search runs every strategy over the catalog, deduplicates by product
// description keeping the highest score, and returns results sorted by
// descending score (ties broken by catalog order), filtered to the
// minimum score and truncated to the result limit.
func (s *SearchService) Search(query string, catalog []domain.Product, opts SearchOptions) []domain.SearchResult {
	normalizedQuery := textnorm.Normalize(query)
	if normalizedQuery == "" || len(catalog) == 0 {
		return nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = s.minScore
	}

	var hits []scoredHit
	hits = append(hits, s.exactStrategy(normalizedQuery, catalog)...)
	hits = append(hits, s.partialStrategy(normalizedQuery, catalog)...)
	hits = append(hits, s.keywordStrategy(normalizedQuery, catalog)...)
	hits = append(hits, s.fuzzyStrategy(normalizedQuery, catalog)...)
	if opts.IncludeCategory {
		hits = append(hits, s.categoryStrategy(normalizedQuery, catalog)...)
	}

	results := s.merge(hits, catalog, minScore, maxResults)

	s.logger.Debugw("search completed",
		"query", query,
		"catalogSize", len(catalog),
		"rawHits", len(hits),
		"results", len(results))

	return results
}

// exactStrategy: normalized query equals normalized description.
func (s *SearchService) exactStrategy(query string, catalog []domain.Product) []scoredHit {
	var hits []scoredHit
	for i, p := range catalog {
		if textnorm.Normalize(p.Description) == query {
			hits = append(hits, scoredHit{i, exactScore, domain.MatchExact})
		}
	}
	return hits
}

// partialStrategy requires every query word (length > partialMinWordLen-1)
// to be present in the description, either as an exact word or as a
// substring of a product word. AND semantics: one missing word excludes
// the product.
func (s *SearchService) partialStrategy(query string, catalog []domain.Product) []scoredHit {
	queryWords := wordsLongerThan(query, partialMinWordLen-1)
	if len(queryWords) == 0 {
		return nil
	}

	var hits []scoredHit
	for i, p := range catalog {
		productWords := strings.Fields(textnorm.Normalize(p.Description))
		if len(productWords) == 0 {
			continue
		}

		totalWeight := 0.0
		allFound := true
		for _, qw := range queryWords {
			weight, found := partialWordWeight(qw, productWords)
			if !found {
				allFound = false
				break
			}
			totalWeight += weight
		}
		if !allFound {
			continue
		}

		relevance := totalWeight / float64(len(queryWords))
		score := partialBaseScore + partialBonusMax*relevance
		if score > partialScoreCap {
			score = partialScoreCap
		}
		hits = append(hits, scoredHit{i, score, domain.MatchPartial})
	}
	return hits
}

// partialWordWeight reports whether a query word is found among the
// product words. Exact word matches get full weight; substring matches
// in either direction get half weight and only count when the contained
// word has length >= 4. The query word is also tried in singular form so
// "arroces" finds "arroz".
func partialWordWeight(queryWord string, productWords []string) (float64, bool) {
	for _, candidate := range []string{queryWord, textnorm.Singularize(queryWord)} {
		for _, pw := range productWords {
			if pw == candidate {
				return 1.0, true
			}
		}
	}
	for _, pw := range productWords {
		if len(queryWord) >= partialSubstringLen && strings.Contains(pw, queryWord) {
			return 0.5, true
		}
		if len(pw) >= partialSubstringLen && strings.Contains(queryWord, pw) {
			return 0.5, true
		}
	}
	return 0, false
}

// keywordStrategy matches the query against each product's precomputed
// keyword set, substring in either direction.
func (s *SearchService) keywordStrategy(query string, catalog []domain.Product) []scoredHit {
	var hits []scoredHit
	for i, p := range catalog {
		matches := 0
		for _, kw := range p.Keywords {
			normalized := textnorm.Normalize(kw)
			if normalized == "" {
				continue
			}
			if strings.Contains(normalized, query) || strings.Contains(query, normalized) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := keywordBaseScore + keywordBonusPerExtra*float64(matches-1)
		if score > keywordScoreCap {
			score = keywordScoreCap
		}
		hits = append(hits, scoredHit{i, score, domain.MatchKeyword})
	}
	return hits
}

// fuzzyStrategy tolerates typos: each query word of length >= 4 is
// matched to its most similar product word by Levenshtein similarity.
// At least 60% of the query words must clear the similarity floor.
func (s *SearchService) fuzzyStrategy(query string, catalog []domain.Product) []scoredHit {
	queryWords := wordsLongerThan(query, fuzzyMinQueryLen-1)
	if len(queryWords) == 0 {
		return nil
	}

	var hits []scoredHit
	for i, p := range catalog {
		productWords := wordsLongerThan(textnorm.Normalize(p.Description), fuzzyMinProductLen-1)
		if len(productWords) == 0 {
			continue
		}

		matched := 0
		similaritySum := 0.0
		for _, qw := range queryWords {
			singular := textnorm.Singularize(qw)
			best := 0.0
			for _, pw := range productWords {
				if sim := levenshteinSimilarity(qw, pw); sim > best {
					best = sim
				}
				if singular != qw {
					if sim := levenshteinSimilarity(singular, pw); sim > best {
						best = sim
					}
				}
			}
			if best > fuzzySimilarityMin {
				matched++
				similaritySum += best
			}
		}

		if matched == 0 {
			continue
		}
		coverage := float64(matched) / float64(len(queryWords))
		if coverage < fuzzyCoverageMin {
			continue
		}

		meanSimilarity := similaritySum / float64(matched)
		hits = append(hits, scoredHit{i, meanSimilarity * fuzzyScoreFactor, domain.MatchFuzzy})
	}
	return hits
}

// categoryStrategy: flat score when the query and the category name
// contain each other, only run when requested.
func (s *SearchService) categoryStrategy(query string, catalog []domain.Product) []scoredHit {
	var hits []scoredHit
	for i, p := range catalog {
		category := textnorm.Normalize(p.Category)
		if category == "" {
			continue
		}
		if strings.Contains(category, query) || strings.Contains(query, category) {
			hits = append(hits, scoredHit{i, categoryScore, domain.MatchCategory})
		}
	}
	return hits
}

// merge deduplicates by product description keeping the highest score
// seen across strategies, then sorts, filters and truncates.
func (s *SearchService) merge(hits []scoredHit, catalog []domain.Product, minScore float64, maxResults int) []domain.SearchResult {
	type best struct {
		hit scoredHit
	}
	byDescription := make(map[string]*best)
	for _, h := range hits {
		key := catalog[h.index].Description
		cur, ok := byDescription[key]
		if !ok || h.score > cur.hit.score || (h.score == cur.hit.score && h.index < cur.hit.index) {
			byDescription[key] = &best{hit: h}
		}
	}

	merged := make([]scoredHit, 0, len(byDescription))
	for _, b := range byDescription {
		if b.hit.score >= minScore {
			merged = append(merged, b.hit)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].index < merged[j].index
	})

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}

	results := make([]domain.SearchResult, len(merged))
	for i, h := range merged {
		results[i] = domain.SearchResult{
			Product:   catalog[h.index],
			Score:     h.score,
			MatchType: h.matchType,
		}
	}
	return results
}

// Suggestions returns raw catalog words matching a query too short for a
// full search. The words come from product descriptions, not the full
// product names.
func (s *SearchService) Suggestions(query string, catalog []domain.Product, limit int) []string {
	normalized := textnorm.Normalize(query)
	if normalized == "" || limit <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	var suggestions []string
	for _, p := range catalog {
		for _, word := range strings.Fields(textnorm.Normalize(p.Description)) {
			if len(word) <= len(normalized) || !strings.HasPrefix(word, normalized) {
				continue
			}
			if seen[word] {
				continue
			}
			seen[word] = true
			suggestions = append(suggestions, word)
			if len(suggestions) >= limit {
				return suggestions
			}
		}
	}
	return suggestions
}

// ByBrand filters the catalog to products of a brand. A plain filter,
// not a scored search.
func (s *SearchService) ByBrand(brand string, catalog []domain.Product) []domain.Product {
	normalized := textnorm.Normalize(brand)
	if normalized == "" {
		return nil
	}
	var products []domain.Product
	for _, p := range catalog {
		if strings.Contains(textnorm.Normalize(p.Brand), normalized) || strings.Contains(textnorm.Normalize(p.Description), normalized) {
			products = append(products, p)
		}
	}
	return products
}

// ByBarcode looks a product up by its exact barcode.
func (s *SearchService) ByBarcode(barcode string, catalog []domain.Product) (domain.Product, bool) {
	code := strings.TrimSpace(barcode)
	if code == "" {
		return domain.Product{}, false
	}
	for _, p := range catalog {
		if p.Barcode == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Categories lists the distinct non-empty categories in catalog order.
func (s *SearchService) Categories(catalog []domain.Product) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range catalog {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories
}

// wordsLongerThan splits normalized text into words strictly longer than n.
func wordsLongerThan(text string, n int) []string {
	var words []string
	for _, w := range strings.Fields(text) {
		if len(w) > n {
			words = append(words, w)
		}
	}
	return words
}

// levenshteinSimilarity maps edit distance into [0,1]: identical strings
// score 1, fully different strings score 0.
func levenshteinSimilarity(s1, s2 string) float64 {
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(s1, s2))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of the full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
