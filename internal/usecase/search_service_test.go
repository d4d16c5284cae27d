package usecase

import (
	"testing"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
)

func testCatalog() []domain.Product {
	return []domain.Product{
		{Description: "ARROZ DIANA 500G", Price: 2800, Category: "Granos", Keywords: []string{"arroz", "diana"}},
		{Description: "ARROZ DIANA 1KG", Price: 5200, Category: "Granos", Keywords: []string{"arroz", "diana"}},
		{Description: "ARROZ ROA 500G", Price: 2600, Category: "Granos", Keywords: []string{"arroz", "roa"}},
		{Description: "ACEITE GIRASOL 1L", Price: 12000, Category: "Aceites", Keywords: []string{"aceite", "girasol"}},
		{Description: "LECHE ALPINA 1L", Price: 4500, Category: "Lacteos", Keywords: []string{"leche", "alpina"}},
		{Description: "PANELA 500G", Price: 3200, Category: "Endulzantes", Keywords: []string{"panela"}},
	}
}

func TestNewSearchService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		svc := NewSearchService(SearchServiceConfig{}, nil)
		if svc.maxResults != defaultMaxResults {
			t.Errorf("maxResults = %v, want %v", svc.maxResults, defaultMaxResults)
		}
		if svc.minScore != defaultMinScore {
			t.Errorf("minScore = %v, want %v", svc.minScore, defaultMinScore)
		}
	})

	t.Run("keeps provided config", func(t *testing.T) {
		svc := NewSearchService(SearchServiceConfig{MaxResults: 5, MinScore: 0.5}, nil)
		if svc.maxResults != 5 || svc.minScore != 0.5 {
			t.Errorf("config not applied: %v / %v", svc.maxResults, svc.minScore)
		}
	})
}

func TestSearchExact(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	results := svc.Search("arroz diana 500g", testCatalog(), SearchOptions{})
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", results[0].Score)
	}
	if results[0].MatchType != domain.MatchExact {
		t.Errorf("match type = %v, want exact", results[0].MatchType)
	}
	if results[0].Product.Description != "ARROZ DIANA 500G" {
		t.Errorf("product = %q", results[0].Product.Description)
	}
}

func TestSearchPartialANDSemantics(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	// The catalog product carries "leche" and "alpina" but not
	// "deslactosada": the partial strategy must exclude it entirely.
	hits := svc.partialStrategy(textnorm.Normalize("leche alpina deslactosada"), testCatalog())
	if len(hits) != 0 {
		t.Errorf("partial hits = %d, want 0 (AND semantics)", len(hits))
	}

	// With every word present it qualifies.
	hits = svc.partialStrategy(textnorm.Normalize("leche alpina"), testCatalog())
	if len(hits) != 1 {
		t.Fatalf("partial hits = %d, want 1", len(hits))
	}
	if hits[0].score < partialBaseScore || hits[0].score > partialScoreCap {
		t.Errorf("partial score = %v, want within [%v, %v]", hits[0].score, partialBaseScore, partialScoreCap)
	}
}

func TestSearchFuzzyTypo(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)
	catalog := []domain.Product{{Description: "ARROZ DIANA 500G", Price: 2800}}

	results := svc.Search("arros diana", catalog, SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("results = %d, want exactly 1", len(results))
	}
	if results[0].MatchType != domain.MatchFuzzy {
		t.Errorf("match type = %v, want fuzzy", results[0].MatchType)
	}
	if results[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", results[0].Score)
	}
}

func TestSearchPluralQuery(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	results := svc.Search("arroces", testCatalog(), SearchOptions{})
	if len(results) < 3 {
		t.Fatalf("results = %d, want the three rice products", len(results))
	}
	for _, r := range results[:3] {
		if textnorm.Normalize(r.Product.Description)[:5] != "arroz" {
			t.Errorf("unexpected product %q", r.Product.Description)
		}
	}
}

func TestSearchOrderingAndDedup(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	results := svc.Search("arroz diana", testCatalog(), SearchOptions{})
	if len(results) == 0 {
		t.Fatal("no results")
	}

	seen := make(map[string]bool)
	for i, r := range results {
		if i > 0 && results[i-1].Score < r.Score {
			t.Errorf("results not sorted: %v before %v", results[i-1].Score, r.Score)
		}
		if seen[r.Product.Description] {
			t.Errorf("duplicate description %q", r.Product.Description)
		}
		seen[r.Product.Description] = true
	}
}

func TestSearchTieBreakByCatalogOrder(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)
	catalog := []domain.Product{
		{Description: "HUEVO AA", Price: 500, Keywords: []string{"huevo"}},
		{Description: "HUEVO BB", Price: 600, Keywords: []string{"huevo"}},
	}

	results := svc.Search("huevo", catalog, SearchOptions{})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Product.Description != "HUEVO AA" {
		t.Errorf("tie not broken by catalog order: first = %q", results[0].Product.Description)
	}
}

func TestSearchMinScoreAndLimit(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	results := svc.Search("arroz", testCatalog(), SearchOptions{MaxResults: 2})
	if len(results) > 2 {
		t.Errorf("results = %d, want <= 2", len(results))
	}

	for _, r := range svc.Search("arroz", testCatalog(), SearchOptions{MinScore: 0.9}) {
		if r.Score < 0.9 {
			t.Errorf("score %v below requested minimum", r.Score)
		}
	}
}

func TestSearchCategoryStrategy(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	// Only runs when requested.
	results := svc.Search("lacteos", testCatalog(), SearchOptions{})
	if len(results) != 0 {
		t.Errorf("category matched without IncludeCategory: %v", results)
	}

	results = svc.Search("lacteos", testCatalog(), SearchOptions{IncludeCategory: true})
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].MatchType != domain.MatchCategory || results[0].Score != categoryScore {
		t.Errorf("got %v score %v, want category %v", results[0].MatchType, results[0].Score, categoryScore)
	}
}

func TestSearchEmptyInputs(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	if results := svc.Search("", testCatalog(), SearchOptions{}); results != nil {
		t.Errorf("empty query results = %v, want nil", results)
	}
	if results := svc.Search("¡¿!?", testCatalog(), SearchOptions{}); results != nil {
		t.Errorf("punctuation-only query results = %v, want nil", results)
	}
	if results := svc.Search("arroz", nil, SearchOptions{}); results != nil {
		t.Errorf("empty catalog results = %v, want nil", results)
	}
}

func TestSuggestions(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	suggestions := svc.Suggestions("ar", testCatalog(), 5)
	if len(suggestions) == 0 {
		t.Fatal("no suggestions")
	}
	for _, s := range suggestions {
		if s[:2] != "ar" {
			t.Errorf("suggestion %q does not extend the query", s)
		}
	}

	if got := svc.Suggestions("", testCatalog(), 5); got != nil {
		t.Errorf("suggestions for empty query = %v", got)
	}
}

func TestByBrandAndBarcode(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)
	catalog := []domain.Product{
		{Description: "LECHE ALPINA 1L", Brand: "Alpina", Barcode: "7701234"},
		{Description: "YOGURT ALPINA FRESA", Brand: "Alpina"},
		{Description: "ARROZ DIANA 500G", Brand: "Diana"},
	}

	byBrand := svc.ByBrand("alpina", catalog)
	if len(byBrand) != 2 {
		t.Errorf("ByBrand = %d products, want 2", len(byBrand))
	}

	p, ok := svc.ByBarcode("7701234", catalog)
	if !ok || p.Description != "LECHE ALPINA 1L" {
		t.Errorf("ByBarcode = %v ok=%v", p.Description, ok)
	}
	if _, ok := svc.ByBarcode("0000", catalog); ok {
		t.Error("unexpected barcode hit")
	}
}

func TestCategories(t *testing.T) {
	svc := NewSearchService(SearchServiceConfig{}, nil)

	categories := svc.Categories(testCatalog())
	want := []string{"Granos", "Aceites", "Lacteos", "Endulzantes"}
	if len(categories) != len(want) {
		t.Fatalf("categories = %v", categories)
	}
	for i, c := range want {
		if categories[i] != c {
			t.Errorf("categories[%d] = %q, want %q", i, categories[i], c)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		s1, s2 string
		want   int
	}{
		{"arros", "arroz", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"same", "same", 0},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.s1, tc.s2, got, tc.want)
		}
	}
}
