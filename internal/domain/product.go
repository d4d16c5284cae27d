package domain

// Product is a single catalog entry. Products are immutable once loaded;
// the description doubles as the identity for deduplication and cart
// merging (two catalog rows with the same description collapse).
type Product struct {
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// MatchType tags which search strategy produced a result.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPartial  MatchType = "partial"
	MatchKeyword  MatchType = "keyword"
	MatchFuzzy    MatchType = "fuzzy"
	MatchCategory MatchType = "category"
)

// SearchResult is one scored catalog hit. Score is in [0,1].
type SearchResult struct {
	Product   Product   `json:"product"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"matchType"`
}

// Match is a fully resolved (product, quantity) pair ready for the cart.
type Match struct {
	Product      Product `json:"product"`
	Quantity     int     `json:"quantity"`
	Confidence   float64 `json:"confidence"`
	AutoSelected bool    `json:"autoSelected"`
}

// Intent is the coarse classification of an utterance.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentAddItem  Intent = "add_item"
	IntentPrice    Intent = "price"
	IntentInfo     Intent = "info"
	IntentModify   Intent = "modify"
	IntentFinalize Intent = "finalize"
	IntentSearch   Intent = "search"
)

// ExtractedEntities holds whatever the extractor could pull out of an
// utterance. Every field is optional; absence is meaningful, not an error.
type ExtractedEntities struct {
	Quantity    float64 `json:"quantity,omitempty"`
	HasQuantity bool    `json:"hasQuantity,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	MinPrice    float64 `json:"minPrice,omitempty"`
	MaxPrice    float64 `json:"maxPrice,omitempty"`
	HasPrice    bool    `json:"hasPrice,omitempty"`
	ProductName string  `json:"productName,omitempty"`
}

// IntentResult pairs a classified intent with its confidence and the
// entities extracted alongside it.
type IntentResult struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   ExtractedEntities `json:"entities"`
}

// Clarification is handed back to the conversational layer when the
// resolver cannot narrow a segment down on its own. Options is already
// truncated for presentation.
type Clarification struct {
	Utterance string    `json:"utterance"`
	Quantity  int       `json:"quantity"`
	Options   []Product `json:"options"`
}
