package domain

import "context"

// CatalogProvider supplies the read-only product catalog. Products must
// return an immutable snapshot: a reload publishes a new slice, it never
// mutates one a reader may still hold.
type CatalogProvider interface {
	Products() []Product
	Reload(ctx context.Context) error
}

// TextGenerator is the minimal surface of an external language model.
// Implementations must honor ctx deadlines.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reranker picks the best candidate for an utterance, or reports that it
// could not. A nil *Selection with a nil error means "no opinion" and the
// caller must fall back to its own heuristic.
type Reranker interface {
	Rerank(ctx context.Context, utterance string, candidates []Product) (*Selection, error)
	InterpretQuantity(ctx context.Context, phrase string) int
}

// Selection is the strict, validated shape of a re-ranking answer.
type Selection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason,omitempty"`
}

// OrderStore owns per-customer order state. The store is injected into
// the core rather than held as process-wide state so tests and hosts can
// supply their own.
type OrderStore interface {
	Get(customerID string) (*Order, error)
	Save(order *Order) error
	Delete(customerID string) error
}
