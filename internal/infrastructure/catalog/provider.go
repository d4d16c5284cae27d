package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/textnorm"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const minKeywordLen = 3

// Provider loads the product catalog from an external JSON source and
// serves immutable snapshots. Reload publishes a brand-new slice; readers
// keep whatever snapshot they started with, so a reload never mutates
// data mid-request.
type Provider struct {
	httpClient *http.Client
	sourceURL  string
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger

	mu       sync.RWMutex
	products []domain.Product
}

// NewProvider creates a catalog provider for the given source URL.
func NewProvider(sourceURL string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sourceURL:  sourceURL,
		limiter:    rate.NewLimiter(rate.Limit(0.5), 2),
		logger:     logger.Sugar(),
	}
}

// Products returns the current snapshot. Callers must treat it as
// read-only; the slice is replaced wholesale on reload, never mutated.
func (p *Provider) Products() []domain.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.products
}

// sourceRow is the raw shape of one catalog entry at the source.
type sourceRow struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Unit        string  `json:"unit"`
	Barcode     string  `json:"barcode"`
}

// Reload fetches the catalog wholesale and swaps the snapshot. Rows
// missing a description or with a non-positive price are dropped. An
// empty resulting catalog is published as-is; searches then degrade to
// "not found" instead of failing.
func (p *Provider) Reload(ctx context.Context) error {
	rows, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	products := make([]domain.Product, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if row.Description == "" || row.Price <= 0 {
			dropped++
			continue
		}
		products = append(products, domain.Product{
			Description: row.Description,
			Price:       row.Price,
			Category:    row.Category,
			Brand:       row.Brand,
			Unit:        row.Unit,
			Barcode:     row.Barcode,
			Keywords:    deriveKeywords(row),
		})
	}

	p.mu.Lock()
	p.products = products
	p.mu.Unlock()

	p.logger.Infow("catalog reloaded", "products", len(products), "dropped", dropped)
	return nil
}

// fetch executes the source request with retries for transient failures.
func (p *Provider) fetch(ctx context.Context) ([]sourceRow, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.sourceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			p.logger.Warnw("catalog fetch failed", "attempt", attempt, "error", err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrCatalogSourceFailure, err)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			p.logger.Warnw("catalog source error", "attempt", attempt, "status", resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogSourceFailure, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		var rows []sourceRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode catalog: %w", err)
		}
		return rows, nil
	}
	return nil, lastErr
}

// StartRefresh reloads the catalog on the given cadence until ctx is
// cancelled. Failed reloads keep the previous snapshot.
func (p *Provider) StartRefresh(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Reload(ctx); err != nil {
					p.logger.Warnw("catalog refresh failed, keeping previous snapshot", "error", err)
				}
			}
		}
	}()
}

// deriveKeywords builds the searchable keyword set for a row from its
// description, brand and category.
func deriveKeywords(row sourceRow) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(text string) {
		for _, word := range splitNormalized(text) {
			if len(word) < minKeywordLen || seen[word] {
				continue
			}
			seen[word] = true
			keywords = append(keywords, word)
		}
	}
	add(row.Description)
	add(row.Brand)
	add(row.Category)
	return keywords
}

func splitNormalized(text string) []string {
	return strings.Fields(textnorm.Normalize(text))
}

// Static is a fixed in-memory catalog, handy for tests and local runs
// without a source URL.
type Static struct {
	products []domain.Product
}

// NewStatic creates a provider over a fixed product list.
func NewStatic(products []domain.Product) *Static {
	return &Static{products: products}
}

// Products returns the fixed product list.
func (s *Static) Products() []domain.Product { return s.products }

// Reload is a no-op for a static catalog.
func (s *Static) Reload(ctx context.Context) error { return nil }
