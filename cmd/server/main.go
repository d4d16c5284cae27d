package main

import (
	"context"
	"fmt"
	"log"

	"github.com/tiendabot/backend/config"
	httpDelivery "github.com/tiendabot/backend/internal/delivery/http"
	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/infrastructure/catalog"
	"github.com/tiendabot/backend/internal/infrastructure/llm"
	"github.com/tiendabot/backend/internal/infrastructure/store"
	"github.com/tiendabot/backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Server.Environment)
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Infow("starting tiendabot backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"llmEnabled", cfg.LLM.Enabled)

	// Catalog: initial load plus background refresh. A failed first load
	// still starts the server with an empty catalog; searches degrade to
	// "not found" until a refresh succeeds.
	catalogProvider := catalog.NewProvider(cfg.Catalog.SourceURL, logger)
	ctx := context.Background()
	if err := catalogProvider.Reload(ctx); err != nil {
		sugar.Warnw("initial catalog load failed, starting empty", "error", err)
	}
	catalogProvider.StartRefresh(ctx, cfg.Catalog.RefreshInterval)

	// LLM re-ranker is optional; without it the resolver always uses the
	// size/price heuristic.
	var reranker domain.Reranker
	if cfg.LLM.Enabled {
		generator := llm.NewOpenAIGenerator(cfg.LLM.APIKey, cfg.LLM.Model)
		reranker = llm.NewReranker(generator, llm.RerankerConfig{
			Timeout:       cfg.LLM.Timeout,
			MaxCandidates: cfg.LLM.MaxCandidates,
		}, logger)
	}

	// Usecase layer
	searchService := usecase.NewSearchService(usecase.SearchServiceConfig{
		MaxResults: cfg.Search.MaxResults,
		MinScore:   cfg.Search.MinScore,
	}, logger)

	resolver := usecase.NewResolver(usecase.ResolverConfig{
		PriceSpreadRatio:    cfg.Resolver.PriceSpreadRatio,
		MinChoiceCandidates: cfg.Resolver.MinChoiceCandidates,
		MaxClarifyOptions:   cfg.Resolver.MaxClarifyOptions,
	}, reranker, logger)

	orderService := usecase.NewOrderService(store.NewMemoryOrderStore(), logger)
	requestService := usecase.NewRequestService(catalogProvider, searchService, resolver, orderService, logger)

	sugar.Infow("resolver policy",
		"priceSpreadRatio", cfg.Resolver.PriceSpreadRatio,
		"minChoiceCandidates", cfg.Resolver.MinChoiceCandidates,
		"maxClarifyOptions", cfg.Resolver.MaxClarifyOptions)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(requestService, orderService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	sugar.Infow("server listening", "addr", addr)

	if err := router.Run(addr); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}

func newLogger(environment string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}
