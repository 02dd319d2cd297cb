package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/cloudshift-ai/migbot/internal/api"
	"github.com/cloudshift-ai/migbot/internal/auth"
	"github.com/cloudshift-ai/migbot/internal/chat"
	"github.com/cloudshift-ai/migbot/internal/config"
	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/ingest"
	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/memory"
	"github.com/cloudshift-ai/migbot/internal/retrieve"
)

// Setup initializes the application: AI provider, document ingestion,
// index rebuild, retrieval engine, conversation memory and the HTTP
// server. The index rebuild runs here, synchronously, so the server
// never accepts traffic half-indexed.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := provideIndex(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}

	mem := memory.NewInMemoryStore()

	rephraser := retrieve.NewLLMRephraser(g, cfg.FullModelName())
	engine := retrieve.NewEngine(store, rephraser, logger)

	gen := chat.NewModelGenerator(g, cfg.FullModelName(), float64(cfg.Temperature))
	svc := chat.NewService(engine, mem, gen, logger)

	authHandler := auth.NewHandler(auth.Config{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		Tenant:       cfg.MicrosoftTenant,
		RedirectURL:  cfg.MicrosoftRedirectURL,
	}, logger)
	if authHandler == nil {
		logger.Info("Microsoft OAuth not configured, token exchange disabled")
	}

	server := api.NewServer(svc, mem, authHandler, cfg.CORSOrigins, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		Genkit: g,
		Index:  store,
		Memory: mem,
		Server: server,
	}, nil
}

// provideGenkit initializes Genkit with the Google AI plugin and looks
// up the configured embedder.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, nil, errors.New("initializing genkit with googleai provider")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	logger.Info("initialized Genkit", "model", cfg.ModelName, "embedder", cfg.EmbedderModel)
	return g, embedder, nil
}

// provideIndex assembles the ingestion sources and rebuilds the
// persistent vector index.
func provideIndex(ctx context.Context, cfg *config.Config, embedder ai.Embedder, logger log.Logger) (*index.Store, error) {
	chunking := ingest.ChunkConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MinChunkSize: cfg.MinChunkSize,
	}

	sources := []index.Source{
		ingest.NewPDFReader(cfg.PDFDir, chunking, logger),
		ingest.NewExcelReader(cfg.ExcelDir, chunking, logger),
		ingest.NewWordReader(cfg.DocDir, chunking, logger),
		ingest.NewWebReader(ingest.WebConfig{
			FeedURL:      cfg.BlogFeedURL,
			PostsPerPage: cfg.BlogPostsPerPage,
			MaxPages:     cfg.BlogMaxPages,
			FetchDelay:   time.Duration(cfg.FetchDelayMs) * time.Millisecond,
			Chunking:     chunking,
		}, nil, logger),
	}

	mgr := index.NewManager(cfg.IndexPath, cfg.BackupPath, embedder, sources, logger)

	logger.Info("rebuilding vector index", "path", cfg.IndexPath)
	start := time.Now()
	store, err := mgr.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	logger.Info("vector index ready", "chunks", store.Count(), "took", time.Since(start))

	return store, nil
}
