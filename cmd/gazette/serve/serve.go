// Package servecmder provides the serve command for running the gazette API
// server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/api"
	"github.com/amategeko/gazette/api/mcp"
	"github.com/amategeko/gazette/pkg/answer"
	"github.com/amategeko/gazette/pkg/config"
	"github.com/amategeko/gazette/pkg/dotdir"
	"github.com/amategeko/gazette/pkg/embeddings"
	embeddingutils "github.com/amategeko/gazette/pkg/embeddings/utils"
	"github.com/amategeko/gazette/pkg/eventstream"
	kafkastream "github.com/amategeko/gazette/pkg/eventstream/kafka"
	"github.com/amategeko/gazette/pkg/eventstream/nop"
	"github.com/amategeko/gazette/pkg/generate"
	ollamagen "github.com/amategeko/gazette/pkg/generate/ollama"
	"github.com/amategeko/gazette/pkg/harvest"
	"github.com/amategeko/gazette/pkg/history"
	"github.com/amategeko/gazette/pkg/logger"
	"github.com/amategeko/gazette/pkg/registry"
	"github.com/amategeko/gazette/pkg/vector"
	vectorutils "github.com/amategeko/gazette/pkg/vector/utils"
	"github.com/amategeko/gazette/pkg/websearch"
)

const serveLongDesc string = `Run the gazette API server.

The server exposes the question pipeline over HTTP (POST /v1/ask), document
management endpoints, the exchange history, and an MCP endpoint at /mcp.

Configuration resolves in order: flags, GAZETTE_ environment variables,
config.toml in the .gazette/ directory, then built-in defaults.

Examples:
  gazette serve
  gazette serve --listen :9090
  gazette serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the gazette API server"

type serveCommander struct {
	listen         string
	vectorProv     string
	vectorTgt      string
	vectorColl     string
	embProv        string
	embTgt         string
	embModel       string
	embDims        uint
	genProv        string
	genTgt         string
	genModel       string
	histProv       string
	histTgt        string
	eventsProv     string
	eventsTopic    string
	topK           uint
	unifiedRanking bool

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

func serveFlagSet() config.FlagSet {
	return config.FlagSet{
		config.FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
		config.FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, pgvector, qdrant)"},
		config.FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store target (file path, connection string, or host:port)"},
		config.FlagVectorStoreColl: {Name: "vector-store-collection", ViperKey: "vector_store.collection", Description: "Vector store collection or table name"},
		config.FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama)"},
		config.FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
		config.FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
		config.FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
		config.FlagGenerationProv:  {Name: "generation-provider", ViperKey: "generation.provider", Description: "Generation provider (ollama)"},
		config.FlagGenerationTgt:   {Name: "generation-target", ViperKey: "generation.target", Description: "Generation provider URL"},
		config.FlagGenerationModel: {Name: "generation-model", ViperKey: "generation.model", Description: "Generation model name"},
		config.FlagHistoryProv:     {Name: "history-provider", ViperKey: "history.provider", Description: "History store provider (sqlite, postgres, none)"},
		config.FlagHistoryTgt:      {Name: "history-target", ViperKey: "history.target", Description: "History store target (file path or connection string)"},
		config.FlagEventsProv:      {Name: "events-provider", ViperKey: "events.provider", Description: "Event stream provider (none, kafka)"},
		config.FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Event stream topic"},
		config.FlagAnswerTopK:      {Name: "topk", ViperKey: "answer.topk", Description: "Number of stored documents to retrieve per question"},
		config.FlagUnifiedRanking:  {Name: "unified-ranking", ViperKey: "answer.unified_ranking", Description: "Rank stored and harvested documents together"},
	}
}

func serveFlagKeys() []string {
	return []string{
		config.FlagAPIListen,
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagVectorStoreColl,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
		config.FlagGenerationProv,
		config.FlagGenerationTgt,
		config.FlagGenerationModel,
		config.FlagHistoryProv,
		config.FlagHistoryTgt,
		config.FlagEventsProv,
		config.FlagEventsTopic,
		config.FlagAnswerTopK,
		config.FlagUnifiedRanking,
	}
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	fs := serveFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, serveFlagKeys())
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreColl, &cmder.vectorColl)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, fs, config.FlagGenerationProv, &cmder.genProv)
	config.AddStringFlag(cmd, fs, config.FlagGenerationTgt, &cmder.genTgt)
	config.AddStringFlag(cmd, fs, config.FlagGenerationModel, &cmder.genModel)
	config.AddStringFlag(cmd, fs, config.FlagHistoryProv, &cmder.histProv)
	config.AddStringFlag(cmd, fs, config.FlagHistoryTgt, &cmder.histTgt)
	config.AddStringFlag(cmd, fs, config.FlagEventsProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &cmder.eventsTopic)
	config.AddUintFlag(cmd, fs, config.FlagAnswerTopK, &cmder.topK)
	config.AddBoolFlag(cmd, fs, config.FlagUnifiedRanking, &cmder.unifiedRanking)

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	v := c.v

	models, err := c.newModelRegistry()
	if err != nil {
		return err
	}
	defer models.Close()

	laws, documents, err := c.newVectorDrivers(ctx)
	if err != nil {
		return err
	}
	defer laws.Close()
	defer documents.Close()

	histStore, err := c.newHistoryStore(ctx)
	if err != nil {
		return err
	}
	if histStore != nil {
		defer histStore.Close()
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	harvester := harvest.NewHarvester(harvest.Config{
		URLs:        v.GetStringSlice("harvest.urls"),
		Concurrency: v.GetInt("harvest.concurrency"),
	}, c.logger)

	searcher := websearch.NewDuckDuckGo(websearch.Config{
		Endpoint: v.GetString("websearch.endpoint"),
	}, c.logger)

	answerCfg := answer.Config{
		TopK:                     v.GetInt("answer.topk"),
		RankLimit:                v.GetInt("answer.rank_limit"),
		UnifiedRanking:           v.GetBool("answer.unified_ranking"),
		SkipHarvestWhenSatisfied: v.GetBool("answer.skip_harvest_when_satisfied"),
	}

	answerer := answer.NewAnswerer(models, laws, harvester, searcher, histStore, publisher, answerCfg, c.logger)
	docsAnswerer := answer.NewAnswerer(models, documents, nil, searcher, histStore, publisher, answerCfg, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Answerer: answerer,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr:   v.GetString("api.listen"),
		Answerer:     answerer,
		Documents:    documents,
		DocsAnswerer: docsAnswerer,
		Models:       models,
		History:      histStore,
		MCPHandler:   mcpServer.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

func (c *serveCommander) newModelRegistry() (*registry.ModelRegistry, error) {
	v := c.v

	if provider := v.GetString("generation.provider"); provider != "ollama" {
		return nil, fmt.Errorf("unknown generation provider: %q", provider)
	}

	embProvider := v.GetString("embedding.provider")
	embTarget := v.GetString("embedding.target")
	embModel := v.GetString("embedding.model")
	genTarget := v.GetString("generation.target")
	genModel := v.GetString("generation.model")
	maxTokens := v.GetInt("generation.max_tokens")

	return registry.NewModelRegistry(
		func() (embeddings.Embedder, error) {
			return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
				ProviderType: embProvider,
				TargetURL:    embTarget,
				Model:        embModel,
			})
		},
		func() (generate.Generator, error) {
			return ollamagen.NewGenerator(ollamagen.GeneratorConfig{
				BaseURL:   genTarget,
				Model:     genModel,
				MaxTokens: maxTokens,
			})
		},
		c.logger,
	), nil
}

// newVectorDrivers creates the laws store and the uploaded-documents store.
// Both share the configured provider; sqlite stores get separate files,
// remote stores get separate collections.
func (c *serveCommander) newVectorDrivers(ctx context.Context) (laws, documents vector.Driver, err error) {
	v := c.v

	provider := v.GetString("vector_store.provider")
	target := v.GetString("vector_store.target")
	collection := v.GetString("vector_store.collection")
	dims := v.GetUint("embedding.dimensions")

	docsTarget := target
	if provider == "sqlite" {
		if target == "" {
			dir, derr := dotdir.NewManager().Target(c.configDir)
			if derr != nil {
				return nil, nil, fmt.Errorf("resolving data directory: %w", derr)
			}
			target = filepath.Join(dir, "gazette.db")
		}
		docsTarget = filepath.Join(filepath.Dir(target), "documents.db")
	}

	laws, err = vectorutils.NewDriver(ctx, vectorutils.NewDriverOpts{
		DriverType: provider,
		Target:     target,
		Collection: collection,
		Dimensions: dims,
	}, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	documents, err = vectorutils.NewDriver(ctx, vectorutils.NewDriverOpts{
		DriverType: provider,
		Target:     docsTarget,
		Collection: collection + "_documents",
		Dimensions: dims,
	}, c.logger)
	if err != nil {
		laws.Close()
		return nil, nil, fmt.Errorf("creating documents store: %w", err)
	}

	return laws, documents, nil
}

func (c *serveCommander) newHistoryStore(ctx context.Context) (history.Store, error) {
	v := c.v

	provider := v.GetString("history.provider")
	target := v.GetString("history.target")

	switch provider {
	case "none":
		return nil, nil
	case "sqlite":
		if target == "" {
			dir, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return nil, fmt.Errorf("resolving data directory: %w", err)
			}
			target = filepath.Join(dir, "history.db")
		}
		return history.NewSQLiteStore(target, c.logger)
	case "postgres":
		if target == "" {
			return nil, fmt.Errorf("history.target is required for the postgres history store")
		}
		return history.NewPostgresStore(ctx, target, c.logger)
	default:
		return nil, fmt.Errorf("unknown history provider: %q", provider)
	}
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	v := c.v

	provider := v.GetString("events.provider")
	switch provider {
	case "none":
		return nop.NewPublisher(), nil
	case "kafka":
		brokers := v.GetStringSlice("events.brokers")
		if len(brokers) == 0 {
			return nil, fmt.Errorf("events.brokers is required for the kafka event stream")
		}
		return kafkastream.NewPublisher(kafkastream.Config{
			Brokers: brokers,
			Topic:   v.GetString("events.topic"),
		}, c.logger)
	default:
		return nil, fmt.Errorf("unknown events provider: %q", provider)
	}
}
