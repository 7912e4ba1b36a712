// Package ingestcmder provides the ingest command for loading law texts into
// the vector store.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/amategeko/gazette/pkg/chunker"
	"github.com/amategeko/gazette/pkg/cliui"
	"github.com/amategeko/gazette/pkg/config"
	"github.com/amategeko/gazette/pkg/dotdir"
	"github.com/amategeko/gazette/pkg/embeddings"
	embeddingutils "github.com/amategeko/gazette/pkg/embeddings/utils"
	"github.com/amategeko/gazette/pkg/generate"
	"github.com/amategeko/gazette/pkg/logger"
	"github.com/amategeko/gazette/pkg/registry"
	"github.com/amategeko/gazette/pkg/vector"
	vectorutils "github.com/amategeko/gazette/pkg/vector/utils"
)

const ingestLongDesc string = `Ingest a law text file into the vector store.

The file is normalized, split into overlapping chunks, embedded, and stored so
later questions can retrieve it. Re-ingesting the same file overwrites its
previous chunks.

Examples:
  gazette ingest laws/2016-land-law.txt
  gazette ingest --title "Law governing land in Rwanda" laws/2016-land-law.txt
  gazette ingest --chunk-size 500 --chunk-overlap 50 laws/penal-code.txt`

const ingestShortDesc string = "Ingest a law text file"

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

type ingestCommander struct {
	path         string
	title        string
	chunkSize    int
	chunkOverlap int

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

func ingestFlagSet() config.FlagSet {
	return config.FlagSet{
		config.FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, pgvector, qdrant)"},
		config.FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store target (file path, connection string, or host:port)"},
		config.FlagVectorStoreColl: {Name: "vector-store-collection", ViperKey: "vector_store.collection", Description: "Vector store collection or table name"},
		config.FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
		config.FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	}
}

func ingestFlagKeys() []string {
	return []string{
		config.FlagVectorStoreProv,
		config.FlagVectorStoreTgt,
		config.FlagVectorStoreColl,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
	}
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}
	fs := ingestFlagSet()

	var vectorProv, vectorTgt, vectorColl, embTgt, embModel string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, ingestFlagKeys())
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.path = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.title, "title", "t", "", "Title stored with the ingested chunks (defaults to the filename)")
	cmd.Flags().IntVar(&cmder.chunkSize, "chunk-size", defaultChunkSize, "Maximum characters per chunk")
	cmd.Flags().IntVar(&cmder.chunkOverlap, "chunk-overlap", defaultChunkOverlap, "Characters of overlap between consecutive chunks")

	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreColl, &vectorColl)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &embTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &embModel)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.path, err)
	}

	text := chunker.Normalize(string(raw))
	if text == "" {
		return fmt.Errorf("%s contains no text", c.path)
	}

	chunks := chunker.Chunk(text, c.chunkSize, c.chunkOverlap)

	base := strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
	title := c.title
	if title == "" {
		title = base
	}

	v := c.v

	models := registry.NewModelRegistry(
		func() (embeddings.Embedder, error) {
			return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
				ProviderType: v.GetString("embedding.provider"),
				TargetURL:    v.GetString("embedding.target"),
				Model:        v.GetString("embedding.model"),
			})
		},
		func() (generate.Generator, error) {
			return nil, fmt.Errorf("generation is not used during ingest")
		},
		c.logger,
	)
	defer models.Close()

	target := v.GetString("vector_store.target")
	if v.GetString("vector_store.provider") == "sqlite" && target == "" {
		dir, derr := dotdir.NewManager().Target(c.configDir)
		if derr != nil {
			return fmt.Errorf("resolving data directory: %w", derr)
		}
		target = filepath.Join(dir, "gazette.db")
	}

	driver, err := vectorutils.NewDriver(ctx, vectorutils.NewDriverOpts{
		DriverType: v.GetString("vector_store.provider"),
		Target:     target,
		Collection: v.GetString("vector_store.collection"),
		Dimensions: v.GetUint("embedding.dimensions"),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer driver.Close()

	docs := make([]vector.Document, 0, len(chunks))
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Embedding %d chunks", len(chunks)), func() error {
		for i, chunk := range chunks {
			embedding, embErr := models.Embed(ctx, chunk)
			if embErr != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, embErr)
			}
			docs = append(docs, vector.Document{
				ID:        fmt.Sprintf("%s-%d", base, i),
				Title:     title,
				Content:   chunk,
				Embedding: embedding,
			})
		}
		return nil
	}); err != nil {
		return err
	}

	if err := cliui.Step(os.Stdout, "Storing chunks", func() error {
		return driver.Add(ctx, docs)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Ingested %s chunks %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(len(docs))),
		cliui.DimStyle.Render(fmt.Sprintf("from %s", c.path)),
	)
	return nil
}
