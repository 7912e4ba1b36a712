package config

const (
	defaultAPIListen = ":8080"

	defaultClientAPITarget = "http://localhost:8080"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "gazette"

	defaultModelProvider = "ollama"
	defaultModelTarget   = "http://localhost:11434"

	defaultEmbeddingModel      = "paraphrase-multilingual"
	defaultEmbeddingDimensions = 768

	defaultGenerationModel    = "qwen2.5:0.5b"
	defaultGenerationMaxToken = 150

	defaultHarvestConcurrency = 3

	defaultHistoryProvider = "sqlite"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "gazette.exchanges"

	defaultAnswerTopK      = 3
	defaultAnswerRankLimit = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultModelProvider,
			Target:     defaultModelTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Generation: GenerationConfig{
			Provider:  defaultModelProvider,
			Target:    defaultModelTarget,
			Model:     defaultGenerationModel,
			MaxTokens: defaultGenerationMaxToken,
		},
		Harvest: HarvestConfig{
			Concurrency: defaultHarvestConcurrency,
		},
		History: HistoryConfig{
			Provider: defaultHistoryProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Answer: AnswerConfig{
			TopK:           defaultAnswerTopK,
			RankLimit:      defaultAnswerRankLimit,
			UnifiedRanking: true,
		},
	}
}
