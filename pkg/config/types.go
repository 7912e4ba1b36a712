package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent gazette configuration stored as config.toml
// in the .gazette/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Generation  GenerationConfig  `toml:"generation"`
	Harvest     HarvestConfig     `toml:"harvest"`
	WebSearch   WebSearchConfig   `toml:"websearch"`
	History     HistoryConfig     `toml:"history"`
	Events      EventsConfig      `toml:"events"`
	Answer      AnswerConfig      `toml:"answer"`
}

// StorageConfig holds the single-file storage settings for local mode.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. gazette ask, gazette history). Values are full URLs
// (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens int    `toml:"max_tokens,omitempty"`
}

// HarvestConfig holds web harvester settings. Empty URLs fall back to the
// harvester's built-in source list.
type HarvestConfig struct {
	URLs        []string `toml:"urls,omitempty"`
	Concurrency int      `toml:"concurrency,omitempty"`
}

// WebSearchConfig holds web search fallback settings.
type WebSearchConfig struct {
	Endpoint string `toml:"endpoint,omitempty"`
}

// HistoryConfig holds exchange history settings.
type HistoryConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EventsConfig holds event stream settings. Provider "none" disables
// publishing.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// AnswerConfig holds pipeline tuning knobs.
type AnswerConfig struct {
	TopK                     int  `toml:"topk,omitempty"`
	RankLimit                int  `toml:"rank_limit,omitempty"`
	UnifiedRanking           bool `toml:"unified_ranking"`
	SkipHarvestWhenSatisfied bool `toml:"skip_harvest_when_satisfied,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
// List-valued keys use comma-separated strings.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"generation.provider": {
		get: func(c *Config) string { return c.Generation.Provider },
		set: func(c *Config, v string) error { c.Generation.Provider = v; return nil },
	},
	"generation.target": {
		get: func(c *Config) string { return c.Generation.Target },
		set: func(c *Config, v string) error { c.Generation.Target = v; return nil },
	},
	"generation.model": {
		get: func(c *Config) string { return c.Generation.Model },
		set: func(c *Config, v string) error { c.Generation.Model = v; return nil },
	},
	"generation.max_tokens": {
		get: func(c *Config) string {
			if c.Generation.MaxTokens == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MaxTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_tokens: %w", err)
			}
			c.Generation.MaxTokens = n
			return nil
		},
	},
	"harvest.urls": {
		get: func(c *Config) string { return strings.Join(c.Harvest.URLs, ",") },
		set: func(c *Config, v string) error {
			c.Harvest.URLs = splitList(v)
			return nil
		},
	},
	"harvest.concurrency": {
		get: func(c *Config) string {
			if c.Harvest.Concurrency == 0 {
				return ""
			}
			return strconv.Itoa(c.Harvest.Concurrency)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for harvest.concurrency: %w", err)
			}
			c.Harvest.Concurrency = n
			return nil
		},
	},
	"websearch.endpoint": {
		get: func(c *Config) string { return c.WebSearch.Endpoint },
		set: func(c *Config, v string) error { c.WebSearch.Endpoint = v; return nil },
	},
	"history.provider": {
		get: func(c *Config) string { return c.History.Provider },
		set: func(c *Config, v string) error { c.History.Provider = v; return nil },
	},
	"history.target": {
		get: func(c *Config) string { return c.History.Target },
		set: func(c *Config, v string) error { c.History.Target = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"answer.topk": {
		get: func(c *Config) string {
			if c.Answer.TopK == 0 {
				return ""
			}
			return strconv.Itoa(c.Answer.TopK)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for answer.topk: %w", err)
			}
			c.Answer.TopK = n
			return nil
		},
	},
	"answer.rank_limit": {
		get: func(c *Config) string {
			if c.Answer.RankLimit == 0 {
				return ""
			}
			return strconv.Itoa(c.Answer.RankLimit)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for answer.rank_limit: %w", err)
			}
			c.Answer.RankLimit = n
			return nil
		},
	},
	"answer.unified_ranking": {
		get: func(c *Config) string { return strconv.FormatBool(c.Answer.UnifiedRanking) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for answer.unified_ranking: %w", err)
			}
			c.Answer.UnifiedRanking = b
			return nil
		},
	},
	"answer.skip_harvest_when_satisfied": {
		get: func(c *Config) string { return strconv.FormatBool(c.Answer.SkipHarvestWhenSatisfied) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for answer.skip_harvest_when_satisfied: %w", err)
			}
			c.Answer.SkipHarvestWhenSatisfied = b
			return nil
		},
	},
}

// splitList splits a comma-separated value into trimmed, non-empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
