package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/amategeko/gazette/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns defaults when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[api]
listen = ":9091"

[embedding]
provider = "ollama"
target = "http://localhost:11434"
model = "paraphrase-multilingual"
dimensions = 768
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Embedding.Model).To(Equal("paraphrase-multilingual"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for unsupported version", func() {
			data := `version = 99
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("writes a config file that loads back", func() {
			cfg := config.NewDefaultConfig()
			cfg.Generation.Model = "qwen2.5:1.5b"
			cfg.Embedding.Dimensions = 1024

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Generation.Model).To(Equal("qwen2.5:1.5b"))
			Expect(loaded.Embedding.Dimensions).To(Equal(uint(1024)))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing config", func() {
			first := config.NewDefaultConfig()
			first.VectorStore.Provider = "sqlite"
			second := config.NewDefaultConfig()
			second.VectorStore.Provider = "qdrant"
			second.VectorStore.Target = "localhost:6334"

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(first)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(second)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.VectorStore.Provider).To(Equal("qdrant"))
			Expect(loaded.VectorStore.Target).To(Equal("localhost:6334"))
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("generation.model", "qwen2.5:1.5b")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Generation.Model).To(Equal("qwen2.5:1.5b"))
		})

		It("sets a uint config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("embedding.dimensions", "1024")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
		})

		It("sets an int config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("generation.max_tokens", "300")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Generation.MaxTokens).To(Equal(300))
		})

		It("sets a bool config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("answer.unified_ranking", "false")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Answer.UnifiedRanking).To(BeFalse())
		})

		It("sets a comma-separated list key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("harvest.urls", "https://amategeko.gov.rw, https://minijust.gov.rw/laws")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Harvest.URLs).To(Equal([]string{
				"https://amategeko.gov.rw",
				"https://minijust.gov.rw/laws",
			}))
		})

		It("sets events brokers as a list", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("events.brokers", "kafka-1:9092,kafka-2:9092")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.Brokers).To(Equal([]string{"kafka-1:9092", "kafka-2:9092"}))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("nonexistent_key", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("returns error for invalid uint value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("embedding.dimensions", "not-a-number")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid value"))
		})

		It("returns error for invalid bool value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("answer.unified_ranking", "maybe")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid value"))
		})

		It("sets client.api_target", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("client.api_target", "http://remote:9091")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.APITarget).To(Equal("http://remote:9091"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("vector_store.provider", "qdrant")
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("vector_store.target", "localhost:6334")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		})
	})

	Describe("GetConfigValue", func() {
		It("gets a set config value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("history.provider", "postgres")
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("history.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("postgres"))
		})

		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("embedding.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal(config.NewDefaultConfig().Embedding.Model))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("storage.sqlite_path")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())

			val, err = c.GetConfigValue("websearch.endpoint")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nonexistent_key")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("returns default client target when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("client.api_target")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("http://localhost:8080"))
		})

		It("gets a uint config value as string", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("embedding.dimensions", "512")
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("512"))
		})

		It("gets a list config value as comma-separated string", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("events.brokers", "kafka-1:9092,kafka-2:9092")
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("events.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("kafka-1:9092,kafka-2:9092"))
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns all expected keys", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.sqlite_path",
				"api.listen",
				"client.api_target",
				"vector_store.provider",
				"vector_store.target",
				"vector_store.collection",
				"embedding.provider",
				"embedding.target",
				"embedding.model",
				"embedding.dimensions",
				"generation.provider",
				"generation.target",
				"generation.model",
				"generation.max_tokens",
				"harvest.urls",
				"harvest.concurrency",
				"websearch.endpoint",
				"history.provider",
				"history.target",
				"events.provider",
				"events.brokers",
				"events.topic",
				"answer.topk",
				"answer.rank_limit",
				"answer.unified_ranking",
				"answer.skip_harvest_when_satisfied",
			))
		})

		It("returns keys in stable order", func() {
			keys1 := config.ValidConfigKeys()
			keys2 := config.ValidConfigKeys()
			Expect(keys1).To(Equal(keys2))
		})
	})

	Describe("IsValidConfigKey", func() {
		It("returns true for valid keys", func() {
			Expect(config.IsValidConfigKey("embedding.dimensions")).To(BeTrue())
			Expect(config.IsValidConfigKey("vector_store.collection")).To(BeTrue())
			Expect(config.IsValidConfigKey("answer.topk")).To(BeTrue())
			Expect(config.IsValidConfigKey("client.api_target")).To(BeTrue())
		})

		It("returns false for invalid keys", func() {
			Expect(config.IsValidConfigKey("nonexistent")).To(BeFalse())
			Expect(config.IsValidConfigKey("")).To(BeFalse())
		})

		It("returns false for flat key names", func() {
			Expect(config.IsValidConfigKey("provider")).To(BeFalse())
			Expect(config.IsValidConfigKey("topk")).To(BeFalse())
			Expect(config.IsValidConfigKey("embedding_dimensions")).To(BeFalse())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads config correctly with all fields", func() {
			cfg := &config.Config{
				Version: config.CurrentV,
				Storage: config.StorageConfig{
					SQLitePath: "/tmp/test.sqlite",
				},
				API: config.APIConfig{
					Listen: ":9091",
				},
				Client: config.ClientConfig{
					APITarget: "http://myhost:9091",
				},
				VectorStore: config.VectorStoreConfig{
					Provider:   "qdrant",
					Target:     "localhost:6334",
					Collection: "laws",
				},
				Embedding: config.EmbeddingConfig{
					Provider:   "ollama",
					Target:     "http://localhost:11434",
					Model:      "paraphrase-multilingual",
					Dimensions: 768,
				},
				Generation: config.GenerationConfig{
					Provider:  "ollama",
					Target:    "http://localhost:11434",
					Model:     "qwen2.5:0.5b",
					MaxTokens: 150,
				},
				Harvest: config.HarvestConfig{
					URLs:        []string{"https://amategeko.gov.rw"},
					Concurrency: 3,
				},
				WebSearch: config.WebSearchConfig{
					Endpoint: "https://api.duckduckgo.com",
				},
				History: config.HistoryConfig{
					Provider: "postgres",
					Target:   "postgres://localhost/gazette",
				},
				Events: config.EventsConfig{
					Provider: "kafka",
					Brokers:  []string{"localhost:9092"},
					Topic:    "gazette.exchanges",
				},
				Answer: config.AnswerConfig{
					TopK:                     3,
					RankLimit:                5,
					UnifiedRanking:           true,
					SkipHarvestWhenSatisfied: false,
				},
			}

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses valid TOML into a Config", func() {
		data := []byte(`version = 0

[vector_store]
provider = "qdrant"
target = "localhost:6334"
collection = "laws"

[embedding]
dimensions = 512
`)
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Version).To(Equal(0))
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		Expect(cfg.VectorStore.Collection).To(Equal("laws"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(512)))
	})

	It("returns error for invalid TOML", func() {
		cfg, err := config.ParseConfigTOML([]byte("not valid [[["))
		Expect(err).To(HaveOccurred())
		Expect(cfg).To(BeNil())
	})

	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).NotTo(BeNil())
		Expect(cfg.Embedding.Provider).To(BeEmpty())
	})

	It("rejects unsupported config version", func() {
		data := []byte(`version = 2
`)
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		Expect(cfg).To(BeNil())
	})
})

var _ = Describe("NewDefaultConfig", func() {
	It("returns fully-populated defaults", func() {
		cfg := config.NewDefaultConfig()
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.API.Listen).To(Equal(":8080"))
		Expect(cfg.Client.APITarget).To(Equal("http://localhost:8080"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
		Expect(cfg.VectorStore.Collection).To(Equal("gazette"))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Target).To(Equal("http://localhost:11434"))
		Expect(cfg.Embedding.Model).To(Equal("paraphrase-multilingual"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.Generation.Provider).To(Equal("ollama"))
		Expect(cfg.Generation.Model).To(Equal("qwen2.5:0.5b"))
		Expect(cfg.Generation.MaxTokens).To(Equal(150))
		Expect(cfg.Harvest.Concurrency).To(Equal(3))
		Expect(cfg.History.Provider).To(Equal("sqlite"))
		Expect(cfg.Events.Provider).To(Equal("none"))
		Expect(cfg.Events.Topic).To(Equal("gazette.exchanges"))
		Expect(cfg.Answer.TopK).To(Equal(3))
		Expect(cfg.Answer.RankLimit).To(Equal(5))
		Expect(cfg.Answer.UnifiedRanking).To(BeTrue())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).NotTo(BeNil())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetString("client.api_target")).To(Equal(defaults.Client.APITarget))
		Expect(v.GetString("embedding.model")).To(Equal(defaults.Embedding.Model))
		Expect(v.GetUint("embedding.dimensions")).To(Equal(defaults.Embedding.Dimensions))
		Expect(v.GetInt("answer.topk")).To(Equal(defaults.Answer.TopK))
		Expect(v.GetBool("answer.unified_ranking")).To(BeTrue())
	})

	It("reads config file values over defaults", func() {
		data := `[embedding]
model = "nomic-embed-text"
dimensions = 1024
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("embedding.model")).To(Equal("nomic-embed-text"))
		Expect(v.GetUint("embedding.dimensions")).To(Equal(uint(1024)))
		// Unset fields should still get defaults
		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
	})

	It("respects environment variables with GAZETTE_ prefix", func() {
		os.Setenv("GAZETTE_EMBEDDING_MODEL", "nomic-embed-text")
		defer os.Unsetenv("GAZETTE_EMBEDDING_MODEL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("embedding.model")).To(Equal("nomic-embed-text"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[embedding]
model = "paraphrase-multilingual"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		os.Setenv("GAZETTE_EMBEDDING_MODEL", "nomic-embed-text")
		defer os.Unsetenv("GAZETTE_EMBEDDING_MODEL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("embedding.model")).To(Equal("nomic-embed-text"))
	})
})

var _ = Describe("BindRegisteredFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{
			config.FlagAPIListen: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListen, &listen)

		// Simulate flag being set by user
		err = cmd.Flags().Set("listen", ":7777")
		Expect(err).NotTo(HaveOccurred())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[api]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{
			config.FlagAPIListen: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListen, &listen)

		// Do NOT set the flag -- should fall through to config file value
		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{}

		cmd := &cobra.Command{Use: "test"}

		// "nonexistent" is not in the FlagSet -- should be safely skipped
		config.BindRegisteredFlags(v, cmd, fs, []string{"nonexistent"})

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		fs := config.FlagSet{
			config.FlagAPITarget: {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "Gazette API server URL"},
		}

		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, fs, config.FlagAPITarget, &target)

		f := cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("a"))
		Expect(f.Usage).To(Equal("Gazette API server URL"))

		defaults := config.NewDefaultConfig()
		Expect(f.DefValue).To(Equal(defaults.Client.APITarget))
	})

	It("AddUintFlag works for embedding-dimensions", func() {
		fs := config.FlagSet{
			config.FlagEmbeddingDims: {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
		}

		cmd := &cobra.Command{Use: "test"}
		var dims uint
		config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &dims)

		f := cmd.Flags().Lookup("embedding-dimensions")
		Expect(f).NotTo(BeNil())
		Expect(f.Usage).To(Equal("Embedding dimensionality"))
	})

	It("AddBoolFlag registers with the registered default", func() {
		fs := config.FlagSet{
			config.FlagUnifiedRanking: {Name: "unified-ranking", ViperKey: "answer.unified_ranking", Description: "Rank stored and harvested laws together"},
		}

		cmd := &cobra.Command{Use: "test"}
		var unified bool
		config.AddBoolFlag(cmd, fs, config.FlagUnifiedRanking, &unified)

		f := cmd.Flags().Lookup("unified-ranking")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("true"))
	})
})

var _ = Describe("default merging via LoadConfig", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-defaults-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("fills in defaults for unset fields in a partial config", func() {
		// Config file only sets the embedding model; everything else gets defaults.
		data := `version = 0

[embedding]
model = "nomic-embed-text"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := c.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		// Explicitly set value should be preserved.
		Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))

		// Unset fields should get defaults.
		defaults := config.NewDefaultConfig()
		Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
		Expect(cfg.Client.APITarget).To(Equal(defaults.Client.APITarget))
		Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
		Expect(cfg.VectorStore.Collection).To(Equal(defaults.VectorStore.Collection))
		Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
		Expect(cfg.Embedding.Target).To(Equal(defaults.Embedding.Target))
		Expect(cfg.Embedding.Dimensions).To(Equal(defaults.Embedding.Dimensions))
		Expect(cfg.Generation.Model).To(Equal(defaults.Generation.Model))
		Expect(cfg.Generation.MaxTokens).To(Equal(defaults.Generation.MaxTokens))
		Expect(cfg.Harvest.Concurrency).To(Equal(defaults.Harvest.Concurrency))
		Expect(cfg.History.Provider).To(Equal(defaults.History.Provider))
		Expect(cfg.Events.Provider).To(Equal(defaults.Events.Provider))
		Expect(cfg.Events.Topic).To(Equal(defaults.Events.Topic))
		Expect(cfg.Answer.TopK).To(Equal(defaults.Answer.TopK))
		Expect(cfg.Answer.RankLimit).To(Equal(defaults.Answer.RankLimit))
	})

	It("does not overwrite explicitly set values", func() {
		data := `version = 0

[api]
listen = ":9091"

[client]
api_target = "http://remote:9091"

[vector_store]
provider = "pgvector"
target = "postgres://localhost/gazette"
collection = "laws"

[generation]
model = "qwen2.5:1.5b"
max_tokens = 300

[answer]
topk = 10
rank_limit = 8
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := c.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.API.Listen).To(Equal(":9091"))
		Expect(cfg.Client.APITarget).To(Equal("http://remote:9091"))
		Expect(cfg.VectorStore.Provider).To(Equal("pgvector"))
		Expect(cfg.VectorStore.Target).To(Equal("postgres://localhost/gazette"))
		Expect(cfg.VectorStore.Collection).To(Equal("laws"))
		Expect(cfg.Generation.Model).To(Equal("qwen2.5:1.5b"))
		Expect(cfg.Generation.MaxTokens).To(Equal(300))
		Expect(cfg.Answer.TopK).To(Equal(10))
		Expect(cfg.Answer.RankLimit).To(Equal(8))
	})
})
