package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soundprediction/toponimo/pkg/embedding"
	"github.com/soundprediction/toponimo/pkg/gazetteer"
	"github.com/soundprediction/toponimo/pkg/kb"
	"github.com/soundprediction/toponimo/pkg/linking"
	"github.com/soundprediction/toponimo/pkg/ranking"
	"github.com/soundprediction/toponimo/pkg/recognizer"
	"github.com/soundprediction/toponimo/pkg/xref"
)

// Config holds all configuration for the engine. Component sections reuse
// the owning package's config types so there is a single source of truth
// for each knob.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Gazetteer resource paths and filtering
	Gazetteer GazetteerConfig `mapstructure:"gazetteer"`

	// Recognizer configuration
	Recognizer recognizer.Config `mapstructure:"recognizer"`

	// Ranking configuration
	Ranking ranking.Config `mapstructure:"ranking"`

	// Embedding configuration, used when ranking.method is "embedding"
	Embedding embedding.Config `mapstructure:"embedding"`

	// Linking configuration
	Linking linking.Config `mapstructure:"linking"`

	// Scorer service configuration, used when linking.method is "delegated"
	Scorer linking.ScorerConfig `mapstructure:"scorer"`

	// CircuitBreaker configuration for the scorer client
	CircuitBreaker linking.BreakerConfig `mapstructure:"circuit_breaker"`

	// Coordinates store configuration, used when linking.method is
	// "bydistance"
	Coordinates kb.Config `mapstructure:"coordinates"`

	// CrossRef store configuration, used when linking.method is
	// "delegated"
	CrossRef xref.Config `mapstructure:"crossref"`

	// Cache configuration for the persistent candidate store
	Cache CacheConfig `mapstructure:"cache"`

	// Results output configuration
	Results ResultsConfig `mapstructure:"results"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GazetteerConfig holds the surface-form resource paths and noise filtering
type GazetteerConfig struct {
	// VariantsPath is the variant → {identifier: count} resource.
	VariantsPath string `mapstructure:"variants_path"`
	// IdentifiersPath is the identifier → {variant: count} resource.
	IdentifiersPath string `mapstructure:"identifiers_path"`
	// FilterEnabled applies noise filtering after load.
	FilterEnabled bool `mapstructure:"filter_enabled"`
	// Filter holds the filtering thresholds.
	Filter gazetteer.FilterConfig `mapstructure:"filter"`
}

// CacheConfig holds the persistent candidate store settings
type CacheConfig struct {
	// Dir is the store directory. Empty disables the store.
	Dir string `mapstructure:"dir"`
	// TTL expires cached entries. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`
}

// ResultsConfig holds prediction output settings
type ResultsConfig struct {
	// Format is "jsonl" or "parquet".
	Format string `mapstructure:"format"`
	// Path is the output file (jsonl) or directory (parquet).
	Path string `mapstructure:"path"`
}

// Load reads configuration from the given file, environment variables and
// defaults. An empty path falls back to toponimo.yaml in the working
// directory or ~/.toponimo; a missing file is fine, env and defaults still
// apply.
func Load(path string) (*Config, error) {
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("toponimo")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".toponimo"))
		}
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("unable to read config: %w", err)
			}
		}
	}

	viper.SetEnvPrefix("TOPONIMO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Gazetteer defaults
	viper.SetDefault("gazetteer.variants_path", "./resources/mentions_to_wikidata.json")
	viper.SetDefault("gazetteer.identifiers_path", "./resources/wikidata_to_mentions.json")
	viper.SetDefault("gazetteer.filter_enabled", true)
	viper.SetDefault("gazetteer.filter.top_mentions", 3)
	viper.SetDefault("gazetteer.filter.minimum_relevance", 0.03)

	// Recognizer defaults
	viper.SetDefault("recognizer.provider", "service")
	viper.SetDefault("recognizer.endpoint", "http://localhost:8765")
	viper.SetDefault("recognizer.timeout", "30s")
	viper.SetDefault("recognizer.threshold", 0.5)
	viper.SetDefault("recognizer.location_only", true)

	// Ranking defaults
	viper.SetDefault("ranking.method", "exact")
	viper.SetDefault("ranking.min_score", 0.0)

	// Embedding defaults
	viper.SetDefault("embedding.provider", "local")
	viper.SetDefault("embedding.model", "BAAI/bge-small-en-v1.5")
	viper.SetDefault("embedding.num_candidates", 3)
	viper.SetDefault("embedding.search_size", 3)
	viper.SetDefault("embedding.similarity_threshold", 10.0)

	// Linking defaults
	viper.SetDefault("linking.method", "mostpopular")
	viper.SetDefault("linking.exponent", 2.0)

	// Scorer defaults
	viper.SetDefault("scorer.endpoint", "")
	viper.SetDefault("scorer.timeout", "60s")

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 60)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Coordinate store defaults
	viper.SetDefault("coordinates.provider", "static")
	viper.SetDefault("coordinates.path", "./resources/wikidata_to_coords.json")
	viper.SetDefault("coordinates.uri", "")
	viper.SetDefault("coordinates.username", "")
	viper.SetDefault("coordinates.database", "")

	// Cross-reference store defaults
	viper.SetDefault("crossref.provider", "memory")
	viper.SetDefault("crossref.path", "./resources/wikipedia_to_wikidata.json")

	// Cache defaults
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.ttl", "0s")

	// Results defaults
	viper.SetDefault("results.format", "jsonl")
	viper.SetDefault("results.path", "./predictions.jsonl")
}

// overrideWithEnv pulls secrets from the environment. Credentials never
// live in the config file.
func overrideWithEnv(config *Config) {
	if key := os.Getenv("TOPONIMO_EMBEDDING_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && config.Embedding.Provider == embedding.ProviderOpenAI {
		config.Embedding.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Embedding.Provider == embedding.ProviderGemini {
		config.Embedding.APIKey = key
	}

	if key := os.Getenv("TOPONIMO_SCORER_API_KEY"); key != "" {
		config.Scorer.APIKey = key
	}
	if key := os.Getenv("TOPONIMO_RECOGNIZER_API_KEY"); key != "" {
		config.Recognizer.APIKey = key
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Coordinates.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Coordinates.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Coordinates.Password = pass
	}
}

// Validate checks that the configuration names known strategies and that
// strategy-specific requirements are satisfiable.
func (c *Config) Validate() error {
	if !c.Ranking.Method.Valid() {
		return fmt.Errorf("unknown ranking method %q", c.Ranking.Method)
	}
	if !c.Linking.Method.Valid() {
		return fmt.Errorf("unknown linking method %q", c.Linking.Method)
	}
	if c.Gazetteer.VariantsPath == "" || c.Gazetteer.IdentifiersPath == "" {
		return fmt.Errorf("gazetteer resource paths are required")
	}
	if c.Ranking.Method == ranking.MethodEmbedding && !c.Embedding.Provider.Valid() {
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Linking.Method == linking.MethodDelegated && c.Scorer.Endpoint == "" {
		return fmt.Errorf("delegated linking requires a scorer endpoint")
	}
	switch c.Results.Format {
	case "jsonl", "parquet":
	default:
		return fmt.Errorf("unknown results format %q", c.Results.Format)
	}
	return nil
}
