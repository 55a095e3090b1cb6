package domain

// Config represents the main application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Catalog     CatalogConfig  `mapstructure:"catalog"`
	Matching    MatchingConfig `mapstructure:"matching"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Batch       BatchConfig    `mapstructure:"batch"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// CatalogConfig locates the reference data. An empty path selects the embedded data set.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig controls fuzzy drug-name matching
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	Algorithm           string  `mapstructure:"algorithm"`
}

// CacheConfig bounds the lookup cache placed in front of the catalog. Zero disables it.
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// BatchConfig controls batch evaluation fan-out
type BatchConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
