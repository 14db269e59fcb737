// Package appconfig loads and validates obsclip's configuration surface.
package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort       = errors.New("invalid metrics server port")
	ErrInvalidRateLimit  = errors.New("provider rate limit must be positive")
	ErrInvalidQualityGate = errors.New("provider quality threshold must be in [0,1]")
	ErrInvalidBatchSize  = errors.New("normalizer batch size must be positive")
)

const maxPort = 65535

// Config holds the full configuration surface for the pipeline.
type Config struct {
	Organize                OrganizeConfig                `mapstructure:"workflows"`
	SyncChecker             SyncCheckerConfig              `mapstructure:"sync_checker"`
	CitationFetcher         CitationFetcherConfig          `mapstructure:"citation_fetcher"`
	CitationPatternNormalizer CitationPatternNormalizerConfig `mapstructure:"citation_pattern_normalizer"`
	StatusManagement        StatusManagementConfig         `mapstructure:"status_management"`
	Retry                   RetryConfig                    `mapstructure:"retry"`
	Logging                 LoggingConfig                  `mapstructure:"logging"`
	Metrics                 MetricsConfig                  `mapstructure:"metrics"`
	LLM                     LLMConfig                      `mapstructure:"llm"`
	Workspace               string                         `mapstructure:"workspace"`
}

// OrganizeConfig mirrors workflows.organize.*.
type OrganizeConfig struct {
	Organize OrganizeStepConfig `mapstructure:"organize"`
}

// OrganizeStepConfig holds the organize stage's policy flags.
type OrganizeStepConfig struct {
	CreateBackup      bool `mapstructure:"create_backup"`
	HandleDuplicates  bool `mapstructure:"handle_duplicates"`
	UpdateYAMLHeader  bool `mapstructure:"update_yaml_header"`
}

// SyncCheckerConfig mirrors sync_checker.*.
type SyncCheckerConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	AutoFixMinorIssues   bool   `mapstructure:"auto_fix_minor_issues"`
	BackupBeforeAutoFix  bool   `mapstructure:"backup_before_auto_fix"`
	DisplayDOILinks      bool   `mapstructure:"display_doi_links"`
	DOILinkFormat        string `mapstructure:"doi_link_format"`
}

// CitationFetcherConfig mirrors citation_fetcher.apis.<provider>.*.
type CitationFetcherConfig struct {
	APIs map[string]ProviderConfig `mapstructure:"apis"`
}

// ProviderConfig is the per-provider wiring block.
type ProviderConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKeyEnv        string        `mapstructure:"api_key_env"`
	Enabled          bool          `mapstructure:"enabled"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	Timeout          time.Duration `mapstructure:"timeout"`
	QualityThreshold float64       `mapstructure:"quality_threshold"`
}

// CitationPatternNormalizerConfig mirrors citation_pattern_normalizer.*.
type CitationPatternNormalizerConfig struct {
	Enabled             bool                     `mapstructure:"enabled"`
	BatchSize           int                      `mapstructure:"batch_size"`
	RetryAttempts       int                      `mapstructure:"retry_attempts"`
	GroupedCitations    bool                     `mapstructure:"grouped_citations"`
	PublisherDetection  PublisherDetectionConfig `mapstructure:"publisher_detection"`
	Notification        NotificationConfig       `mapstructure:"notification"`
	PatternsConfigPath  string                   `mapstructure:"patterns_config_path"`
	UnknownPatternsPath string                   `mapstructure:"unknown_patterns_path"`
}

// PublisherDetectionConfig controls publisher auto-detection.
type PublisherDetectionConfig struct {
	AutoDetect      bool   `mapstructure:"auto_detect"`
	FallbackParser  string `mapstructure:"fallback_parser"`
}

// NotificationConfig controls unknown-pattern alerting.
type NotificationConfig struct {
	UnsupportedPatternAlert bool `mapstructure:"unsupported_pattern_alert"`
	NewParserSuggestion     bool `mapstructure:"new_parser_suggestion"`
}

// StatusManagementConfig mirrors status_management.*.
type StatusManagementConfig struct {
	YAMLValidation            bool                  `mapstructure:"yaml_validation"`
	AutoBackup                bool                  `mapstructure:"auto_backup"`
	TimestampRetentionDays    int                   `mapstructure:"timestamp_retention_days"`
	DetailedTimestampTracking bool                  `mapstructure:"detailed_timestamp_tracking"`
	BackupStrategy            BackupStrategyConfig  `mapstructure:"backup_strategy"`
	ErrorHandling             StatusErrorHandling   `mapstructure:"error_handling"`
}

// BackupStrategyConfig controls when a backup is taken before a status write.
type BackupStrategyConfig struct {
	BackupBeforeStatusUpdate bool `mapstructure:"backup_before_status_update"`
}

// StatusErrorHandling controls status-update error recovery.
type StatusErrorHandling struct {
	ValidateYAMLBeforeUpdate  bool `mapstructure:"validate_yaml_before_update"`
	CreateBackupOnYAMLError   bool `mapstructure:"create_backup_on_yaml_error"`
	AutoRepairCorruptedHeaders bool `mapstructure:"auto_repair_corrupted_headers"`
	FallbackToBackupOnFailure bool `mapstructure:"fallback_to_backup_on_failure"`
}

// RetryConfig mirrors retry.* — the default policy for transient failures.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Delay          time.Duration `mapstructure:"delay"`
	BackoffFactor  float64       `mapstructure:"backoff_factor"`
	Jitter         time.Duration `mapstructure:"jitter"`
	RetryExceptions []string     `mapstructure:"retry_exceptions"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the optional Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LLMConfig controls the LM stage adapter.
type LLMConfig struct {
	Model        string        `mapstructure:"model"`
	APIKeyEnv    string        `mapstructure:"api_key_env"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max_tokens"`
}

// Load reads configuration from environment, file, and defaults, in that precedence order
// (an OBSCLIP_* variable overrides the file, which overrides the built-in defaults).
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("obsclip")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/obsclip")
	}

	viperCfg.SetEnvPrefix("OBSCLIP")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Metrics.Enabled {
		if err := validatePort(cfg.Metrics.Address); err != nil {
			return err
		}
	}

	for name, p := range cfg.CitationFetcher.APIs {
		if !p.Enabled {
			continue
		}

		if p.RateLimit <= 0 {
			return fmt.Errorf("%w: provider %s has rate %v", ErrInvalidRateLimit, name, p.RateLimit)
		}

		if p.QualityThreshold < 0 || p.QualityThreshold > 1 {
			return fmt.Errorf("%w: provider %s has threshold %v", ErrInvalidQualityGate, name, p.QualityThreshold)
		}
	}

	if cfg.CitationPatternNormalizer.Enabled && cfg.CitationPatternNormalizer.BatchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, cfg.CitationPatternNormalizer.BatchSize)
	}

	return nil
}

func validatePort(addr string) error {
	// addr is host:port; a malformed value is caught by the HTTP server at bind time,
	// we only guard the degenerate empty-port case here.
	if addr == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidPort)
	}

	return nil
}
