package appconfig

import "github.com/spf13/viper"

// setDefaults installs every default for the configuration surface.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", ".")

	// Organize stage policy.
	v.SetDefault("workflows.organize.create_backup", true)
	v.SetDefault("workflows.organize.handle_duplicates", true)
	v.SetDefault("workflows.organize.update_yaml_header", true)

	// Sync stage policy.
	v.SetDefault("sync_checker.enabled", true)
	v.SetDefault("sync_checker.auto_fix_minor_issues", true)
	v.SetDefault("sync_checker.backup_before_auto_fix", true)
	v.SetDefault("sync_checker.display_doi_links", true)
	v.SetDefault("sync_checker.doi_link_format", "https://doi.org/%s")

	// Provider wiring.
	v.SetDefault("citation_fetcher.apis.crossref.enabled", true)
	v.SetDefault("citation_fetcher.apis.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("citation_fetcher.apis.crossref.rate_limit", 10.0)
	v.SetDefault("citation_fetcher.apis.crossref.timeout", "30s")
	v.SetDefault("citation_fetcher.apis.crossref.quality_threshold", 0.80)
	v.SetDefault("citation_fetcher.apis.crossref.api_key_env", "")

	v.SetDefault("citation_fetcher.apis.semantic_scholar.enabled", true)
	v.SetDefault("citation_fetcher.apis.semantic_scholar.base_url", "https://api.semanticscholar.org")
	v.SetDefault("citation_fetcher.apis.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("citation_fetcher.apis.semantic_scholar.timeout", "30s")
	v.SetDefault("citation_fetcher.apis.semantic_scholar.quality_threshold", 0.70)
	v.SetDefault("citation_fetcher.apis.semantic_scholar.api_key_env", "SEMANTIC_SCHOLAR_API_KEY")

	v.SetDefault("citation_fetcher.apis.opencitations.enabled", true)
	v.SetDefault("citation_fetcher.apis.opencitations.base_url", "https://opencitations.net/index/api/v1")
	v.SetDefault("citation_fetcher.apis.opencitations.rate_limit", 5.0)
	v.SetDefault("citation_fetcher.apis.opencitations.timeout", "30s")
	v.SetDefault("citation_fetcher.apis.opencitations.quality_threshold", 0.50)
	v.SetDefault("citation_fetcher.apis.opencitations.api_key_env", "")

	// Normalizer policy.
	v.SetDefault("citation_pattern_normalizer.enabled", true)
	v.SetDefault("citation_pattern_normalizer.batch_size", 20)
	v.SetDefault("citation_pattern_normalizer.retry_attempts", 2)
	v.SetDefault("citation_pattern_normalizer.grouped_citations", false)
	v.SetDefault("citation_pattern_normalizer.publisher_detection.auto_detect", true)
	v.SetDefault("citation_pattern_normalizer.publisher_detection.fallback_parser", "generic")
	v.SetDefault("citation_pattern_normalizer.notification.unsupported_pattern_alert", true)
	v.SetDefault("citation_pattern_normalizer.notification.new_parser_suggestion", true)
	v.SetDefault("citation_pattern_normalizer.patterns_config_path", "config/publisher_patterns.yaml")
	v.SetDefault("citation_pattern_normalizer.unknown_patterns_path", "config/unsupported_citation_patterns.yaml")

	// Status store policy.
	v.SetDefault("status_management.yaml_validation", true)
	v.SetDefault("status_management.auto_backup", true)
	v.SetDefault("status_management.timestamp_retention_days", 90)
	v.SetDefault("status_management.detailed_timestamp_tracking", true)
	v.SetDefault("status_management.backup_strategy.backup_before_status_update", true)
	v.SetDefault("status_management.error_handling.validate_yaml_before_update", true)
	v.SetDefault("status_management.error_handling.create_backup_on_yaml_error", true)
	v.SetDefault("status_management.error_handling.auto_repair_corrupted_headers", true)
	v.SetDefault("status_management.error_handling.fallback_to_backup_on_failure", true)

	// Default retry policy for transient provider/LM failures.
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "500ms")
	v.SetDefault("retry.backoff_factor", 2.0)
	v.SetDefault("retry.jitter", "100ms")
	v.SetDefault("retry.retry_exceptions", []string{"timeout", "connection", "rate_limit"})

	// Logging.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics.
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")

	// LM stage adapter.
	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_tokens", 2048)
}
