// Package commands implements obsclip's CLI command handlers: one cobra.Command
// builder per subcommand, each wiring the shared runtime context (config,
// observability, bibliography) into the relevant pipeline package.
package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/shuu5/obsclip/internal/appconfig"
	"github.com/shuu5/obsclip/internal/bibliography"
	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/pkg/observability"
	"github.com/shuu5/obsclip/pkg/version"
)

// runtimeContext is the shared dependency bundle every subcommand's RunE
// builds once from persistent flags: one config+observability bundle
// threaded through each command handler.
type runtimeContext struct {
	Config  *appconfig.Config
	Obs     observability.Providers
	Bib     *bibliography.Bibliography
	Metrics *observability.REDMetrics

	ClippingsRoot string
}

func setupRuntime(cmd *cobra.Command, requireBibliography bool) (*runtimeContext, error) {
	configPath, _ := cmd.Flags().GetString("config")
	clippingsRoot, _ := cmd.Flags().GetString("clippings-root")
	bibPath, _ := cmd.Flags().GetString("bibliography")

	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.LogLevel = parseLevel(cfg.Logging.Level)

	obs, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	meter := obs.Meter

	if cfg.Metrics.Enabled {
		meter, err = serveMetrics(cfg.Metrics.Address, obs)
		if err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("init RED metrics: %w", err)
	}

	rc := &runtimeContext{Config: cfg, Obs: obs, Metrics: red, ClippingsRoot: clippingsRoot}

	if bibPath == "" {
		if requireBibliography {
			return nil, fmt.Errorf("--bibliography is required")
		}

		return rc, nil
	}

	bib, err := bibliography.Parse(bibPath)
	if err != nil {
		return nil, fmt.Errorf("parse bibliography: %w", err)
	}

	for _, w := range bib.Warnings {
		obs.Logger.Warn("bibliography warning", slog.String("detail", w))
	}

	rc.Bib = bib

	return rc, nil
}

// serveMetrics starts the Prometheus scrape endpoint in the background,
// wrapped in the same span/access-log middleware a served HTTP route would
// get. It never blocks command execution and its own failures after
// startup are only logged, since a dead metrics server must never abort a
// pipeline run. It returns the Prometheus-backed meter that the RED metrics
// are recorded on, so they appear at /metrics.
func serveMetrics(addr string, obs observability.Providers) (metric.Meter, error) {
	handler, promMeter, err := observability.PrometheusHandler()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.HTTPMiddleware(obs.Tracer, obs.Logger, handler))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	return promMeter, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// llmClientFor builds the configured LM client. When the API key variable is
// unset it returns a nil client and an error naming the variable; the run
// command then skips the LM stages (tagger, translate, ochiai).
func llmClientFor(cfg appconfig.LLMConfig) (llm.Client, error) {
	apiKey := envOrEmpty(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %q is not set", cfg.APIKeyEnv)
	}

	return llm.NewAnthropicClient(llm.Config{
		APIKey:    apiKey,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}), nil
}

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}

	return os.Getenv(name)
}
