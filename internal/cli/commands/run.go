package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuu5/obsclip/internal/citation/fetch"
	"github.com/shuu5/obsclip/internal/citation/normalize"
	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/organize"
	"github.com/shuu5/obsclip/internal/stages/aicitationsupport"
	"github.com/shuu5/obsclip/internal/stages/ochiai"
	"github.com/shuu5/obsclip/internal/stages/sectionparsing"
	"github.com/shuu5/obsclip/internal/stages/tagger"
	"github.com/shuu5/obsclip/internal/stages/translate"
	"github.com/shuu5/obsclip/internal/status"
	"github.com/shuu5/obsclip/internal/sync"
	"github.com/shuu5/obsclip/internal/workflow"
)

// perPaperStages is the subset of workflow.Stages the driver handles one
// paper at a time. organize, sync and final_sync reconcile the whole corpus
// against the bibliography in one pass and run outside the driver, before
// and after this subset.
var perPaperStages = []string{
	"fetch",
	"section_parsing",
	"ai_citation_support",
	"citation_pattern_normalizer",
	"tagger",
	"translate_abstract",
	"ochiai_format",
}

func newRunCommand() *cobra.Command {
	var workers int

	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the full pipeline over the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setupRuntime(cmd, true)
			if err != nil {
				return err
			}

			ctx := context.Background()

			if err := runReconciliation(rc, "organize"); err != nil {
				return err
			}

			if rc.Config.SyncChecker.Enabled {
				if err := runReconciliation(rc, "sync"); err != nil {
					return err
				}
			}

			paths, err := status.WalkPapers(rc.ClippingsRoot)
			if err != nil {
				return fmt.Errorf("walk corpus: %w", err)
			}

			ckpt := workflow.NewRunCheckpoint(workflow.DefaultCheckpointDir(), rc.ClippingsRoot)

			if resume && ckpt.Exists() {
				if err := ckpt.Validate(); err != nil {
					return fmt.Errorf("checkpoint: %w", err)
				}

				meta, err := ckpt.Load()
				if err != nil {
					return fmt.Errorf("load checkpoint: %w", err)
				}

				remaining := workflow.RemainingPaths(meta, paths)
				rc.Obs.Logger.Info("resuming run", slog.Int("remaining", len(remaining)), slog.Int("total", len(paths)))
				paths = remaining
			}

			stageFor := statusGatedDispatch(rc, instrumentedDispatch(ctx, rc, buildStageDispatch(ctx, rc)))

			report := workflow.Run(paths, stageFor, workflow.Options{Workers: workers, Stages: perPaperStages})

			for _, f := range report.Failures {
				rc.Obs.Logger.Error("stage failed",
					slog.String("path", f.Path), slog.String("stage", f.Stage),
					slog.Bool("panic", f.Panic), slog.String("error", f.Err.Error()))
			}

			rc.Obs.Logger.Info("pipeline stages complete",
				slog.Int("papers", len(paths)), slog.Int("processed", report.Processed),
				slog.Int("failures", len(report.Failures)))

			if rc.Config.SyncChecker.Enabled {
				if err := runReconciliation(rc, "final_sync"); err != nil {
					return err
				}
			}

			completed := completedPaths(paths, report.Failures)
			if err := ckpt.Save(perPaperStages, completed); err != nil {
				rc.Obs.Logger.Warn("failed to save checkpoint", slog.String("error", err.Error()))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "bounded per-paper concurrency within a stage")
	cmd.Flags().BoolVar(&resume, "resume", false, "skip papers a prior run already completed, per the run checkpoint")

	return cmd
}

// runReconciliation runs organize or sync (including final_sync) as a single
// whole-corpus pass; both operate on the full directory tree rather than one
// paper at a time, so they sit outside the per-paper driver.
func runReconciliation(rc *runtimeContext, which string) error {
	switch which {
	case "organize":
		report, err := organize.Run(rc.Bib, rc.ClippingsRoot, organize.Options{Clock: clock.Real{}})
		if err != nil {
			return fmt.Errorf("organize: %w", err)
		}

		rc.Obs.Logger.Info("organize complete",
			slog.Int("organized", len(report.Organized)),
			slog.Int("missing_in_clippings", len(report.MissingInClippings)),
			slog.Int("orphaned_in_clippings", len(report.OrphanedInClippings)))

		return nil
	case "sync", "final_sync":
		report, err := sync.Run(rc.Bib, rc.ClippingsRoot, sync.Options{
			AutoFix: rc.Config.SyncChecker.AutoFixMinorIssues,
			Clock:   clock.Real{},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", which, err)
		}

		rc.Obs.Logger.Info(which+" complete", slog.Int("files_checked", len(report.Files)))

		return nil
	default:
		return nil
	}
}

func buildStageDispatch(ctx context.Context, rc *runtimeContext) func(stage string) workflow.StageFunc {
	slots := providerSlots(rc.Config.CitationFetcher)
	policy := retryPolicyFrom(rc)

	npCfg := rc.Config.CitationPatternNormalizer

	registry, regErr := normalize.LoadRegistry(npCfg.PatternsConfigPath)
	if regErr != nil {
		rc.Obs.Logger.Warn("citation pattern registry unavailable, using generic fallback", slog.String("error", regErr.Error()))
	}

	logPath := npCfg.UnknownPatternsPath
	if logPath == "" {
		logPath = "unknown_patterns.jsonl"
	}

	unknownLog := normalize.NewUnknownPatternLog(logPath)

	client, llmErr := llmClientFor(rc.Config.LLM)
	if llmErr != nil {
		rc.Obs.Logger.Warn("LM client unavailable, skipping tagger/translate/ochiai stages", slog.String("error", llmErr.Error()))
	}

	return func(stage string) workflow.StageFunc {
		switch stage {
		case "fetch":
			if len(slots) == 0 {
				return nil
			}

			return func(path string) error { return runFetchOne(ctx, path, slots, policy) }
		case "section_parsing":
			return func(path string) error { return runSectionParsingOne(path) }
		case "ai_citation_support":
			return func(path string) error { return runAICitationSupportOne(path) }
		case "citation_pattern_normalizer":
			if registry == nil {
				return nil
			}

			return func(path string) error { return runNormalizeOne(path, registry, unknownLog) }
		case "tagger":
			if client == nil {
				return nil
			}

			return func(path string) error { return runTaggerOne(ctx, path, client) }
		case "translate_abstract":
			if client == nil {
				return nil
			}

			return func(path string) error { return runTranslateOne(ctx, path, client) }
		case "ochiai_format":
			if client == nil {
				return nil
			}

			return func(path string) error { return runOchiaiOne(ctx, path, client) }
		default:
			return nil
		}
	}
}

// statusGatedDispatch wraps each stage's StageFunc so a paper already
// recorded as completed for that step is skipped entirely rather than
// re-run, the same way fetch and normalize filter their standalone
// candidate lists through status.Manager.GetPapersNeeding before looping.
// This makes run idempotent against front-matter processing_status, the
// source of truth, independent of the separate --resume run checkpoint.
func statusGatedDispatch(rc *runtimeContext, inner func(stage string) workflow.StageFunc) func(stage string) workflow.StageFunc {
	mgr := status.NewManager(status.Policy{})

	return func(stage string) workflow.StageFunc {
		fn := inner(stage)
		if fn == nil {
			return nil
		}

		return func(path string) error {
			needsRun, err := mgr.NeedsRun(path, stage)
			if err != nil {
				return err
			}

			if !needsRun {
				return nil
			}

			return fn(path)
		}
	}
}

// instrumentedDispatch wraps each stage's StageFunc so every per-paper
// invocation records a RED metric sample (rate, errors, duration) under
// the stage name as its operation label.
func instrumentedDispatch(ctx context.Context, rc *runtimeContext, inner func(stage string) workflow.StageFunc) func(stage string) workflow.StageFunc {
	return func(stage string) workflow.StageFunc {
		fn := inner(stage)
		if fn == nil {
			return nil
		}

		return func(path string) error {
			done := rc.Metrics.TrackInflight(ctx, stage)
			defer done()

			start := time.Now()
			err := fn(path)

			outcome := "ok"
			if err != nil {
				outcome = "error"
			}

			rc.Metrics.RecordRequest(ctx, stage, outcome, time.Since(start))

			return err
		}
	}
}

func retryPolicyFrom(rc *runtimeContext) fetch.RetryPolicy {
	return fetch.RetryPolicy{
		MaxAttempts:   rc.Config.Retry.MaxAttempts,
		Delay:         rc.Config.Retry.Delay,
		BackoffFactor: rc.Config.Retry.BackoffFactor,
	}
}

func runSectionParsingOne(path string) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	sections := sectionparsing.Parse(doc.Body)
	sectionparsing.ApplyToHeader(doc.Header, sections, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

func runAICitationSupportOne(path string) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	check := aicitationsupport.Run(doc.Body, doc.Header.GetMap("citations"))
	aicitationsupport.ApplyToHeader(doc.Header, check, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

func runTaggerOne(ctx context.Context, path string, client llm.Client) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	title := doc.Header.GetString("title")
	abstract := abstractFrom(doc.Body)

	tags, err := tagger.Run(ctx, client, title, abstract)
	if err != nil {
		return err
	}

	tagger.ApplyToHeader(doc.Header, tags, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

func runTranslateOne(ctx context.Context, path string, client llm.Client) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	abstract := abstractFrom(doc.Body)

	translated, err := translate.Run(ctx, client, abstract)
	if err != nil {
		return err
	}

	translate.ApplyToHeader(doc.Header, translated, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

func runOchiaiOne(ctx context.Context, path string, client llm.Client) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	summary, err := ochiai.Run(ctx, client, doc.Body)
	if err != nil {
		return err
	}

	ochiai.ApplyToHeader(doc.Header, summary, clock.Real{}.Now())

	return frontmatter.Write(path, doc)
}

// abstractFrom pulls the body text of the paper's "abstract" section, as
// classified by the section_parsing stage; falling back to the body's first
// non-empty line that is not a heading when no abstract heading was found.
func abstractFrom(body string) string {
	lines := strings.Split(body, "\n")

	for _, sec := range sectionparsing.Parse(body) {
		if sec.SectionType != "abstract" {
			continue
		}

		return joinLines(lines, sec.StartLine, sec.EndLine)
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return trimmed
		}
	}

	return ""
}

// joinLines returns the text spanning the 1-based inclusive line range
// [start, end], matching the convention of sectionparsing.Section.StartLine
// and EndLine.
func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}

	if end > len(lines) {
		end = len(lines)
	}

	if start > end {
		return ""
	}

	return strings.TrimSpace(strings.Join(lines[start-1:end], "\n"))
}

func completedPaths(all []string, failures []workflow.FailureMode) []string {
	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Path] = true
	}

	completed := make([]string, 0, len(all))

	for _, p := range all {
		if !failed[p] {
			completed = append(completed, p)
		}
	}

	return completed
}
