// Package fetch implements the multi-provider fallback orchestrator: try
// each provider in order, gate on quality, and emit the accepted reference
// list.
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shuu5/obsclip/internal/citation/providers"
	"github.com/shuu5/obsclip/internal/citation/quality"
	"github.com/shuu5/obsclip/internal/errs"
)

// ProviderSlot pairs a client with its quality gate.
type ProviderSlot struct {
	Client         providers.Client
	QualityGate    float64
}

// RetryPolicy carries the configured retry.* settings that fetchWithRetry
// uses: MaxAttempts (total calls per provider) and Delay (the first wait).
// Each later wait is double the previous one; BackoffFactor is carried but
// not applied, and no jitter is added.
type RetryPolicy struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
}

// ProviderOutcome records one provider attempt for the statistics block.
type ProviderOutcome struct {
	Provider string
	Accepted bool
	Quality  float64
	Err      error
}

// Result is the outcome of a Fetch call.
type Result struct {
	References   []providers.Reference
	APIUsed      string
	QualityScore float64
	Outcomes     []ProviderOutcome
}

// Fetch tries each provider slot in order, applying retry to transient
// failures, and returns the first accepted (quality ≥ gate) list.
func Fetch(ctx context.Context, doi string, slots []ProviderSlot, policy RetryPolicy) (*Result, error) {
	result := &Result{}

	for _, slot := range slots {
		refs, err := fetchWithRetry(ctx, slot.Client, doi, policy)

		outcome := ProviderOutcome{Provider: slot.Client.Name()}

		if err != nil {
			outcome.Err = err
			result.Outcomes = append(result.Outcomes, outcome)

			continue
		}

		score := quality.Score(refs)
		outcome.Quality = score

		if score >= slot.QualityGate {
			outcome.Accepted = true
			result.Outcomes = append(result.Outcomes, outcome)

			result.References = refs
			result.APIUsed = slot.Client.Name()
			result.QualityScore = score

			return result, nil
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, errs.Processing("all providers exhausted without meeting quality gate", nil).WithContext("doi", doi)
}

// fetchWithRetry wraps one provider call with exponential backoff over
// transient (connection/timeout/rate-limit) API errors. Non-transient
// failures (4xx/invalid-json) are returned immediately.
func fetchWithRetry(ctx context.Context, client providers.Client, doi string, policy RetryPolicy) ([]providers.Reference, error) {
	backoff, err := retry.NewExponential(policy.delayOrDefault())
	if err != nil {
		return nil, err
	}

	backoff = retry.WithMaxRetries(uint64(policy.attemptsOrDefault()-1), backoff)

	var refs []providers.Reference

	runErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := client.FetchReferences(ctx, doi)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}

			return err
		}

		refs = r

		return nil
	})

	return refs, runErr
}

func isTransient(err error) bool {
	return errs.IsKind(err, errs.KindAPI) && (errs.IsAPIRateLimit(err) || isConnectionOrTimeout(err))
}

func isConnectionOrTimeout(err error) bool {
	var e *errs.Error
	if !errors.As(err, &e) {
		return false
	}

	return e.APIKind == errs.APIConnection || e.APIKind == errs.APITimeout
}

func (p RetryPolicy) delayOrDefault() time.Duration {
	if p.Delay > 0 {
		return p.Delay
	}

	return 500 * time.Millisecond
}

func (p RetryPolicy) attemptsOrDefault() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}

	return 3
}
