package workflow

import (
	"fmt"
	"hash/fnv"
	"sync"
)

// FailureMode records how a single paper failed at a single stage.
type FailureMode struct {
	Path  string
	Stage string
	Err   error
	Panic bool
}

// Report summarizes one driver Run.
type Report struct {
	Processed int
	Failures  []FailureMode
}

// Options configures a Run.
type Options struct {
	// Workers bounds concurrency. A paper's stage work is assigned to
	// worker hash(path)%Workers, so the same paper is always handled by
	// the same worker across stages within one run (no cross-worker
	// races on a single paper's front-matter file). Workers<=1 runs
	// sequentially.
	Workers int

	// Stages restricts the run to a subset, in Stages order. Nil runs all.
	Stages []string
}

// stages returns opts.Stages if set, else the full fixed order.
func (o Options) stages() []string {
	if len(o.Stages) > 0 {
		return o.Stages
	}

	return Stages
}

// Run drives paths through stageFor per stage in fixed order. Each
// (path, stage) call is wrapped so a panic or error is recorded in the
// report rather than aborting the run; the paper simply does not advance
// past that stage this run (its front-matter still records whatever status
// the stage itself wrote before failing, or none if it never got to run).
func Run(paths []string, stageFor func(stage string) StageFunc, opts Options) Report {
	report := Report{}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	failed := map[string]bool{}

	for _, stage := range opts.stages() {
		fn := stageFor(stage)
		if fn == nil {
			continue
		}

		pending := make([]string, 0, len(paths))

		for _, path := range paths {
			if !failed[path] {
				pending = append(pending, path)
			}
		}

		buckets := bucketByWorker(pending, workers)

		var mu sync.Mutex

		var wg sync.WaitGroup

		for _, bucket := range buckets {
			bucket := bucket

			wg.Add(1)

			go func() {
				defer wg.Done()

				for _, path := range bucket {
					failure, ok := runOne(path, stage, fn)

					mu.Lock()

					report.Processed++

					if ok {
						report.Failures = append(report.Failures, failure)
						failed[path] = true
					}

					mu.Unlock()
				}
			}()
		}

		wg.Wait()
	}

	return report
}

// runOne executes fn for one paper at one stage, converting a panic into a
// FailureMode instead of letting it escape.
func runOne(path, stage string, fn StageFunc) (failure FailureMode, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			failure = FailureMode{Path: path, Stage: stage, Err: fmt.Errorf("panic: %v", r), Panic: true}
			failed = true
		}
	}()

	if err := fn(path); err != nil {
		return FailureMode{Path: path, Stage: stage, Err: err}, true
	}

	return FailureMode{}, false
}

// bucketByWorker partitions paths across workers by hash(path)%workers, so
// repeated runs assign the same paper to the same worker deterministically.
func bucketByWorker(paths []string, workers int) [][]string {
	buckets := make([][]string, workers)

	for _, p := range paths {
		h := fnv.New32a()
		_, _ = h.Write([]byte(p))

		idx := int(h.Sum32() % uint32(workers))
		buckets[idx] = append(buckets[idx], p)
	}

	return buckets
}
