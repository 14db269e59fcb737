// Package workflow drives a corpus of papers through the fixed pipeline
// stage order, with per-paper error containment and optional bounded
// concurrency, adapted from a checkpoint/resume design originally built
// per-analyzer into one that checkpoints per pipeline stage.
package workflow

// Stages lists the fixed processing order. The driver runs the stages in
// this order and never reorders them; a paper whose call fails at one stage
// is not passed to the later stages in the same Run. Whether a paper needs
// a stage at all is decided by the StageFunc itself.
var Stages = []string{
	"organize",
	"sync",
	"fetch",
	"section_parsing",
	"ai_citation_support",
	"citation_pattern_normalizer",
	"tagger",
	"translate_abstract",
	"ochiai_format",
	"final_sync",
}

// StageFunc processes one paper at one stage. It receives the paper's
// absolute path and returns an error describing what went wrong; the driver
// never lets a StageFunc panic escape to the rest of the run.
type StageFunc func(path string) error
