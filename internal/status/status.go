// Package status implements the per-paper, per-step status lifecycle,
// layered over the front-matter codec. It follows a checkpoint
// manager/state/persister split: Manager owns update policy, State is the
// processing_status value object, and the read-modify-write loop is the
// thin persister logic in operations.go.
package status

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// Pending, Completed and Failed are the permitted processing_status values.
const (
	Pending   = "pending"
	Completed = "completed"
	Failed    = "failed"
)

// State is a single paper's recorded status for every step encountered in
// its front-matter (a mapping[step → status]).
type State map[string]string

// StatusOf returns the recorded status for step, defaulting to Pending when
// the key is absent.
func (s State) StatusOf(step string) string {
	v, ok := s[step]
	if !ok || v == "" {
		return Pending
	}

	return v
}

// NeedsRun reports whether step should still run: pending and failed are
// treated identically as "needs work"; completed is terminal.
func (s State) NeedsRun(step string) bool {
	return s.StatusOf(step) != Completed
}

// Policy controls Manager's update behavior.
type Policy struct {
	BackupOnUpdate   bool
	ValidateOnUpdate bool
	BackupDir        string
}

// Manager is the status package's entry point: load all statuses, update
// one, or list papers still needing a given step.
type Manager struct {
	Clock  clock.Clock
	Policy Policy
}

// NewManager returns a Manager with the given policy, using the real clock.
func NewManager(policy Policy) *Manager {
	return &Manager{Policy: policy, Clock: clock.Real{}}
}

// Paper identifies one corpus file and its parsed citation key.
type Paper struct {
	Path        string
	CitationKey string
}

// WalkPapers lists every *.md file under clippingsRoot, for callers (the CLI
// driver) that need the full corpus path list rather than a step-filtered one.
func WalkPapers(clippingsRoot string) ([]string, error) {
	return walkPapers(clippingsRoot)
}

// walkPapers lists every *.md file under clippingsRoot.
func walkPapers(clippingsRoot string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(clippingsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, errs.FileSystemErr("walk clippings root", err).WithContext("root", clippingsRoot)
	}

	return paths, nil
}

// citationKeyFor returns header.citation_key if set, else the filename
// (sans extension) as a best-effort fallback identifier.
func citationKeyFor(path string, header *orderedmap.Map) string {
	if key := header.GetString("citation_key"); key != "" {
		return key
	}

	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
