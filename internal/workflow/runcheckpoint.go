package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shuu5/obsclip/internal/errs"
)

// RunMetadataVersion is the current run-checkpoint format version.
const RunMetadataVersion = 1

// ErrClippingsRootMismatch is returned by Validate when a checkpoint was
// taken against a different corpus than the one being resumed.
var ErrClippingsRootMismatch = errors.New("clippings root mismatch")

// RunMetadata records which papers a prior workflow run finished, so a
// resumed run can skip them without re-walking and re-parsing every file's
// front matter.
type RunMetadata struct {
	Version         int       `json:"version"`
	ClippingsRoot   string    `json:"clippings_root"`
	Stages          []string  `json:"stages"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
	CompletedPaths  []string  `json:"completed_paths"`
}

// corpusHash computes a short, stable directory name for a clippings root,
// adapted from the repo-hash technique used to key per-repository checkpoint
// directories.
func corpusHash(clippingsRoot string) string {
	h := sha256.Sum256([]byte(clippingsRoot))

	return hex.EncodeToString(h[:8])
}

// DefaultCheckpointDir returns ~/.obsclip/checkpoints.
func DefaultCheckpointDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".obsclip", "checkpoints")
}

// RunCheckpoint persists resume state for one clippings root under baseDir.
type RunCheckpoint struct {
	BaseDir       string
	ClippingsRoot string
}

// NewRunCheckpoint returns a checkpoint keyed by clippingsRoot under baseDir.
func NewRunCheckpoint(baseDir, clippingsRoot string) *RunCheckpoint {
	return &RunCheckpoint{BaseDir: baseDir, ClippingsRoot: clippingsRoot}
}

func (c *RunCheckpoint) dir() string {
	return filepath.Join(c.BaseDir, corpusHash(c.ClippingsRoot))
}

// MetadataPath returns the on-disk location of this checkpoint's metadata
// file, keyed by a hash of ClippingsRoot.
func (c *RunCheckpoint) MetadataPath() string {
	return filepath.Join(c.dir(), "run.json")
}

func (c *RunCheckpoint) metadataPath() string {
	return c.MetadataPath()
}

// Exists reports whether a checkpoint is present for this clippings root.
func (c *RunCheckpoint) Exists() bool {
	_, err := os.Stat(c.metadataPath())

	return err == nil
}

// Clear removes the checkpoint.
func (c *RunCheckpoint) Clear() error {
	if _, err := os.Stat(c.dir()); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(c.dir()); err != nil {
		return errs.FileSystemErr("remove run checkpoint", err).WithContext("dir", c.dir())
	}

	return nil
}

// Save records the set of fully-completed paper paths for stages.
func (c *RunCheckpoint) Save(stages []string, completedPaths []string) error {
	if err := os.MkdirAll(c.dir(), 0o750); err != nil {
		return errs.FileSystemErr("create run checkpoint dir", err).WithContext("dir", c.dir())
	}

	now := time.Now().UTC().Format(time.RFC3339)

	meta := RunMetadata{
		Version:        RunMetadataVersion,
		ClippingsRoot:  c.ClippingsRoot,
		Stages:         stages,
		CreatedAt:      now,
		UpdatedAt:      now,
		CompletedPaths: completedPaths,
	}

	if existing, err := c.Load(); err == nil {
		meta.CreatedAt = existing.CreatedAt
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run checkpoint: %w", err)
	}

	if err := os.WriteFile(c.metadataPath(), data, 0o600); err != nil {
		return errs.FileSystemErr("write run checkpoint", err).WithContext("path", c.metadataPath())
	}

	return nil
}

// Load reads the checkpoint.
func (c *RunCheckpoint) Load() (*RunMetadata, error) {
	data, err := os.ReadFile(c.metadataPath())
	if err != nil {
		return nil, errs.FileSystemErr("read run checkpoint", err).WithContext("path", c.metadataPath())
	}

	var meta RunMetadata

	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal run checkpoint: %w", err)
	}

	return &meta, nil
}

// Validate confirms a loaded checkpoint matches clippingsRoot before it is
// used to skip papers on resume.
func (c *RunCheckpoint) Validate() error {
	meta, err := c.Load()
	if err != nil {
		return err
	}

	if meta.ClippingsRoot != c.ClippingsRoot {
		return fmt.Errorf("%w: checkpoint has %q, resuming %q", ErrClippingsRootMismatch, meta.ClippingsRoot, c.ClippingsRoot)
	}

	return nil
}

// RemainingPaths filters allPaths down to those not already recorded as
// completed in the checkpoint.
func RemainingPaths(meta *RunMetadata, allPaths []string) []string {
	done := make(map[string]bool, len(meta.CompletedPaths))
	for _, p := range meta.CompletedPaths {
		done[p] = true
	}

	var remaining []string

	for _, p := range allPaths {
		if !done[p] {
			remaining = append(remaining, p)
		}
	}

	return remaining
}
