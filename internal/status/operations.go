package status

import (
	"io"
	"os"
	"time"

	"github.com/shuu5/obsclip/internal/backup"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// LoadAll parses every paper under clippingsRoot and returns its recorded
// step statuses, keyed by citation key.
func (m *Manager) LoadAll(clippingsRoot string) (map[string]State, error) {
	paths, err := walkPapers(clippingsRoot)
	if err != nil {
		return nil, err
	}

	result := make(map[string]State, len(paths))

	for _, path := range paths {
		doc, err := frontmatter.Parse(path)
		if err != nil {
			continue // unparseable files are surfaced by validate/repair flows, not load_all
		}

		key := citationKeyFor(path, doc.Header)
		result[key] = stateFromHeader(doc.Header)
	}

	return result, nil
}

func stateFromHeader(header *orderedmap.Map) State {
	state := State{}

	statusMap := header.GetMap("processing_status")
	if statusMap == nil {
		return state
	}

	for _, step := range statusMap.Keys() {
		v, _ := statusMap.Get(step)
		if s, ok := v.(string); ok {
			state[step] = s
		}
	}

	return state
}

// GetPapersNeeding returns the paths of papers whose recorded status for
// step is pending or failed (absent counts as pending), optionally
// restricted to targetKeys.
func (m *Manager) GetPapersNeeding(clippingsRoot, step string, targetKeys []string) ([]string, error) {
	paths, err := walkPapers(clippingsRoot)
	if err != nil {
		return nil, err
	}

	var wanted map[string]bool

	if targetKeys != nil {
		wanted = make(map[string]bool, len(targetKeys))
		for _, k := range targetKeys {
			wanted[k] = true
		}
	}

	var matches []string

	for _, path := range paths {
		doc, err := frontmatter.Parse(path)
		if err != nil {
			continue
		}

		key := citationKeyFor(path, doc.Header)
		if wanted != nil && !wanted[key] {
			continue
		}

		state := stateFromHeader(doc.Header)
		if state.NeedsRun(step) {
			matches = append(matches, path)
		}
	}

	return matches, nil
}

// NeedsRun reports whether the paper at path still needs step to run,
// consulting its recorded processing_status the same way GetPapersNeeding
// does for a whole corpus, for callers that gate one path at a time.
func (m *Manager) NeedsRun(path, step string) (bool, error) {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return false, err
	}

	return stateFromHeader(doc.Header).NeedsRun(step), nil
}

// Update is Manager's single mutator. It backs up (policy-gated), re-parses,
// validates (policy-gated), sets processing_status[step], refreshes
// last_updated, appends a processing_timestamps[step] record, and writes
// atomically. On a YAML error it retries once via repair; on any other
// write failure it restores the backup and retries once.
func (m *Manager) Update(path, step, newStatus string) error {
	err := m.updateOnce(path, step, newStatus)
	if err == nil {
		return nil
	}

	if errs.IsKind(err, errs.KindYAML) {
		return m.updateAfterRepair(path, step, newStatus)
	}

	return m.updateAfterRestore(path, step, newStatus, err)
}

func (m *Manager) updateOnce(path, step, newStatus string) error {
	var backupPath string

	if m.Policy.BackupOnUpdate {
		bp, err := backup.Copy(path, m.backupDir(path), m.Clock)
		if err != nil {
			return err
		}

		backupPath = bp
	}

	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	if m.Policy.ValidateOnUpdate {
		if err := frontmatter.ValidateStructure(doc.Header); err != nil {
			return err
		}
	}

	applyUpdate(doc.Header, step, newStatus, m.Clock.Now())

	if err := frontmatter.Write(path, doc); err != nil {
		if backupPath != "" {
			_ = restoreFromBackup(backupPath, path)
		}

		return err
	}

	return nil
}

func applyUpdate(header *orderedmap.Map, step, newStatus string, now time.Time) {
	statusMap := header.GetMap("processing_status")
	if statusMap == nil {
		statusMap = orderedmap.New()
		header.Set("processing_status", statusMap)
	}

	statusMap.Set(step, newStatus)
	header.Set("last_updated", now.Format(time.RFC3339Nano))

	timestamps := header.GetMap("processing_timestamps")
	if timestamps == nil {
		timestamps = orderedmap.New()
		header.Set("processing_timestamps", timestamps)
	}

	record := orderedmap.New()
	record.Set("timestamp", now.Format(time.RFC3339Nano))
	record.Set("operation", "update")
	record.Set("status", newStatus)

	existing, _ := timestamps.Get(step)
	records, _ := existing.([]any)
	timestamps.Set(step, append(records, record))
}

func (m *Manager) updateAfterRepair(path, step, newStatus string) error {
	original, readErr := readFileBytes(path)
	if readErr != nil {
		return readErr
	}

	doc, _, err := frontmatter.Repair(path, original, m.backupDir(path), m.Clock)
	if err != nil {
		return err
	}

	applyUpdate(doc.Header, step, newStatus, m.Clock.Now())

	return frontmatter.Write(path, doc)
}

func (m *Manager) updateAfterRestore(path, step, newStatus string, firstErr error) error {
	if err := m.updateOnce(path, step, newStatus); err != nil {
		return firstErr
	}

	return nil
}

func readFileBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FileSystemErr("read file for repair", err).WithContext("path", path)
	}

	return data, nil
}

func restoreFromBackup(backupPath, target string) error {
	src, err := os.Open(backupPath)
	if err != nil {
		return errs.FileSystemErr("open backup for restore", err).WithContext("path", backupPath)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errs.FileSystemErr("open target for restore", err).WithContext("path", target)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errs.FileSystemErr("copy backup contents to target", err).WithContext("path", target)
	}

	return nil
}

func (m *Manager) backupDir(path string) string {
	if m.Policy.BackupDir != "" {
		return m.Policy.BackupDir
	}

	return path + ".backups"
}
