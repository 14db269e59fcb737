// Package sync implements the post-organize consistency checker: compare
// Clippings against the bibliography and report (and optionally minimally
// auto-fix) drift.
package sync

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shuu5/obsclip/internal/backup"
	"github.com/shuu5/obsclip/internal/bibliography"
	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/doi"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/frontmatter"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// Severity of a detected consistency issue.
type Severity string

// Severities.
const (
	Minor Severity = "minor"
	Major Severity = "major"
)

// Issue is one detected inconsistency for a single file.
type Issue struct {
	Kind     string
	Detail   string
	Severity Severity
}

// FileReport is the per-file consistency outcome.
type FileReport struct {
	Path              string
	CitationKey       string
	Issues            []Issue
	AutoFixesApplied  int
	ConsistencyStatus string // "consistent" | "issues_detected"
}

// Report is the whole-corpus sync outcome.
type Report struct {
	Files               []FileReport
	MissingInClippings  []string // bibliography keys with no file
	OrphanedInClippings []string // files with no bibliography entry
}

// Options configures a Run.
type Options struct {
	AutoFix   bool
	BackupDir string
	Clock     clock.Clock
}

// Run checks every paper under clippingsRoot against bib.
func Run(bib *bibliography.Bibliography, clippingsRoot string, opts Options) (*Report, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	report := &Report{}

	var paths []string

	err := filepath.WalkDir(clippingsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, errs.FileSystemErr("walk clippings root", err).WithContext("root", clippingsRoot)
	}

	seenKeys := map[string]bool{}

	for _, path := range paths {
		fr, matchedKey, err := checkOne(bib, path, opts)
		if err != nil {
			return nil, err
		}

		report.Files = append(report.Files, *fr)

		if matchedKey == "" {
			report.OrphanedInClippings = append(report.OrphanedInClippings, path)
		} else {
			seenKeys[matchedKey] = true
		}
	}

	for key := range bib.ByKey {
		if !seenKeys[key] {
			report.MissingInClippings = append(report.MissingInClippings, key)
		}
	}

	return report, nil
}

func checkOne(bib *bibliography.Bibliography, path string, opts Options) (*FileReport, string, error) {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return nil, "", err
	}

	citationKey := doc.Header.GetString("citation_key")

	entry, ok := bib.ByKey[citationKey]
	if !ok {
		return &FileReport{Path: path, CitationKey: citationKey, ConsistencyStatus: "issues_detected"}, "", nil
	}

	var issues []Issue

	headerDOI, headerOK := doi.Normalize(doc.Header.GetString("doi"))
	bibDOI, bibOK := doi.Normalize(entry.DOI())

	if !headerOK || !bibOK || headerDOI != bibDOI {
		issues = append(issues, Issue{Kind: "doi_mismatch", Severity: Major, Detail: fmt.Sprintf("header=%q bib=%q", headerDOI, bibDOI)})
	}

	if titleMismatch := compareTitles(doc.Header.GetString("title"), entry.Title()); titleMismatch != "" {
		issues = append(issues, Issue{Kind: "title_mismatch", Severity: Severity(titleMismatch), Detail: "title differs from bibliography"})
	}

	expectedFilename := citationKey + ".md"
	actualFilename := filepath.Base(path)

	if actualFilename != expectedFilename {
		issues = append(issues, Issue{Kind: "filename_mismatch", Severity: Minor, Detail: fmt.Sprintf("expected %q, got %q", expectedFilename, actualFilename)})
	}

	fixesApplied := 0

	if opts.AutoFix {
		var fixed []Issue
		fixed, issues = applyAutoFixes(doc, &path, issues, opts)
		fixesApplied = len(fixed)
	}

	status := "consistent"
	if len(issues) > 0 {
		status = "issues_detected"
	}

	writeSyncMetadata(doc, status, len(issues), fixesApplied, opts.Clock.Now())

	stepStatus := "failed"
	if len(issues) == 0 {
		stepStatus = "completed"
	}

	setStepStatus(doc.Header, "sync", stepStatus, opts.Clock.Now())

	if err := frontmatter.Write(path, doc); err != nil {
		return nil, "", err
	}

	return &FileReport{
		Path:              path,
		CitationKey:       citationKey,
		Issues:            issues,
		AutoFixesApplied:  fixesApplied,
		ConsistencyStatus: status,
	}, citationKey, nil
}

// compareTitles returns "" if titles match, "minor" if they match modulo
// whitespace, "major" otherwise.
func compareTitles(headerTitle, bibTitle string) string {
	h := strings.ToLower(strings.TrimSpace(headerTitle))
	b := strings.ToLower(strings.TrimSpace(bibTitle))

	if h == b {
		return ""
	}

	if stripWhitespace(h) == stripWhitespace(b) {
		return string(Minor)
	}

	return string(Major)
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// applyAutoFixes fixes only minor issues; today this is filename
// normalization. A backup is always created first. It returns the issues it
// actually fixed and the remaining issue list with only those removed — an
// issue whose backup or rename step fails stays in the remaining list and
// is never reported as fixed, even though AutoFix was requested.
func applyAutoFixes(doc *frontmatter.Document, path *string, issues []Issue, opts Options) ([]Issue, []Issue) {
	var fixed []Issue

	var remaining []Issue

	for _, issue := range issues {
		if issue.Kind != "filename_mismatch" || issue.Severity != Minor {
			remaining = append(remaining, issue)
			continue
		}

		citationKey := doc.Header.GetString("citation_key")
		dir := filepath.Dir(*path)
		target := filepath.Join(dir, citationKey+".md")

		backupDir := opts.BackupDir
		if backupDir == "" {
			backupDir = filepath.Join(dir, ".obsclip-backups")
		}

		if _, err := backup.Copy(*path, backupDir, opts.Clock); err != nil {
			remaining = append(remaining, issue)
			continue
		}

		if err := os.Rename(*path, target); err != nil {
			remaining = append(remaining, issue)
			continue
		}

		*path = target
		fixed = append(fixed, issue)
	}

	return fixed, remaining
}

func writeSyncMetadata(doc *frontmatter.Document, status string, issuesDetected, autoFixed int, now time.Time) {
	meta := orderedmap.New()
	meta.Set("checked_at", now.Format(time.RFC3339Nano))
	meta.Set("consistency_status", status)
	meta.Set("issues_detected", issuesDetected)
	meta.Set("auto_corrections_applied", autoFixed)

	doc.Header.Set("sync_metadata", meta)
}

func setStepStatus(header *orderedmap.Map, step, value string, now time.Time) {
	statusMap := header.GetMap("processing_status")
	if statusMap == nil {
		statusMap = orderedmap.New()
		header.Set("processing_status", statusMap)
	}

	statusMap.Set(step, value)
	header.Set("last_updated", now.Format(time.RFC3339Nano))
}

// DOIResolverURL renders the human-readable resolver link for an affected
// bibliography/orphan item, as a reporting aid.
func DOIResolverURL(normalizedDOI string) string {
	return "https://doi.org/" + normalizedDOI
}
