package bibliography

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shuu5/obsclip/internal/errs"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// EmissionRecord is one reference destined for a references.bib sidecar,
// pre-ordinal-assignment.
type EmissionRecord struct {
	Title     string
	Author    string
	Journal   string
	Year      string
	Volume    string
	Pages     string
	DOI       string
	SourceKey string // synthetic key hint (e.g. first-author surname), may be empty
}

// WriteReferencesBib sorts records alphabetically by title (stable), assigns
// 1-based ordinals, synthesizes a citation key per record, and writes the
// result as a BibTeX file at path, atomically. It returns the original
// index of each record in the order it was written, so a caller holding
// parallel per-record data (e.g. front-matter citation entries) can derive
// the same ordinal assignment instead of re-sorting independently.
func WriteReferencesBib(path string, records []EmissionRecord, keyer func(EmissionRecord, int) string) ([]int, error) {
	order := make([]int, len(records))
	for i := range records {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return strings.ToLower(records[order[i]].Title) < strings.ToLower(records[order[j]].Title)
	})

	sorted := make([]EmissionRecord, len(records))
	for i, idx := range order {
		sorted[i] = records[idx]
	}

	var buf strings.Builder

	for i, rec := range sorted {
		number := i + 1
		key := keyer(rec, number)
		entryType := "misc"

		if rec.Journal != "" {
			entryType = "article"
		}

		fmt.Fprintf(&buf, "@%s{%s,\n", entryType, key)
		writeFieldIfSet(&buf, "title", rec.Title)
		writeFieldIfSet(&buf, "author", rec.Author)
		writeFieldIfSet(&buf, "journal", rec.Journal)
		writeFieldIfSet(&buf, "year", rec.Year)
		writeFieldIfSet(&buf, "volume", rec.Volume)
		writeFieldIfSet(&buf, "pages", rec.Pages)
		writeFieldIfSet(&buf, "doi", rec.DOI)
		fmt.Fprintf(&buf, "  number = {%d}\n", number)
		buf.WriteString("}\n\n")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errs.FileSystemErr("create references.bib parent directory", err).WithContext("path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".obsclip-bib-*.tmp")
	if err != nil {
		return nil, errs.FileSystemErr("create temp file for references.bib", err).WithContext("path", path)
	}
	tmpPath := tmp.Name()

	if _, writeErr := tmp.WriteString(buf.String()); writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return nil, errs.FileSystemErr("write references.bib", writeErr).WithContext("path", path)
	}

	if syncErr := tmp.Sync(); syncErr != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return nil, errs.FileSystemErr("fsync references.bib", syncErr).WithContext("path", path)
	}

	tmp.Close()
	os.Chmod(tmpPath, filePerm)

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		os.Remove(tmpPath)

		return nil, errs.FileSystemErr("rename references.bib into place", renameErr).WithContext("path", path)
	}

	return order, nil
}

func writeFieldIfSet(buf *strings.Builder, name, value string) {
	if value == "" {
		return
	}

	fmt.Fprintf(buf, "  %s = {%s},\n", name, value)
}
