package frontmatter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shuu5/obsclip/internal/backup"
	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// filenameCitationKey extracts a plausible citation key from a bare filename,
// for Repair's synthesize-minimal-header fallback. Reuses the same shape as
// the organize engine's inference patterns (surname + year, optional suffix).
var filenameCitationKey = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]{1,30}\d{4}[a-zA-Z]?)`)

// Repair salvages a paper file whose front-matter failed to parse. It always
// backs up the original content first (to backupDir, via clk for the
// timestamp suffix), then tries, in order:
//  1. salvage-truncate: if a closing fence exists but the header YAML itself
//     is malformed, retry with progressively shorter header content dropped
//     from the end (handles a truncated write);
//  2. synthesize-minimal-header: when no usable fence/header survives,
//     fabricate a minimal header (citation_key guessed from the filename,
//     workflow_version set to current, every processing_status step
//     "pending") and treat
//     the entire original content as body.
//
// Repair never discards data: the pre-repair bytes remain in backupDir.
func Repair(path string, original []byte, backupDir string, clk clock.Clock) (*Document, string, error) {
	backupPath, err := backup.Copy(path, backupDir, clk)
	if err != nil {
		return nil, "", errs.FileSystemErr("back up file before repair", err).WithContext("path", path)
	}

	if doc, salvageErr := salvageTruncate(original); salvageErr == nil {
		return doc, backupPath, nil
	}

	return synthesizeMinimal(path, original), backupPath, nil
}

// salvageTruncate retries ParseBytes after stripping progressively more
// trailing header content, in case the header was interrupted by a partial
// write but the rest of the file is intact.
func salvageTruncate(original []byte) (*Document, error) {
	headerText, body, err := splitFences(original)
	if err != nil {
		return nil, err
	}

	lines := splitKeepingNewlines(headerText)

	for drop := 0; drop < len(lines); drop++ {
		candidate := lines[:len(lines)-drop]

		var buf strings.Builder
		for _, l := range candidate {
			buf.Write(l)
		}

		header, decodeErr := parseHeaderYAML([]byte(buf.String()))
		if decodeErr == nil {
			return &Document{Header: header, Body: body}, nil
		}
	}

	return nil, errs.YAML("salvage-truncate exhausted header lines without a parseable prefix", nil)
}

// synthesizeMinimal fabricates the smallest header that satisfies
// ValidateStructure, guessing citation_key from the filename and leaving the
// original content as body verbatim.
func synthesizeMinimal(path string, original []byte) *Document {
	header := orderedmap.New()

	key := guessCitationKey(filepath.Base(path))
	header.Set("citation_key", key)
	header.Set("workflow_version", "3.2")

	status := orderedmap.New()
	for _, step := range Steps {
		status.Set(step, "pending")
	}

	header.Set("processing_status", status)

	return &Document{Header: header, Body: string(original)}
}

func guessCitationKey(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := filenameCitationKey.FindStringSubmatch(base); m != nil {
		return m[1]
	}

	return base
}
