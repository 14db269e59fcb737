// Package organize implements the corpus-to-bibliography reconciliation
// engine: match staged paper files to bibliography entries by DOI and
// move them into their canonical per-citation-key location.
package organize

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
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

// citationKeyPatterns are tried in order against a bare filename when a
// paper arrives without citation_key set.
var citationKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Za-z]{1,20}\d{4}[a-zA-Z]?)(?:_.*)?\.md$`),
	regexp.MustCompile(`^([A-Za-z]{1,15}[A-Z][A-Za-z]{1,15}\d{4}[a-zA-Z]?)(?:_.*)?\.md$`),
	regexp.MustCompile(`^(\w{1,20}_\d{4}[a-zA-Z]?)(?:_.*)?\.md$`),
}

// InferCitationKey applies the ordered fallback patterns to filename,
// returning the first match's capture group, or "" if none match.
func InferCitationKey(filename string) string {
	for _, re := range citationKeyPatterns {
		if m := re.FindStringSubmatch(filename); m != nil {
			return m[1]
		}
	}

	return ""
}

// Options configures a Run.
type Options struct {
	BackupDir string
	Clock     clock.Clock
}

// Report is the drift + outcome report for one organize run.
type Report struct {
	MissingInClippings []string // citation keys of bibliography entries with no file
	OrphanedInClippings []string // files whose DOI isn't in the bibliography
	NoDOIInMarkdown     []string // files without a parseable DOI
	Organized           []string // paths moved into canonical location
	ProcessingFailed    map[string]error
}

// Run walks clippingsRoot, matches files to bib by DOI, and organizes matches
// into <clippingsRoot>/<citation_key>/<citation_key>.md.
func Run(bib *bibliography.Bibliography, clippingsRoot string, opts Options) (*Report, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	report := &Report{ProcessingFailed: map[string]error{}}

	paths, err := listMarkdownFiles(clippingsRoot)
	if err != nil {
		return nil, err
	}

	doiToKey := make(map[string]string, len(bib.ByDOI))
	for d, k := range bib.ByDOI {
		doiToKey[d] = k
	}

	matchedDOIs := map[string]bool{}

	for _, path := range paths {
		func() {
			defer func() {
				if r := recover(); r != nil {
					report.ProcessingFailed[path] = errs.Processing("panic while organizing file", nil).WithContext("recovered", r)
				}
			}()

			if err := organizeOne(path, clippingsRoot, doiToKey, matchedDOIs, report, opts); err != nil {
				report.ProcessingFailed[path] = err
			}
		}()
	}

	for d, key := range doiToKey {
		if !matchedDOIs[d] {
			report.MissingInClippings = append(report.MissingInClippings, key)
		}
	}

	return report, nil
}

func organizeOne(path, clippingsRoot string, doiToKey map[string]string, matchedDOIs map[string]bool, report *Report, opts Options) error {
	doc, err := frontmatter.Parse(path)
	if err != nil {
		return err
	}

	rawDOI := doc.Header.GetString("doi")

	normalized, ok := doi.Normalize(rawDOI)
	if !ok {
		report.NoDOIInMarkdown = append(report.NoDOIInMarkdown, path)

		return nil
	}

	citationKey, found := doiToKey[normalized]
	if !found {
		report.OrphanedInClippings = append(report.OrphanedInClippings, path)

		return nil
	}

	matchedDOIs[normalized] = true

	targetDir := filepath.Join(clippingsRoot, citationKey)
	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return errs.FileSystemErr("create citation-key directory", err).WithContext("dir", targetDir)
	}

	targetPath := filepath.Join(targetDir, citationKey+".md")

	doc.Header.Set("citation_key", citationKey)
	statusMap := doc.Header.GetMap("processing_status")
	if statusMap == nil {
		statusMap = orderedmap.New()
		doc.Header.Set("processing_status", statusMap)
	}
	statusMap.Set("organize", "completed")
	doc.Header.Set("last_updated", opts.Clock.Now().Format(time.RFC3339Nano))

	if err := resolveCollisionAndWrite(path, targetPath, doc, opts); err != nil {
		return err
	}

	report.Organized = append(report.Organized, targetPath)

	return nil
}

// resolveCollisionAndWrite writes doc to targetPath, applying the collision
// policy when a different file already occupies targetPath.
func resolveCollisionAndWrite(srcPath, targetPath string, doc *frontmatter.Document, opts Options) error {
	if srcPath != targetPath {
		if identical, err := filesIdentical(srcPath, targetPath); err == nil && identical {
			return nil // already organized; no backup churn
		}

		if fileExists(targetPath) {
			if err := evictExisting(targetPath, opts); err != nil {
				return err
			}
		}
	}

	if err := frontmatter.Write(targetPath, doc); err != nil {
		return err
	}

	if srcPath != targetPath {
		if err := os.Remove(srcPath); err != nil && !os.IsNotExist(err) {
			return errs.FileSystemErr("remove organized source file", err).WithContext("path", srcPath)
		}
	}

	return nil
}

func evictExisting(targetPath string, opts Options) error {
	backupDir := opts.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(targetPath), ".obsclip-backups")
	}

	if _, err := backup.Copy(targetPath, backupDir, opts.Clock); err != nil {
		return errs.FileSystemErr("back up evicted target before organize collision", err).WithContext("path", targetPath)
	}

	ext := filepath.Ext(targetPath)
	stem := strings.TrimSuffix(targetPath, ext)
	stamp := opts.Clock.Now().Format("20060102_150405")
	renamed := stem + "_" + stamp + ext

	if err := os.Rename(targetPath, renamed); err != nil {
		return errs.FileSystemErr("rename evicted target aside", err).WithContext("path", targetPath)
	}

	return nil
}

func filesIdentical(a, b string) (bool, error) {
	af, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer af.Close()

	bf, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer bf.Close()

	const chunkSize = 64 * 1024

	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)

	for {
		na, errA := af.Read(bufA)
		nb, errB := bf.Read(bufB)

		if na != nb || string(bufA[:na]) != string(bufB[:nb]) {
			return false, nil
		}

		if errA == io.EOF && errB == io.EOF {
			return true, nil
		}

		if errA != nil && errA != io.EOF {
			return false, errA
		}

		if errB != nil && errB != io.EOF {
			return false, errB
		}

		if na == 0 {
			return true, nil
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func listMarkdownFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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
		return nil, errs.FileSystemErr("walk clippings root", err).WithContext("root", root)
	}

	return paths, nil
}
