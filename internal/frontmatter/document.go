// Package frontmatter implements the paper-file codec: locating and parsing
// the structured header block that precedes every paper's free-form body
// text, and writing it back atomically.
package frontmatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

const fence = "---"

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Document is a parsed paper file: its header map and the body text that
// follows the closing fence.
type Document struct {
	Header *orderedmap.Map
	Body   string
}

// Parse reads path and splits it into header and body.
func Parse(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FileSystemErr("read paper file", err).WithContext("path", path)
	}

	return ParseBytes(data)
}

// ParseBytes parses in-memory paper content, for callers that don't want a
// filesystem round-trip (tests, repair()).
func ParseBytes(data []byte) (*Document, error) {
	headerText, body, err := splitFences(data)
	if err != nil {
		return nil, err
	}

	header, err := parseHeaderYAML(headerText)
	if err != nil {
		return nil, err
	}

	return &Document{Header: header, Body: body}, nil
}

// splitFences locates the opening fence at byte 0 and the matching closing
// fence, returning the raw header text between them and the body that
// follows, with exactly the fence/body boundary newline consumed.
func splitFences(data []byte) (headerText []byte, body string, err error) {
	lines := splitKeepingNewlines(data)

	if len(lines) == 0 || trimEOL(lines[0]) != fence {
		return nil, "", errs.YAML("missing front-matter header: file does not open with a "+fence+" fence", nil)
	}

	closeIdx := -1

	for i := 1; i < len(lines); i++ {
		if trimEOL(lines[i]) == fence {
			closeIdx = i

			break
		}
	}

	if closeIdx == -1 {
		return nil, "", errs.YAML("unclosed front-matter header: no closing "+fence+" fence found", nil)
	}

	var headerBuf bytes.Buffer
	for i := 1; i < closeIdx; i++ {
		headerBuf.Write(lines[i])
	}

	var bodyBuf bytes.Buffer
	for i := closeIdx + 1; i < len(lines); i++ {
		bodyBuf.Write(lines[i])
	}

	return headerBuf.Bytes(), bodyBuf.String(), nil
}

// splitKeepingNewlines splits data into lines, each retaining its trailing
// newline (or lack thereof, for a final unterminated line).
func splitKeepingNewlines(data []byte) [][]byte {
	var lines [][]byte

	start := 0

	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i+1])
			start = i + 1
		}
	}

	if start < len(data) {
		lines = append(lines, data[start:])
	}

	return lines
}

func trimEOL(line []byte) string {
	s := string(line)
	s = trimSuffix(s, "\n")
	s = trimSuffix(s, "\r")

	return s
}

func trimSuffix(s, suffix string) string {
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}

	return s
}

func parseHeaderYAML(headerText []byte) (*orderedmap.Map, error) {
	var root yaml.Node

	if err := yaml.Unmarshal(headerText, &root); err != nil {
		return nil, errs.YAML("front-matter header is not valid YAML", err)
	}

	if len(root.Content) == 0 {
		return orderedmap.New(), nil
	}

	decoded, err := orderedmap.DecodeYAMLNode(&root)
	if err != nil {
		return nil, errs.YAML("front-matter header failed bibliographic-YAML-subset decode", err)
	}

	m, ok := decoded.(*orderedmap.Map)
	if !ok {
		return nil, errs.YAML("front-matter header is not a mapping", nil)
	}

	return m, nil
}

// Write serializes doc deterministically (header key insertion order,
// fences, then the body verbatim) and commits it atomically: write to a
// sibling temp file, fsync, then rename over path.
func Write(path string, doc *Document) error {
	rendered, err := Render(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".obsclip-fm-*.tmp")
	if err != nil {
		return errs.FileSystemErr("create temp file for atomic write", err).WithContext("path", path)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmp.Write(rendered); writeErr != nil {
		tmp.Close()

		return errs.FileSystemErr("write temp file", writeErr).WithContext("path", path)
	}

	if syncErr := tmp.Sync(); syncErr != nil {
		tmp.Close()

		return errs.FileSystemErr("fsync temp file", syncErr).WithContext("path", path)
	}

	if closeErr := tmp.Close(); closeErr != nil {
		return errs.FileSystemErr("close temp file", closeErr).WithContext("path", path)
	}

	if chmodErr := os.Chmod(tmpPath, filePerm); chmodErr != nil {
		return errs.FileSystemErr("chmod temp file", chmodErr).WithContext("path", path)
	}

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		err = renameErr

		return errs.FileSystemErr("rename temp file over target", renameErr).WithContext("path", path)
	}

	return nil
}

// Render renders doc to its on-disk byte form without touching the filesystem.
func Render(doc *Document) ([]byte, error) {
	node, err := orderedmap.EncodeYAMLNode(doc.Header)
	if err != nil {
		return nil, errs.YAML("encode front-matter header", err)
	}

	headerBytes, err := yaml.Marshal(node)
	if err != nil {
		return nil, errs.YAML("marshal front-matter header", err)
	}

	var buf bytes.Buffer

	buf.WriteString(fence)
	buf.WriteByte('\n')
	buf.Write(headerBytes)

	if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}

	buf.WriteString(fence)
	buf.WriteByte('\n')
	buf.WriteString(doc.Body)

	return buf.Bytes(), nil
}

// EnsureMkdir ensures path's parent directory exists.
func EnsureMkdir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errs.FileSystemErr("create parent directory", err).WithContext("path", path)
	}

	return nil
}

// ErrNoHeader is returned by callers that need to distinguish "file has no
// front-matter at all" without inspecting the wrapped *errs.Error.
var ErrNoHeader = fmt.Errorf("no front-matter header")
