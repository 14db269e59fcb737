// Package bibliography parses and re-emits the master BibTeX bibliography:
// a list of entries, each exposed both as a duplicate-collapsed keyed map
// (for organize) and a duplicate-preserving ordered list carrying a 1-based
// ordinal (for reference-file emission).
package bibliography

import (
	"fmt"
	"os"
	"strings"

	"github.com/shuu5/obsclip/internal/doi"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// fieldsConsumed lists the fields the pipeline reads directly; all others
// are still kept on Entry.Fields but aren't otherwise singled out.
var fieldsConsumed = []string{
	"doi", "title", "author", "year", "journal",
	"volume", "number", "pages", "publisher", "booktitle", "url",
}

// Entry is a single BibTeX record.
type Entry struct {
	Fields *orderedmap.Map
	Type   string
	Key    string
	Number int
}

func (e *Entry) field(name string) string {
	return e.Fields.GetString(name)
}

// DOI returns the entry's normalized DOI, or "" if absent/unparseable.
func (e *Entry) DOI() string {
	normalized, ok := doi.Normalize(e.field("doi"))
	if !ok {
		return ""
	}

	return normalized
}

// Title returns the raw title field.
func (e *Entry) Title() string { return e.field("title") }

// Author returns the raw author field.
func (e *Entry) Author() string { return e.field("author") }

// Year returns the raw year field.
func (e *Entry) Year() string { return e.field("year") }

// Journal returns the raw journal field.
func (e *Entry) Journal() string { return e.field("journal") }

// Bibliography is a parsed master bibliography in both the keyed and
// ordered views the pipeline requires.
type Bibliography struct {
	// ByKey collapses duplicate citation keys to their first occurrence.
	ByKey map[string]*Entry
	// ByDOI maps each entry's normalized DOI to its citation key, first
	// occurrence only (organize's doi → citation_key map).
	ByDOI map[string]string
	// Ordered preserves duplicates and file order; Number is 1-based.
	Ordered  []*Entry
	Warnings []string
}

// Parse reads and parses the bibliography file at path.
func Parse(path string) (*Bibliography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FileSystemErr("read bibliography file", err).WithContext("path", path)
	}

	return ParseBytes(data)
}

// ParseBytes parses in-memory BibTeX source.
func ParseBytes(data []byte) (*Bibliography, error) {
	entries, err := parseEntries(data)
	if err != nil {
		return nil, errs.BibTeX("parse bibliography", err)
	}

	bib := &Bibliography{
		ByKey: make(map[string]*Entry, len(entries)),
		ByDOI: make(map[string]string, len(entries)),
	}

	for i, e := range entries {
		e.Number = i + 1
		bib.Ordered = append(bib.Ordered, e)

		if _, exists := bib.ByKey[e.Key]; exists {
			bib.Warnings = append(bib.Warnings, fmt.Sprintf("duplicate citation key %q: keeping first occurrence", e.Key))
		} else {
			bib.ByKey[e.Key] = e
		}

		if d := e.DOI(); d != "" {
			if existingKey, exists := bib.ByDOI[d]; exists && existingKey != e.Key {
				bib.Warnings = append(bib.Warnings, fmt.Sprintf(
					"DOI %q is claimed by both %q and %q: keeping first occurrence", d, existingKey, e.Key,
				))
			} else if !exists {
				bib.ByDOI[d] = e.Key
			}
		}
	}

	return bib, nil
}

func parseEntries(data []byte) ([]*Entry, error) {
	sc := newScanner(data)

	var entries []*Entry

	for {
		tok, err := sc.next()
		if err != nil {
			return nil, err
		}

		if tok.kind == tokEOF {
			break
		}

		if tok.kind != tokAt {
			return nil, fmt.Errorf("expected '@' to start an entry at offset %d, got %q", tok.pos, tok.text)
		}

		entry, err := parseEntry(sc)
		if err != nil {
			return nil, err
		}

		if entry != nil {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// parseEntry parses one "@type{key, field = value, ...}" record. Entries
// whose type is "comment", "string" or "preamble" (BibTeX directives, not
// bibliographic records) are consumed and discarded.
func parseEntry(sc *scanner) (*Entry, error) {
	typeTok, err := sc.next()
	if err != nil {
		return nil, err
	}

	if typeTok.kind != tokIdent {
		return nil, fmt.Errorf("expected entry type identifier at offset %d", typeTok.pos)
	}

	entryType := strings.ToLower(typeTok.text)

	if entryType == "comment" {
		sc.skipWhitespaceAndComments()
		if _, err := sc.scanBracedValue(); err != nil {
			return nil, err
		}

		return nil, nil
	}

	open, err := sc.next()
	if err != nil {
		return nil, err
	}

	if open.kind != tokLBrace {
		return nil, fmt.Errorf("expected '{' after entry type at offset %d", open.pos)
	}

	keyTok, err := sc.next()
	if err != nil {
		return nil, err
	}

	if keyTok.kind != tokIdent && keyTok.kind != tokString {
		return nil, fmt.Errorf("expected citation key at offset %d", keyTok.pos)
	}

	fields := orderedmap.New()

	for {
		sep, err := sc.next()
		if err != nil {
			return nil, err
		}

		switch sep.kind {
		case tokRBrace:
			if entryType == "comment" || entryType == "string" || entryType == "preamble" {
				return nil, nil
			}

			return &Entry{Type: entryType, Key: keyTok.text, Fields: fields}, nil
		case tokComma:
			peek, err := sc.next()
			if err != nil {
				return nil, err
			}

			if peek.kind == tokRBrace {
				if entryType == "comment" || entryType == "string" || entryType == "preamble" {
					return nil, nil
				}

				return &Entry{Type: entryType, Key: keyTok.text, Fields: fields}, nil
			}

			if peek.kind != tokIdent {
				return nil, fmt.Errorf("expected field name at offset %d", peek.pos)
			}

			fieldName := strings.ToLower(peek.text)

			assign, err := sc.next()
			if err != nil {
				return nil, err
			}

			if assign.kind != tokAssign {
				return nil, fmt.Errorf("expected '=' after field name %q at offset %d", fieldName, assign.pos)
			}

			value, err := parseFieldValue(sc)
			if err != nil {
				return nil, err
			}

			fields.Set(fieldName, value)
		case tokAssign:
			if entryType != "string" {
				return nil, fmt.Errorf("unexpected token %q at offset %d while scanning entry body", sep.text, sep.pos)
			}

			if _, err := parseFieldValue(sc); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected token %q at offset %d while scanning entry body", sep.text, sep.pos)
		}
	}
}

func parseFieldValue(sc *scanner) (string, error) {
	if b, ok := sc.peekByte(); ok && b == '{' {
		return sc.scanBracedValue()
	}

	tok, err := sc.next()
	if err != nil {
		return "", err
	}

	switch tok.kind {
	case tokString, tokIdent:
		return tok.text, nil
	default:
		return "", fmt.Errorf("expected a field value at offset %d, got %q", tok.pos, tok.text)
	}
}
