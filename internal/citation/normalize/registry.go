// Package normalize implements the citation-pattern normalizer: publisher
// detection, a regex rewrite pipeline that canonicalizes in-text citation
// syntax to bracket form, and unknown-pattern surveillance.
package normalize

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shuu5/obsclip/internal/errs"
)

// Detection describes how a parser is selected for a paper.
type Detection struct {
	DOIPrefixes     []string `yaml:"doi_prefixes"`
	JournalKeywords []string `yaml:"journal_keywords"`
	Fallback        bool     `yaml:"fallback"`
}

// PatternConfig is one regex→template rewrite rule.
type PatternConfig struct {
	Regex       string `yaml:"regex"`
	Replacement string `yaml:"replacement"`
	Description string `yaml:"description"`

	compiled *regexp.Regexp
}

// ParserConfig is one publisher's detection + rewrite rule set.
type ParserConfig struct {
	Detection Detection       `yaml:"detection"`
	Patterns  []PatternConfig `yaml:"patterns"`
}

// Registry is the full publisher parser table, keyed by parser name.
type Registry struct {
	Parsers map[string]*ParserConfig `yaml:"parsers"`
}

// genericParser is the built-in fallback, always present. It carries no
// rewrite patterns, so a document routed to it only gets the pre-clean and
// superscript-collapse passes.
func genericParser() *ParserConfig {
	return &ParserConfig{
		Detection: Detection{Fallback: true},
		Patterns:  []PatternConfig{},
	}
}

// LoadRegistry loads a publisher parser registry from a YAML config file,
// always including the built-in "generic" fallback parser.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{Parsers: map[string]*ParserConfig{"generic": genericParser()}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}

		return nil, errs.Configuration("read publisher pattern config", err).WithContext("path", path)
	}

	var loaded Registry
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, errs.Configuration("parse publisher pattern config", err).WithContext("path", path)
	}

	for name, parser := range loaded.Parsers {
		if err := Validate(parser); err != nil {
			return nil, errs.Configuration(fmt.Sprintf("invalid parser config %q", name), err)
		}

		reg.Parsers[name] = parser
	}

	return reg, nil
}

// Validate enforces the parser-config acceptance rules: detection is a
// mapping (always true for a typed struct), patterns is non-empty, and
// every pattern's regex compiles with a replacement and description.
func Validate(p *ParserConfig) error {
	if len(p.Patterns) == 0 {
		return fmt.Errorf("patterns must be a non-empty list")
	}

	for i := range p.Patterns {
		pat := &p.Patterns[i]

		if pat.Regex == "" {
			return fmt.Errorf("pattern %d: regex is required", i)
		}

		compiled, err := regexp.Compile(pat.Regex)
		if err != nil {
			return fmt.Errorf("pattern %d: regex does not compile: %w", i, err)
		}

		pat.compiled = compiled

		if pat.Replacement == "" {
			return fmt.Errorf("pattern %d: replacement is required", i)
		}

		if pat.Description == "" {
			return fmt.Errorf("pattern %d: description is required", i)
		}
	}

	return nil
}

// Register adds or replaces a parser at runtime; it does not persist to
// the config file.
func (r *Registry) Register(name string, parser *ParserConfig) error {
	if err := Validate(parser); err != nil {
		return errs.Configuration(fmt.Sprintf("invalid parser config %q", name), err)
	}

	r.Parsers[name] = parser

	return nil
}

// compiledPatterns returns p's patterns with their regexes compiled,
// compiling lazily if Validate was never called (e.g. the built-in generic
// parser, which has none).
func (p *ParserConfig) compiledPatterns() ([]PatternConfig, error) {
	for i := range p.Patterns {
		if p.Patterns[i].compiled == nil {
			compiled, err := regexp.Compile(p.Patterns[i].Regex)
			if err != nil {
				return nil, err
			}

			p.Patterns[i].compiled = compiled
		}
	}

	return p.Patterns, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
