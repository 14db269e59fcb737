package frontmatter

import (
	"fmt"
	"time"

	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// requiredKeys lists the header keys ValidateStructure enforces.
var requiredKeys = []string{"citation_key", "workflow_version", "processing_status"}

// Steps is the fixed processing_status step vocabulary.
var Steps = []string{
	"organize",
	"sync",
	"fetch",
	"section_parsing",
	"ai_citation_support",
	"citation_pattern_normalizer",
	"tagger",
	"translate_abstract",
	"ochiai_format",
	"final_sync",
}

// statusValues is the permitted set of processing_status values.
var statusValues = map[string]bool{"pending": true, "completed": true, "failed": true}

// timestampLayouts are tried in order when validating a timestamp string.
var timestampLayouts = []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"}

// ValidateStructure enforces the required-keys/status-vocabulary/parseable-timestamp
// invariants a well-formed header must satisfy. It returns the first violation found.
func ValidateStructure(header *orderedmap.Map) error {
	for _, key := range requiredKeys {
		if !header.Has(key) {
			return errs.Validation(fmt.Sprintf("missing required front-matter key %q", key), nil)
		}
	}

	status := header.GetMap("processing_status")
	if status == nil {
		return errs.Validation("processing_status must be a mapping", nil)
	}

	for _, step := range status.Keys() {
		v, _ := status.Get(step)

		s, ok := v.(string)
		if !ok || !statusValues[s] {
			return errs.Validation(fmt.Sprintf("processing_status[%s] has invalid value %v", step, v), nil)
		}
	}

	if err := validateTimestamps(header); err != nil {
		return err
	}

	return nil
}

// StatusOf returns the processing_status value for step, defaulting to
// "pending" when the key is absent.
func StatusOf(header *orderedmap.Map, step string) string {
	status := header.GetMap("processing_status")
	if status == nil {
		return "pending"
	}

	v, ok := status.Get(step)
	if !ok {
		return "pending"
	}

	s, _ := v.(string)
	if s == "" {
		return "pending"
	}

	return s
}

func validateTimestamps(header *orderedmap.Map) error {
	for _, key := range []string{"last_updated", "fetch_completed_at"} {
		v, ok := header.Get(key)
		if !ok {
			continue
		}

		if err := validateTimestampValue(key, v); err != nil {
			return err
		}
	}

	timestamps := header.GetMap("processing_timestamps")
	if timestamps == nil {
		return nil
	}

	for _, step := range timestamps.Keys() {
		v, _ := timestamps.Get(step)

		records, ok := v.([]any)
		if !ok {
			continue
		}

		for _, rec := range records {
			recMap, ok := rec.(*orderedmap.Map)
			if !ok {
				continue
			}

			at, ok := recMap.Get("timestamp")
			if !ok {
				continue
			}

			if err := validateTimestampValue("processing_timestamps."+step, at); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateTimestampValue(key string, v any) error {
	s, ok := v.(string)
	if !ok {
		if _, isTime := v.(time.Time); isTime {
			return nil
		}

		return errs.Validation(fmt.Sprintf("timestamp field %q is not a string", key), nil)
	}

	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}

	return errs.Validation(fmt.Sprintf("timestamp field %q is not parseable: %q", key, s), nil)
}
