package frontmatter

import (
	"fmt"
	"time"

	"github.com/shuu5/obsclip/internal/clock"
	"github.com/shuu5/obsclip/internal/errs"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// CurrentWorkflowVersion is the migration discriminator this build writes.
const CurrentWorkflowVersion = "3.2"

// migration fills in whatever a given source version is missing on its way
// to CurrentWorkflowVersion. Each step only adds; it never removes a key.
type migration func(header *orderedmap.Map)

// migrations is the table-driven registry of supported upgrade paths
// ("unknown→3.2", "3.0→3.2", "3.1→3.2").
var migrations = map[string]migration{
	"unknown": migrateToV32,
	"3.0":     migrateToV32,
	"3.1":     migrateToV32,
}

// Migrate applies the registered migration for header's current
// workflow_version (defaulting to "unknown" when absent), then stamps
// workflow_version and appends a migration_history record. It is a no-op
// when the header is already current: nothing is stamped or appended.
func Migrate(header *orderedmap.Map, clk clock.Clock) error {
	from := header.GetString("workflow_version")
	if from == "" {
		from = "unknown"
	}

	if from == CurrentWorkflowVersion {
		return nil
	}

	step, ok := migrations[from]
	if !ok {
		return errs.Processing(fmt.Sprintf("no migration registered from workflow_version %q", from), nil)
	}

	step(header)
	header.Set("workflow_version", CurrentWorkflowVersion)
	appendMigrationHistory(header, from, CurrentWorkflowVersion, clk.Now())

	return nil
}

func migrateToV32(header *orderedmap.Map) {
	if !header.Has("citation_key") {
		header.Set("citation_key", "")
	}

	if status := header.GetMap("processing_status"); status == nil {
		fresh := orderedmap.New()
		for _, s := range Steps {
			fresh.Set(s, "pending")
		}

		header.Set("processing_status", fresh)
	} else {
		for _, s := range Steps {
			if !status.Has(s) {
				status.Set(s, "pending")
			}
		}
	}

	for _, section := range []string{
		"processing_timestamps",
		"citations",
		"citation_metadata",
		"sync_metadata",
		"citation_normalization",
		"paper_structure",
		"citation_support",
	} {
		if !header.Has(section) {
			header.Set(section, orderedmap.New())
		}
	}
}

func appendMigrationHistory(header *orderedmap.Map, from, to string, at time.Time) {
	record := orderedmap.New()
	record.Set("from", from)
	record.Set("to", to)
	record.Set("at", at.Format(time.RFC3339))

	existing, ok := header.Get("migration_history")
	if !ok {
		header.Set("migration_history", []any{record})
		return
	}

	history, _ := existing.([]any)
	header.Set("migration_history", append(history, record))
}
