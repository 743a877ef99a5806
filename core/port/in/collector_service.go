package in

import (
	"context"
	"time"
)

// CollectorService orchestrates scraper adapters for one source, per §4.2.
type CollectorService interface {
	// CollectSource runs a single source's adapter and returns the number
	// of newly inserted articles.
	CollectSource(ctx context.Context, sourceKey string) (inserted int, err error)

	// CollectDue runs every enabled, due-for-run source among the given
	// keys (all enabled sources if keys is nil), per the 2-hour throttle
	// (§4.2 "Throttling contract", §4.5 "Collect planning").
	CollectDue(ctx context.Context, keys []string, now time.Time) (inserted int, err error)

	// BackfillDetails re-runs the detail back-fill pass for one source as a
	// standalone operation, independent of a fresh collect (SPEC_FULL.md
	// §4, grounded on backfill_details.py). limit caps how many
	// still-missing rows are considered. It returns the number of rows the
	// pass attempted, whether or not a detail was found and stored for each.
	BackfillDetails(ctx context.Context, sourceKey string, limit int) (attempted int, err error)

	// BackfillPublish re-fetches a source's current listing and uses it to
	// fill in the publish timestamp of already-stored rows that are still
	// missing one (SPEC_FULL.md §4, grounded on backfill_publish.py).
	BackfillPublish(ctx context.Context, sourceKey string) (updated int, err error)
}
