package jobs

import (
	"context"
	"log"
	"time"

	"github.com/wespark/certifier/storage"
)

// CleanupMagicLinks returns a cron-schedulable func that purges used and
// expired login links. Verification rejects stale tokens on its own, so this
// only keeps the table small.
func CleanupMagicLinks(store storage.Storage) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		purged, err := store.CleanExpiredMagicLinks(ctx)
		if err != nil {
			log.Printf("jobs: magic link cleanup failed: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("jobs: purged %d dead magic links", purged)
		}
	}
}
