// Package source collects raw records from the upstream platforms.
// Extractors rate-limit themselves with fixed sleeps and degrade to a
// no-op "demo mode" when credentials are missing, so a partial
// configuration never aborts an extraction run.
package source

import (
	"context"
	"time"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Extractor pulls raw records from one platform.
type Extractor interface {
	// Source identifies the platform.
	Source() core.Source

	// Extract collects records per the configuration. Returning no
	// records and no error means the extractor skipped itself
	// (demo mode).
	Extract(ctx context.Context) ([]core.RawRecord, error)
}

// wait sleeps for d unless the context ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
