package transform

import (
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Dedupe removes records that share an ID with an earlier record, keeping
// the first occurrence and the original order. Matching is exact on the
// natural key only.
func (n *Normalizer) Dedupe(records []core.NormalizedRecord) []core.NormalizedRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]core.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	n.logger.Info("removed duplicate records", "removed", len(records)-len(out), "kept", len(out))
	return out
}
