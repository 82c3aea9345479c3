// Package dedup filters search findings against the set of keys reported in
// earlier runs.
package dedup

import "github.com/ethanolivertroy/antimirror/internal/models"

// Reconcile returns the findings whose key is not in seen, along with a new set
// holding seen plus those keys. seen itself is left untouched, and a key that
// appears twice in batch is reported once.
func Reconcile(batch []models.Finding, seen models.SeenSet) ([]models.Finding, models.SeenSet) {
	updated := seen.Clone()

	var fresh []models.Finding
	for _, f := range batch {
		key := f.Key()
		if updated.Has(key) {
			continue
		}
		updated.Add(key)
		fresh = append(fresh, f)
	}

	return fresh, updated
}
