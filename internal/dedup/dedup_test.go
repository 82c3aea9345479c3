package dedup

import (
	"fmt"
	"testing"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finding(repo, path string) models.Finding {
	return models.Finding{
		Repository: repo,
		Path:       path,
		URL:        "https://github.com/" + repo + "/blob/main/" + path,
		Score:      1,
	}
}

func TestReconcile_FirstSighting(t *testing.T) {
	f := finding("someone/copy", "main.py")

	fresh, updated := Reconcile([]models.Finding{f}, models.NewSeenSet())

	require.Len(t, fresh, 1)
	assert.Equal(t, f, fresh[0])
	assert.Equal(t, models.NewSeenSet("someone/copy:main.py"), updated)
}

func TestReconcile_AlreadySeen(t *testing.T) {
	f := finding("someone/copy", "main.py")
	seen := models.NewSeenSet(f.Key())

	fresh, updated := Reconcile([]models.Finding{f}, seen)

	assert.Empty(t, fresh)
	assert.Equal(t, models.NewSeenSet(f.Key()), updated)
}

func TestReconcile_SecondRunReportsNothing(t *testing.T) {
	f := finding("someone/copy", "main.py")

	_, afterFirst := Reconcile([]models.Finding{f}, models.NewSeenSet())
	fresh, afterSecond := Reconcile([]models.Finding{f}, afterFirst)

	assert.Empty(t, fresh)
	assert.Equal(t, afterFirst, afterSecond)
}

func TestReconcile_IgnoresURLChanges(t *testing.T) {
	f := finding("someone/copy", "main.py")
	moved := f
	moved.URL = "https://github.com/someone/copy/blob/abc123/main.py"

	_, seen := Reconcile([]models.Finding{f}, models.NewSeenSet())
	fresh, _ := Reconcile([]models.Finding{moved}, seen)

	assert.Empty(t, fresh)
}

func TestReconcile_DuplicatesWithinBatch(t *testing.T) {
	f := finding("someone/copy", "main.py")

	fresh, updated := Reconcile([]models.Finding{f, f}, models.NewSeenSet())

	assert.Len(t, fresh, 1)
	assert.Len(t, updated, 1)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	seen := models.NewSeenSet("a/b:c")

	_, updated := Reconcile([]models.Finding{finding("x/y", "z")}, seen)

	assert.Len(t, seen, 1)
	assert.Len(t, updated, 2)
}

func TestReconcile_SeenSetNeverShrinks(t *testing.T) {
	seen := models.NewSeenSet()
	batches := [][]models.Finding{
		{finding("a/a", "1"), finding("b/b", "2")},
		{},
		{finding("a/a", "1")},
		{finding("c/c", "3"), finding("a/a", "1"), finding("d/d", "4")},
		nil,
	}

	for i, batch := range batches {
		before := seen
		_, seen = Reconcile(batch, seen)

		assert.GreaterOrEqual(t, len(seen), len(before), "batch %d", i)
		for k := range before {
			assert.True(t, seen.Has(k), "batch %d lost key %s", i, k)
		}
	}
	assert.Len(t, seen, 4)
}

func TestReconcile_KeepsBatchOrder(t *testing.T) {
	var batch []models.Finding
	for i := 0; i < 5; i++ {
		batch = append(batch, finding("r/r", fmt.Sprintf("f%d.go", i)))
	}

	fresh, _ := Reconcile(batch, models.NewSeenSet("r/r:f2.go"))

	require.Len(t, fresh, 4)
	assert.Equal(t, "f0.go", fresh[0].Path)
	assert.Equal(t, "f1.go", fresh[1].Path)
	assert.Equal(t, "f3.go", fresh[2].Path)
	assert.Equal(t, "f4.go", fresh[3].Path)
}
