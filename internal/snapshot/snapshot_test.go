package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/logging"
)

func sample() catalog.Snapshot {
	return catalog.Snapshot{
		{ID: 1, CommonName: "European Silver Fir", ScientificName: []string{"Abies alba"}, Watering: "Frequent"},
		{ID: 2, CommonName: "White Fir", ImageURL: "https://img/2.jpg"},
		{ID: 1, CommonName: "European Silver Fir"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, logging.NewNopLogger())

	assert.False(t, cache.Exists())
	_, ok := cache.Load()
	assert.False(t, ok)

	cache.Save(sample())
	cache.Wait()

	assert.True(t, cache.Exists())
	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, sample(), got)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files must not be left behind")
}

func TestSaveCopiesInput(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNopLogger())

	snap := sample()
	cache.Save(snap)
	snap[0].CommonName = "mutated after save"
	cache.Wait()

	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, "European Silver Fir", got[0].CommonName)
}

func TestSaveReplacesPrevious(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNopLogger())

	cache.Save(sample())
	cache.Wait()
	cache.Save(catalog.Snapshot{{ID: 99}})
	cache.Wait()

	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, catalog.Snapshot{{ID: 99}}, got)
}

func TestLoadTreatsBadFilesAsMissing(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt", `[{"id":1,`},
		{"empty list", `[]`},
		{"wrong shape", `{"id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tl := logging.NewTestLogger(t)
			cache := New(dir, tl.Logger)
			require.NoError(t, os.WriteFile(cache.Path(), []byte(tt.content), 0o644))

			got, ok := cache.Load()
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	tl := logging.NewTestLogger(t)
	cache := New(filepath.Join(blocker, "nested"), tl.Logger)

	assert.NotPanics(t, func() {
		cache.Save(sample())
		cache.Wait()
	})
	assert.False(t, cache.Exists())
	tl.AssertContains(t, "Failed to save catalog snapshot")
}

func TestClear(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNopLogger())
	require.NoError(t, cache.Clear())

	cache.Save(sample())
	cache.Wait()
	require.True(t, cache.Exists())

	require.NoError(t, cache.Clear())
	assert.False(t, cache.Exists())
}

func TestLaterSaveWinsWhenWritesFinishOutOfOrder(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNopLogger())
	older := cache.seq.Add(1)
	newer := cache.seq.Add(1)

	wrote, err := cache.commit(newer, catalog.Snapshot{{ID: 2}})
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = cache.commit(older, catalog.Snapshot{{ID: 1}})
	require.NoError(t, err)
	assert.False(t, wrote)

	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, catalog.Snapshot{{ID: 2}}, got)
}

func TestClearDropsUnwrittenSave(t *testing.T) {
	cache := New(t.TempDir(), logging.NewNopLogger())
	gen := cache.seq.Add(1)
	require.NoError(t, cache.Clear())

	wrote, err := cache.commit(gen, sample())
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.False(t, cache.Exists())

	cache.Save(catalog.Snapshot{{ID: 5}})
	cache.Wait()
	got, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, catalog.Snapshot{{ID: 5}}, got)
}
