package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, c.Datasets)
	assert.NotEmpty(t, c.DatasetTypes)
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
datasets:
  - Some Movement Dataset
dataset_types:
  - Tile
  - Administrative Region
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Some Movement Dataset"}, c.Datasets)
	assert.Equal(t, []string{"Tile", "Administrative Region"}, c.DatasetTypes)
}

func TestLoadRejectsEmptyLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datasets: []\ndataset_types: [x]\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "no datasets")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
