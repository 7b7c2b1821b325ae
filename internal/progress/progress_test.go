package progress

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSizeSumsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zip"), make([]byte, 100), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.zip"), make([]byte, 28), 0o644))

	total, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(128), total)
}

func TestDirSizeEmptyDir(t *testing.T) {
	total, err := DirSize(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDirSizeMissingDir(t *testing.T) {
	_, err := DirSize(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "1.50 MB", FormatBytes(3*1024*1024/2))
	assert.Equal(t, "2.00 GB", FormatBytes(2*1024*1024*1024))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "12.5s", FormatElapsed(12500*time.Millisecond))
	assert.Equal(t, "2m 5s", FormatElapsed(125*time.Second))
}
