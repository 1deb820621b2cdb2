package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergedFileName(t *testing.T) {
	assert.Equal(t, "SyncWave_Fein.mp4", MergedFileName("Fein"))
	assert.Equal(t, "SyncWave_AC_DC.mp4", MergedFileName("AC/DC"))
	assert.Equal(t, "SyncWave_.._x.mp4", MergedFileName("../x"))
	assert.Equal(t, "SyncWave_Untitled.mp4", MergedFileName("  "))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
