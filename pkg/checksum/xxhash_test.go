package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileChecksum(t *testing.T) {
	dir := t.TempDir()

	pathA := filepath.Join(dir, "a.json")
	pathB := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(pathA, []byte(`{"number":"1"}`), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte(`{"number":"2"}`), 0644))

	sumA1, err := GetFileChecksum(pathA)
	require.NoError(t, err)
	sumA2, err := GetFileChecksum(pathA)
	require.NoError(t, err)
	sumB, err := GetFileChecksum(pathB)
	require.NoError(t, err)

	assert.Equal(t, sumA1, sumA2)
	assert.NotEqual(t, sumA1, sumB)
	assert.NotEmpty(t, sumA1)

	_, err = GetFileChecksum(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
