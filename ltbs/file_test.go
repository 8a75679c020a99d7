package ltbs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGateCreateWriteReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bin")
	g, err := createFileGate(path, 16)
	require.NoError(t, err)
	defer g.close()

	require.NoError(t, g.writeAt(4, []byte{1, 2, 3, 4}))
	buf := make([]byte, 4)
	require.NoError(t, g.readAt(4, buf))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)

	sz, err := g.size()
	require.NoError(t, err)
	assert.Equal(t, int64(16), sz)
}

func TestOpenFileGateReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "y.bin")
	g, err := createFileGate(path, 8)
	require.NoError(t, err)
	require.NoError(t, g.close())

	ro, err := openFileGate(path, true)
	require.NoError(t, err)
	defer ro.close()
	err = ro.writeAt(0, []byte{1})
	assert.Error(t, err)
}

func TestOpenFileGateMissingFile(t *testing.T) {
	_, err := openFileGate(filepath.Join(t.TempDir(), "missing.bin"), true)
	assert.Error(t, err)
}
