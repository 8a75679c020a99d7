package ltbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileTableSetsEdgeDims(t *testing.T) {
	g, err := newGeometry(FormatGeneric8, 10, 10, 8, 1)
	require.NoError(t, err)

	tt := newTileTable(g)
	assert.Equal(t, 2, tt.tilesX)
	assert.Equal(t, 2, tt.tilesY)

	corner := tt.at(1, 1)
	assert.Equal(t, 2, corner.width)
	assert.Equal(t, 2, corner.height)

	full := tt.at(0, 0)
	assert.Equal(t, 8, full.width)
	assert.Equal(t, 8, full.height)
}

func TestTileTableLinearIndexRoundtrip(t *testing.T) {
	g, err := newGeometry(FormatGeneric8, 10, 10, 8, 1)
	require.NoError(t, err)
	tt := newTileTable(g)

	idx := tt.linearIndex(1, 0)
	bx, by := tt.coords(idx)
	assert.Equal(t, 1, bx)
	assert.Equal(t, 0, by)
}
