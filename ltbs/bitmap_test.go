package ltbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResidentBitmapAddRemoveContains(t *testing.T) {
	b := newResidentBitmap()
	b.add(3)
	b.add(5)
	assert.True(t, b.contains(3))
	assert.True(t, b.contains(5))
	assert.EqualValues(t, 2, b.cardinality())

	b.remove(3)
	assert.False(t, b.contains(3))
	assert.EqualValues(t, 1, b.cardinality())
}

func TestResidentBitmapSnapshotIsIndependent(t *testing.T) {
	b := newResidentBitmap()
	b.add(1)
	snap := b.snapshot()
	b.add(2)
	assert.False(t, snap.Contains(2))
	assert.True(t, b.contains(2))
}
