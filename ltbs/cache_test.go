package ltbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheChargeDischargeTracksInstanceAndGlobal(t *testing.T) {
	before := TotalProcessMemory()

	c := newCache(1024)
	c.charge(100)
	assert.Equal(t, int64(100), c.usedBytes())
	assert.Equal(t, before+100, TotalProcessMemory())

	c.discharge(40)
	assert.Equal(t, int64(60), c.usedBytes())
	assert.Equal(t, before+60, TotalProcessMemory())
}

func TestCacheOverBudgetAndWouldExceed(t *testing.T) {
	c := newCache(100)
	c.charge(90)
	assert.False(t, c.overBudget())
	assert.True(t, c.wouldExceedBudget(20))
	assert.False(t, c.wouldExceedBudget(10))

	c.charge(20)
	assert.True(t, c.overBudget())
	c.discharge(110)
}

func TestCacheTouchForgetUpdatesLRUAndBitmap(t *testing.T) {
	c := newCache(1024)
	key := tileKey{1, 2}
	c.touch(key, 7)
	assert.Equal(t, 1, c.lruLen())
	assert.True(t, c.resident.contains(7))

	c.forget(key, 7)
	assert.Equal(t, 0, c.lruLen())
	assert.False(t, c.resident.contains(7))
}
