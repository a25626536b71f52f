package utility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderWindowVancouver(t *testing.T) {
	loc, err := LoadLocation("America/Vancouver")
	require.NoError(t, err)

	from, to, err := OrderWindow("2025-08-18", loc, 30)
	require.NoError(t, err)
	// PDT = UTC-7
	assert.Equal(t, "2025-07-19T07:00:00.000Z", ISOMillis(from))
	assert.Equal(t, "2025-08-19T07:00:00.000Z", ISOMillis(to))

	_, _, err = OrderWindow("18-08-2025", loc, 30)
	assert.Error(t, err)
}

func TestOrderWindowAcrossDSTBoundary(t *testing.T) {
	loc, err := LoadLocation("America/Vancouver")
	require.NoError(t, err)

	// 2025-03-09 chuyển sang giờ mùa hè; from vẫn là 00:00 giờ địa phương (PST = UTC-8)
	from, to, err := OrderWindow("2025-03-20", loc, 30)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-18T08:00:00.000Z", ISOMillis(from))
	assert.Equal(t, "2025-03-21T07:00:00.000Z", ISOMillis(to))
}

func TestFormatDueDate(t *testing.T) {
	s, err := FormatDueDate("2025-08-18")
	require.NoError(t, err)
	assert.Equal(t, "Mon, 18 Aug 2025", s)

	assert.True(t, IsValidDay("2025-02-28"))
	assert.False(t, IsValidDay("2025-02-30"))
	assert.False(t, IsValidDay("today"))
}

func TestLoadLocationFallback(t *testing.T) {
	loc, err := LoadLocation("Mars/Olympus")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestCacheStaleness(t *testing.T) {
	c := NewCache(time.Hour, 24*time.Hour)
	defer c.Stop()

	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("products", []string{"bread"})

	v, ok := c.Get("products")
	assert.True(t, ok)
	assert.Equal(t, []string{"bread"}, v)

	now = now.Add(61 * time.Minute)
	_, ok = c.Get("products")
	assert.False(t, ok)

	v, storedAt, ok := c.GetStale("products")
	assert.True(t, ok)
	assert.Equal(t, []string{"bread"}, v)
	assert.Equal(t, now.Add(-61*time.Minute), storedAt)

	now = now.Add(24 * time.Hour)
	c.evictOlderThan(24 * time.Hour)
	_, _, ok = c.GetStale("products")
	assert.False(t, ok)
}

func TestCacheWithoutRetentionKeepsStaleData(t *testing.T) {
	c := NewCache(time.Hour, 0)
	defer c.Stop()

	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("products", []string{"bread"})

	now = now.Add(90 * 24 * time.Hour)
	c.evictExpired()

	_, ok := c.Get("products")
	assert.False(t, ok)
	v, _, ok := c.GetStale("products")
	require.True(t, ok)
	assert.Equal(t, []string{"bread"}, v)
}

func TestCacheRetentionEvicts(t *testing.T) {
	c := NewCache(time.Hour, 2*time.Hour)
	defer c.Stop()

	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("products", []string{"bread"})

	now = now.Add(3 * time.Hour)
	c.evictExpired()
	_, _, ok := c.GetStale("products")
	assert.False(t, ok)
}
