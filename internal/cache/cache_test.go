package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/flagaudit/internal/model"
)

func TestKey(t *testing.T) {
	k1 := Key("https://mealie.example.com/api/recipes?page=1", "token-a")
	k2 := Key("https://mealie.example.com/api/recipes?page=1", "token-b")
	k3 := Key("https://mealie.example.com/api/recipes?page=2", "token-a")

	assert.True(t, strings.HasPrefix(k1, "flagaudit:v1:"))
	assert.Equal(t, k1, Key("https://mealie.example.com/api/recipes?page=1", "token-a"))
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestNew(t *testing.T) {
	tests := []struct {
		desc string
		cfg  model.CacheConfig
		want any
	}{
		{"disabled", model.CacheConfig{Duration: 0, Dir: t.TempDir()}, nil},
		{"memory only", model.CacheConfig{Duration: time.Hour}, &MemoryCache{}},
		{"layered", model.CacheConfig{Duration: time.Hour, Dir: t.TempDir()}, &LayeredCache{}},
		{"never expires", model.CacheConfig{Duration: -1, Dir: t.TempDir()}, &LayeredCache{}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := New(tt.cfg)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", []byte("1"), NoExpiration))
	require.NoError(t, c.Set("b", []byte("2"), time.Minute))
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)

	require.NoError(t, c.Set("short", []byte("v"), time.Millisecond))
	require.NoError(t, c.Set("forever", []byte("v"), NoExpiration))
	time.Sleep(10 * time.Millisecond)

	_, found := c.Get("short")
	assert.False(t, found)
	_, found = c.Get("forever")
	assert.True(t, found)
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("https://mealie.example.com/api/recipes/stew", "tok")

	require.NoError(t, c.Set(key, []byte(`{"slug":"stew"}`), 0))

	val, found := c.Get(key)
	require.True(t, found)
	assert.JSONEq(t, `{"slug":"stew"}`, string(val))

	// A fresh instance over the same directory sees the entry
	val, found = NewDiskCache(dir, time.Hour).Get(key)
	assert.True(t, found)
	assert.NotEmpty(t, val)

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting twice is not an error")
	_, found = c.Get(key)
	assert.False(t, found)
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("expiring", []byte("v"), 0))
	require.NoError(t, c.Set("forever", []byte("v"), NoExpiration))

	now = now.Add(2 * time.Hour)

	_, found := c.Get("expiring")
	assert.False(t, found)
	_, err := os.Stat(c.path("expiring"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")

	_, found = c.Get("forever")
	assert.True(t, found)
}

func TestDiskCache_NeverExpiresByDefault(t *testing.T) {
	c := NewDiskCache(t.TempDir(), NoExpiration)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), 0))
	now = now.Add(24 * 365 * time.Hour)

	_, found := c.Get("k")
	assert.True(t, found)
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(c.path("bad"), []byte("not json"), 0644))

	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestDiskCache_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	foreign := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("keep me"), 0644))
	require.NoError(t, c.Set("k", []byte("v"), 0))

	require.NoError(t, c.Clear())

	_, found := c.Get("k")
	assert.False(t, found)
	_, err := os.Stat(foreign)
	assert.NoError(t, err)

	assert.NoError(t, NewDiskCache(filepath.Join(dir, "absent"), time.Hour).Clear())
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0))

	c := NewLayeredCache(time.Hour, dir, time.Hour)

	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)

	_, found = c.memory.Get("k")
	assert.True(t, found, "disk hit should be promoted to memory")
}

func TestLayeredCache_SetDeleteClear(t *testing.T) {
	c := NewLayeredCache(time.Hour, t.TempDir(), time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, found := c.disk.Get("k")
	assert.True(t, found)

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	_, found = c.Get("a")
	assert.False(t, found)
}
