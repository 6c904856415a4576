package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{Dir: dir})
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("k1", []byte("wasm")))
	data, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "wasm", string(data))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(4), stats.TotalSize)

	// a second Cache over the same directory sees the entry
	reopened, err := New(Config{Dir: dir})
	require.NoError(t, err)
	data, ok = reopened.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "wasm", string(data))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(Config{Dir: t.TempDir(), MaxSize: 10})
	require.NoError(t, err)

	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	require.NoError(t, c.Put("a", []byte("aaaa")))
	require.NoError(t, c.Put("b", []byte("bbbb")))
	_, ok := c.Get("a") // b is now least recently used
	require.True(t, ok)

	require.NoError(t, c.Put("c", []byte("cccc")))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_MissingArtifactIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("x")))
	require.NoError(t, os.Remove(filepath.Join(dir, "artifacts", "k")))

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestKeyFromSources(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("main.go", "package main")
	write("main_test.go", "package main // test")
	write("notes.txt", "ignored")

	k1, err := KeyFromSources(dir)
	require.NoError(t, err)

	write("main_test.go", "package main // changed test")
	write("notes.txt", "still ignored")
	k2, err := KeyFromSources(dir)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	write("main.go", "package main\n")
	k3, err := KeyFromSources(dir)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := KeyFromSources(dir, filepath.Join(dir, "go.sum"))
	require.NoError(t, err)
	assert.Equal(t, k3, k4, "missing roots are skipped")
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Equal(t, Key("x"), Key("x"))
}
