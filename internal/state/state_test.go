package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Empty(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "builds.json"))
	assert.Equal(t, 0, tr.Count())
	assert.Nil(t, tr.Get("c/2023/01"))
	assert.True(t, tr.Stale("c/2023/01", "abc"))
}

func TestTracker_MarkBuiltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "builds.json")
	tr := Load(path)
	tr.MarkBuilt("c/2023/01", "abc")

	reloaded := Load(path)
	e := reloaded.Get("c/2023/01")
	require.NotNil(t, e)
	assert.Equal(t, StatusBuilt, e.Status)
	assert.False(t, reloaded.Stale("c/2023/01", "abc"))
	assert.True(t, reloaded.Stale("c/2023/01", "def"))
}

func TestTracker_FailedIsStale(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "builds.json"))
	tr.MarkFailed("rust/2023/05", "abc", "cargo exited 101")
	assert.True(t, tr.Stale("rust/2023/05", "abc"))
	assert.Equal(t, "cargo exited 101", tr.Get("rust/2023/05").Error)
}

func TestTracker_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	assert.Equal(t, 0, Load(path).Count())
}

func TestTracker_ResetAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builds.json")
	tr := Load(path)
	tr.MarkBuilt("a", "1")
	tr.MarkBuilt("b", "2")
	tr.Reset("a")
	assert.Nil(t, tr.Get("a"))
	assert.Equal(t, 1, tr.Count())

	tr.Clear()
	assert.Equal(t, 0, tr.Count())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestTracker_Concurrent(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "builds.json"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.MarkBuilt(string(rune('a'+i)), "h")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, tr.Count())
}

func TestHashPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.rs"), []byte("fn main() {}"), 0o644))

	h1, err := HashPath(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "target", "bin"), []byte("binary"), 0o644))
	h2, err := HashPath(dir)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "build output is ignored")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.rs"), []byte("fn main() { }"), 0o644))
	h3, err := HashPath(dir)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	single, err := HashPath(filepath.Join(dir, "src", "main.rs"))
	require.NoError(t, err)
	assert.Len(t, single, 64)
}

func TestTracker_EntriesAreCopies(t *testing.T) {
	tr := Load(filepath.Join(t.TempDir(), "builds.json"))
	tr.MarkBuilt("go/2023/05", "abc")

	entries := tr.Entries()
	require.Len(t, entries, 1)
	entries["go/2023/05"].Hash = "changed"
	assert.Equal(t, "abc", tr.Get("go/2023/05").Hash)
}
