package lang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestBuiltinsValidate(t *testing.T) {
	for _, l := range Builtins() {
		assert.NoError(t, l.Validate(), l.Name)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]*Language{
		"empty name": {Run: "x"},
		"upper":      {Name: "Go", Run: "x"},
		"no run":     {Name: "x"},
		"bad ext":    {Name: "x", Ext: "py", Run: "x"},
		"no exe":     {Name: "x", Run: "x", Build: "make"},
		"bad templ":  {Name: "x", Run: "{{.Day"},
	}
	for name, l := range cases {
		assert.Error(t, l.Validate(), name)
	}
}

func TestDiscover_Files(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "2022", "c", "1.c"))
	touch(t, filepath.Join(root, "2022", "c", "12.c"))
	touch(t, filepath.Join(root, "2022", "c", "notes.c"))
	touch(t, filepath.Join(root, "2022", "c", "26.c"))
	touch(t, filepath.Join(root, "2021", "c", "3.c"))

	c := &Language{Name: "c", Ext: ".c", Run: "x"}
	got := c.Discover(root, []int{2021, 2022, 2023})
	assert.Equal(t, []calendar.Puzzle{
		{Year: 2021, Day: 3},
		{Year: 2022, Day: 1},
		{Year: 2022, Day: 12},
	}, got)
}

func TestDiscover_Folders(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "2023", "rust", "5", "src", "main.rs"))
	touch(t, filepath.Join(root, "2023", "rust", "6.rs"))

	rust := &Language{Name: "rust", Ext: ".rs", Folder: true, Run: "x"}
	assert.Equal(t, []calendar.Puzzle{{Year: 2023, Day: 5}}, rust.Discover(root, []int{2023}))
	assert.True(t, rust.Exists(root, 2023, 5))
	assert.False(t, rust.Exists(root, 2023, 6))
	assert.Equal(t, filepath.Join(root, "2023", "rust", "5", "src", "main.rs"), rust.CodeFile(root, 2023, 5))
}

func TestCommands(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	c, ok := reg.Get("C")
	require.True(t, ok)

	v := Vars{Year: 2023, Day: 4, Input: "/in/2023_4.txt"}
	build, err := c.BuildCommand(v)
	require.NoError(t, err)
	assert.Equal(t, "gcc 4.c -o 4 -lm", build)

	run, err := c.RunCommand(v)
	require.NoError(t, err)
	assert.Equal(t, "./4 /in/2023_4.txt", run)

	py, _ := reg.Get("python")
	b, err := py.BuildCommand(v)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestRegistrySelect(t *testing.T) {
	reg, err := DefaultRegistry(&Language{Name: "python", Ext: ".py", Run: "pypy3 {{.Day}}.py"})
	require.NoError(t, err)

	py, _ := reg.Get("python")
	assert.Equal(t, "pypy3 {{.Day}}.py", py.Run)
	assert.Equal(t, []string{"c", "go", "python", "rust"}, reg.Names())

	got, err := reg.Select(nil, []string{"rust", "C"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "go", got[0].Name)
	assert.Equal(t, "python", got[1].Name)

	_, err = reg.Select([]string{"cobol"}, nil)
	assert.Error(t, err)
}

func TestHarnessEmbedded(t *testing.T) {
	data, err := Harness("python.py")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Part {n}:")
}
