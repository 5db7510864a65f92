package viewer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

func fakeGit(t *testing.T, root string) gitFunc {
	t.Helper()
	return func(_ context.Context, dir string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "config user.name":
			return "Octo Cat", nil
		case "submodule status":
			return "+1a2b3c 2023 (heads/main)\n-4d5e6f docs", nil
		case "remote get-url origin":
			return "https://example.com/" + filepath.Base(dir) + ".git", nil
		}
		t.Fatalf("unexpected git %v in %s", args, dir)
		return "", nil
	}
}

func TestParseAttachments(t *testing.T) {
	data := []byte(`
answers:
  post_exit: [write]
runtimes:
  on_exit: [write]
template_paths:
  year: custom/year.md
`)
	att, err := ParseAttachments(data, []string{"answers", "runtimes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"write"}, att.Hooks["answers"][record.HookPostExit])
	assert.Equal(t, []string{"write"}, att.Hooks["runtimes"][record.HookOnExit])
	assert.Contains(t, string(att.Options), "template_paths")
}

func TestParseAttachments_UnknownHook(t *testing.T) {
	_, err := ParseAttachments([]byte("answers:\n  at_lunch: [write]\n"), []string{"answers"})
	assert.Error(t, err)
}

func TestAttach_DefaultsAndUnknowns(t *testing.T) {
	answers := record.NewAnswerLog(record.AnswerOptions{})
	logs := map[string]record.Logger{"answers": answers}

	require.NoError(t, Attach(NewReadme(t.TempDir(), nil), nil, logs))

	dir := t.TempDir()
	badHandler := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badHandler, []byte("answers:\n  post_exit: [explode]\n"), 0o644))
	assert.ErrorContains(t, Attach(NewReadme(dir, nil), []string{badHandler}, logs), "no handler")

	badOption := filepath.Join(dir, "opt.yml")
	require.NoError(t, os.WriteFile(badOption, []byte("colour: red\n"), 0o644))
	assert.Error(t, Attach(NewReadme(dir, nil), []string{badOption}, logs))

	// runtimes log is not running: its bindings are skipped
	require.NoError(t, Attach(NewChart(dir), nil, logs))
}

func TestFill(t *testing.T) {
	values := map[string]valueFunc{"year": constant("2023")}

	out, err := Fill(context.Background(), "AoC #{(year)}!", values)
	require.NoError(t, err)
	assert.Equal(t, "AoC 2023!", out)

	_, err = Fill(context.Background(), "#{(nope)}", values)
	assert.ErrorContains(t, err, "nope")
}

func TestStars_FortyNineCountsAsFifty(t *testing.T) {
	ctx := context.Background()
	a := record.NewAnswerLog(record.AnswerOptions{Checker: allCorrect{}})
	for d := 1; d <= 25; d++ {
		require.NoError(t, a.Log(ctx, record.Key{Lang: "go", Year: 2020, Day: d, Part: 1}, "x", record.EventLog))
		if d < 25 {
			require.NoError(t, a.Log(ctx, record.Key{Lang: "go", Year: 2020, Day: d, Part: 2}, "x", record.EventLog))
		}
	}
	require.NoError(t, a.Log(ctx, record.Key{Lang: "c", Year: 2020, Day: 1, Part: 1}, "x", record.EventLog))

	perLang, perYear, total := Stars(a)
	assert.Equal(t, 49, perLang[2020]["go"])
	assert.Equal(t, 1, perLang[2020]["c"])
	assert.Equal(t, 50, perYear[2020])
	assert.Equal(t, 50, total)
}

type allCorrect struct{}

func (allCorrect) Answers(_ context.Context, _, _ int) (map[int]string, error) {
	return map[int]string{1: "x", 2: "x"}, nil
}

func (allCorrect) Submit(context.Context, int, int, int, string) (web.Verdict, error) {
	return 0, nil
}

func TestReadme_Write(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	a := record.NewAnswerLog(record.AnswerOptions{Checker: allCorrect{}})
	require.NoError(t, a.Log(ctx, record.Key{Lang: "go", Year: 2023, Day: 1, Part: 1}, "x", record.EventLog))
	rt := record.NewRuntimeLog(record.Options{})
	require.NoError(t, rt.Log(ctx, record.Key{Lang: "go", Year: 2023, Day: 1, Part: 1}, 0.5, record.EventLog))

	r := NewReadme(root, rt)
	r.git = fakeGit(t, root)
	require.NoError(t, r.Write(ctx, record.Notice{Hook: record.HookPostExit, Source: a}))

	top, err := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(top), "Octo Cat")
	assert.Contains(t, string(top), "- [2023](https://example.com/2023.git)")
	assert.Contains(t, string(top), "Total stars: 1")

	year, err := os.ReadFile(filepath.Join(root, "2023", "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(year), "# Advent of Code 2023")
	assert.Contains(t, string(year), "1/50")

	lang, err := os.ReadFile(filepath.Join(root, "2023", "go", "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(lang), "# Advent of Code 2023: Go")
	assert.Contains(t, string(lang), "0.5000")
}

func TestReadme_CustomTemplateUnknownKey(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.md"), []byte("#{(favourite_colour)}"), 0o644))

	r := NewReadme(root, nil)
	r.git = fakeGit(t, root)
	require.NoError(t, r.SetTemplatePaths(map[string]string{TemplateOverall: "top.md"}))
	assert.Error(t, r.SetTemplatePaths(map[string]string{"footer": "x.md"}))

	err := r.Write(ctx, record.Notice{Source: record.NewAnswerLog(record.AnswerOptions{})})
	assert.ErrorContains(t, err, "favourite_colour")
}

func TestReadme_WrongSource(t *testing.T) {
	err := NewReadme(t.TempDir(), nil).Write(context.Background(), record.Notice{Source: record.NewRuntimeLog(record.Options{})})
	assert.Error(t, err)
}

func TestChart_Write(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	rt := record.NewRuntimeLog(record.Options{})
	require.NoError(t, rt.Log(ctx, record.Key{Lang: "go", Year: 2023, Day: 1, Part: 1}, 0.5, record.EventLog))
	require.NoError(t, rt.Log(ctx, record.Key{Lang: "go", Year: 2023, Day: 1, Part: 2}, 0.25, record.EventLog))
	require.NoError(t, rt.Log(ctx, record.Key{Lang: "python", Year: 2023, Day: 3, Part: 1}, 2, record.EventLog))

	c := NewChart(dir)
	require.NoError(t, c.Configure([]byte("file: charts.md\n")))
	require.NoError(t, c.Write(ctx, record.Notice{Source: rt}))

	data, err := os.ReadFile(filepath.Join(dir, "charts.md"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# Advent of Code Runtimes")
	assert.Contains(t, out, "xychart-beta")
	assert.Contains(t, out, `x-axis "Day" [1]`)
	assert.Contains(t, out, "line [0.5000]")
	assert.Contains(t, out, "line [0.7500]")
	assert.Contains(t, out, "pie")
	assert.Contains(t, out, "## Python")
}

func TestChart_ConfigureRejectsUnknown(t *testing.T) {
	assert.Error(t, NewChart(t.TempDir()).Configure([]byte("colour: red\n")))
}
