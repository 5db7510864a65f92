package record

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

type fakeChecker struct {
	pages     map[PartKey]string
	verdict   web.Verdict
	pageCalls int
	submitted []string
	err       error
}

func (f *fakeChecker) Answers(_ context.Context, year, day int) (map[int]string, error) {
	f.pageCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int]string)
	for pk, ans := range f.pages {
		if pk.Year == year && pk.Day == day {
			out[pk.Part] = ans
		}
	}
	return out, nil
}

func (f *fakeChecker) Submit(_ context.Context, _, _, _ int, answer string) (web.Verdict, error) {
	f.submitted = append(f.submitted, answer)
	return f.verdict, nil
}

func goKey(day, part int) Key { return Key{Lang: "go", Year: 2023, Day: day, Part: part} }

func TestAnswerLog_CorrectFromPage(t *testing.T) {
	ctx := context.Background()
	fc := &fakeChecker{pages: map[PartKey]string{{2023, 1, 1}: "42"}}
	a := NewAnswerLog(AnswerOptions{Options: Options{Dir: t.TempDir()}, Checker: fc})

	require.NoError(t, a.Log(ctx, goKey(1, 1), "42", EventLog))
	assert.False(t, a.Incorrect(goKey(1, 1)))
	want, ok := a.Correct(PartKey{2023, 1, 1})
	require.True(t, ok)
	assert.Equal(t, "42", want)

	// known correct answer means no second lookup
	require.NoError(t, a.Log(ctx, Key{Lang: "c", Year: 2023, Day: 1, Part: 1}, "41", EventLog))
	assert.True(t, a.Incorrect(Key{Lang: "c", Year: 2023, Day: 1, Part: 1}))
	assert.Equal(t, 1, fc.pageCalls)
}

func TestAnswerLog_SubmitOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()
	fc := &fakeChecker{verdict: web.VerdictCorrect}

	off := NewAnswerLog(AnswerOptions{Checker: fc})
	require.NoError(t, off.Log(ctx, goKey(2, 1), "7", EventLog))
	assert.Empty(t, fc.submitted)
	_, ok := off.Correct(PartKey{2023, 2, 1})
	assert.False(t, ok)

	on := NewAnswerLog(AnswerOptions{Checker: fc, Submit: true})
	require.NoError(t, on.Log(ctx, goKey(2, 1), "7", EventLog))
	assert.Equal(t, []string{"7"}, fc.submitted)
	want, ok := on.Correct(PartKey{2023, 2, 1})
	require.True(t, ok)
	assert.Equal(t, "7", want)
}

func TestAnswerLog_SubmitRejected(t *testing.T) {
	fc := &fakeChecker{verdict: web.VerdictIncorrect}
	a := NewAnswerLog(AnswerOptions{Checker: fc, Submit: true})

	require.NoError(t, a.Log(context.Background(), goKey(3, 2), "bad", EventLog))
	assert.True(t, a.Incorrect(goKey(3, 2)))
}

func TestAnswerLog_FreeStarNeverChecked(t *testing.T) {
	fc := &fakeChecker{}
	a := NewAnswerLog(AnswerOptions{Checker: fc, Submit: true})

	require.NoError(t, a.Log(context.Background(), goKey(25, 2), "Merry Christmas", EventLog))
	assert.Zero(t, fc.pageCalls)
	assert.Empty(t, fc.submitted)
	ans, ok := a.Answer(goKey(25, 2))
	require.True(t, ok)
	assert.Equal(t, "Merry Christmas", ans)
}

func TestAnswerLog_EmptyAnswerIgnored(t *testing.T) {
	a := NewAnswerLog(AnswerOptions{})
	require.NoError(t, a.Log(context.Background(), goKey(1, 1), "", EventLog))
	_, ok := a.Answer(goKey(1, 1))
	assert.False(t, ok)
}

func TestAnswerLog_CheckerErrorStillRecords(t *testing.T) {
	fc := &fakeChecker{err: web.ErrNoCookie}
	a := NewAnswerLog(AnswerOptions{Checker: fc})

	err := a.Log(context.Background(), goKey(1, 1), "1", EventLog)
	assert.ErrorIs(t, err, web.ErrNoCookie)
	_, ok := a.Answer(goKey(1, 1))
	assert.True(t, ok)
	assert.False(t, a.Incorrect(goKey(1, 1)))
}

func TestAnswerLog_DecodesLetterArt(t *testing.T) {
	art := "" +
		"####\n" +
		"#...\n" +
		"###.\n" +
		"#...\n" +
		"#...\n" +
		"####\n"
	a := NewAnswerLog(AnswerOptions{})
	require.NoError(t, a.Log(context.Background(), goKey(8, 2), art, EventLog))
	ans, _ := a.Answer(goKey(8, 2))
	assert.Equal(t, "E", ans)
}

func TestAnswerLog_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fc := &fakeChecker{pages: map[PartKey]string{{2023, 1, 1}: "42", {2023, 1, 2}: "99"}}

	a := NewAnswerLog(AnswerOptions{Options: Options{Dir: dir}, Account: "abc123", Checker: fc})
	require.NoError(t, a.Log(ctx, goKey(1, 1), "42", EventLog))
	require.NoError(t, a.Log(ctx, goKey(1, 2), "98", EventLog))
	require.NoError(t, a.Close(ctx))
	assert.FileExists(t, filepath.Join(dir, "answers", "abc123.yml"))

	var loaded []Entry
	b := NewAnswerLog(AnswerOptions{Options: Options{Dir: dir}, Account: "abc123"})
	require.NoError(t, b.Attach(HookPostLoad, "spy", func(_ context.Context, n Notice) error {
		loaded = n.Entries
		return nil
	}))
	require.NoError(t, b.Load(ctx))

	assert.Len(t, loaded, 2)
	assert.True(t, b.Incorrect(goKey(1, 2)))
	assert.False(t, b.Incorrect(goKey(1, 1)))
	assert.Equal(t, 1, b.Stars("go", 2023))
	assert.Empty(t, b.Changed())
}

func TestAnswerLog_NoLoadNoSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "answers", "anonymous.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("answers:\n  2023:\n    1:\n      1:\n        go: \"5\"\n"), 0o644))

	a := NewAnswerLog(AnswerOptions{Options: Options{Dir: dir, NoLoad: true, NoSave: true}})
	require.NoError(t, a.Load(ctx))
	assert.Empty(t, a.Entries())

	require.NoError(t, a.Log(ctx, goKey(2, 1), "x", EventLog))
	require.NoError(t, a.Close(ctx))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "x")
}

func TestAnswerLog_CloseHookOrderAndTables(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	var order []Hook
	a := NewAnswerLog(AnswerOptions{Options: Options{Dir: t.TempDir(), Style: table.StyleDefault, Out: &out}})
	for _, h := range []Hook{HookPreExit, HookOnExit, HookPostExit} {
		require.NoError(t, a.Attach(h, "spy", func(_ context.Context, n Notice) error {
			order = append(order, n.Hook)
			return nil
		}))
	}

	require.NoError(t, a.Log(ctx, goKey(1, 1), "42", EventLog))
	require.NoError(t, a.Close(ctx))

	assert.Equal(t, []Hook{HookPreExit, HookOnExit, HookPostExit}, order)
	assert.Contains(t, out.String(), "2023:")
	assert.Contains(t, out.String(), "Go")
}

func TestAnswerLog_TablesListIncorrect(t *testing.T) {
	fc := &fakeChecker{pages: map[PartKey]string{{2023, 1, 1}: "42"}}
	a := NewAnswerLog(AnswerOptions{Checker: fc})
	require.NoError(t, a.Log(context.Background(), goKey(1, 1), "41", EventLog))

	var names []string
	for _, tb := range a.Tables(true) {
		names = append(names, tb.Name)
	}
	assert.ElementsMatch(t, []string{"2023", "Incorrect"}, names)
}

func TestHooks_AttachValidation(t *testing.T) {
	var h hookSet
	noop := func(context.Context, Notice) error { return nil }

	assert.Error(t, h.Attach("on_magic", "x", noop))
	assert.Error(t, h.Attach(HookOnLog, "x", nil))
	require.NoError(t, h.Attach(HookOnLog, "x", noop))
	require.NoError(t, h.Attach(HookOnLog, "x", noop))
	assert.Len(t, h.handlers[HookOnLog], 1)
}

func TestHooks_FireJoinsErrors(t *testing.T) {
	var h hookSet
	boom := errors.New("boom")
	calls := 0
	require.NoError(t, h.Attach(HookOnExit, "a", func(context.Context, Notice) error { calls++; return boom }))
	require.NoError(t, h.Attach(HookOnExit, "b", func(context.Context, Notice) error { calls++; return nil }))

	err := h.fire(context.Background(), Notice{Hook: HookOnExit})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestParseHook(t *testing.T) {
	h, err := ParseHook("post_exit")
	require.NoError(t, err)
	assert.Equal(t, HookPostExit, h)
	_, err = ParseHook("exit")
	assert.Error(t, err)
}
