package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestRecordAndTrend(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2023, 12, 5, 6, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx,
		Entry{RunID: "a", RanAt: base, Lang: "go", Year: 2023, Day: 5, Part: 1, Answer: "42", Seconds: 0.3},
		Entry{RunID: "a", RanAt: base, Lang: "go", Year: 2023, Day: 5, Part: 2, Answer: "7", Seconds: 0.9},
	))
	require.NoError(t, s.Record(ctx,
		Entry{RunID: "b", RanAt: base.Add(time.Hour), Lang: "go", Year: 2023, Day: 5, Part: 1, Answer: "42", Seconds: 0.1},
		Entry{RunID: "b", RanAt: base.Add(time.Hour), Lang: "python", Year: 2023, Day: 5, Part: 1, Answer: "42", Seconds: 2},
	))

	got, err := s.Trend(ctx, Filter{Lang: "go", Year: 2023, Day: 5, Part: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].RunID)
	assert.InDelta(t, 0.1, got[0].Seconds, 1e-9)
	assert.True(t, got[0].RanAt.Equal(base.Add(time.Hour)))

	limited, err := s.Trend(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := s.Trend(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Now()
	for i, secs := range []float64{0.5, 0.2, 0.8} {
		require.NoError(t, s.Record(ctx, Entry{RunID: "r", RanAt: base.Add(time.Duration(i) * time.Minute), Lang: "c", Year: 2022, Day: 1, Part: 1, Seconds: secs}))
	}

	st, err := s.Summary(ctx, Filter{Lang: "c", Year: 2022, Day: 1, Part: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, st.Runs)
	assert.InDelta(t, 0.2, st.Best, 1e-9)
	assert.InDelta(t, 0.5, st.Mean, 1e-9)
	assert.InDelta(t, 0.8, st.Last, 1e-9)

	empty, err := s.Summary(ctx, Filter{Lang: "rust"})
	require.NoError(t, err)
	assert.Zero(t, empty.Runs)
}

func TestRecord_Empty(t *testing.T) {
	assert.NoError(t, openTemp(t).Record(context.Background()))
}
