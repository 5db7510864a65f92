package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

func writeSolution(t *testing.T, root string, parts ...string) {
	t.Helper()
	p := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func testLangs() []*lang.Language {
	return []*lang.Language{
		{Name: "c", Ext: ".c", Run: "x"},
		{Name: "python", Ext: ".py", Run: "x"},
	}
}

func TestPlan(t *testing.T) {
	root := t.TempDir()
	writeSolution(t, root, "2023", "c", "1.c")
	writeSolution(t, root, "2023", "c", "2.c")
	writeSolution(t, root, "2023", "python", "2.py")
	writeSolution(t, root, "2023", "python", "9.py")

	jobs, err := Plan(testLangs(), root, []int{2023}, calendar.AllDays(), false)
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{Lang: "c", Year: 2023, Day: 1},
		{Lang: "c", Year: 2023, Day: 2},
		{Lang: "python", Year: 2023, Day: 2},
		{Lang: "python", Year: 2023, Day: 9},
	}, jobs)

	jobs, err = Plan(testLangs(), root, []int{2023}, calendar.AllDays(), true)
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{Lang: "c", Year: 2023, Day: 2},
		{Lang: "python", Year: 2023, Day: 2},
	}, jobs)

	_, err = Plan(testLangs(), root, []int{2023}, []int{20}, false)
	assert.ErrorIs(t, err, ErrNothingToRun)
}

func TestPlan_RepeatedYearsAndDays(t *testing.T) {
	root := t.TempDir()
	writeSolution(t, root, "2023", "c", "1.c")
	writeSolution(t, root, "2023", "python", "1.py")

	want := []Job{
		{Lang: "c", Year: 2023, Day: 1},
		{Lang: "python", Year: 2023, Day: 1},
	}
	jobs, err := Plan(testLangs(), root, []int{2023, 2023}, []int{1, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, want, jobs)

	jobs, err = Plan(testLangs(), root, []int{2023, 2023}, []int{1}, true)
	require.NoError(t, err)
	assert.Equal(t, want, jobs)
}

func TestGroupByCoverage(t *testing.T) {
	var jobs []Job
	for _, l := range []string{"go", "c"} {
		for _, d := range []int{1, 2, 3, 4, 5, 7} {
			jobs = append(jobs, Job{Lang: l, Year: 2023, Day: d})
		}
	}
	jobs = append(jobs, Job{Lang: "rust", Year: 2022, Day: 3})

	groups := GroupByCoverage(jobs)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"c", "go"}, groups[0].Langs)
	assert.Equal(t, "Running c, go for:\n2023, days 1-5, 7\n", groups[0].String())
	assert.Equal(t, "Running rust for:\n2022, day 3\n", groups[1].String())
}

func TestNewRunReport(t *testing.T) {
	rpt := NewRunReport("r1", 1, []*Result{
		{State: StateCompleted}, {State: StateFailed}, {State: StateSkipped}, {State: StateCompleted},
	}, 0)
	assert.Equal(t, 4, rpt.TotalJobs)
	assert.Equal(t, 2, rpt.Completed)
	assert.Equal(t, 1, rpt.Failed)
	assert.Equal(t, 1, rpt.Skipped)
}
