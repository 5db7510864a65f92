package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnv_Nil(t *testing.T) {
	got, err := ResolveEnv(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveEnv_LiteralAndReference(t *testing.T) {
	t.Setenv("AOC_TEST_RUSTFLAGS", "-C target-cpu=native")
	got, err := ResolveEnv(map[string]string{
		"PYTHONHASHSEED": "0",
		"RUSTFLAGS":      "env:AOC_TEST_RUSTFLAGS",
	})
	require.NoError(t, err)
	assert.Equal(t, "0", got["PYTHONHASHSEED"])
	assert.Equal(t, "-C target-cpu=native", got["RUSTFLAGS"])
}

func TestResolveEnv_MissingReference(t *testing.T) {
	_, err := ResolveEnv(map[string]string{"X": "env:AOC_TEST_DEFINITELY_UNSET"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestResolveEnv_RejectsCookie(t *testing.T) {
	t.Setenv("AOC_COOKIE", "secret")
	_, err := ResolveEnv(map[string]string{"SESSION": "env:AOC_COOKIE"})
	assert.Error(t, err)
	_, err = ResolveEnv(map[string]string{"AOC_COOKIE": "x"})
	assert.Error(t, err)
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv([]string{"A=1", "B=2"}, map[string]string{"B": "3", "C": "4"})
	assert.Equal(t, []string{"A=1", "B=3", "C=4"}, got)
	assert.Equal(t, []string{"A=1"}, mergeEnv([]string{"A=1"}, nil))
}
