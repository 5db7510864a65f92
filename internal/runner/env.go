package runner

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ResolveEnv resolves "env:VAR_NAME" references in a language's env map to
// actual values. Returns an error if a referenced var is unset, or if an
// entry would pass a sensitive variable back into the solution.
func ResolveEnv(env map[string]string) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}
	resolved := make(map[string]string, len(env))
	for k, v := range env {
		if isSensitive(strings.ToUpper(k)) {
			return nil, fmt.Errorf("env var %q may not be passed to solutions", k)
		}
		if strings.HasPrefix(v, "env:") {
			envKey := strings.TrimPrefix(v, "env:")
			if isSensitive(strings.ToUpper(envKey)) {
				return nil, fmt.Errorf("env var %q (referenced by %q) may not be passed to solutions", envKey, k)
			}
			envVal := os.Getenv(envKey)
			if envVal == "" {
				return nil, fmt.Errorf("env var %q (referenced by %q) is not set", envKey, k)
			}
			resolved[k] = envVal
		} else {
			resolved[k] = v
		}
	}
	return resolved, nil
}

// mergeEnv appends extra to base in key order, replacing existing entries.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(extra))
	for _, entry := range base {
		name, _, _ := strings.Cut(entry, "=")
		if _, override := extra[name]; !override {
			out = append(out, entry)
		}
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+extra[k])
	}
	return out
}
