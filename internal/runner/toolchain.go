package runner

import (
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

// MissingTool records a language whose toolchain is not on PATH.
type MissingTool struct {
	Lang string
	Tool string
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// CheckToolchains looks up the first word of each language's build and run
// commands on PATH. Relative programs ("./1") are build outputs and are not
// checked. Missing tools are logged and returned; their jobs still run and
// fail with a diagnosis.
func CheckToolchains(langs []*lang.Language) []MissingTool {
	var missing []MissingTool
	for _, l := range langs {
		seen := make(map[string]bool)
		for _, cmd := range []string{l.Build, l.Run} {
			tool := commandTool(cmd)
			if tool == "" || seen[tool] {
				continue
			}
			seen[tool] = true
			if _, err := lookPath(tool); err != nil {
				missing = append(missing, MissingTool{Lang: l.Name, Tool: tool})
				log.Warn().Str("lang", l.Name).Str("tool", tool).Msg("toolchain not found on PATH")
			}
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Lang != missing[j].Lang {
			return missing[i].Lang < missing[j].Lang
		}
		return missing[i].Tool < missing[j].Tool
	})
	return missing
}

// commandTool returns the program a command template starts with, or "" if
// it is templated or relative.
func commandTool(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	tool := strings.Trim(fields[0], `"'`)
	if strings.Contains(tool, "{{") || strings.ContainsAny(tool, `/\`) {
		return ""
	}
	return tool
}
