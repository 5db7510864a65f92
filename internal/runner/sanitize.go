package runner

import (
	"os"
	"strings"
)

// sensitiveEnvPrefixes are env var name prefixes stripped from solution
// environments. Solutions never need the session cookie or cloud
// credentials.
var sensitiveEnvPrefixes = []string{
	"AOC_COOKIE",
	"AOC_SESSION",
	"AWS_SECRET",
	"AWS_SESSION",
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// sensitiveEnvExact are env var names stripped by exact match.
var sensitiveEnvExact = []string{
	"API_KEY",
	"API_SECRET",
	"SECRET_KEY",
}

// SanitizedEnv returns os.Environ() with sensitive variables removed.
// Builds and solution runs must use this instead of os.Environ() directly.
func SanitizedEnv() []string {
	return sanitizeEnv(os.Environ())
}

// sanitizeEnv filters sensitive environment variables from the list.
func sanitizeEnv(environ []string) []string {
	clean := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			clean = append(clean, entry)
			continue
		}
		if !isSensitive(strings.ToUpper(name)) {
			clean = append(clean, entry)
		}
	}
	return clean
}

func isSensitive(upper string) bool {
	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	for _, exact := range sensitiveEnvExact {
		if upper == exact {
			return true
		}
	}
	return false
}
