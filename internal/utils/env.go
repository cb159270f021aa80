package utils

import (
	"os"
	"strings"
)

// SafeEnv returns the trimmed value of the environment variable key, or
// fallback when it is unset or blank.
func SafeEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
