// Package env reads typed environment overrides.
package env

import (
	"os"
	"strconv"
	"strings"
)

// LookupEnv returns the trimmed value of key and whether it was set non-empty.
func LookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// LookupEnvInt parses key as an integer.
func LookupEnvInt(key string) (int, bool) {
	v, ok := LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LookupEnvBool parses key as a boolean (1/0, true/false, yes/no, on/off).
func LookupEnvBool(key string) (bool, bool) {
	v, ok := LookupEnv(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
