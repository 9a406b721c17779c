package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ParsedDSN is a usage-store connection string split by backend.
type ParsedDSN struct {
	Backend string // "sqlite" or "postgres"
	Path    string // sqlite file path
	URL     string // postgres connection URL
}

// ParseDSN accepts sqlite://path, postgres://... and postgresql://...
// An empty DSN returns nil without error.
func ParseDSN(dsn string) (*ParsedDSN, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite DSN requires a file path")
		}
		return &ParsedDSN{Backend: "sqlite", Path: path}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return &ParsedDSN{Backend: "postgres", URL: dsn}, nil
	default:
		return nil, fmt.Errorf("unsupported usage DSN %q (use sqlite:// or postgres://)", dsn)
	}
}

// RedactURL masks the password of a URL-form DSN or proxy URL. Values
// without userinfo are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
