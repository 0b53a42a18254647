package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// normalizeIdentifier trims the input and enforces a lowercase snake_case identifier that is safe to embed in SQL.
func normalizeIdentifier(kind, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%s name is required", kind)
	}

	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("invalid %s name %q: longer than %d bytes", kind, trimmed, maxIdentifierLength)
	}

	if !identifierPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid %s name %q: must match ^[a-z][a-z0-9_]*$", kind, trimmed)
	}

	return trimmed, nil
}

// qualifiedTable returns the sanitized "<schema>"."<table>" reference.
func qualifiedTable(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// NormalizeDocumentID trims a tenant document identifier; ids are opaque but must be non-empty.
func NormalizeDocumentID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("document id is required")
	}
	return trimmed, nil
}
