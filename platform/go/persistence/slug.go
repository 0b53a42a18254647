package persistence

import (
	"regexp"
	"strings"
)

const (
	// CollectionPrefix is prepended to every organization slug to form its collection name.
	CollectionPrefix = "org_"

	// maxIdentifierLength mirrors PostgreSQL's NAMEDATALEN-1; longer identifiers are silently truncated by the server.
	maxIdentifierLength = 63
)

var slugSeparatorRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases and trims name, collapses every run of characters outside [a-z0-9]
// into a single underscore and strips leading/trailing underscores.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSeparatorRun.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

// CollectionName derives the tenant collection identifier for an organization name.
// It reports false when the slug is empty or the identifier would not fit a database identifier.
func CollectionName(name string) (string, bool) {
	slug := Slugify(name)
	if slug == "" {
		return "", false
	}

	collection := CollectionPrefix + slug
	if len(collection) > maxIdentifierLength {
		return "", false
	}
	return collection, true
}
