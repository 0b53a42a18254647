package persistence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		expectSlug string
	}{
		{
			name:       "already normalized",
			input:      "acme",
			expectSlug: "acme",
		},
		{
			name:       "trims whitespace and lowercases",
			input:      "  Acme Inc ",
			expectSlug: "acme_inc",
		},
		{
			name:       "collapses separator runs",
			input:      "Acme -- & -- Sons",
			expectSlug: "acme_sons",
		},
		{
			name:       "strips leading and trailing separators",
			input:      "__Acme!!",
			expectSlug: "acme",
		},
		{
			name:       "non ascii letters become separators",
			input:      "Café Zürich",
			expectSlug: "caf_z_rich",
		},
		{
			name:       "empty string",
			input:      "   ",
			expectSlug: "",
		},
		{
			name:       "only separators",
			input:      "!!!---",
			expectSlug: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expectSlug, Slugify(tt.input))
		})
	}
}

func TestCollectionName(t *testing.T) {
	t.Parallel()

	name, ok := CollectionName("Acme Inc")
	require.True(t, ok)
	require.Equal(t, "org_acme_inc", name)

	_, ok = CollectionName("***")
	require.False(t, ok)

	_, ok = CollectionName("")
	require.False(t, ok)

	_, ok = CollectionName(strings.Repeat("a", 60))
	require.False(t, ok, "identifiers longer than 63 bytes are rejected")
}

func TestCollectionNameCollision(t *testing.T) {
	t.Parallel()

	first, ok := CollectionName("Acme, Inc.")
	require.True(t, ok)
	second, ok := CollectionName("ACME inc")
	require.True(t, ok)
	require.Equal(t, first, second)
}
