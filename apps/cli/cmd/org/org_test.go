package org

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

func TestParseDocuments(t *testing.T) {
	docs, err := ParseDocuments(strings.NewReader(`[{"id":"inv-1","total":10},{"title":"no id"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "inv-1", docs[0].ID)
	require.Equal(t, map[string]any{"total": float64(10)}, docs[0].Fields)
	require.Empty(t, docs[1].ID)
	require.Equal(t, "no id", docs[1].Fields["title"])
}

func TestParseDocumentsRejectsBadInput(t *testing.T) {
	testCases := map[string]string{
		"not an array":   `{"id":"x"}`,
		"numeric id":     `[{"id":7}]`,
		"empty id":       `[{"id":""}]`,
		"null document":  `[null]`,
		"truncated json": `[{"id":"x"`,
	}
	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocuments(strings.NewReader(input))
			require.Error(t, err)
		})
	}
}

func TestFormatDocumentsRoundTrip(t *testing.T) {
	out := FormatDocuments([]persistence.Document{{ID: "a", Fields: map[string]any{"k": "v"}}})
	require.Equal(t, []map[string]any{{"id": "a", "k": "v"}}, out)
}
