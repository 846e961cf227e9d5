package http //nolint:revive // intentional naming for domain clarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/toc/ranges"
)

func TestParseContentRange(t *testing.T) {
	t.Parallel()

	served, size, err := parseContentRange("bytes 900-999/1000")
	require.NoError(t, err)
	assert.Equal(t, ranges.Range{Start: 900, End: 999}, served)
	assert.Equal(t, int64(1000), size)

	for _, bad := range []string{
		"",
		"bytes */1000",
		"bytes 0-9/*",
		"items 0-9/10",
		"bytes 9-0/10",
		"bytes 0-10/10",
		"bytes a-b/10",
		"bytes 0-9",
	} {
		_, _, err := parseContentRange(bad)
		assert.Error(t, err, bad)
	}
}
