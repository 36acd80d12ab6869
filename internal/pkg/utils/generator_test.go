package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferenceNumber(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	reference, err := GenerateReferenceNumber("TRF", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TRF-20240309140506-[A-Z2-9]{6}$`), reference)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		reference, err := GenerateReferenceNumber("TRF", now)
		require.NoError(t, err)
		seen[reference] = struct{}{}
	}
	assert.Greater(t, len(seen), 190, "suffixes should rarely collide")
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	assert.True(t, strings.HasPrefix(id, "KNSLN_WLT_"))
	assert.NotEqual(t, id, GenerateRequestID())
}
