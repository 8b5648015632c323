package common

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", Preview("abc", 5))
	assert.Equal(t, "ab", Preview("abc", 2))
	assert.Equal(t, "", Preview("abc", 0))
	assert.Equal(t, "héé", Preview("héééé", 3))

	long := strings.Repeat("x", 2000)
	assert.Len(t, Preview(long, MaxPreviewRunes), MaxPreviewRunes)
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := NewAppErrorWithDetail(KindUnparseableModelOutput, "no tier parsed", strings.Repeat("y", 900), nil)
	wrapped := fmt.Errorf("audit: %w", base)

	assert.Equal(t, KindUnparseableModelOutput, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindUnparseableModelOutput))
	assert.False(t, IsKind(nil, KindUnparseableModelOutput))
	assert.Len(t, DetailOf(wrapped), MaxPreviewRunes)
	assert.Equal(t, "", KindOf(fmt.Errorf("plain")))
}
