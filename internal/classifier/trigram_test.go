package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("orchestrator", "orchestrator"))
	assert.Equal(t, 1.0, Similarity("Cache", "cache"), "case-insensitive")
}

func TestSimilarityDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "cache"))
	assert.Equal(t, 0.0, Similarity("cache", ""))
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilarityPartialOverlap(t *testing.T) {
	s := Similarity("ParseConfig", "parseconf")
	assert.Greater(t, s, 0.5)
	assert.Less(t, s, 1.0)

	// Near-miss typo still lands above the detection threshold
	assert.Greater(t, Similarity("Orchestrator", "orchestrater"), DefaultThreshold)
}

func TestSimilaritySymmetric(t *testing.T) {
	assert.Equal(t, Similarity("breaker", "broker"), Similarity("broker", "breaker"))
}
