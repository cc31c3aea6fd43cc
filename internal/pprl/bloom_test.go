package pprl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitPositionsDeterministic(t *testing.T) {
	cfg, err := NewEmbedderConfig(1024, 8, []byte("salt"), nil)
	require.NoError(t, err)

	s := Shingle{Label: "name", Token: "jo"}
	a := bitPositions(s, cfg)
	b := bitPositions(s, cfg)
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
	for _, idx := range a {
		assert.Less(t, idx, cfg.M)
	}
}

func TestBitPositionsVaryWithSalt(t *testing.T) {
	cfgA, err := NewEmbedderConfig(1024, 8, []byte("salt-a"), nil)
	require.NoError(t, err)
	cfgB, err := NewEmbedderConfig(1024, 8, []byte("salt-b"), nil)
	require.NoError(t, err)

	s := Shingle{Label: "name", Token: "jo"}
	assert.NotEqual(t, bitPositions(s, cfgA), bitPositions(s, cfgB))
}

func TestEmbedBagUnionsAndDedupes(t *testing.T) {
	cfg, err := NewEmbedderConfig(2048, 4, nil, nil)
	require.NoError(t, err)

	bag := FeatureBag{{Label: "name", Token: "jo"}, {Label: "name", Token: "oh"}}
	indices := embedBag(bag, cfg)

	seen := make(map[uint32]struct{})
	for _, idx := range indices {
		_, dup := seen[idx]
		assert.False(t, dup, "embedBag must deduplicate bit indices")
		seen[idx] = struct{}{}
	}
	for i := 1; i < len(indices); i++ {
		assert.Less(t, indices[i-1], indices[i], "embedBag must return sorted indices")
	}
}

func TestPackedBitsIntersectionMatchesSortedMerge(t *testing.T) {
	a := []uint32{1, 5, 9, 200, 4095}
	b := []uint32{5, 9, 4000, 4095}

	pa := newPackedBits(4096, a)
	pb := newPackedBits(4096, b)

	assert.Equal(t, uint32(intersectionSize(a, b)), pa.intersectionCount(pb))
}

func TestPopcount(t *testing.T) {
	assert.Equal(t, 0, popcount(0))
	assert.Equal(t, 64, popcount(^uint64(0)))
	assert.Equal(t, 1, popcount(1<<40))
}
