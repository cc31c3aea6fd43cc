// bloom.go implements the double-hashing Bloom embedder, plus the packed
// bit-array representation the scorer uses for the identity-S fast path.
// Grounded on internal/pprl/bloom.go: the block/offset bit-array layout
// and popcount lookup table are kept verbatim; Add/Test/AddWithNoise are
// dropped (the embedder here produces a one-shot index set rather than a
// long-lived mutable filter), and the hash function is upgraded from fnv
// to crypto/sha256 for cryptographic-quality bit positions.
package pprl

import (
	"crypto/sha256"
	"encoding/binary"
)

// digests computes the two independent 64-bit hashes h1, h2 used for
// double hashing, over label || 0x00 || token, optionally salted.
func digests(s Shingle, salt []byte) (uint64, uint64) {
	data := make([]byte, 0, len(salt)+1+len(s.Label)+1+len(s.Token))
	if len(salt) > 0 {
		data = append(data, salt...)
		data = append(data, 0x00)
	}
	data = append(data, s.key()...)

	sum1 := sha256.Sum256(data)
	h1 := binary.BigEndian.Uint64(sum1[:8])

	// Second digest decorrelated from the first by hashing sum1 || data.
	combined := make([]byte, 0, len(sum1)+len(data))
	combined = append(combined, sum1[:]...)
	combined = append(combined, data...)
	sum2 := sha256.Sum256(combined)
	h2 := binary.BigEndian.Uint64(sum2[:8])
	if h2 == 0 {
		h2 = 1 // avoid a degenerate filter where every position collapses to h1
	}
	return h1, h2
}

// bitPositions returns the k bit indices in [0, m) that shingle s sets,
// via (h1 + i*h2) mod m for i in [0, k).
func bitPositions(s Shingle, cfg *EmbedderConfig) []uint32 {
	h1, h2 := digests(s, cfg.Salt)
	out := make([]uint32, cfg.K)
	for i := uint32(0); i < cfg.K; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(cfg.M)
		out[i] = uint32(idx)
	}
	return out
}

// embedBag hashes every shingle in bag to its k positions and returns the
// sorted, deduplicated union as the record's bit indices.
func embedBag(bag FeatureBag, cfg *EmbedderConfig) []uint32 {
	seen := make(map[uint32]struct{})
	for _, s := range bag {
		for _, idx := range bitPositions(s, cfg) {
			seen[idx] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[uint32]struct{}) []uint32 {
	out := make([]uint32, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	insertionSortUint32(out)
	return out
}

// insertionSortUint32 sorts small slices without pulling in sort's
// interface-call overhead; bit-index sets are typically a few dozen to a
// few hundred entries.
func insertionSortUint32(a []uint32) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}

// packedBits is the dense block/offset bit-array representation used by
// BloomFilter, reused here for the identity-S scoring fast path
// (population-count over AND).
type packedBits struct {
	m        uint32
	bitArray []uint64
}

func newPackedBits(m uint32, indices []uint32) *packedBits {
	blocks := (m + 63) / 64
	pb := &packedBits{m: m, bitArray: make([]uint64, blocks)}
	for _, idx := range indices {
		pb.set(idx)
	}
	return pb
}

func (pb *packedBits) set(idx uint32) {
	pb.bitArray[idx/64] |= 1 << (idx % 64)
}

// intersectionCount returns |indices_a ∩ indices_b| via AND+popcount.
func (pb *packedBits) intersectionCount(other *packedBits) uint32 {
	var count uint32
	for i := range pb.bitArray {
		count += uint32(popcount(pb.bitArray[i] & other.bitArray[i]))
	}
	return count
}

// popcount returns the number of set bits in a uint64.
func popcount(x uint64) int {
	return bitsSetTable[x>>(0*16)&0xFFFF] +
		bitsSetTable[x>>(1*16)&0xFFFF] +
		bitsSetTable[x>>(2*16)&0xFFFF] +
		bitsSetTable[x>>(3*16)&0xFFFF]
}

// bitsSetTable is a 16-bit lookup table for popcount.
var bitsSetTable [1 << 16]int

func init() {
	for i := 0; i < len(bitsSetTable); i++ {
		bitsSetTable[i] = popcount16(uint16(i))
	}
}

func popcount16(x uint16) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}
