package pprl

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TokenSimilarity is the optional S matrix: a symmetric,
// positive-semidefinite matrix of shape m x m with diagonal 1, giving the
// pairwise similarity between bit positions (tokens) for the Soft Cosine
// Measure. Represented sparsely since most position pairs are unrelated;
// the diagonal is implicit (Get(i, i) always returns 1).
type TokenSimilarity struct {
	m       uint32
	entries map[uint64]float64
}

// NewTokenSimilarity returns an empty S matrix of dimension m x m (off
// diagonal entries default to 0, i.e. unrelated unless set).
func NewTokenSimilarity(m uint32) *TokenSimilarity {
	return &TokenSimilarity{m: m, entries: make(map[uint64]float64)}
}

func pairKey(i, j uint32) uint64 {
	if i > j {
		i, j = j, i
	}
	return uint64(i)<<32 | uint64(j)
}

// Set records the similarity between bit positions i and j (symmetric:
// also sets j,i). Returns InvalidConfig if either index is out of range
// or i == j (the diagonal is fixed at 1 and may not be overridden).
func (s *TokenSimilarity) Set(i, j uint32, value float64) error {
	if i >= s.m || j >= s.m {
		return newErr(ErrInvalidConfig, fmt.Sprintf("token similarity index out of range: %d,%d >= %d", i, j, s.m))
	}
	if i == j {
		return newErr(ErrInvalidConfig, "token similarity diagonal is implicitly 1 and cannot be set")
	}
	s.entries[pairKey(i, j)] = value
	return nil
}

// Get returns the similarity between positions i and j; 1 on the
// diagonal, 0 for any unset off-diagonal pair.
func (s *TokenSimilarity) Get(i, j uint32) float64 {
	if i == j {
		return 1
	}
	if s == nil {
		return 0
	}
	return s.entries[pairKey(i, j)]
}

// Dim returns the matrix dimension m.
func (s *TokenSimilarity) Dim() uint32 { return s.m }

// Pairs returns every explicitly-set off-diagonal entry as (i, j, value)
// with i < j, for serialization by internal/pprlio.
func (s *TokenSimilarity) Pairs() []TokenSimilarityPair {
	out := make([]TokenSimilarityPair, 0, len(s.entries))
	for key, value := range s.entries {
		i := uint32(key >> 32)
		j := uint32(key)
		out = append(out, TokenSimilarityPair{I: i, J: j, Value: value})
	}
	return out
}

// TokenSimilarityPair is one explicitly-set off-diagonal entry of a
// TokenSimilarity matrix.
type TokenSimilarityPair struct {
	I, J  uint32
	Value float64
}

// EmbedderConfig is the immutable configuration shared by both parties to
// a linkage project: filter width m, hash positions per shingle k, an
// optional salt, and an optional token-similarity matrix S. When S is
// nil, SCM reduces to ordinary cosine similarity over binary vectors.
type EmbedderConfig struct {
	M    uint32
	K    uint32
	Salt []byte
	S    *TokenSimilarity
}

// NewEmbedderConfig validates and returns an EmbedderConfig. m must be
// positive, k must be at least 1, and if S is supplied its dimension must
// equal m.
func NewEmbedderConfig(m, k uint32, salt []byte, s *TokenSimilarity) (*EmbedderConfig, error) {
	if m == 0 {
		return nil, newErr(ErrInvalidConfig, "m must be > 0")
	}
	if k == 0 {
		return nil, newErr(ErrInvalidConfig, "k must be > 0")
	}
	if s != nil && s.Dim() != m {
		return nil, newErr(ErrInvalidConfig, fmt.Sprintf("S dimension %d does not match m %d", s.Dim(), m))
	}
	cfg := &EmbedderConfig{M: m, K: k, S: s}
	if len(salt) > 0 {
		cfg.Salt = append([]byte(nil), salt...)
	}
	return cfg, nil
}

// Identity reports whether this config uses the implicit identity S
// matrix (ordinary cosine similarity over binary vectors).
func (c *EmbedderConfig) Identity() bool { return c.S == nil }

// sameAs reports whether two configs describe the same linkage
// project: equal m, k, salt, and S (by reference or both nil/identity).
// Two EmbeddedRecords may only be compared if their configs satisfy this.
func (c *EmbedderConfig) sameAs(other *EmbedderConfig) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.M != other.M || c.K != other.K {
		return false
	}
	if len(c.Salt) != len(other.Salt) {
		return false
	}
	for i := range c.Salt {
		if c.Salt[i] != other.Salt[i] {
			return false
		}
	}
	if (c.S == nil) != (other.S == nil) {
		return false
	}
	if c.S != nil && c.S != other.S {
		// Distinct S instances are only considered equal if both are the
		// trivial (no off-diagonal entries) case at the same dimension;
		// anything richer must be the literal shared instance.
		if c.S.Dim() != other.S.Dim() || len(c.S.entries) != 0 || len(other.S.entries) != 0 {
			return false
		}
	}
	return true
}

const embedderConfigBlobVersion = 1

// MarshalBinary serializes the config to a self-describing versioned blob:
// the two parties to a linkage project exchange this so both embed under
// identical m, k, salt, and S. Framing follows BloomFilter's original
// byte-level layout convention (fixed-width fields via encoding/binary,
// length-prefixed variable data).
func (c *EmbedderConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, embedderConfigBlobVersion)
	buf = binary.BigEndian.AppendUint32(buf, c.M)
	buf = binary.BigEndian.AppendUint32(buf, c.K)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Salt)))
	buf = append(buf, c.Salt...)

	if c.S == nil {
		buf = append(buf, 0)
		return buf, nil
	}
	buf = append(buf, 1)
	buf = binary.BigEndian.AppendUint32(buf, c.S.Dim())
	pairs := c.S.Pairs()
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(pairs)))
	for _, p := range pairs {
		buf = binary.BigEndian.AppendUint32(buf, p.I)
		buf = binary.BigEndian.AppendUint32(buf, p.J)
		bits := make([]byte, 8)
		binary.BigEndian.PutUint64(bits, math.Float64bits(p.Value))
		buf = append(buf, bits...)
	}
	return buf, nil
}

// UnmarshalBinary populates c from a blob produced by MarshalBinary.
func (c *EmbedderConfig) UnmarshalBinary(data []byte) error {
	if len(data) < 1 || data[0] != embedderConfigBlobVersion {
		return newErr(ErrSerialization, "unsupported embedder config blob version")
	}
	r := data[1:]
	if len(r) < 12 {
		return newErr(ErrSerialization, "truncated embedder config blob")
	}
	c.M = binary.BigEndian.Uint32(r[0:4])
	c.K = binary.BigEndian.Uint32(r[4:8])
	saltLen := binary.BigEndian.Uint32(r[8:12])
	r = r[12:]
	if uint32(len(r)) < saltLen+1 {
		return newErr(ErrSerialization, "truncated embedder config salt")
	}
	if saltLen > 0 {
		c.Salt = append([]byte(nil), r[:saltLen]...)
	} else {
		c.Salt = nil
	}
	r = r[saltLen:]

	hasS := r[0]
	r = r[1:]
	if hasS == 0 {
		c.S = nil
		return nil
	}
	if len(r) < 8 {
		return newErr(ErrSerialization, "truncated embedder config S header")
	}
	dim := binary.BigEndian.Uint32(r[0:4])
	count := binary.BigEndian.Uint32(r[4:8])
	r = r[8:]
	s := NewTokenSimilarity(dim)
	for i := uint32(0); i < count; i++ {
		if len(r) < 16 {
			return newErr(ErrSerialization, "truncated embedder config S entry")
		}
		pi := binary.BigEndian.Uint32(r[0:4])
		pj := binary.BigEndian.Uint32(r[4:8])
		value := math.Float64frombits(binary.BigEndian.Uint64(r[8:16]))
		if err := s.Set(pi, pj, value); err != nil {
			return wrapErr(ErrSerialization, "invalid S entry in embedder config blob", err)
		}
		r = r[16:]
	}
	c.S = s
	return nil
}
