package pprl

import "strings"

// Shingle is a labeled atomic unit of a record's feature bag: a short
// token or n-gram tagged with the field label that produced it, so that
// identical tokens from different field types never collide.
//
// Equality is exact over (Label, Token); two shingles with the same token
// but different labels are distinct, per spec.
type Shingle struct {
	Label string
	Token string
}

// key returns the byte representation hashed by the embedder: label, a nil
// byte separator, then the token. The nil separator prevents a label/token
// boundary ambiguity (e.g. label "ab" + token "cd" colliding with label "a"
// + token "bcd").
func (s Shingle) key() []byte {
	buf := make([]byte, 0, len(s.Label)+1+len(s.Token))
	buf = append(buf, s.Label...)
	buf = append(buf, 0x00)
	buf = append(buf, s.Token...)
	return buf
}

// FeatureBag is an ordered, duplicate-preserving sequence of shingles for
// one record. Multiplicity matters to extractors (e.g. q-gram frequency)
// even though the Bloom embedder itself only cares about the distinct set.
type FeatureBag []Shingle

// Extend appends another bag's shingles onto this one, in place.
func (b *FeatureBag) Extend(other FeatureBag) {
	*b = append(*b, other...)
}

// normalizeBasic lowercases and trims a raw field value the way every
// extractor in this package expects its input pre-processed.
func normalizeBasic(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
