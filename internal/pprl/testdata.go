// testdata.go generates synthetic paired datasets with a known ground
// truth, for exercising embed/compare/match end to end without real PII.
// Grounded on internal/match/testharness.go
// (generateBaseRecords/createDataset1/createDataset2/addNoise), carried
// forward onto the Table/ColumnSpec model instead of a
// Bloom-filter-per-record pipeline.
package pprl

import (
	"fmt"
	"math/rand"
)

// SyntheticConfig controls the shape of a generated pair of datasets.
type SyntheticConfig struct {
	// Records1, Records2 are the sizes of the left and right datasets.
	Records1, Records2 int

	// OverlapRate is the fraction of Records1 that also appear (possibly
	// noised) in dataset 2; min(Records1, Records2) caps the actual count.
	OverlapRate float64

	// NoiseRate is the per-field probability that an overlapping record's
	// text fields are perturbed by a single character edit in dataset 2.
	NoiseRate float64

	// Seed makes generation reproducible.
	Seed int64
}

// SyntheticPair is a generated left/right dataset pair plus the ground
// truth mapping between their row indices.
type SyntheticPair struct {
	Left, Right *InMemoryRows
	// GroundTruth maps a left row index to its matching right row index,
	// for rows that were generated as overlapping.
	GroundTruth map[int]int
}

// InMemoryRows is a minimal pprl.Table backed by row-major string data
// (one column-to-value map per row), used for synthetic generation and
// small-scale testing without a file- or database-backed adapter from
// internal/table.
type InMemoryRows struct {
	columns []string
	rows    []map[string]string
}

func (r *InMemoryRows) Columns() []string { return r.columns }
func (r *InMemoryRows) NumRows() int      { return len(r.rows) }
func (r *InMemoryRows) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(r.rows) {
		return "", fmt.Errorf("row %d out of range", row)
	}
	return r.rows[row][column], nil
}

var syntheticFirstNames = []string{"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Lisa", "William", "Jennifer"}
var syntheticLastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
var syntheticStreets = []string{"Main St", "Oak Ave", "Pine Rd", "Elm Dr", "Cedar Ln"}

type syntheticPerson struct {
	first, last, dob, sex, address, ssn string
}

// GenerateSyntheticPair builds a left/right dataset pair per cfg, with the
// given overlap fraction noised on the right side.
func GenerateSyntheticPair(cfg SyntheticConfig) *SyntheticPair {
	rng := rand.New(rand.NewSource(cfg.Seed))

	overlap := int(float64(cfg.Records1) * cfg.OverlapRate)
	if overlap > cfg.Records1 {
		overlap = cfg.Records1
	}
	if overlap > cfg.Records2 {
		overlap = cfg.Records2
	}

	base := make([]syntheticPerson, overlap)
	for i := range base {
		base[i] = randomPerson(rng)
	}

	columns := []string{"first_name", "last_name", "dob", "sex", "address", "ssn"}
	left := &InMemoryRows{columns: columns}
	right := &InMemoryRows{columns: columns}
	groundTruth := make(map[int]int, overlap)

	for i := 0; i < overlap; i++ {
		left.rows = append(left.rows, personRow(base[i]))
	}
	for i := overlap; i < cfg.Records1; i++ {
		left.rows = append(left.rows, personRow(randomPerson(rng)))
	}

	for i := 0; i < overlap; i++ {
		noised := applyNoise(base[i], cfg.NoiseRate, rng)
		right.rows = append(right.rows, personRow(noised))
		groundTruth[i] = i
	}
	for i := overlap; i < cfg.Records2; i++ {
		right.rows = append(right.rows, personRow(randomPerson(rng)))
	}

	shuffleRightSide(right, groundTruth, rng)

	return &SyntheticPair{Left: left, Right: right, GroundTruth: groundTruth}
}

func randomPerson(rng *rand.Rand) syntheticPerson {
	sex := "f"
	if rng.Intn(2) == 0 {
		sex = "m"
	}
	return syntheticPerson{
		first:   syntheticFirstNames[rng.Intn(len(syntheticFirstNames))],
		last:    syntheticLastNames[rng.Intn(len(syntheticLastNames))],
		dob:     fmt.Sprintf("%04d-%02d-%02d", 1950+rng.Intn(50), 1+rng.Intn(12), 1+rng.Intn(28)),
		sex:     sex,
		address: fmt.Sprintf("%d %s", 100+rng.Intn(9900), syntheticStreets[rng.Intn(len(syntheticStreets))]),
		ssn:     randomSSN(rng),
	}
}

// randomSSN generates a near-unique identifier string. Unlike first/last
// name and address, which are drawn from a small fixed vocabulary and so
// collide across unrelated records at realistic dataset sizes, an SSN's
// huge value space (~7*10^8 combinations) keeps each row's self-similarity
// distribution from being starved by coincidental duplicates once a
// dataset grows into the thousands of records.
func randomSSN(rng *rand.Rand) string {
	return fmt.Sprintf("%03d-%02d-%04d", 100+rng.Intn(899), 10+rng.Intn(89), 1000+rng.Intn(8999))
}

func personRow(p syntheticPerson) map[string]string {
	return map[string]string{
		"first_name": p.first,
		"last_name":  p.last,
		"dob":        p.dob,
		"sex":        p.sex,
		"address":    p.address,
		"ssn":        p.ssn,
	}
}

// applyNoise perturbs a person's name and address fields (not DOB, sex, or
// SSN, which real-world linkage keys tend to carry over exactly even
// across data-entry errors elsewhere).
func applyNoise(p syntheticPerson, rate float64, rng *rand.Rand) syntheticPerson {
	return syntheticPerson{
		first:   noiseString(p.first, rate, rng),
		last:    noiseString(p.last, rate, rng),
		dob:     p.dob,
		sex:     p.sex,
		address: noiseString(p.address, rate, rng),
		ssn:     p.ssn,
	}
}

func noiseString(s string, rate float64, rng *rand.Rand) string {
	if rng.Float64() > rate {
		return s
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	pos := rng.Intn(len(runes))
	switch rng.Intn(3) {
	case 0:
		runes[pos] = rune('a' + rng.Intn(26))
	case 1:
		if len(runes) > 1 {
			runes = append(runes[:pos], runes[pos+1:]...)
		}
	case 2:
		newChar := rune('a' + rng.Intn(26))
		runes = append(runes[:pos], append([]rune{newChar}, runes[pos:]...)...)
	}
	return string(runes)
}

// shuffleRightSide randomizes the right dataset's row order so the ground
// truth isn't trivially the identity permutation, rewriting groundTruth's
// values in place to track the new positions.
func shuffleRightSide(right *InMemoryRows, groundTruth map[int]int, rng *rand.Rand) {
	n := len(right.rows)
	perm := rng.Perm(n)
	newRows := make([]map[string]string, n)
	oldToNew := make([]int, n)
	for newPos, oldPos := range perm {
		newRows[newPos] = right.rows[oldPos]
		oldToNew[oldPos] = newPos
	}
	right.rows = newRows
	for left, oldRight := range groundTruth {
		groundTruth[left] = oldToNew[oldRight]
	}
}
