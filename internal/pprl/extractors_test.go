package pprl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFactoryLookup(t *testing.T) {
	f := NewFeatureFactory()
	for _, name := range []string{"name", "dob", "sex", "token", "shingle"} {
		_, err := f.Lookup(name)
		assert.NoError(t, err, "builtin type %q should be registered", name)
	}

	_, err := f.Lookup("nope")
	assert.ErrorIs(t, err, &CoreError{Kind: ErrUnknownFeatureType})
}

func TestFeatureFactoryRegisterOverrides(t *testing.T) {
	f := NewFeatureFactory()
	called := false
	f.Register("custom", ExtractorFunc(func(value, label string) (FeatureBag, error) {
		called = true
		return FeatureBag{{Label: label, Token: value}}, nil
	}))

	ex, err := f.Lookup("custom")
	require.NoError(t, err)
	bag, err := ex.Extract("v", "l")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, FeatureBag{{Label: "l", Token: "v"}}, bag)
}

func TestNameExtractorEmitsNGramsAndPhonetic(t *testing.T) {
	bag, err := NameExtractor{}.Extract("Jon", "ignored-label-param")
	require.NoError(t, err)
	require.NotEmpty(t, bag)

	var hasPhonetic bool
	for _, s := range bag {
		assert.Equal(t, "name", s.Label, "NameExtractor always labels as name")
		if len(s.Token) > 3 && s.Token[:3] == "ph:" {
			hasPhonetic = true
		}
	}
	assert.True(t, hasPhonetic)
}

func TestNameExtractorSimilarNamesShareNGrams(t *testing.T) {
	a, err := NameExtractor{}.Extract("Jon", "")
	require.NoError(t, err)
	b, err := NameExtractor{}.Extract("John", "")
	require.NoError(t, err)

	setA := make(map[Shingle]bool)
	for _, s := range a {
		setA[s] = true
	}
	overlap := 0
	for _, s := range b {
		if setA[s] {
			overlap++
		}
	}
	assert.Greater(t, overlap, 0, "Jon and John should share at least one n-gram or phonetic code")
}

func TestNameExtractorEmptyInput(t *testing.T) {
	bag, err := NameExtractor{}.Extract("   ", "")
	require.NoError(t, err)
	assert.Empty(t, bag)
}

func TestDateOfBirthExtractorParsesKnownLayouts(t *testing.T) {
	ex := DateOfBirthExtractor{}
	bag, err := ex.Extract("1980-04-12", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, FeatureBag{
		{Label: "dob-y", Token: "1980"},
		{Label: "dob-m", Token: "04"},
		{Label: "dob-d", Token: "12"},
	}, bag)
}

func TestDateOfBirthExtractorDayFirstAmbiguity(t *testing.T) {
	dayFirst := DateOfBirthExtractor{DayFirst: true}
	bag, err := dayFirst.Extract("03/04/2020", "")
	require.NoError(t, err)
	assertHasShingle(t, bag, "dob-d", "03")
	assertHasShingle(t, bag, "dob-m", "04")
}

func TestDateOfBirthExtractorDegradesOnUnparseable(t *testing.T) {
	ex := DateOfBirthExtractor{}
	bag, err := ex.Extract("not a date", "")
	require.NoError(t, err, "unparseable dates degrade to an empty bag, not an error")
	assert.Empty(t, bag)
}

func TestSexExtractorNormalizes(t *testing.T) {
	bag, err := SexExtractor{}.Extract("Female", "")
	require.NoError(t, err)
	assert.Equal(t, FeatureBag{{Label: "sex", Token: "f"}}, bag)

	bag, err = SexExtractor{}.Extract("unknown-value", "")
	require.NoError(t, err)
	assert.Empty(t, bag)
}

func TestTokenExtractorSplitsOnWhitespace(t *testing.T) {
	bag, err := TokenExtractor{}.Extract("123 Main Street", "address")
	require.NoError(t, err)
	assert.Equal(t, FeatureBag{
		{Label: "address", Token: "123"},
		{Label: "address", Token: "main"},
		{Label: "address", Token: "street"},
	}, bag)
}

func TestShingleExtractorMultipleLengths(t *testing.T) {
	bag, err := ShingleExtractor{N: []int{2, 3}}.Extract("abcd", "x")
	require.NoError(t, err)
	assert.Contains(t, bag, Shingle{Label: "x", Token: "ab"})
	assert.Contains(t, bag, Shingle{Label: "x", Token: "abc"})
}

func assertHasShingle(t *testing.T, bag FeatureBag, label, token string) {
	t.Helper()
	for _, s := range bag {
		if s.Label == label && s.Token == token {
			return
		}
	}
	t.Fatalf("expected bag to contain shingle {%s, %s}, got %+v", label, token, bag)
}
