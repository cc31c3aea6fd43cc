package pprl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extractor is a pure function mapping one field value to a FeatureBag,
// tagged with the column's label. Extractors never fail on empty input;
// they only return an error when a value genuinely cannot be coerced to
// text (ErrInvalidFieldValue).
type Extractor interface {
	Extract(value string, label string) (FeatureBag, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(value, label string) (FeatureBag, error)

func (f ExtractorFunc) Extract(value, label string) (FeatureBag, error) {
	return f(value, label)
}

// FeatureFactory maps caller-chosen type names (e.g. "name", "dob") to the
// Extractor that implements them. The caller assembles this once per
// linkage project. The factory is not serialized: the embedder blob
// (EmbedderConfig.MarshalBinary) carries only m, k, salt, and S, so each
// party builds its own factory in code.
type FeatureFactory struct {
	extractors map[string]Extractor
}

// NewFeatureFactory returns a factory pre-registered with the built-in
// extractor catalogue under their canonical type names: "name", "dob",
// "sex", "token", "shingle".
func NewFeatureFactory() *FeatureFactory {
	f := &FeatureFactory{extractors: make(map[string]Extractor)}
	f.Register("name", NameExtractor{})
	f.Register("dob", DateOfBirthExtractor{DayFirst: false})
	f.Register("sex", SexExtractor{})
	f.Register("token", TokenExtractor{})
	f.Register("shingle", ShingleExtractor{N: []int{2, 3}})
	return f
}

// Register adds or replaces the extractor for a type name.
func (f *FeatureFactory) Register(typeName string, ex Extractor) {
	f.extractors[typeName] = ex
}

// Lookup returns the extractor registered for typeName, or
// ErrUnknownFeatureType if the column specification names a type the
// factory never registered.
func (f *FeatureFactory) Lookup(typeName string) (Extractor, error) {
	ex, ok := f.extractors[typeName]
	if !ok {
		return nil, newErr(ErrUnknownFeatureType, fmt.Sprintf("unknown feature type %q", typeName))
	}
	return ex, nil
}

// --- Name extractor -------------------------------------------------------

// NameExtractor lowercases, strips non-letter characters, and emits
// character 2-grams, 3-grams, and a phonetic code. Label is always "name"
// regardless of the source column, so first-name, last-name, and
// full-name columns interchangeably contribute to the same label space.
type NameExtractor struct{}

var nonLetterRE = regexp.MustCompile(`[^a-z]`)

func (NameExtractor) Extract(value, _ string) (FeatureBag, error) {
	cleaned := nonLetterRE.ReplaceAllString(normalizeBasic(value), "")
	if cleaned == "" {
		return FeatureBag{}, nil
	}

	const label = "name"
	var bag FeatureBag
	bag = append(bag, charNGrams(cleaned, 2, label)...)
	bag = append(bag, charNGrams(cleaned, 3, label)...)
	if code := metaphone(cleaned); code != "" {
		bag = append(bag, Shingle{Label: label, Token: "ph:" + code})
	}
	return bag, nil
}

func charNGrams(s string, n int, label string) FeatureBag {
	if len(s) < n {
		return FeatureBag{Shingle{Label: label, Token: s}}
	}
	bag := make(FeatureBag, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		bag = append(bag, Shingle{Label: label, Token: s[i : i+n]})
	}
	return bag
}

// metaphone computes a small double-metaphone-style phonetic code: it
// collapses common homophone clusters (ph->f, ck->k, wr->r, silent
// trailing e, doubled consonants) and drops vowels after the first
// letter, the same coarse approach classic Metaphone uses.
func metaphone(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer(
		"ph", "f",
		"ck", "k",
		"wr", "r",
		"kn", "n",
		"gn", "n",
		"qu", "kw",
		"dg", "j",
		"tch", "ch",
	).Replace(s)

	var b strings.Builder
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		isVowel := strings.IndexByte("aeiouy", c) >= 0
		if isVowel && i != 0 {
			continue
		}
		if c == prev {
			continue
		}
		b.WriteByte(c)
		prev = c
	}
	code := b.String()
	if len(code) > 6 {
		code = code[:6]
	}
	return code
}

// --- Date-of-birth extractor ----------------------------------------------

// DateOfBirthExtractor parses a date per the caller's day-first/year-first
// preference and emits up to three labeled shingles: ("dob-y", YYYY),
// ("dob-m", MM), ("dob-d", DD). A record with only partial date
// information (e.g. year and month but not day) emits only the
// components it has, letting a partial match still score non-zero.
type DateOfBirthExtractor struct {
	// DayFirst selects D/M/Y ordering over M/D/Y when both are plausible
	// (e.g. "03/04/2020"). Ignored for unambiguous formats like YYYY-MM-DD.
	DayFirst bool
}

var dobLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"1-2-2006",
	"2-1-2006",
	"20060102",
}

func (e DateOfBirthExtractor) Extract(value, _ string) (FeatureBag, error) {
	v := normalizeBasic(value)
	if v == "" {
		return FeatureBag{}, nil
	}

	t, ok := e.parse(v)
	if !ok {
		// A year and month, or a year alone, emits just those components.
		for _, layout := range []string{"2006-01", "2006/01", "1/2006"} {
			if t, err := time.Parse(layout, v); err == nil {
				return FeatureBag{
					{Label: "dob-y", Token: strconv.Itoa(t.Year())},
					{Label: "dob-m", Token: fmt.Sprintf("%02d", int(t.Month()))},
				}, nil
			}
		}
		if t, err := time.Parse("2006", v); err == nil {
			return FeatureBag{{Label: "dob-y", Token: strconv.Itoa(t.Year())}}, nil
		}
		// Not coercible to a date: degrade to an empty bag rather than an
		// error, per spec ("most extractors degrade to empty bags").
		return FeatureBag{}, nil
	}

	bag := FeatureBag{
		{Label: "dob-y", Token: strconv.Itoa(t.Year())},
		{Label: "dob-m", Token: fmt.Sprintf("%02d", int(t.Month()))},
		{Label: "dob-d", Token: fmt.Sprintf("%02d", t.Day())},
	}
	return bag, nil
}

func (e DateOfBirthExtractor) parse(v string) (time.Time, bool) {
	layouts := dobLayouts
	if e.DayFirst {
		// Prefer D/M/Y before M/D/Y for the ambiguous slash format.
		layouts = []string{
			"2006-01-02", "2006/01/02",
			"02/01/2006", "2/1/2006",
			"01/02/2006",
			"2-1-2006", "1-2-2006",
			"20060102",
		}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// --- Sex/gender extractor --------------------------------------------------

// SexExtractor normalizes to a single lowercase initial (f/m/x) and emits
// one shingle. Ambiguous or empty input emits nothing.
type SexExtractor struct{}

func (SexExtractor) Extract(value, _ string) (FeatureBag, error) {
	v := normalizeBasic(value)
	var code string
	switch v {
	case "f", "female", "woman", "girl":
		code = "f"
	case "m", "male", "man", "boy":
		code = "m"
	case "x", "nb", "nonbinary", "non-binary", "non binary", "enby", "other", "o":
		code = "x"
	default:
		return FeatureBag{}, nil
	}
	return FeatureBag{{Label: "sex", Token: code}}, nil
}

// --- Miscellaneous token extractor -----------------------------------------

// TokenExtractor lowercases, tokenizes on whitespace, and emits each
// token labeled with the caller-supplied label (defaulting to the column
// name if the caller passes an empty override).
type TokenExtractor struct{}

func (TokenExtractor) Extract(value, label string) (FeatureBag, error) {
	v := normalizeBasic(value)
	if v == "" {
		return FeatureBag{}, nil
	}
	fields := strings.Fields(v)
	bag := make(FeatureBag, 0, len(fields))
	for _, tok := range fields {
		bag = append(bag, Shingle{Label: label, Token: tok})
	}
	return bag, nil
}

// --- Miscellaneous shingled extractor --------------------------------------

// ShingleExtractor lowercases and emits character n-grams of one or more
// caller-specified lengths, labeled with the caller-supplied label. The
// label parameter is what lets two differently-named columns (e.g.
// "instrument" and "main_instrument") contribute to the same comparable
// label space.
type ShingleExtractor struct {
	N []int
}

func (e ShingleExtractor) Extract(value, label string) (FeatureBag, error) {
	v := normalizeBasic(value)
	if v == "" {
		return FeatureBag{}, nil
	}
	ns := e.N
	if len(ns) == 0 {
		ns = []int{2}
	}
	var bag FeatureBag
	for _, n := range ns {
		bag = append(bag, charNGrams(v, n, label)...)
	}
	return bag, nil
}
