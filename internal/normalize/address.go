package normalize

import (
	"strings"
	"unicode"
)

// Street-type suffixes dropped during normalization. Both the full word
// and the common abbreviation are listed so "Main Street" and "Main St"
// reduce to the same canonical form.
var streetSuffixes = map[string]bool{
	"street": true, "st": true,
	"road": true, "rd": true,
	"avenue": true, "ave": true,
	"drive": true, "dr": true,
	"lane": true, "ln": true,
	"court": true, "ct": true,
}

// distanceScaleKm converts the complement of an address similarity score
// into an estimated offset in kilometres. No geocoding is performed; a
// similarity of 0.8 maps to the default 2 km discrepancy tolerance.
const distanceScaleKm = 10.0

// Canonical reduces an address to a comparable form: case-folded,
// punctuation stripped, street-type suffixes removed, whitespace
// collapsed. Normalizing an already-canonical address is a no-op.
func Canonical(raw string) (canonical string, tokens []string) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	s := strings.ToLower(strings.TrimSpace(raw))

	// Replace punctuation with spaces, keeping letters and digits.
	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	for _, tok := range strings.Fields(b.String()) {
		if streetSuffixes[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	return strings.Join(tokens, " "), tokens
}

// Similarity scores two addresses in [0,1]: 1.0 when the canonical forms
// are identical, otherwise the ratio of shared tokens (length > 2) over
// the larger token set.
func Similarity(a, b string) float64 {
	canonA, tokensA := Canonical(a)
	canonB, tokensB := Canonical(b)

	if canonA == "" || canonB == "" {
		return 0.0
	}
	if canonA == canonB {
		return 1.0
	}

	setA := make(map[string]bool)
	for _, tok := range tokensA {
		if len(tok) > 2 {
			setA[tok] = true
		}
	}
	setB := make(map[string]bool)
	for _, tok := range tokensB {
		if len(tok) > 2 {
			setB[tok] = true
		}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	shared := 0
	for tok := range setB {
		if setA[tok] {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}

	return float64(shared) / float64(larger)
}

// DistanceProxy estimates a distance offset in kilometres from the
// complement of a similarity score. An explicit textual approximation,
// not a geographic measurement.
func DistanceProxy(similarity float64) float64 {
	if similarity >= 1.0 {
		return 0.0
	}
	if similarity < 0 {
		similarity = 0
	}
	return (1.0 - similarity) * distanceScaleKm
}

// ContainsToken reports whether any token of the reference address with
// length > minLen appears as a substring of the candidate address.
// Comparison is case-insensitive on the raw candidate text.
func ContainsToken(reference, candidate string, minLen int) bool {
	if reference == "" || candidate == "" {
		return false
	}
	lowered := strings.ToLower(candidate)
	for _, tok := range strings.Fields(strings.ToLower(reference)) {
		if len(tok) > minLen && strings.Contains(lowered, tok) {
			return true
		}
	}
	return false
}
