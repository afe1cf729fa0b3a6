// Package addrkey builds canonical address keys and ids. It is the single
// keying scheme used by every pipeline stage; mixing key builders across
// stages causes silent join failures, so nothing outside this package hashes
// or normalizes addresses.
package addrkey

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sep joins the components of an address key.
const Sep = "|"

// streetAbbrev maps full street/direction tokens to their postal
// abbreviations. Applied token-wise after normalization.
var streetAbbrev = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"ROAD":      "RD",
	"LANE":      "LN",
	"COURT":     "CT",
	"PLACE":     "PL",
	"CIRCLE":    "CIR",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"TERRACE":   "TER",
	"TRAIL":     "TRL",
	"SQUARE":    "SQ",
	"POINT":     "PT",
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",
	"SUITE":     "STE",
	"APARTMENT": "APT",
	"BUILDING":  "BLDG",
	"FLOOR":     "FL",
	"ROOM":      "RM",
}

// unitMarkers start a trailing unit designation that the base key strips.
var unitMarkers = map[string]bool{
	"STE":  true,
	"APT":  true,
	"UNIT": true,
	"FL":   true,
	"BLDG": true,
	"RM":   true,
	"LOT":  true,
	"DEPT": true,
	"PMB":  true,
}

// deaccent strips combining marks so "CAÑON" and "CANON" key identically.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// punctReplacer removes punctuation noise and folds smart quotes before
// whitespace collapsing.
var punctReplacer = strings.NewReplacer(
	".", "", ",", " ", "'", "", "’", "", "‘", "", "\"", "", "“", "", "”", "",
	";", " ", "(", " ", ")", " ",
)

// NormalizeToken uppercases, de-accents, strips punctuation noise, and
// collapses whitespace. Idempotent: NormalizeToken(NormalizeToken(s)) ==
// NormalizeToken(s).
func NormalizeToken(s string) string {
	folded, _, err := transform.String(deaccent, s)
	if err == nil {
		s = folded
	}
	s = strings.ToUpper(s)
	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ExpandStreetAbbrev applies the fixed token-substitution table to a
// normalized street string.
func ExpandStreetAbbrev(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if abbr, ok := streetAbbrev[f]; ok {
			fields[i] = abbr
		}
	}
	return strings.Join(fields, " ")
}

// StripUnitTokens removes a trailing unit designation (STE/APT/UNIT/FL/#101)
// from a normalized street string. Everything from the first trailing unit
// marker onward is dropped; markers in the middle of a street name are left
// alone unless the remainder is a plausible unit tail.
func StripUnitTokens(s string) string {
	fields := strings.Fields(s)
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if unitMarkers[f] || strings.HasPrefix(f, "#") {
			return strings.Join(fields[:i], " ")
		}
	}
	return strings.Join(fields, " ")
}

// Zip5 reduces a zip string to its first five digits, dropping non-digits.
func Zip5(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 5 {
				break
			}
		}
	}
	return b.String()
}

// Parts are the raw address fields a key is built from.
type Parts struct {
	Address1 string
	Address2 string
	City     string
	State    string
	Zip      string
}

// Keys are the three derived key forms for one physical address, used as a
// fallback join cascade, most specific first.
type Keys struct {
	Exact string
	Norm  string
	Base  string
}

// street merges address lines 1 and 2 into a single normalized street string.
func street(p Parts) string {
	s := NormalizeToken(p.Address1)
	if a2 := NormalizeToken(p.Address2); a2 != "" {
		s = strings.TrimSpace(s + " " + a2)
	}
	return s
}

// BuildKey canonicalizes parts into the exact address key. It requires at
// minimum street1, city, and state to be non-empty after normalization and
// returns "" otherwise — an empty key means "insufficient data to key" and
// callers must exclude the record from address-level aggregation, not error.
func BuildKey(p Parts) string {
	st := NormalizeToken(p.Address1)
	city := NormalizeToken(p.City)
	state := NormalizeToken(p.State)
	if st == "" || city == "" || state == "" {
		return ""
	}
	return strings.Join([]string{street(p), city, state, Zip5(p.Zip)}, Sep)
}

// Build derives all three key forms. The Exact form is empty (and the others
// with it) when the parts cannot be keyed.
func Build(p Parts) Keys {
	exact := BuildKey(p)
	if exact == "" {
		return Keys{}
	}
	return Keys{
		Exact: exact,
		Norm:  NormKey(exact),
		Base:  BaseKey(exact),
	}
}

// NormKey rewrites a key's street component with street-suffix and direction
// abbreviations applied.
func NormKey(key string) string {
	return mapStreet(key, ExpandStreetAbbrev)
}

// BaseKey rewrites a key's street component with abbreviations applied and
// the trailing unit designation stripped.
func BaseKey(key string) string {
	return mapStreet(key, func(s string) string {
		return StripUnitTokens(ExpandStreetAbbrev(s))
	})
}

func mapStreet(key string, fn func(string) string) string {
	if key == "" {
		return ""
	}
	parts := strings.Split(key, Sep)
	parts[0] = fn(parts[0])
	return strings.Join(parts, Sep)
}

// ID is the canonical address id: the first 16 hex chars of SHA-256 over the
// norm-form key. Deterministic; distinct normalized inputs collide only with
// overwhelming improbability.
type ID struct {
	ID            string `json:"id"`
	NormalizedKey string `json:"normalizedKey"`
}

// ComputeAddressID hashes the normalized key components. Returns a zero ID
// when the parts cannot be keyed.
func ComputeAddressID(p Parts) ID {
	k := Build(p)
	if k.Exact == "" {
		return ID{}
	}
	sum := sha256.Sum256([]byte(k.Norm))
	return ID{
		ID:            hex.EncodeToString(sum[:])[:16],
		NormalizedKey: k.Norm,
	}
}

// LegacyID reproduces the retired 10-hex SHA-1 scheme (street1|city|zip5,
// un-abbreviated). It exists only so `techindex migrate-keys` can translate
// artifacts written under the old scheme; no pipeline stage reads it.
func LegacyID(p Parts) string {
	st := NormalizeToken(p.Address1)
	city := NormalizeToken(p.City)
	if st == "" || city == "" {
		return ""
	}
	sum := sha1.Sum([]byte(strings.Join([]string{st, city, Zip5(p.Zip)}, Sep)))
	return hex.EncodeToString(sum[:])[:10]
}
