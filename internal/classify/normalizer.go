package classify

import (
	"regexp"
	"strings"
)

// Normalization regexps. Full-width forms appear alongside ASCII throughout
// because the source data mixes both.
// The trailing-letter and trailing-number patterns require a non-letter
// (resp. non-digit) boundary before the stripped token, so that the last
// letter of a plain word and the tail of a 4-digit year survive. That keeps
// the whole pass idempotent.
var (
	parenRe          = regexp.MustCompile(`[（(][^)）]*[)）]`)
	trailingLetterRe = regexp.MustCompile(`(^|[^A-Za-zＡ-Ｚａ-ｚ])\s*[A-Za-zＡ-Ｚａ-ｚ]$`)
	trailingNumberRe = regexp.MustCompile(`(^|[^0-9０-９])\s*[0-9０-９]{1,2}$`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// abbreviations is applied in order; every case variant present in the data
// gets its own entry because the replacement is case-sensitive.
var abbreviations = []struct{ from, to string }{
	{"TEL", "電話"},
	{"tel", "電話"},
	{"Tel", "電話"},
	{"MTG", "会議"},
	{"mtg", "会議"},
	{"Mtg", "会議"},
	{"ＴＥＬ", "電話"},
	{"ＭＴＧ", "会議"},
}

// Normalize collapses a raw work name into its canonical grouping key:
//
//  1. trim whitespace
//  2. drop parenthetical annotations ("施工ノート入力（修正）" → "施工ノート入力")
//  3. drop a trailing disambiguating letter ("施工ノートA" → "施工ノート")
//  4. drop a trailing 1-2 digit number (4-digit years stay)
//  5. expand known abbreviations ("TEL対応" → "電話対応")
//  6. collapse whitespace runs
//
// The function is deterministic and intentionally lossy: distinct raw names
// collapsing to the same key is the point.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	result := strings.TrimSpace(name)
	result = parenRe.ReplaceAllString(result, "")
	result = trailingLetterRe.ReplaceAllString(result, "$1")
	result = trailingNumberRe.ReplaceAllString(result, "$1")

	for _, abbr := range abbreviations {
		result = strings.ReplaceAll(result, abbr.from, abbr.to)
	}

	result = whitespaceRe.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// StripAnnotations performs only the structural part of Normalize: removing
// parenthetical spans and a trailing disambiguating letter. The family
// grouping uses this lighter pass so that abbreviations stay recognizable in
// representative names.
func StripAnnotations(name string) string {
	result := parenRe.ReplaceAllString(name, "")
	result = strings.TrimSpace(result)
	result = trailingLetterRe.ReplaceAllString(result, "$1")
	return strings.TrimSpace(result)
}
