// Package titleparse derives a display title, release year and edition from
// a video filename.
package titleparse

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	separatorRun     = regexp.MustCompile(`[._-]+`)
	trailingBrackets = regexp.MustCompile(`\s*\[(.*?)\]$`)
	trailingParens   = regexp.MustCompile(`\s*\((.*?)\)$`)
)

// editionMarkers are matched against the lowercase text that follows the year.
// Longer markers come first so "directors cut" wins over "cut"-like overlaps.
var editionMarkers = []struct {
	marker  string
	edition string
}{
	{"director's cut", "Director's Cut"},
	{"directors cut", "Director's Cut"},
	{"final cut", "Final Cut"},
	{"special edition", "Special Edition"},
	{"ultimate edition", "Ultimate Edition"},
	{"extended", "Extended"},
	{"unrated", "Unrated"},
	{"theatrical", "Theatrical"},
	{"remastered", "Remastered"},
	{"criterion", "Criterion"},
	{"imax", "IMAX"},
}

// Result is a parsed filename.
type Result struct {
	Title string
	// Year is zero when no year token was found.
	Year int
	// Edition is empty unless a known edition marker follows the year.
	Edition string
}

// HasYear reports whether a release year was found.
func (r Result) HasYear() bool {
	return r.Year != 0
}

// Parse splits a filename (with extension) into title, year and edition.
//
// Separators (runs of '.', '_' and '-') become single spaces. The first
// four-digit token in 1900-2099 that is not adjacent to another digit is the
// year; the title is everything before it. A trailing [..] group and then a
// trailing (..) group are removed from the title, along with dangling
// opening brackets. Words are capitalized unless already fully uppercase.
func Parse(filename string) Result {
	cleaned := cleanStem(filename)

	var res Result
	title := cleaned
	if start, year, ok := findYear(cleaned); ok {
		res.Year = year
		title = strings.TrimSpace(cleaned[:start])
		res.Edition = detectEdition(cleaned[start+4:])
	}

	title = strings.TrimSpace(trailingBrackets.ReplaceAllString(title, ""))
	title = strings.TrimSpace(trailingParens.ReplaceAllString(title, ""))
	title = strings.TrimRight(title, " ([{")

	res.Title = capitalizeWords(title)
	return res
}

// FallbackTitle is the whole filename stem with separators collapsed and
// words capitalized, for names where Parse finds no title before the year.
func FallbackTitle(filename string) string {
	return capitalizeWords(cleanStem(filename))
}

func cleanStem(filename string) string {
	stem := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		stem = filename[:i]
	}
	return strings.TrimSpace(separatorRun.ReplaceAllString(stem, " "))
}

// SortTitle drops a leading "the ", "a " or "an " (any case).
func SortTitle(title string) string {
	t := strings.TrimSpace(title)
	lowered := strings.ToLower(t)
	for _, prefix := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lowered, prefix) {
			return strings.TrimSpace(t[len(prefix):])
		}
	}
	return t
}

// findYear returns the byte offset and value of the first 19xx/20xx token
// not touching another digit.
func findYear(s string) (int, int, bool) {
	for i := 0; i+4 <= len(s); i++ {
		if !(s[i:i+2] == "19" || s[i:i+2] == "20") {
			continue
		}
		if !isDigit(s[i+2]) || !isDigit(s[i+3]) {
			continue
		}
		if i > 0 && isDigit(s[i-1]) {
			continue
		}
		if i+4 < len(s) && isDigit(s[i+4]) {
			continue
		}
		year := int(s[i]-'0')*1000 + int(s[i+1]-'0')*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
		return i, year, true
	}
	return 0, 0, false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func detectEdition(tail string) string {
	lower := strings.ToLower(tail)
	for _, m := range editionMarkers {
		if strings.Contains(lower, m.marker) {
			return m.edition
		}
	}
	return ""
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if !isUpperWord(w) {
			words[i] = capitalize(w)
		}
	}
	return strings.Join(words, " ")
}

// isUpperWord is true when w has at least one cased letter and no lowercase ones.
func isUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToTitle(runes[0])
	return string(runes)
}
