package feeder

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// sourceSuffixPattern matches a trailing outlet attribution such as
// " - Dawn" or " | The Express Tribune" that aggregators append to titles.
var sourceSuffixPattern = regexp.MustCompile(`\s+[-|\x{2013}\x{2014}]\s+[^-|\x{2013}\x{2014}]{1,40}$`)

// NormalizeTitle lowercases a title, strips everything but letters, digits
// and spaces, and collapses runs of whitespace.
func NormalizeTitle(title string) string {
	trimmed := strings.TrimSpace(strings.ToLower(title))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// StripSourceSuffix removes a trailing outlet attribution from a title. The
// title is returned unchanged when stripping would leave it empty.
func StripSourceSuffix(title string) string {
	stripped := sourceSuffixPattern.ReplaceAllString(strings.TrimSpace(title), "")
	if strings.TrimSpace(stripped) == "" {
		return strings.TrimSpace(title)
	}
	return stripped
}

func tokenize(text string) []string {
	normalized := NormalizeTitle(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// TokenSetRatio scores two titles 0-100 by the intersection-over-union of
// their token sets. Order and multiplicity do not matter, and a single
// shared dominant word cannot push two otherwise unrelated headlines over a
// sane threshold.
func TokenSetRatio(left, right string) int {
	leftSet := tokenSet(left)
	rightSet := tokenSet(right)
	if len(leftSet) == 0 || len(rightSet) == 0 {
		return 0
	}

	intersection := 0
	for token := range leftSet {
		if _, ok := rightSet[token]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	union := len(leftSet) + len(rightSet) - intersection
	return (100 * intersection) / union
}

// TokenSortRatio scores two titles 0-100 by edit distance over their sorted
// token sequences. Word order is ignored, so literal headline variants from
// different outlets covering one wire event score high.
func TokenSortRatio(left, right string) int {
	leftSorted := sortedTokenString(left)
	rightSorted := sortedTokenString(right)
	if leftSorted == "" || rightSorted == "" {
		return 0
	}
	if leftSorted == rightSorted {
		return 100
	}

	distance := levenshtein(leftSorted, rightSorted)
	longest := max(len(leftSorted), len(rightSorted))
	return 100 - (100*distance)/longest
}

func sortedTokenString(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
