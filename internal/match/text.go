package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis marks text that was shortened by SmartTrim.
const Ellipsis = "…"

// RuneLen counts characters rather than bytes so Hangul and Latin copy share one scale.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// SmartTrim shortens text to limit characters, preferring a word boundary, and marks the cut
// with an ellipsis unless the kept text already ends a sentence. The result is never longer
// than limit plus the ellipsis, and trimming an already trimmed value returns it unchanged.
func SmartTrim(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if isWordRune(runes[limit]) && isWordRune(cut[limit-1]) {
		if idx := lastBreak(cut); idx >= limit/2 {
			cut = cut[:idx]
		}
	}

	head := strings.TrimRightFunc(string(cut), isTrailingSeparator)
	if head == "" {
		return ""
	}
	last, _ := utf8.DecodeLastRuneInString(head)
	if isSentenceFinal(last) {
		return head
	}
	return head + Ellipsis
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isTrailingSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ',', '.', ':', ';', '/', '-', '_':
		return true
	}
	return false
}

func isSentenceFinal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

func lastBreak(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
		switch runes[i] {
		case ',', ';', ':', '/', '-':
			return i
		}
	}
	return -1
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// CountFold counts non-overlapping occurrences of needle ignoring case.
func CountFold(haystack, needle string) int {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return 0
	}
	return strings.Count(strings.ToLower(haystack), strings.ToLower(needle))
}

// CountExact counts verbatim occurrences of needle.
func CountExact(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}

// ContainsAnyFold reports whether any of the terms occurs in text.
func ContainsAnyFold(text string, terms []string) bool {
	for _, term := range terms {
		if ContainsFold(text, term) {
			return true
		}
	}
	return false
}

// SumCountFold adds up the occurrences of every term in text.
func SumCountFold(text string, terms []string) int {
	total := 0
	for _, term := range terms {
		total += CountFold(text, term)
	}
	return total
}

// Bigrams returns the set of overlapping two-character windows of the lowercased text.
// Single-character input yields itself so short copy still compares against something.
func Bigrams(text string) map[string]struct{} {
	runes := []rune(strings.ToLower(text))
	set := make(map[string]struct{}, len(runes))
	switch len(runes) {
	case 0:
		return set
	case 1:
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

// Jaccard is the intersection-over-union of two window sets. Two empty sets are identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for gram := range small {
		if _, ok := large[gram]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SplitTerms splits a comma separated list, trimming blanks and dropping duplicates.
func SplitTerms(csv string) []string {
	parts := strings.FieldsFunc(csv, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	var out []string
	for _, part := range parts {
		out = AppendUnique(out, strings.TrimSpace(part))
	}
	return out
}

// AppendUnique appends v unless it is empty or already present.
func AppendUnique(s []string, v string) []string {
	if v == "" {
		return s
	}
	for _, existing := range s {
		if existing == v {
			return s
		}
	}
	return append(s, v)
}

// Union merges lists keeping first-seen order and dropping duplicates.
func Union(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, item := range list {
			out = AppendUnique(out, strings.TrimSpace(item))
		}
	}
	return out
}
