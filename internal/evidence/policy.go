package evidence

import (
	"strings"
)

// DefaultLeakRun is the number of consecutive words from a buried narrative
// that must appear in output before it counts as a verbatim leak. Short
// overlaps (names, common phrases) are expected; full sentences are not.
const DefaultLeakRun = 8

// Leak reports a run of buried-layer narrative reproduced verbatim in
// generated output.
type Leak struct {
	EvidenceID string `json:"evidence_id"`
	Fragment   string `json:"fragment"`
}

// VerbatimLeaks scans text for word runs of at least minRun copied from
// buried-layer item narratives. Comparison is case-insensitive and ignores
// punctuation. Items on other layers are not scanned. minRun values below 1
// fall back to DefaultLeakRun.
func VerbatimLeaks(text string, items []Item, minRun int) []Leak {
	if minRun < 1 {
		minRun = DefaultLeakRun
	}

	haystack := " " + strings.Join(normalizeWords(text), " ") + " "

	var leaks []Leak
	for _, item := range items {
		if item.Layer != LayerBuried {
			continue
		}

		words := normalizeWords(item.Narrative)
		if len(words) < minRun {
			continue
		}

		if fragment, found := longestLeak(haystack, words, minRun); found {
			leaks = append(leaks, Leak{
				EvidenceID: item.ID,
				Fragment:   fragment,
			})
		}
	}

	return leaks
}

// longestLeak finds the first window of minRun words present in haystack and
// extends it as far as the match continues.
func longestLeak(haystack string, words []string, minRun int) (string, bool) {
	for start := 0; start+minRun <= len(words); start++ {
		end := start + minRun
		if !containsRun(haystack, words[start:end]) {
			continue
		}

		for end < len(words) && containsRun(haystack, words[start:end+1]) {
			end++
		}
		return strings.Join(words[start:end], " "), true
	}
	return "", false
}

func containsRun(haystack string, words []string) bool {
	return strings.Contains(haystack, " "+strings.Join(words, " ")+" ")
}

// normalizeWords lowercases and strips punctuation, returning the word
// sequence used for leak comparison.
func normalizeWords(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)

	return strings.Fields(mapped)
}
