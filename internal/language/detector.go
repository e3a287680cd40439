package language

import (
	"strings"
	"unicode"
)

// English is the tag Detect falls back to when no profile clears the
// threshold.
const English = "en"

// Detect scores the text against each language profile and returns the tag of
// the profile whose match count strictly exceeds matchThreshold and every
// other profile's count. Ties and weak signals fall back to English.
func Detect(text string) string {
	words := tokenize(text)

	best := English
	bestCount := matchThreshold
	for _, p := range profiles {
		count := score(text, words, p)
		if count > bestCount {
			best = p.Tag
			bestCount = count
		} else if count == bestCount && best != English {
			// Two non-English profiles tied; neither wins.
			best = English
		}
	}
	return best
}

// IsIn reports whether the text should be kept when the caller asked for
// target. English targets are strict. Any other target also accepts English,
// since non-English job boards routinely carry English postings and
// over-filtering would hide legitimate listings.
func IsIn(text, target string) bool {
	detected := Detect(text)
	if target == "" || target == English {
		return detected == English
	}
	return detected == target || detected == English
}

func score(text string, words map[string]int, p profile) int {
	count := 0
	for _, r := range text {
		for _, d := range p.Diacritics {
			if r == d {
				count++
				break
			}
		}
	}
	for _, w := range p.Words {
		count += words[w]
	}
	return count
}

func tokenize(text string) map[string]int {
	counts := make(map[string]int)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if word != "" {
			counts[word]++
		}
	}
	return counts
}
