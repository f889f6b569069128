package estimate

import "strings"

// Keyword sets checked in priority order; a description matching several
// tiers gets the heaviest one. Matches are whole-word and case-insensitive.
var tierKeywords = []struct {
	tier  Tier
	words []string
}{
	{TierMassive, []string{"refactor", "rewrite", "migrate", "overhaul"}},
	{TierComplex, []string{"implement", "feature", "complex"}},
	{TierModerate, []string{"update", "modify", "add", "change"}},
	{TierSimple, []string{"fix", "bug", "tweak", "small"}},
}

// InferTier guesses a complexity tier from a free-text task description.
// No match defaults to trivial. This is a PURE function.
func InferTier(description string) Tier {
	lower := strings.ToLower(description)
	for _, tk := range tierKeywords {
		for _, w := range tk.words {
			if hasWord(lower, w) {
				return tk.tier
			}
		}
		// "multi-file" is a phrase, not a word; substring match is intended.
		if tk.tier == TierComplex && strings.Contains(lower, "multi-file") {
			return TierComplex
		}
	}
	return TierTrivial
}

// hasWord reports whether lower contains word bounded by non-letter,
// non-digit runes (or the string ends).
func hasWord(lower, word string) bool {
	for idx := 0; ; {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isWordByte(lower[start-1])
		rightOK := end == len(lower) || !isWordByte(lower[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
