package reconcile

import (
	"fmt"
	"regexp"
	"strings"

	"skillbeam-backend/internal/models"
)

// MatchingPair is one left-concept / right-definition association.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// MatchingSide selects which half of a pair a mutation targets.
type MatchingSide int

const (
	MatchingLeft MatchingSide = iota
	MatchingRight
)

const (
	matchingLeftMaxWords  = 12
	matchingRightMinWords = 2
	matchingRightMaxWords = 40

	matchingPlaceholderRight = "Definition a completer pour cette notion"
)

var (
	matchingPartSplitPattern = regexp.MustCompile(`[;\n]+`)

	// Generic labels the generator emits when it has nothing real to
	// say ("Notion 3", "Definition de X"). Pairs carrying them are
	// rejected.
	matchingWeakPattern = regexp.MustCompile(`(?i)^\s*(?:definition\s+de|def\s+de|desc\s+de|element\s+[a-z0-9]+|notion\s+[a-z0-9]+|terme\s+[a-z0-9]+)\b`)

	// "c'est-a-dire" style lead-ins on the right side.
	matchingLeadInPattern = regexp.MustCompile(`(?i)^\s*(?:c['’]?\s*est|est)\s*[-–]?\s*[aà]\s*[-–]?\s*dire\b[\s:,\-]*`)

	// Right sides starting with a bare linking verb read as fragments;
	// prepending the left concept turns them into sentences.
	matchingLinkingPattern = regexp.MustCompile(`(?i)^\s*(?:est|sont|correspond(?:ent)?\s+[aà]|permet(?:tent)?\s+de|sert|servent|consiste(?:nt)?\s+[aà]|repr[eé]sente(?:nt)?)\b`)
)

// matchingFallbackPairs guarantees the editor always has two rows to
// show when parsing yields nothing usable. The lefts must not match
// matchingWeakPattern, or an edited fallback row would be dropped on
// the next re-parse.
func matchingFallbackPairs() []MatchingPair {
	return []MatchingPair{
		{Left: "Concept 1", Right: matchingPlaceholderRight},
		{Left: "Concept 2", Right: matchingPlaceholderRight},
	}
}

// ParseMatchingPairs extracts structured pairs from the item's
// correct_answer and every answer_options entry, treated as one pool.
// Weak or single-word pairs are dropped, and pairs are deduplicated on
// the folded left-concept key so near-duplicate concepts with different
// phrasings collapse to the first-seen one. Fewer than two surviving
// pairs triggers the placeholder fallback.
func ParseMatchingPairs(item models.ContentItem) []MatchingPair {
	sources := make([]string, 0, 1+len(item.AnswerOptions))
	sources = append(sources, item.CorrectAnswer)
	sources = append(sources, item.AnswerOptions...)

	pairs := make([]MatchingPair, 0, 8)
	seenExact := make(map[string]bool)
	seenConcept := make(map[string]bool)
	for _, source := range sources {
		for _, part := range matchingPartSplitPattern.Split(source, -1) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			leftRaw, rightRaw, ok := splitPairPart(part)
			if !ok {
				continue
			}
			left := strings.TrimSpace(leftRaw)
			right := normalizeMatchingDefinition(left, rightRaw)
			if !matchingPairValid(left, right) {
				continue
			}
			exactKey := strings.ToLower(left) + "::" + strings.ToLower(right)
			concept := conceptKey(left)
			if seenExact[exactKey] || seenConcept[concept] {
				continue
			}
			seenExact[exactKey] = true
			seenConcept[concept] = true
			pairs = append(pairs, MatchingPair{Left: left, Right: right})
		}
	}
	if len(pairs) < 2 {
		return matchingFallbackPairs()
	}
	return pairs
}

// splitPairPart tries the separators in priority order: "->", "=>",
// a spaced "=", then the first ":". The first separator present wins.
func splitPairPart(part string) (string, string, bool) {
	for _, sep := range []string{"->", "=>"} {
		if idx := strings.Index(part, sep); idx >= 0 {
			return part[:idx], part[idx+len(sep):], true
		}
	}
	if idx := strings.Index(part, " = "); idx >= 0 {
		return part[:idx], part[idx+3:], true
	}
	if idx := strings.Index(part, ":"); idx >= 0 {
		return part[:idx], part[idx+1:], true
	}
	return "", "", false
}

// normalizeMatchingDefinition rewrites a right side into a standalone
// definition: "c'est-a-dire ..." lead-ins become "Se definit ainsi: ..."
// and bare linking-verb starts get the left concept prepended.
func normalizeMatchingDefinition(left, right string) string {
	right = strings.TrimSpace(right)
	if loc := matchingLeadInPattern.FindStringIndex(right); loc != nil {
		rest := strings.TrimSpace(right[loc[1]:])
		if rest == "" {
			return rest
		}
		return "Se definit ainsi: " + rest
	}
	if matchingLinkingPattern.MatchString(right) {
		left = strings.TrimSpace(left)
		if left != "" {
			return left + " " + right
		}
	}
	return right
}

func matchingPairValid(left, right string) bool {
	if left == "" || right == "" {
		return false
	}
	if len(strings.Fields(left)) > matchingLeftMaxWords {
		return false
	}
	rightWords := len(strings.Fields(right))
	if rightWords < matchingRightMinWords || rightWords > matchingRightMaxWords {
		return false
	}
	if matchingWeakPattern.MatchString(left) || matchingWeakPattern.MatchString(right) {
		return false
	}
	return true
}

// BuildMatchingPatch serializes pairs back onto the item: one
// "left -> right" line per pair, joined with " ; " in correct_answer and
// mirrored line-per-pair in answer_options. Distractors are cleared,
// tags untouched. Pairs with an empty side are dropped.
func BuildMatchingPatch(item models.ContentItem, pairs []MatchingPair) models.ContentItem {
	lines := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		left := strings.TrimSpace(pair.Left)
		right := strings.TrimSpace(pair.Right)
		if left == "" || right == "" {
			continue
		}
		lines = append(lines, left+" -> "+right)
	}
	item.CorrectAnswer = strings.Join(lines, " ; ")
	item.AnswerOptions = lines
	item.Distractors = make([]string, 0)
	return item
}

// SetMatchingSide rewrites one half of one pair. Out-of-range indexes
// are a no-op.
func SetMatchingSide(item models.ContentItem, index int, side MatchingSide, value string) models.ContentItem {
	pairs := ParseMatchingPairs(item)
	if index < 0 || index >= len(pairs) {
		return item
	}
	if side == MatchingLeft {
		pairs[index].Left = value
	} else {
		pairs[index].Right = value
	}
	return BuildMatchingPatch(item, pairs)
}

// AddMatchingPair appends a numbered placeholder pair for the author to
// fill in. The "Notion N" left matches matchingWeakPattern, so the new
// row survives only until the next re-parse: the author has to rename
// its left side before other edits to the item will keep it.
func AddMatchingPair(item models.ContentItem) models.ContentItem {
	pairs := ParseMatchingPairs(item)
	pairs = append(pairs, MatchingPair{
		Left:  fmt.Sprintf("Notion %d", len(pairs)+1),
		Right: matchingPlaceholderRight,
	})
	return BuildMatchingPatch(item, pairs)
}

// RemoveMatchingPair drops the pair at index. Out-of-range indexes are a
// no-op.
func RemoveMatchingPair(item models.ContentItem, index int) models.ContentItem {
	pairs := ParseMatchingPairs(item)
	if index < 0 || index >= len(pairs) {
		return item
	}
	pairs = append(pairs[:index], pairs[index+1:]...)
	return BuildMatchingPatch(item, pairs)
}
