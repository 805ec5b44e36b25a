package chat

import (
	"regexp"
	"strings"

	"github.com/avion00/medicare-backend/internal/knowledge"
)

// nonWord matches anything that is neither a word character nor whitespace.
// Word characters follow Unicode letters, digits and underscore so accented
// questions keep their letters.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize trims, lowercases and strips punctuation so that questions can
// be compared for exact matches.
func Normalize(text string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "")
}

// MatchTraining returns the first pair whose normalized question equals the
// normalized message.
func MatchTraining(pairs []knowledge.TrainingPair, message string) (knowledge.TrainingPair, bool) {
	want := Normalize(message)
	for _, p := range pairs {
		if Normalize(p.Question) == want {
			return p, true
		}
	}
	return knowledge.TrainingPair{}, false
}
