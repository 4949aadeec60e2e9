package intent

import "strings"

const maxSuggestions = 5

// Trigger words that hint the user is trying to issue an operational request.
var suggestionTriggers = []string{"查看", "檢查", "安裝", "check", "install", "show"}

// Suggest proposes intent descriptions for input that did not classify.
// It is a breadth cue rather than a ranked list: any trigger word includes
// every catalog description in catalog order, truncated to five.
func (cl *Classifier) Suggest(partial string) []string {
	partial = strings.ToLower(partial)

	triggered := false
	for _, trigger := range suggestionTriggers {
		if strings.Contains(partial, trigger) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil
	}

	suggestions := cl.catalog.Descriptions()
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
