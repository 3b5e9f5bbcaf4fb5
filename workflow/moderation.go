package workflow

import (
	"strings"
)

// maxBodyWords caps reminder body length. Longer bodies are truncated with an
// ellipsis, not rejected.
const maxBodyWords = 100

// deniedPhrases is the prohibited-language policy for outgoing reminders.
// Matching is case-insensitive substring, deliberately blunt: a false
// positive costs one regeneration, a false negative emails a client a legal
// threat. Keep the list generous.
var deniedPhrases = []string{
	"legal",
	"lawsuit",
	"lawyer",
	"attorney",
	"court",
	"penalty",
	"penalties",
	"collections",
	"collection agency",
	"debt collector",
	"final notice",
	"final warning",
	"must pay",
	"required by law",
	"criminal",
	"prosecute",
	"enforcement",
	"seize",
	"repossess",
	"credit bureau",
	"credit score",
	"blacklist",
	"consequences will follow",
	"take action against",
}

// deniedWords are matched on word boundaries. As bare substrings the short
// entries would reject harmless words like "issue" and "pursue".
var deniedWords = []string{
	"sue",
	"sued",
	"suing",
}

// ModerationViolation names the first denylisted phrase found in a text, or
// "" when the text passes.
func ModerationViolation(text string) string {
	lowered := strings.ToLower(text)
	for _, phrase := range deniedPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase
		}
	}
	for _, word := range deniedWords {
		if containsWord(lowered, word) {
			return word
		}
	}
	return ""
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// containsWord reports whether word occurs in lowered text as a whole word.
func containsWord(lowered, word string) bool {
	for start := 0; start <= len(lowered)-len(word); {
		i := strings.Index(lowered[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		before := i == 0 || !isWordByte(lowered[i-1])
		after := end == len(lowered) || !isWordByte(lowered[end])
		if before && after {
			return true
		}
		start = i + 1
	}
	return false
}

// ModerateContent validates generated subject and body against the policy.
// Returns ok=false with the offending phrase for denylist hits or empty
// content; the caller regenerates rather than patching the text.
func ModerateContent(subject, body string) (ok bool, violation string) {
	if strings.TrimSpace(subject) == "" {
		return false, "empty subject"
	}
	if strings.TrimSpace(body) == "" {
		return false, "empty body"
	}
	if phrase := ModerationViolation(subject); phrase != "" {
		return false, phrase
	}
	if phrase := ModerationViolation(body); phrase != "" {
		return false, phrase
	}
	return true, ""
}

// TruncateWords caps text at limit words, appending an ellipsis when
// anything was cut.
func TruncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + "..."
}
