package intent

import "strings"

// Label identifies which reply rule a message matched.
type Label string

const (
	Greeting  Label = "greeting"
	Budget    Label = "budget"
	Luxury    Label = "luxury"
	Adventure Label = "adventure"
	Culture   Label = "culture"
	Default   Label = "default"
)

// Rule pairs an intent with the substrings that trigger it.
type Rule struct {
	Label    Label
	Keywords []string
}

// Rules returns the built-in rule order. Rules are checked in declaration
// order and the first hit wins, so an input that mentions several topics
// resolves to the earliest rule.
func Rules() []Rule {
	return []Rule{
		{Label: Greeting, Keywords: []string{"hello", "hi"}},
		{Label: Budget, Keywords: []string{"budget", "afford"}},
		{Label: Luxury, Keywords: []string{"luxury", "premium"}},
		{Label: Adventure, Keywords: []string{"adventure", "thrill"}},
		{Label: Culture, Keywords: []string{"culture", "local"}},
	}
}

// Classify maps a user message to the first matching built-in intent.
func Classify(message string) Label {
	return ClassifyWith(Rules(), message)
}

// ClassifyWith runs the given rule order against the message. Matching is
// plain substring containment on the lowercased input, so "high" triggers
// the "hi" keyword.
func ClassifyWith(rules []Rule, message string) Label {
	normalized := strings.ToLower(message)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return rule.Label
			}
		}
	}
	return Default
}
