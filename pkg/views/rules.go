package views

import "strings"

// Rule maps any text containing one of Match to Label. Matching is a
// case-sensitive substring test.
type Rule struct {
	Match []string `yaml:"match" json:"match"`
	Label string   `yaml:"label" json:"label"`
}

func (r Rule) matches(text string) bool {
	for _, m := range r.Match {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Canonicalize returns the label of the first rule matching text. When no
// rule matches it returns fallback, or text itself if fallback is empty.
func Canonicalize(rules []Rule, text, fallback string) string {
	for _, r := range rules {
		if r.matches(text) {
			return r.Label
		}
	}
	if fallback == "" {
		return text
	}
	return fallback
}

// DefaultOutletRules fold outlet spelling variants into one bar each.
var DefaultOutletRules = []Rule{
	{Match: []string{"Inforum"}, Label: "Inforum"},
	{Match: []string{"BEK"}, Label: "BEK TV"},
	{Match: []string{"Tribune"}, Label: "Bismarck Tribune"},
}

// DefaultTopicRules map free-text topics onto the dashboard taxonomy.
// Order is precedence.
var DefaultTopicRules = []Rule{
	{Match: []string{"Appointment"}, Label: "Appointment"},
	{Match: []string{"Tour", "First Day"}, Label: "Listening Tour"},
	{Match: []string{"AI"}, Label: "AI & Innovation"},
	{Match: []string{"Safety"}, Label: "School Safety"},
	{Match: []string{"Dual", "Options"}, Label: "Education Options"},
}

// DefaultTopic catches records no topic rule matches.
const DefaultTopic = "Education Policy"

var (
	OutletPalette = []string{"#3B82F6", "#10B981", "#F59E0B", "#8B5CF6", "#EC4899", "#EF4444", "#6366F1", "#14B8A6"}
	TopicPalette  = []string{"#3B82F6", "#8B5CF6", "#10B981", "#F59E0B", "#EF4444", "#EC4899"}
)
