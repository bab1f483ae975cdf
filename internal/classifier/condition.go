package classifier

import "strings"

// Condition labels.
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
	ConditionUnknown = "unknown"
)

var conditionKeywords = []struct {
	label    string
	keywords []string
}{
	{ConditionNew, []string{"new", "brand new", "sealed", "unopened", "mint"}},
	{ConditionLikeNew, []string{"like new", "excellent", "near mint"}},
	{ConditionGood, []string{"good condition", "very good", "gently used"}},
	{ConditionFair, []string{"fair", "used", "some wear"}},
	{ConditionPoor, []string{"poor", "damaged", "for parts", "not working", "broken"}},
}

// Condition returns the first condition label whose keywords appear in text,
// checked from best to worst. Empty text yields "".
func Condition(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = strings.ToLower(text)
	for _, c := range conditionKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.label
			}
		}
	}
	return ConditionUnknown
}
