package recommend

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/validator"
)

var (
	// jsonObject matches the outermost {...} span of a completion.
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

	// listItem matches "- text", "* text", "1. text" and "1) text" lines.
	listItem = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)

	// priorityTag matches a leading or trailing "(high)" or "[low]" marker.
	priorityTag = regexp.MustCompile(`(?i)[(\[]\s*(high|medium|low)(?:\s+priority)?\s*[)\]]`)
)

// errUnintelligible is returned when neither parsing path yields an action.
var errUnintelligible = errors.New("completion contains no recognizable recommendations")

// Parse interprets a completion. A validated JSON object yields
// SourceStructured; otherwise list items are extracted from the text and
// yield SourceExtracted.
func Parse(text string) (Recommendations, Source, error) {
	if recs, ok := parseStructured(text); ok {
		return recs, SourceStructured, nil
	}
	if recs, ok := extract(text); ok {
		return recs, SourceExtracted, nil
	}
	return Recommendations{}, "", errUnintelligible
}

func parseStructured(text string) (Recommendations, bool) {
	candidate := jsonObject.FindString(text)
	if candidate == "" {
		return Recommendations{}, false
	}

	var recs Recommendations
	if err := json.Unmarshal([]byte(candidate), &recs); err != nil {
		return Recommendations{}, false
	}
	for i := range recs.Actions {
		recs.Actions[i].Priority = Priority(strings.ToLower(strings.TrimSpace(string(recs.Actions[i].Priority))))
	}
	if err := validator.Validate(recs); err != nil {
		return Recommendations{}, false
	}
	return recs, true
}

func extract(text string) (Recommendations, bool) {
	var (
		recs    Recommendations
		summary []string
	)
	for _, line := range strings.Split(text, "\n") {
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			if len(recs.Actions) == 0 {
				if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "#") {
					summary = append(summary, t)
				}
			}
			continue
		}

		item := strings.TrimSpace(m[1])
		priority := PriorityMedium
		if p := priorityTag.FindStringSubmatch(item); p != nil {
			priority = Priority(strings.ToLower(p[1]))
			item = strings.TrimSpace(priorityTag.ReplaceAllString(item, ""))
		}

		title, detail := item, ""
		if i := strings.Index(item, ": "); i > 0 {
			title, detail = strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+2:])
		}
		title = strings.Trim(title, "*_ ")
		if title == "" {
			continue
		}
		recs.Actions = append(recs.Actions, Action{Title: truncate(title, 200), Detail: detail, Priority: priority})
	}

	if len(recs.Actions) == 0 {
		return Recommendations{}, false
	}
	recs.Summary = strings.Join(summary, " ")
	return recs, true
}
