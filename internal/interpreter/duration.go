package interpreter

import (
	"regexp"
	"strconv"
	"strings"
)

// durationRe matches unit-suffixed amounts like "10 minutes", "90s",
// "1.5 hours" and numeric ranges like "10-15 minutes" or "10 to 15 minutes".
var durationRe = regexp.MustCompile(
	`(?i)\b(\d+(?:\.\d+)?)\s*(?:(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*)?` +
		`(hours?|hrs?|hr|h|minutes?|mins?|min|m|seconds?|secs?|sec|s)\b`)

// ExtractDuration finds the first duration phrase in text and returns it in
// whole seconds together with the character offset of the match. Ranges
// resolve to their upper bound ("10-15 minutes" is 900 seconds).
func ExtractDuration(text string) (seconds, matchIndex int, ok bool) {
	loc := durationRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, 0, false
	}

	group := func(n int) string {
		start, end := loc[2*n], loc[2*n+1]
		if start < 0 {
			return ""
		}
		return text[start:end]
	}

	amount, err := strconv.ParseFloat(group(1), 64)
	if err != nil {
		return 0, 0, false
	}
	if upper := group(2); upper != "" {
		if v, err := strconv.ParseFloat(upper, 64); err == nil && v > amount {
			amount = v
		}
	}

	secs := int(amount * unitSeconds(group(3)))
	if secs <= 0 {
		return 0, 0, false
	}
	return secs, loc[0], true
}

func unitSeconds(unit string) float64 {
	switch {
	case strings.HasPrefix(strings.ToLower(unit), "h"):
		return 3600
	case strings.HasPrefix(strings.ToLower(unit), "m"):
		return 60
	default:
		return 1
	}
}
