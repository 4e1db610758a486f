package practice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Skelligg/htf-collide/internal/packs"
)

// checkAnswer applies a mission's match mode to a submitted answer.
// Submitted text is trimmed in every mode.
func checkAnswer(rule packs.Answer, submitted string) bool {
	got := strings.TrimSpace(submitted)
	want := strings.TrimSpace(rule.Value)

	switch rule.Match {
	case "", "exact":
		return got == want
	case "iexact":
		return strings.EqualFold(got, want)
	case "numeric":
		a, errA := strconv.ParseFloat(got, 64)
		b, errB := strconv.ParseFloat(want, 64)
		return errA == nil && errB == nil && a == b
	case "regex":
		re, err := regexp.Compile(want)
		if err != nil {
			return false
		}
		return re.MatchString(got)
	default:
		return false
	}
}
