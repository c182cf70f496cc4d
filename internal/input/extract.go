package input

import (
	"regexp"
	"strings"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// ExtractCode finds an n-digit code in free text such as an SMS body. A
// standalone run of exactly n digits wins; otherwise the text is accepted
// only when all of its digits together make n, which covers "12 34" and
// "123-456".
func ExtractCode(text string, n int) (string, bool) {
	if n <= 0 {
		return "", false
	}
	runs := digitRun.FindAllString(text, -1)
	for _, run := range runs {
		if len(run) == n {
			return run, true
		}
	}
	joined := strings.Join(runs, "")
	if len(joined) == n {
		return joined, true
	}
	return "", false
}
