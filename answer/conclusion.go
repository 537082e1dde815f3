package answer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrConclusionMismatch is returned when a conclusion introduces or drops numbers.
var ErrConclusionMismatch = errors.New("conclusion numbers do not match the answer")

var numberPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// numbers returns the set of numeric values in s, normalized so that 1,200.50
// and 1200.5 are the same value.
func numbers(s string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range numberPattern.FindAllString(s, -1) {
		m = strings.ReplaceAll(m, ",", "")
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			out[m] = true
			continue
		}
		out[strconv.FormatFloat(f, 'f', -1, 64)] = true
	}
	return out
}

// CheckConclusion verifies that every number in the conclusion appears in the
// answer, and that a conclusion of an answer with numbers has numbers too.
func CheckConclusion(answer, conclusion string) error {
	have := numbers(answer)
	got := numbers(conclusion)

	if len(have) > 0 && len(got) == 0 {
		return fmt.Errorf("%w: conclusion has no numbers", ErrConclusionMismatch)
	}

	var extra []string
	for n := range got {
		if !have[n] {
			extra = append(extra, n)
		}
	}
	if len(extra) > 0 {
		return fmt.Errorf("%w: %s not in the answer", ErrConclusionMismatch, strings.Join(extra, ", "))
	}

	return nil
}
