package synth

import (
	"regexp"
	"strings"
)

// Intent records which restricted constructs a question asks for.
type Intent struct {
	Sum   bool
	Count bool
	TopN  bool
}

var (
	sumPattern = regexp.MustCompile(`(?i)\b(total|totals|totaled|totalled|sum|sums|summed|add(ed)? up|altogether|combined|aggregate|cumulative|overall|in all)\b`)
	sumPhrases = []string{"加總", "總和", "總計", "合計", "總共", "累計", "总和", "总计", "合计", "总共", "加总", "累计", "一共"}
	// 總用電量, 用電總量, 總量, 總金額
	sumMeasure = regexp.MustCompile(`[總总]\p{Han}{0,4}[量額额]`)

	countPattern = regexp.MustCompile(`(?i)\b(how many|count|counts|number of|how often|tally)\b`)
	countPhrases = []string{"筆數", "幾筆", "多少筆", "幾個", "多少個", "幾次", "多少次", "笔数", "几笔", "几个", "几次", "計數", "计数"}

	topNPattern = regexp.MustCompile(`(?i)\b(top|highest|lowest|largest|smallest|biggest|most|least|maximum|minimum|max|min|first|last|latest|earliest|best|worst|rank|ranking)\b`)
	topNPhrases = []string{"前幾", "前几", "前三", "前五", "前十", "最多", "最少", "最高", "最低", "最大", "最小", "排名", "第一", "最新", "最早"}
)

func matches(question string, pattern *regexp.Regexp, phrases []string) bool {
	if pattern.MatchString(question) {
		return true
	}
	for _, p := range phrases {
		if strings.Contains(question, p) {
			return true
		}
	}
	return false
}

// DetectIntent looks for summing, counting and ranking phrases in the question.
func DetectIntent(question string) Intent {
	return Intent{
		Sum:   matches(question, sumPattern, sumPhrases) || sumMeasure.MatchString(question),
		Count: matches(question, countPattern, countPhrases),
		TopN:  matches(question, topNPattern, topNPhrases),
	}
}
