package keyword

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Tokenize 把自由文本切分成小写词元:去标点、unicode折叠,
// 让"naïve"和"naive"命中同一个词条
func Tokenize(text string) []string {
	// transform链不是并发安全的,每次调用重新构造
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		folded = bare
	}
	return strings.Fields(folded)
}

// normalizeJoined 词元重新拼接,供多词词条做短语匹配
func normalizeJoined(text string) string {
	return " " + strings.Join(Tokenize(text), " ") + " "
}

// MatchTerms 扫描文本命中的词条。单词词条按词元精确匹配,
// 含空格的词条按规范化短语匹配。返回命中词条,保持terms顺序。
func MatchTerms(text string, terms []string) []string {
	if len(terms) == 0 || text == "" {
		return nil
	}
	joined := normalizeJoined(text)

	var matched []string
	for _, term := range terms {
		t := strings.Join(Tokenize(term), " ")
		if t == "" {
			continue
		}
		if strings.Contains(joined, " "+t+" ") {
			matched = append(matched, term)
		}
	}
	return matched
}

// 内容预警标记,出现任意一个即视为已加预警
var contentWarningMarkers = []string{
	"cw:",
	"tw:",
	"content warning",
	"trigger warning",
	"内容预警",
}

// HasContentWarning 检查文本是否带内容预警标记
func HasContentWarning(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range contentWarningMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
