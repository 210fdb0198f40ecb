package lexicon

import (
	"regexp"
	"strings"
)

var nonLetterRE = regexp.MustCompile(`[^A-Za-z]+`)

// 只允许字母、空白以及常见分隔符；其余字符视为输入错误而不是静默丢弃。
var phraseRE = regexp.MustCompile(`^[A-Za-z\s._'-]+$`)

// PhraseError 描述无法解析的短语输入。
type PhraseError struct {
	// Kind: "empty" 或 "invalid"
	Kind  string
	Input string
}

func (e *PhraseError) Error() string {
	switch e.Kind {
	case "empty":
		return "短语为空"
	case "invalid":
		return "短语包含非字母字符：" + e.Input
	default:
		return "invalid phrase"
	}
}

// NormalizePhrase 把用户输入的短语（可带空格、大小写混合）规范化为候选串形式。
// 例如 "in three and three eighths radians ten" -> "INTHREEANDTHREEEIGHTHSRADIANSTEN"。
func NormalizePhrase(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &PhraseError{Kind: "empty"}
	}
	if !phraseRE.MatchString(s) {
		return "", &PhraseError{Kind: "invalid", Input: s}
	}
	out := strings.ToUpper(nonLetterRE.ReplaceAllString(s, ""))
	if out == "" {
		return "", &PhraseError{Kind: "empty", Input: s}
	}
	return out, nil
}
