package lexicon

import "strings"

// Candidate 是一个渲染后的候选明文。
//
// 字段由 Tuple 经 Grammar 解析，不从 Text 反向解析。
type Candidate struct {
	Index  int    `json:"index"`
	Tuple  Tuple  `json:"tuple"`
	Family string `json:"family"`
	Text   string `json:"text"`

	grammar *Grammar
}

// Tokens 返回按模板槽位顺序排列的非空词。
func (c Candidate) Tokens() []Token {
	if c.grammar == nil {
		return nil
	}
	fam := c.grammar.Families[c.grammar.Forms[c.Tuple.Form].Family]
	out := make([]Token, 0, len(fam.Slots))
	for _, s := range fam.Slots {
		tk, ok := c.grammar.token(c.Tuple, s)
		if ok && tk.Text != "" {
			out = append(out, tk)
		}
	}
	return out
}

// Field 返回模板中指定类别的词；模板没有该槽位时 ok=false。
// 空前缀/空分数仍算存在（ok=true, Text==""）。
func (c Candidate) Field(cat Category) (Token, bool) {
	if c.grammar == nil {
		return Token{}, false
	}
	fam := c.grammar.Families[c.grammar.Forms[c.Tuple.Form].Family]
	for _, s := range fam.Slots {
		if s == cat {
			return c.grammar.token(c.Tuple, s)
		}
	}
	return Token{}, false
}

// Readable 返回以空格分词的可读形式，例如 "IN THREE AND THREE EIGHTHS RADIANS TEN"。
func (c Candidate) Readable() string {
	var words []string
	for _, tk := range c.Tokens() {
		words = append(words, tk.Words...)
	}
	return strings.Join(words, " ")
}
