package lexicon

import (
	"sort"
	"strings"
)

// 词表之外仍常见于候选串的连接词。
var extraWords = []string{"A", "AN", "AND", "THE", "FROM"}

func collectWords(g *Grammar) []string {
	seen := map[string]struct{}{}
	add := func(w string) {
		if w != "" {
			seen[w] = struct{}{}
		}
	}
	for _, tbl := range [][]Token{g.Magnitudes, g.Fractions, g.Hours, g.AngleUnits, g.DistanceUnits, g.Prefixes} {
		for _, tk := range tbl {
			for _, w := range tk.Words {
				add(w)
			}
		}
	}
	for _, w := range extraWords {
		add(w)
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	// 长词优先；同长按字典序，保证结果稳定。
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Segment 用最长匹配把任意大写串切成可读词；不认识的字符单独成词。
func (g *Grammar) Segment(text string) []string {
	var out []string
	rest := text
	for rest != "" {
		matched := false
		for _, w := range g.segmentWords {
			if strings.HasPrefix(rest, w) {
				out = append(out, w)
				rest = rest[len(w):]
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, rest[:1])
			rest = rest[1:]
		}
	}
	return out
}
