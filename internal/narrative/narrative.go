// Package narrative 读取论文正文（HTML / TeX / 纯文本，本地文件或 URL），
// 归一化为可做子串匹配的纯文本，供 claims 命令核对文本引用。
package narrative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/infra/cache"
	"github.com/John-Robertt/Z32/internal/infra/httpx"
	"github.com/John-Robertt/Z32/internal/logging"
)

// Kind 是正文格式。
type Kind string

const (
	KindHTML Kind = "html"
	KindTeX  Kind = "tex"
	KindText Kind = "text"
)

// ErrEmptyDocument 表示正文为空（或提取后没有文本）。
var ErrEmptyDocument = errors.New("narrative: empty document")

// Error 是加载阶段的结构化错误（带 error_code）。
type Error struct {
	Code   string
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Document 是归一化后的正文。
type Document struct {
	Source string
	Kind   Kind
	Text   string
}

// Contains 报告归一化后的 pattern 是否出现在正文中。
func (d Document) Contains(pattern string) bool {
	p := Normalize(pattern)
	return p != "" && strings.Contains(d.Text, p)
}

var minusLike = strings.NewReplacer("−", "-", "‒", "-", "–", "-")

// Normalize 做 NFKC 归一、统一减号、压缩空白。
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = minusLike.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// DetectKind 依次按扩展名、Content-Type、内容特征判断格式。
func DetectKind(source, contentType string, body []byte) Kind {
	switch strings.ToLower(filepath.Ext(pathOf(source))) {
	case ".html", ".htm", ".xhtml":
		return KindHTML
	case ".tex":
		return KindTeX
	case ".txt", ".md":
		return KindText
	}
	if strings.Contains(strings.ToLower(contentType), "html") {
		return KindHTML
	}
	head := strings.ToLower(string(bytes.TrimSpace(body[:min(len(body), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return KindHTML
	}
	if bytes.Contains(body, []byte(`\documentclass`)) || bytes.Contains(body, []byte(`\begin{`)) {
		return KindTeX
	}
	return KindText
}

// Parse 把原始字节转换为归一化正文。
func Parse(source string, body []byte, kind Kind) (Document, error) {
	var text string
	switch kind {
	case KindHTML:
		t, err := htmlText(body)
		if err != nil {
			return Document{}, &Error{Code: domain.ErrCodeParseFailed, Source: source, Err: err}
		}
		text = t
	case KindTeX:
		text = deTeX(string(body))
	default:
		text = string(body)
	}
	text = Normalize(text)
	if text == "" {
		return Document{}, &Error{Code: domain.ErrCodeParseFailed, Source: source, Err: ErrEmptyDocument}
	}
	return Document{Source: source, Kind: kind, Text: text}, nil
}

// blockSelector 中的元素之后补一个空格，避免相邻块的文字粘连。
const blockSelector = "p,div,li,br,tr,td,th,h1,h2,h3,h4,h5,h6,section,article,caption,figcaption,blockquote"

func htmlText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript").Remove()
	// 上标写成 ^x，与 TeX 的 10^{-5} 归一到同一形式。
	doc.Find("sup").Each(func(_ int, s *goquery.Selection) {
		s.SetText("^" + s.Text())
	})
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return doc.Text(), nil
}

var (
	texComment = regexp.MustCompile(`(?m)(^|[^\\])%.*$`)
	texCommand = regexp.MustCompile(`\\[A-Za-z]+\*?`)
	texEscapes = strings.NewReplacer(
		`\%`, "%",
		`\times`, "×",
		`\&`, "&",
		`\,`, " ",
		`\ `, " ",
		"~", " ",
	)
)

// deTeX 做轻量的 TeX 去标记：去注释、展开常见转义、去掉命令名与花括号。
// 参数文本保留，例如 \textbf{54} -> 54，2{,}044 -> 2,044。
func deTeX(s string) string {
	s = texComment.ReplaceAllString(s, "$1")
	s = texEscapes.Replace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = texCommand.ReplaceAllString(s, "")
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

// Loader 从本地文件或 http(s) URL 加载正文；URL 内容可缓存到 Store。
type Loader struct {
	Client  *http.Client
	Cache   *cache.Store
	Refresh bool
	Log     *zap.Logger
}

// IsURL 报告 source 是否为 http(s) URL。
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func pathOf(source string) string {
	if IsURL(source) {
		u, _ := url.Parse(source)
		return u.Path
	}
	return source
}

// Load 读取并解析 source。
func (l Loader) Load(ctx context.Context, source string) (Document, error) {
	log := logging.OrNop(l.Log)
	source = strings.TrimSpace(source)
	if source == "" {
		return Document{}, &Error{Code: domain.ErrCodeIOFailed, Source: source, Err: ErrEmptyDocument}
	}

	var (
		body        []byte
		contentType string
		cached      bool
	)
	if IsURL(source) {
		var err error
		body, contentType, cached, err = l.fetch(ctx, source)
		if err != nil {
			return Document{}, &Error{Code: domain.ErrCodeFetchFailed, Source: source, Err: err}
		}
	} else {
		b, err := os.ReadFile(source)
		if err != nil {
			return Document{}, &Error{Code: domain.ErrCodeIOFailed, Source: source, Err: err}
		}
		body = b
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Document{}, &Error{Code: domain.ErrCodeParseFailed, Source: source, Err: ErrEmptyDocument}
	}

	kind := DetectKind(source, contentType, body)
	doc, err := Parse(source, body, kind)
	if err != nil {
		return Document{}, err
	}
	log.Debug("narrative loaded",
		zap.String("source", source),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(body)),
		zap.Bool("cached", cached))
	return doc, nil
}

func (l Loader) fetch(ctx context.Context, source string) ([]byte, string, bool, error) {
	if l.Cache != nil && !l.Refresh {
		b, ok, err := l.Cache.ReadDoc(source)
		if err != nil {
			return nil, "", false, err
		}
		if ok {
			ct, err := l.Cache.ReadDocType(source)
			if err != nil {
				return nil, "", false, err
			}
			return b, ct, true, nil
		}
	}
	c := l.Client
	if c == nil {
		var err error
		if c, err = httpx.NewDocClient(""); err != nil {
			return nil, "", false, err
		}
	}
	b, ct, err := httpx.Get(ctx, c, source)
	if err != nil {
		return nil, "", false, err
	}
	if l.Cache != nil {
		// 先写类型再写正文：正文存在即视为命中。
		if err := l.Cache.WriteDocType(source, ct); err != nil && !errors.Is(err, cache.ErrReadOnly) {
			return nil, "", false, err
		}
		if err := l.Cache.WriteDoc(source, b); err != nil && !errors.Is(err, cache.ErrReadOnly) {
			return nil, "", false, err
		}
	}
	return b, ct, false, nil
}
