// Package cache 在 <out>/cache/ 下缓存抓取到的叙述文档，重复核对时不必再访问网络。
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/John-Robertt/Z32/internal/infra/fsx"
)

// Store 提供 <root>/cache/ 下的文件缓存读写。
//
// 约束：ReadOnly=true 时只允许读（--no-write）。
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// Key 返回 URL 对应的稳定缓存名（URL 命名空间下的 v5 UUID）。
func Key(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(rawURL))).String()
}

// DocPath 返回文档缓存的绝对路径。
func (s Store) DocPath(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("url 不能为空")
	}
	return filepath.Join(s.Root, "cache", "docs", Key(rawURL)), nil
}

// ReadDoc 读取缓存；未命中时 ok=false 且 err=nil。
func (s Store) ReadDoc(rawURL string) ([]byte, bool, error) {
	path, err := s.DocPath(rawURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// WriteDoc 原子写入缓存（覆盖旧内容）。
func (s Store) WriteDoc(rawURL string, body []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.DocPath(rawURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), body)
}

// TypePath 返回文档 Content-Type 旁路文件的路径（<key>.type）。
func (s Store) TypePath(rawURL string) (string, error) {
	path, err := s.DocPath(rawURL)
	if err != nil {
		return "", err
	}
	return path + ".type", nil
}

// ReadDocType 读取抓取时记录的 Content-Type；没有记录时返回空串。
func (s Store) ReadDocType(rawURL string) (string, error) {
	path, err := s.TypePath(rawURL)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// WriteDocType 记录文档的 Content-Type，命中缓存时据此判断格式。
func (s Store) WriteDocType(rawURL, contentType string) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.TypePath(rawURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), []byte(strings.TrimSpace(contentType)))
}
