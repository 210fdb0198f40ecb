package cache

import (
	"errors"
	"os"
	"testing"
)

const docURL = "https://example.test/paper.html"

func TestStore_ReadWriteDoc(t *testing.T) {
	root := t.TempDir()

	s := New(root, false)
	if _, ok, err := s.ReadDoc(docURL); err != nil || ok {
		t.Fatalf("期望未命中，实际 ok=%v err=%v", ok, err)
	}
	if err := s.WriteDoc(docURL, []byte("<html/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, ok, err := s.ReadDoc(docURL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ok {
		t.Fatalf("期望命中缓存，但 ok=false")
	}
	if string(b) != "<html/>" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	path, err := s.DocPath(docURL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("期望文件存在，但 Stat 失败：%v", err)
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()

	s := New(root, true)
	err := s.WriteDoc(docURL, []byte("x"))
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
	path, _ := s.DocPath(docURL)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_DocType(t *testing.T) {
	s := New(t.TempDir(), false)
	ct, err := s.ReadDocType(docURL)
	if err != nil || ct != "" {
		t.Fatalf("未记录时期望空串，实际 %q err=%v", ct, err)
	}
	if err := s.WriteDocType(docURL, " text/html; charset=utf-8 "); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	ct, err = s.ReadDocType(docURL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ct != "text/html; charset=utf-8" {
		t.Fatalf("Content-Type 不一致：%q", ct)
	}

	ro := New(s.Root, true)
	if err := ro.WriteDocType(docURL, "text/plain"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}
}

func TestKey_StableAndDistinct(t *testing.T) {
	if Key(docURL) != Key(" "+docURL+" ") {
		t.Fatalf("同一 URL 的 key 应稳定")
	}
	if Key(docURL) == Key(docURL+"?v=2") {
		t.Fatalf("不同 URL 的 key 不应相同")
	}
	if _, err := New(t.TempDir(), false).DocPath(""); err == nil {
		t.Fatalf("空 URL 应报错")
	}
}
