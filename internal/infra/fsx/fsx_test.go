package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assertNoTemp(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}

func TestWriteFileAtomic_SuccessAndNoTempLeft(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	if err := WriteFileAtomic(dir, "z32_results.csv", []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "z32_results.csv"))
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	assertNoTemp(t, dir, "z32_results.csv")
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFileAtomic(dir, "a.json", []byte("old")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomic(dir, "a.json", []byte("new")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "a.json"))
	if string(b) != "new" {
		t.Fatalf("期望覆盖为 new，实际 %q", string(b))
	}
}

func TestWriteFileAtomic_RenameFail_CleanupTemp(t *testing.T) {
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	err := WriteFileAtomic(dir, "a.txt", []byte("hello"))
	if err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	assertNoTemp(t, dir, "a.txt")
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("不应写出最终文件，Stat err=%v", err)
	}
}

func TestWriteAtomicFunc_WriterErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	err := WriteAtomicFunc(dir, "a.csv", func(w io.Writer) error {
		fmt.Fprintln(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望 boom，实际 %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.csv")); !os.IsNotExist(err) {
		t.Fatalf("不应写出最终文件，Stat err=%v", err)
	}
	assertNoTemp(t, dir, "a.csv")
}

func TestWriteFileAtomic_TargetConflictDir(t *testing.T) {
	dir := t.TempDir()

	// 目标路径是目录：应返回 PathTypeConflictError。
	if err := os.Mkdir(filepath.Join(dir, "a.txt"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	err := WriteFileAtomic(dir, "a.txt", []byte("hello"))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}
