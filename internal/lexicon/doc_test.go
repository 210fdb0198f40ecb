package lexicon

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"strings"
	"testing"
)

// 导出的类型与函数都要有文档注释；Error/String 这类接口实现除外。
func TestExportedDeclsDocumented(t *testing.T) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, ".", func(fi fs.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	for _, pkg := range pkgs {
		for name, f := range pkg.Files {
			for _, decl := range f.Decls {
				switch d := decl.(type) {
				case *ast.FuncDecl:
					if !d.Name.IsExported() || d.Name.Name == "Error" || d.Name.Name == "String" {
						continue
					}
					if d.Doc == nil {
						t.Fatalf("%s: %s 缺少文档注释", name, d.Name.Name)
					}
				case *ast.GenDecl:
					if d.Tok != token.TYPE {
						continue
					}
					for _, spec := range d.Specs {
						ts := spec.(*ast.TypeSpec)
						if ts.Name.IsExported() && d.Doc == nil && ts.Doc == nil {
							t.Fatalf("%s: 类型 %s 缺少文档注释", name, ts.Name.Name)
						}
					}
				}
			}
		}
	}
}
