package scanner

import (
	"context"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language of a source file
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
)

var languageByExt = map[string]Language{
	".go":  LangGo,
	".py":  LangPython,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".mts": LangJavaScript,
	".cts": LangJavaScript,
	".ts":  LangJavaScript,
	".tsx": LangJavaScript,
}

// LanguageOf returns the language for a file path, or "" when unsupported
func LanguageOf(p string) Language {
	if strings.HasSuffix(p, ".d.ts") {
		return ""
	}
	return languageByExt[path.Ext(p)]
}

// Import is one import statement as written in the source
type Import struct {
	Spec string // module path, dotted module or relative specifier
	Line int

	// Names imported from Spec by "from x import a, b" (Python only)
	Names []string
}

// ExtractImports returns the imports declared in src
func ExtractImports(lang Language, filename string, src []byte) ([]Import, error) {
	switch lang {
	case LangGo:
		return goImports(filename, src)
	case LangPython:
		return treeImports(python.GetLanguage(), src, pythonImport)
	case LangJavaScript:
		return treeImports(jsGrammar(filename), src, jsImport)
	}
	return nil, nil
}

func goImports(filename string, src []byte) ([]Import, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	imports := make([]Import, 0, len(f.Imports))
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imports = append(imports, Import{Spec: p, Line: fset.Position(spec.Pos()).Line})
	}
	return imports, nil
}

// jsGrammar picks the tree-sitter grammar for a JavaScript-family file
func jsGrammar(filename string) *sitter.Language {
	switch path.Ext(filename) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// importVisitor appends the imports declared by node, if any
type importVisitor func(node *sitter.Node, src []byte, imports []Import) []Import

// treeImports parses src and walks every node in source order. Parsing is
// error tolerant: a broken statement only loses its own imports.
func treeImports(lang *sitter.Language, src []byte, visit importVisitor) ([]Import, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var imports []Import
	walk(tree.RootNode(), func(n *sitter.Node) {
		imports = visit(n, src, imports)
	})
	return imports, nil
}

func walk(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}

func nodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// importedName returns the module of a dotted_name or aliased_import
func importedName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "dotted_name":
		return n.Content(src)
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return name.Content(src)
		}
	}
	return ""
}

func pythonImport(n *sitter.Node, src []byte, imports []Import) []Import {
	switch n.Type() {
	case "import_statement":
		// import a, b.c as d
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if name := importedName(n.NamedChild(i), src); name != "" {
				imports = append(imports, Import{Spec: name, Line: nodeLine(n)})
			}
		}

	case "import_from_statement":
		// from .pkg import a, b as c
		module := n.ChildByFieldName("module_name")
		if module == nil {
			return imports
		}
		imp := Import{Spec: module.Content(src), Line: nodeLine(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.StartByte() == module.StartByte() {
				continue
			}
			if name := importedName(child, src); name != "" {
				imp.Names = append(imp.Names, name)
			}
		}
		imports = append(imports, imp)
	}
	return imports
}

func jsImport(n *sitter.Node, src []byte, imports []Import) []Import {
	switch n.Type() {
	case "import_statement", "export_statement":
		// import x from "m", export { a } from "m"
		if source := n.ChildByFieldName("source"); source != nil {
			return appendSpec(imports, source, src, nodeLine(n))
		}
		// TypeScript: import x = require("m")
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "import_require_clause" {
				continue
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if str := child.NamedChild(j); str.Type() == "string" {
					return appendSpec(imports, str, src, nodeLine(n))
				}
			}
		}

	case "call_expression":
		// require("m"), import("m")
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.NamedChildCount() == 0 {
			return imports
		}
		if name := fn.Content(src); name != "require" && name != "import" {
			return imports
		}
		if first := args.NamedChild(0); first.Type() == "string" {
			return appendSpec(imports, first, src, nodeLine(n))
		}
	}
	return imports
}

// appendSpec appends the unquoted contents of a string node
func appendSpec(imports []Import, str *sitter.Node, src []byte, ln int) []Import {
	spec := str.Content(src)
	if len(spec) < 2 {
		return imports
	}
	spec = spec[1 : len(spec)-1]
	if spec == "" {
		return imports
	}
	return append(imports, Import{Spec: spec, Line: ln})
}
