package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Extractor parses Python source and produces an ordered list of ImportFacts.
// It holds no per-file state, so a single instance is safe for use across
// files, including in parallel.
type Extractor struct {
	lang *sitter.Language
}

// NewExtractor creates a Python import extractor.
func NewExtractor() *Extractor {
	return &Extractor{lang: python.GetLanguage()}
}

const importQuery = `
	(import_statement) @import
	(import_from_statement) @from_import
`

// Extract parses one file's source text into import facts. Unparsable text
// yields an empty fact list plus a ParseFailure; extraction never returns an
// error that should abort a scan. Imports inside conditional branches or
// nested blocks are extracted unconditionally.
func (e *Extractor) Extract(file string, source []byte) ([]ImportFact, *ParseFailure) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, &ParseFailure{File: file, Line: 1, Message: fmt.Sprintf("parser failure: %v", err)}
	}

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstSyntaxError(root)
		return nil, &ParseFailure{File: file, Line: line, Message: msg}
	}

	query, err := sitter.NewQuery([]byte(importQuery), e.lang)
	if err != nil {
		return nil, &ParseFailure{File: file, Line: 1, Message: fmt.Sprintf("query failure: %v", err)}
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, root)

	var facts []ImportFact
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "import":
				facts = append(facts, e.extractImport(c.Node, source, file)...)
			case "from_import":
				facts = append(facts, e.extractFromImport(c.Node, source, file)...)
			}
		}
	}

	return facts, nil
}

// extractImport handles `import a.b` and `import a.b as c`, producing one
// fact per imported module.
func (e *Extractor) extractImport(node *sitter.Node, source []byte, file string) []ImportFact {
	var facts []ImportFact
	line, col := position(node)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			facts = append(facts, ImportFact{
				File:   file,
				Module: child.Content(source),
				Line:   line,
				Column: col,
			})
		case "aliased_import":
			fact := ImportFact{File: file, Line: line, Column: col}
			if name := child.ChildByFieldName("name"); name != nil {
				fact.Module = name.Content(source)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				fact.Alias = alias.Content(source)
			}
			facts = append(facts, fact)
		}
	}
	return facts
}

// extractFromImport handles `from x import a, b as c`, `from . import x` and
// relative forms at any depth, producing one fact per imported name.
func (e *Extractor) extractFromImport(node *sitter.Node, source []byte, file string) []ImportFact {
	line, col := position(node)
	base := ImportFact{File: file, FromImport: true, Line: line, Column: col}

	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode != nil {
		switch moduleNode.Type() {
		case "relative_import":
			for i := 0; i < int(moduleNode.NamedChildCount()); i++ {
				part := moduleNode.NamedChild(i)
				switch part.Type() {
				case "import_prefix":
					base.Level = strings.Count(part.Content(source), ".")
				case "dotted_name":
					base.Module = part.Content(source)
				}
			}
		case "dotted_name":
			base.Module = moduleNode.Content(source)
		}
	}

	var facts []ImportFact
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if moduleNode != nil && child.Equal(moduleNode) {
			continue
		}
		fact := base
		switch child.Type() {
		case "dotted_name":
			fact.Symbols = []string{child.Content(source)}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				fact.Symbols = []string{name.Content(source)}
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				fact.Alias = alias.Content(source)
			}
		case "wildcard_import":
			fact.Symbols = []string{"*"}
		default:
			continue
		}
		facts = append(facts, fact)
	}

	// `from x import (nothing parsed)` still records the module reference.
	if len(facts) == 0 {
		facts = append(facts, base)
	}
	return facts
}

// firstSyntaxError locates the first error node for the ParseFailure record.
func firstSyntaxError(root *sitter.Node) (int, string) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	var find func(n *sitter.Node) *sitter.Node
	find = func(n *sitter.Node) *sitter.Node {
		if n.IsError() || n.IsMissing() {
			return n
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if found := find(n.Child(i)); found != nil {
				return found
			}
		}
		return nil
	}

	if errNode := find(root); errNode != nil {
		return int(errNode.StartPoint().Row) + 1, "invalid syntax"
	}
	return 1, "invalid syntax"
}

func position(node *sitter.Node) (line, col int) {
	return int(node.StartPoint().Row) + 1, int(node.StartPoint().Column) + 1
}
