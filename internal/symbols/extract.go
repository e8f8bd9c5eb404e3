package symbols

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const (
	maxWalkDepth    = 20
	maxSignatureLen = 200
)

func extractFile(lang *sitter.Language, langName, relPath string, source []byte) ([]store.SymbolDoc, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", langName, err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", relPath)
	}
	defer tree.Close()

	table := nodeKinds[langName]
	var out []store.SymbolDoc

	var walk func(node *sitter.Node, depth int)
	walk = func(node *sitter.Node, depth int) {
		if node == nil || depth > maxWalkDepth {
			return
		}
		if base, ok := table[node.Kind()]; ok {
			if doc, ok := symbolFromNode(node, base, langName, relPath, source); ok {
				out = append(out, doc)
			}
		}
		count := node.NamedChildCount()
		for i := uint(0); i < count; i++ {
			walk(node.NamedChild(i), depth+1)
		}
	}
	walk(tree.RootNode(), 0)
	return out, nil
}

func symbolFromNode(node *sitter.Node, base, langName, relPath string, source []byte) (store.SymbolDoc, bool) {
	name := ""
	kind := base

	switch {
	case isJSFamily(langName) && (node.Kind() == "lexical_declaration" || node.Kind() == "variable_declaration"):
		name, kind = declaratorSymbol(node, source)
	case langName == "python" && node.Kind() == "assignment":
		if !isModuleLevelAssignment(node) {
			return store.SymbolDoc{}, false
		}
		name = assignmentTarget(node, source)
	default:
		name = nameForNode(node, source)
	}

	if skipName(name) {
		return store.SymbolDoc{}, false
	}
	kind = classify(kind, name, langName, relPath)

	return store.SymbolDoc{
		FilePath:   relPath,
		LineNumber: int(node.StartPosition().Row) + 1,
		Type:       kind,
		Name:       name,
		Signature:  signatureFor(node, source),
	}, true
}

// declaratorSymbol resolves `const x = ...` declarations: arrow functions
// and function expressions count as functions, everything else as constants.
func declaratorSymbol(node *sitter.Node, source []byte) (string, string) {
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		kind := KindConstant
		if value := child.ChildByFieldName("value"); value != nil {
			switch value.Kind() {
			case "arrow_function", "function_expression", "function", "generator_function":
				kind = KindFunction
			}
		}
		return nodeText(nameNode, source), kind
	}
	return "", KindConstant
}

// isModuleLevelAssignment keeps only top-level Python assignments; locals
// inside function bodies are noise.
func isModuleLevelAssignment(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() != "expression_statement" {
		return false
	}
	grand := parent.Parent()
	return grand != nil && grand.Kind() == "module"
}

func assignmentTarget(node *sitter.Node, source []byte) string {
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return ""
	}
	return nodeText(left, source)
}

func nameForNode(node *sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, source)
	}
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "type_identifier", "property_identifier", "word":
			return nodeText(child, source)
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			return nodeText(nameNode, source)
		}
	}
	return ""
}

func nodeText(node *sitter.Node, source []byte) string {
	start := node.StartByte()
	end := node.EndByte()
	if end > uint(len(source)) {
		end = uint(len(source))
	}
	if start >= end {
		return ""
	}
	return string(source[start:end])
}

// signatureFor returns the declaration's first line, trimmed and capped.
func signatureFor(node *sitter.Node, source []byte) string {
	text := nodeText(node, source)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxSignatureLen {
		text = text[:maxSignatureLen]
	}
	return text
}
