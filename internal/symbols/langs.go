package symbols

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Symbol kinds stored in the index. Route is produced by framework-aware
// classification only; constants are extracted but dropped before ranking.
const (
	KindFunction  = "function"
	KindClass     = "class"
	KindComponent = "component"
	KindRoute     = "route"
	KindHook      = "hook"
	KindStore     = "store"
	KindType      = "type"
	KindInterface = "interface"
	KindEnum      = "enum"
	KindConstant  = "constant"
)

// kindPriority orders symbols for truncation. Lower is kept first.
var kindPriority = map[string]int{
	KindComponent: 0,
	KindHook:      1,
	KindStore:     2,
	KindClass:     3,
	KindInterface: 4,
	KindFunction:  5,
	KindType:      6,
	KindEnum:      7,
}

const defaultKindPriority = 8

func priorityFor(kind string) int {
	if p, ok := kindPriority[kind]; ok {
		return p
	}
	return defaultKindPriority
}

// extToGrammar maps source extensions to tree-sitter grammar names.
var extToGrammar = map[string]string{
	".ts":  "typescript",
	".tsx": "tsx",
	".js":  "javascript",
	".jsx": "javascript",
	".py":  "python",
	".sh":  "bash",
	".rs":  "rust",
	".go":  "go",
}

// DetectLanguage returns the grammar name for a file path.
func DetectLanguage(path string) (string, bool) {
	lang, ok := extToGrammar[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// nodeKinds maps tree-sitter node types to symbol kinds per grammar.
var nodeKinds = map[string]map[string]string{
	"typescript": {
		"function_declaration":   KindFunction,
		"class_declaration":      KindClass,
		"interface_declaration":  KindInterface,
		"enum_declaration":       KindEnum,
		"type_alias_declaration": KindType,
		"method_definition":      KindFunction,
		"lexical_declaration":    KindConstant,
		"variable_declaration":   KindConstant,
	},
	"python": {
		"function_definition": KindFunction,
		"class_definition":    KindClass,
		"assignment":          KindConstant,
	},
	"go": {
		"function_declaration": KindFunction,
		"method_declaration":   KindFunction,
		"type_declaration":     KindType,
	},
	"rust": {
		"function_item": KindFunction,
		"struct_item":   KindClass,
		"enum_item":     KindEnum,
		"trait_item":    KindInterface,
	},
	"bash": {
		"function_definition": KindFunction,
	},
}

func init() {
	// The TS grammar family shares one node-type table.
	nodeKinds["tsx"] = nodeKinds["typescript"]
	nodeKinds["javascript"] = nodeKinds["typescript"]
}

// skipDirs are never descended into during a scan.
var skipDirs = map[string]struct{}{
	"node_modules":  {},
	".git":          {},
	"dist":          {},
	"build":         {},
	".next":         {},
	"__pycache__":   {},
	".venv":         {},
	"venv":          {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
	"target":        {},
	"vendor":        {},
	".turbo":        {},
	"coverage":      {},
	".nyc_output":   {},
}

// SkipDir reports whether a directory name is excluded from scans.
func SkipDir(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// skipName filters out throwaway identifiers before they reach the index.
func skipName(name string) bool {
	if len(name) <= 1 {
		return true
	}
	return strings.HasPrefix(name, "_")
}

func isJSFamily(lang string) bool {
	switch lang {
	case "typescript", "tsx", "javascript":
		return true
	default:
		return false
	}
}

func isComponentExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		return true
	default:
		return false
	}
}

// classify refines the base kind using naming conventions from the JS
// ecosystem: PascalCase components, useX hooks, store factories.
func classify(base, name, lang, path string) string {
	if !isJSFamily(lang) {
		return base
	}
	if base != KindFunction && base != KindConstant {
		return base
	}
	if isHookName(name) {
		return KindHook
	}
	if strings.Contains(name, "Store") || strings.HasPrefix(name, "create") {
		return KindStore
	}
	if isComponentExt(path) && isPascalCase(name) {
		return KindComponent
	}
	return base
}

func isHookName(name string) bool {
	if !strings.HasPrefix(name, "use") || len(name) < 4 {
		return false
	}
	return unicode.IsUpper(rune(name[3]))
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	first := rune(name[0])
	return unicode.IsUpper(first) && unicode.IsLetter(first)
}
