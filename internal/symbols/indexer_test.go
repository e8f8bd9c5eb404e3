package symbols

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"src/App.tsx":      "tsx",
		"src/api.ts":       "typescript",
		"lib/util.js":      "javascript",
		"lib/Button.jsx":   "javascript",
		"manage.py":        "python",
		"scripts/run.sh":   "bash",
		"src/main.rs":      "rust",
		"cmd/main.go":      "go",
		"assets/logo.svg":  "",
		"README.md":        "",
		"Dockerfile":       "",
		"src/notes.txt":    "",
		"deep/path/App.TSX": "tsx",
	}
	for path, want := range cases {
		lang, ok := DetectLanguage(path)
		if want == "" {
			assert.False(t, ok, "expected no language for %s", path)
			continue
		}
		require.True(t, ok, "expected language for %s", path)
		assert.Equal(t, want, lang, "language for %s", path)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindComponent, classify(KindFunction, "CartSummary", "tsx", "src/CartSummary.tsx"))
	assert.Equal(t, KindFunction, classify(KindFunction, "CartSummary", "typescript", "src/cart.ts"))
	assert.Equal(t, KindHook, classify(KindFunction, "useCart", "typescript", "src/cart.ts"))
	assert.Equal(t, KindFunction, classify(KindFunction, "user", "typescript", "src/cart.ts"))
	assert.Equal(t, KindFunction, classify(KindFunction, "useful", "typescript", "src/cart.ts"))
	assert.Equal(t, KindStore, classify(KindFunction, "createCart", "javascript", "src/cart.js"))
	assert.Equal(t, KindStore, classify(KindConstant, "cartStore", "typescript", "src/cart.ts"))
	assert.Equal(t, KindClass, classify(KindClass, "CartSummary", "tsx", "src/CartSummary.tsx"))
	assert.Equal(t, KindFunction, classify(KindFunction, "UseCase", "python", "src/cart.py"))
	assert.Equal(t, KindHook, classify(KindConstant, "useCheckout", "tsx", "src/checkout.tsx"))
}

func TestSkipName(t *testing.T) {
	assert.True(t, skipName(""))
	assert.True(t, skipName("x"))
	assert.True(t, skipName("_private"))
	assert.False(t, skipName("ab"))
	assert.False(t, skipName("handleSubmit"))
}

func TestRankAndCapDropsConstantsAndOrders(t *testing.T) {
	docs := []store.SymbolDoc{
		{FilePath: "b.ts", LineNumber: 10, Type: KindFunction, Name: "beta"},
		{FilePath: "a.tsx", LineNumber: 5, Type: KindComponent, Name: "App"},
		{FilePath: "a.ts", LineNumber: 1, Type: KindConstant, Name: "API_URL"},
		{FilePath: "c.ts", LineNumber: 2, Type: KindHook, Name: "useThing"},
		{FilePath: "a.ts", LineNumber: 3, Type: KindFunction, Name: "alpha"},
		{FilePath: "r.ts", LineNumber: 1, Type: KindRoute, Name: "checkoutRoute"},
		{FilePath: "s.ts", LineNumber: 9, Type: KindStore, Name: "cartStore"},
	}
	ranked, truncated := rankAndCap(docs)
	require.False(t, truncated)
	require.Len(t, ranked, 6)

	var order []string
	for _, doc := range ranked {
		order = append(order, doc.Type)
	}
	assert.Equal(t, []string{KindComponent, KindHook, KindStore, KindFunction, KindFunction, KindRoute}, order)
	assert.Equal(t, "alpha", ranked[3].Name, "functions ordered by file path")
	assert.Equal(t, "beta", ranked[4].Name)
}

func TestRankAndCapTruncates(t *testing.T) {
	docs := make([]store.SymbolDoc, 0, MaxIndexedSymbols+25)
	for i := 0; i < MaxIndexedSymbols+25; i++ {
		docs = append(docs, store.SymbolDoc{
			FilePath:   "src/gen.ts",
			LineNumber: i + 1,
			Type:       KindFunction,
			Name:       "helper",
		})
	}
	ranked, truncated := rankAndCap(docs)
	assert.True(t, truncated)
	assert.Len(t, ranked, MaxIndexedSymbols)
	assert.Equal(t, 1, ranked[0].LineNumber, "kept symbols are the best-ranked ones")
}

func TestWalkSourcesSkipsExcludedTrees(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const x = 1\n")
	writeFile(t, root, "src/generated/schema.ts", "export const y = 2\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, ".git/hooks/post-commit.sh", "echo hi\n")
	writeFile(t, root, "docs/readme.md", "# docs\n")
	writeFile(t, root, "scripts/run.sh", "run() { echo go; }\n")

	loader := NewGrammarLoader(t.TempDir())
	ix, err := NewIndexer(loader, []string{"src/generated/**"})
	require.NoError(t, err)

	var visited []string
	err = ix.walkSources(context.Background(), root, func(relPath, langName string, source []byte) error {
		visited = append(visited, relPath)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/app.ts", "scripts/run.sh"}, visited)
}

func TestWalkSourcesSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, maxFileBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "bundle.js"), big, 0o644))
	writeFile(t, root, "src/small.js", "const ok = true\n")

	loader := NewGrammarLoader(t.TempDir())
	ix, err := NewIndexer(loader, nil)
	require.NoError(t, err)

	var visited []string
	err = ix.walkSources(context.Background(), root, func(relPath, langName string, source []byte) error {
		visited = append(visited, relPath)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/small.js"}, visited)
}

func TestNewIndexerRejectsBadPattern(t *testing.T) {
	loader := NewGrammarLoader(t.TempDir())
	_, err := NewIndexer(loader, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestScanWithGoGrammar(t *testing.T) {
	loader := NewGrammarLoader()
	if !loader.Available("go") {
		t.Skip("tree-sitter go grammar not installed")
	}

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n\nfunc helperFunc() int { return 1 }\n\ntype Widget struct{}\n")

	ix, err := NewIndexer(loader, nil)
	require.NoError(t, err)
	result, err := ix.Scan(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, result)

	names := map[string]string{}
	for _, sym := range result.Symbols {
		names[sym.Name] = sym.Type
	}
	assert.Equal(t, KindFunction, names["main"])
	assert.Equal(t, KindFunction, names["helperFunc"])
	assert.Equal(t, KindType, names["Widget"])

	matches, truncated, err := ix.FindSymbol(context.Background(), root, "helperfunc", true)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, matches, 1)
	assert.Equal(t, "main.go", matches[0].FilePath)
	assert.Equal(t, 5, matches[0].LineNumber)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
