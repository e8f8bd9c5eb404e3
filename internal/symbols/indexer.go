package symbols

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const (
	// MaxIndexedSymbols caps the ranked symbol set persisted per snapshot.
	MaxIndexedSymbols = 500
	// MaxLiveMatches caps FindSymbol results.
	MaxLiveMatches = 50

	maxFileBytes = 1 << 20
)

// ParseFailure records a file the extractor could not process.
type ParseFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult is a ranked, capped symbol extraction over one project tree.
type ScanResult struct {
	Symbols   []store.SymbolDoc `json:"symbols"`
	Failures  []ParseFailure    `json:"failures,omitempty"`
	Files     int               `json:"files"`
	Parsed    int               `json:"parsed"`
	Truncated bool              `json:"truncated"`
}

// Indexer extracts symbols from a project tree using whatever grammars the
// loader can provide. Languages without grammars are skipped, not fatal.
type Indexer struct {
	loader   *GrammarLoader
	excludes []glob.Glob
}

// NewIndexer compiles the optional exclusion patterns and returns an
// indexer bound to the loader.
func NewIndexer(loader *GrammarLoader, excludePatterns []string) (*Indexer, error) {
	if loader == nil {
		return nil, fmt.Errorf("grammar loader required")
	}
	ix := &Indexer{loader: loader}
	for _, pattern := range excludePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		ix.excludes = append(ix.excludes, compiled)
	}
	return ix, nil
}

func (ix *Indexer) excluded(relPath string) bool {
	for _, g := range ix.excludes {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// Excluded reports whether a slash-separated path relative to the project
// root matches a configured exclusion pattern. The indexing pipeline applies
// the same patterns to its file inventory.
func (ix *Indexer) Excluded(relPath string) bool {
	return ix.excluded(relPath)
}

// Scan walks the project tree, extracts symbols from every parseable file,
// then ranks and caps the result.
func (ix *Indexer) Scan(ctx context.Context, root string) (*ScanResult, error) {
	result := &ScanResult{}
	err := ix.walkSources(ctx, root, func(relPath, langName string, source []byte) error {
		result.Files++
		lang, err := ix.loader.Load(langName)
		if err != nil {
			return nil
		}
		docs, err := extractFile(lang, langName, relPath, source)
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{Path: relPath, Error: err.Error()})
			return nil
		}
		result.Parsed++
		result.Symbols = append(result.Symbols, docs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Symbols, result.Truncated = rankAndCap(result.Symbols)
	return result, nil
}

// FindSymbol live-scans the tree for a symbol name without consulting the
// store. The bool return reports truncation at MaxLiveMatches.
func (ix *Indexer) FindSymbol(ctx context.Context, root, name string, exact bool) ([]store.SymbolDoc, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("symbol name required")
	}
	lowered := strings.ToLower(name)

	var matches []store.SymbolDoc
	truncated := false
	err := ix.walkSources(ctx, root, func(relPath, langName string, source []byte) error {
		if truncated {
			return fs.SkipAll
		}
		lang, err := ix.loader.Load(langName)
		if err != nil {
			return nil
		}
		docs, err := extractFile(lang, langName, relPath, source)
		if err != nil {
			return nil
		}
		for _, doc := range docs {
			if !symbolNameMatches(doc.Name, name, lowered, exact) {
				continue
			}
			matches = append(matches, doc)
			if len(matches) >= MaxLiveMatches {
				truncated = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return matches, truncated, nil
}

func symbolNameMatches(candidate, name, lowered string, exact bool) bool {
	if exact {
		return strings.EqualFold(candidate, name)
	}
	return strings.Contains(strings.ToLower(candidate), lowered)
}

func (ix *Indexer) walkSources(ctx context.Context, root string, visit func(relPath, langName string, source []byte) error) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat project root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if SkipDir(d.Name()) || ix.excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if ix.excluded(rel) {
			return nil
		}
		langName, ok := DetectLanguage(path)
		if !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > maxFileBytes {
			common.Logger().Debug("skipping oversized source file", "path", rel, "bytes", fi.Size())
			return nil
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return visit(rel, langName, source)
	})
}

// rankAndCap drops constants, orders by kind priority then location, and
// truncates to MaxIndexedSymbols.
func rankAndCap(docs []store.SymbolDoc) ([]store.SymbolDoc, bool) {
	ranked := make([]store.SymbolDoc, 0, len(docs))
	for _, doc := range docs {
		if doc.Type == KindConstant {
			continue
		}
		ranked = append(ranked, doc)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := priorityFor(ranked[i].Type), priorityFor(ranked[j].Type)
		if pi != pj {
			return pi < pj
		}
		if ranked[i].FilePath != ranked[j].FilePath {
			return ranked[i].FilePath < ranked[j].FilePath
		}
		if ranked[i].LineNumber != ranked[j].LineNumber {
			return ranked[i].LineNumber < ranked[j].LineNumber
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > MaxIndexedSymbols {
		return ranked[:MaxIndexedSymbols], true
	}
	return ranked, false
}
