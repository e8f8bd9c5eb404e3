package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

const maxInventoryFileBytes = 1 << 20

// InventoryFile is one project file with its line count.
type InventoryFile struct {
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

// Inventory is the structural fallback digest of a project tree: every
// surviving file with its line count, in walk order.
type Inventory struct {
	Files      []InventoryFile `json:"files"`
	TotalLines int             `json:"total_lines"`
}

// Listing renders the inventory as compact text for the transform digest.
func (inv *Inventory) Listing() string {
	var b strings.Builder
	for _, file := range inv.Files {
		fmt.Fprintf(&b, "%s (%d lines)\n", file.Path, file.Lines)
	}
	fmt.Fprintf(&b, "total: %d files, %d lines\n", len(inv.Files), inv.TotalLines)
	return b.String()
}

// collectInventory walks the project tree with the same exclusions as the
// symbol indexer. Binary and oversized files are listed out of the count
// silently; unreadable files are skipped.
func (m *Manager) collectInventory(ctx context.Context, root string) (*Inventory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}
	inv := &Inventory{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if symbols.SkipDir(d.Name()) || m.indexer.Excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || m.indexer.Excluded(rel) {
			return nil
		}
		entryInfo, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if entryInfo.Size() > maxInventoryFileBytes {
			common.Logger().Debug("pipeline: skipping oversized file", "path", rel, "size", entryInfo.Size())
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		lines := countLines(data)
		inv.Files = append(inv.Files, InventoryFile{Path: rel, Lines: lines})
		inv.TotalLines += lines
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}
	return lines
}
