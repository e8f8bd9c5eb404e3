package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

// maxTransformBytes is the hard ceiling on transform input. Oversized
// digests lose their tail; the head carries the inventory and the ranked
// symbols.
const maxTransformBytes = 180000

func buildDigest(project *store.Project, inv *Inventory, scan *symbols.ScanResult, hist History) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nStack: %s\nPath: %s\n", project.Name, project.Stack, project.Path)
	b.WriteString("\n## File inventory\n")
	b.WriteString(inv.Listing())
	b.WriteString("\n## Symbols\n")
	for _, sym := range scan.Symbols {
		fmt.Fprintf(&b, "%s %s %s:%d %s\n", sym.Type, sym.Name, sym.FilePath, sym.LineNumber, sym.Signature)
	}
	if len(hist.Commits) > 0 {
		b.WriteString("\n## Recent commits\n")
		for _, line := range hist.Commits {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if len(hist.Changed) > 0 {
		b.WriteString("\n## Recently changed files\n")
		for _, name := range hist.Changed {
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncateInput(digest string) string {
	if len(digest) <= maxTransformBytes {
		return digest
	}
	return digest[:maxTransformBytes]
}

// parseSnapshotDocument extracts the snapshot JSON from a transform
// response. Providers wrap documents in markdown fences or prose; the
// outermost balanced object is what counts.
func parseSnapshotDocument(raw string) (*store.FossilDoc, error) {
	cleaned := stripFences(raw)
	start, end := jsonBounds(cleaned)
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in transform response")
	}
	var doc store.FossilDoc
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot document: %w", err)
	}
	if doc.Summary == "" && doc.Architecture == "" && len(doc.FileTree) == 0 && len(doc.Symbols) == 0 {
		return nil, fmt.Errorf("empty snapshot document")
	}
	return &doc, nil
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// jsonBounds finds the first balanced top-level JSON object, tracking
// string literals so braces inside values do not miscount.
func jsonBounds(s string) (int, int) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return -1, -1
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, i
			}
		}
	}
	return -1, -1
}
