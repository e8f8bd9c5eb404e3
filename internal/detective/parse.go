package detective

import (
	"encoding/json"
	"fmt"
	"strings"
)

type insightDoc struct {
	Type     string
	Content  string
	Projects []string
}

type refinementDoc struct {
	Analysis        string   `json:"analysis"`
	SuggestedPrompt string   `json:"suggested_prompt"`
	Changes         []string `json:"changes"`
}

// parseInsights extracts the insight array from an analysis response.
// Non-object elements are dropped; an object without a content field is
// kept with its own JSON text as the content, matching how much of the
// model output survives storage.
func parseInsights(raw string) ([]insightDoc, error) {
	cleaned := stripFences(raw)
	start, end := arrayBounds(cleaned)
	if start < 0 {
		return nil, fmt.Errorf("no JSON array in analysis response")
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode insight array: %w", err)
	}
	docs := make([]insightDoc, 0, len(items))
	for _, item := range items {
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		doc := insightDoc{}
		if v, ok := obj["type"].(string); ok {
			doc.Type = v
		}
		if v, ok := obj["content"].(string); ok {
			doc.Content = v
		}
		if list, ok := obj["projects"].([]interface{}); ok {
			for _, entry := range list {
				if name, ok := entry.(string); ok && name != "" {
					doc.Projects = append(doc.Projects, name)
				}
			}
		}
		if strings.TrimSpace(doc.Content) == "" {
			doc.Content = string(item)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseRefinement(raw string) (*refinementDoc, error) {
	cleaned := stripFences(raw)
	start, end := objectBounds(cleaned)
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in refinement response")
	}
	var doc refinementDoc
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("decode refinement: %w", err)
	}
	if strings.TrimSpace(doc.SuggestedPrompt) == "" {
		return nil, fmt.Errorf("refinement response missing suggested_prompt")
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

// arrayBounds finds the first balanced top-level JSON array, tracking
// string literals so brackets inside values do not miscount.
func arrayBounds(s string) (int, int) {
	return bounds(s, '[', ']')
}

// objectBounds finds the first balanced top-level JSON object.
func objectBounds(s string) (int, int) {
	return bounds(s, '{', '}')
}

func bounds(s string, opener, closer byte) (int, int) {
	start := strings.IndexByte(s, opener)
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
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return start, i
			}
		}
	}
	return -1, -1
}
