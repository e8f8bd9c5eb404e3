package design

import (
	"sort"
	"strings"
)

// Project is a design project together with the files it contains.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// File identifies one design file inside a project.
type File struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ModifiedAt string `json:"modified,omitempty"`
}

// Page summarizes one page of a design file.
type Page struct {
	PageID     string  `json:"page_id"`
	Name       string  `json:"name"`
	ShapeCount int     `json:"shape_count"`
	Components []Shape `json:"components"`
}

// Shape is the flattened view of a single design object: its name, its kind,
// and any text content it carries.
type Shape struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireFile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ModifiedAt string `json:"modified-at"`
}

type fileResponse struct {
	Data struct {
		Pages      []string            `json:"pages"`
		PagesIndex map[string]wirePage `json:"pages-index"`
	} `json:"data"`
}

type wirePage struct {
	Name    string               `json:"name"`
	Objects map[string]wireShape `json:"objects"`
}

type wireShape struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Width   float64       `json:"width"`
	Height  float64       `json:"height"`
	Fills   []wireFill    `json:"fills"`
	Content *wireTextNode `json:"content"`
}

type wireFill struct {
	Color string `json:"color"`
}

type wireTextNode struct {
	Text     string         `json:"text"`
	Children []wireTextNode `json:"children"`
}

// pageOrder returns page ids in document order, falling back to sorted ids
// when the file data carries no explicit page list.
func (f fileResponse) pageOrder() []string {
	index := f.Data.PagesIndex
	if len(f.Data.Pages) > 0 {
		ids := make([]string, 0, len(f.Data.Pages))
		for _, id := range f.Data.Pages {
			if _, ok := index[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func objectOrder(objects map[string]wireShape) []string {
	ids := make([]string, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// shapeInfo flattens a raw shape into the fields that matter for wireframe
// summaries. Text content arrives nested two levels deep: paragraphs of
// spans, each span carrying a fragment.
func shapeInfo(shape wireShape) Shape {
	info := Shape{Name: shape.Name, Type: shape.Type}
	if shape.Content == nil {
		return info
	}
	var texts []string
	for _, para := range shape.Content.Children {
		for _, span := range para.Children {
			if span.Text != "" {
				texts = append(texts, span.Text)
			}
		}
	}
	info.Text = strings.Join(texts, " ")
	return info
}
