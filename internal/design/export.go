package design

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

// rootFrameID is the well-known id Penpot assigns to a page's root frame,
// which carries the canvas dimensions.
const rootFrameID = "00000000-0000-0000-0000-000000000000"

// ExportSVG rebuilds a page as a simplified SVG wireframe: frames become
// outlined rectangles, rects filled rectangles, text shapes text nodes. The
// output is meant to be read as XML, not rendered pixel-perfect. An empty
// pageName exports the file's first page.
func (c *Client) ExportSVG(ctx context.Context, fileID, pageName string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	if strings.TrimSpace(fileID) == "" {
		return "", errors.New("file id required")
	}
	var file fileResponse
	if err := c.rpc(ctx, "get-file", map[string]string{"id": fileID}, &file); err != nil {
		common.Logger().Warn("design: get file failed", "file", fileID, "error", err)
		return "", ErrUnavailable
	}
	for _, pageID := range file.pageOrder() {
		page := file.Data.PagesIndex[pageID]
		if pageName != "" && !strings.EqualFold(pageName, page.Name) {
			continue
		}
		return buildSVG(page), nil
	}
	return "", ErrPageNotFound
}

func buildSVG(page wirePage) string {
	root := page.Objects[rootFrameID]
	width := root.Width
	if width <= 0 {
		width = 1920
	}
	height := root.Height
	if height <= 0 {
		height = 1080
	}

	lines := []string{
		strings.TrimSuffix(xml.Header, "\n"),
		fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`,
			fnum(width), fnum(height), fnum(width), fnum(height)),
	}
	for _, objectID := range objectOrder(page.Objects) {
		shape := page.Objects[objectID]
		name := html.EscapeString(shape.Name)
		switch shape.Type {
		case "frame":
			lines = append(lines, fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="#999" data-name="%s"/>`,
				fnum(shape.X), fnum(shape.Y), fnum(shape.Width), fnum(shape.Height), name))
		case "rect":
			fill := "#ccc"
			if len(shape.Fills) > 0 && shape.Fills[0].Color != "" {
				fill = shape.Fills[0].Color
			}
			lines = append(lines, fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s" fill="%s" data-name="%s"/>`,
				fnum(shape.X), fnum(shape.Y), fnum(shape.Width), fnum(shape.Height), html.EscapeString(fill), name))
		case "text":
			text := shapeInfo(shape).Text
			if text == "" {
				text = shape.Name
			}
			lines = append(lines, fmt.Sprintf(`  <text x="%s" y="%s" font-size="14" data-name="%s">%s</text>`,
				fnum(shape.X), fnum(shape.Y+16), name, html.EscapeString(text)))
		}
	}
	lines = append(lines, "</svg>")
	return strings.Join(lines, "\n")
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
