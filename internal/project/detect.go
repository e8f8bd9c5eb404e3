// Package project holds helpers shared by every surface that registers
// codebases: name normalization and technology stack detection.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a display name into a stable project identifier.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// DetectStack inspects manifest files under dir and names the technology
// stack. Multi-language repositories produce a joined label like
// "React + TypeScript + Go". An unrecognized directory yields "".
func DetectStack(dir string) string {
	var parts []string
	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		parts = append(parts, nodeStack(data))
	}
	if hasAny(dir, "requirements.txt", "pyproject.toml", "setup.py") {
		parts = append(parts, "Python")
	}
	if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err == nil {
		parts = append(parts, "Rust")
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		parts = append(parts, "Go")
	}
	return strings.Join(parts, " + ")
}

func hasAny(dir string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// nodeStack classifies a package.json by its merged dependency map.
func nodeStack(data []byte) string {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "Node.js"
	}
	deps := make(map[string]bool, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name := range manifest.Dependencies {
		deps[name] = true
	}
	for name := range manifest.DevDependencies {
		deps[name] = true
	}

	var label string
	switch {
	case deps["next"]:
		label = "Next.js"
	case deps["react"]:
		label = "React"
	case deps["vue"]:
		label = "Vue"
	case deps["svelte"]:
		label = "Svelte"
	}
	if deps["electron"] {
		if label == "" {
			label = "Electron"
		} else {
			label += " + Electron"
		}
	}
	if deps["typescript"] {
		if label == "" {
			label = "TypeScript"
		} else {
			label += " + TypeScript"
		}
	}
	if label == "" {
		return "Node.js"
	}
	return label
}
