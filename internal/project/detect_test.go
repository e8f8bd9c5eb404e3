package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDetectStack(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "next with typescript",
			files: map[string]string{
				"package.json": `{"dependencies": {"next": "14.0.0", "react": "18.2.0"}, "devDependencies": {"typescript": "5.4.0"}}`,
			},
			want: "Next.js + TypeScript",
		},
		{
			name: "electron app",
			files: map[string]string{
				"package.json": `{"dependencies": {"vue": "3.4.0"}, "devDependencies": {"electron": "29.0.0"}}`,
			},
			want: "Vue + Electron",
		},
		{
			name: "plain node",
			files: map[string]string{
				"package.json": `{"dependencies": {"express": "4.18.0"}}`,
			},
			want: "Node.js",
		},
		{
			name: "broken package json",
			files: map[string]string{
				"package.json": `{not json`,
			},
			want: "Node.js",
		},
		{
			name: "python by any manifest",
			files: map[string]string{
				"requirements.txt": "flask\n",
				"pyproject.toml":   "[project]\nname = \"demo\"\n",
			},
			want: "Python",
		},
		{
			name: "mixed repo",
			files: map[string]string{
				"package.json": `{"dependencies": {"react": "18.2.0"}}`,
				"go.mod":       "module demo\n",
			},
			want: "React + Go",
		},
		{
			name: "rust",
			files: map[string]string{
				"Cargo.toml": "[package]\nname = \"demo\"\n",
			},
			want: "Rust",
		},
		{
			name:  "unrecognized",
			files: map[string]string{},
			want:  "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				writeManifest(t, dir, name, content)
			}
			if got := DetectStack(dir); got != tc.want {
				t.Fatalf("DetectStack = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Demo App", "demo-app"},
		{"  My_Repo.Name  ", "my-repo-name"},
		{"UPPER", "upper"},
		{"--already-slug--", "already-slug"},
		{"weird!!chars##here", "weird-chars-here"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.input); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
