package sandbox

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

var ErrNoCommand = errors.New("no runnable command detected")

// Detected is an autodetected run command for a project tree.
type Detected struct {
	Command string
	Port    int
}

// DetectCommand inspects a project tree for a runnable dev server command.
func DetectCommand(dir string) (Detected, error) {
	if scripts := packageScripts(dir); scripts != nil {
		if _, ok := scripts["dev"]; ok {
			return Detected{Command: "npm run dev", Port: 3000}, nil
		}
		if _, ok := scripts["start"]; ok {
			return Detected{Command: "npm start", Port: 3000}, nil
		}
	}
	if fileExists(filepath.Join(dir, "manage.py")) {
		return Detected{Command: "python manage.py runserver", Port: 8000}, nil
	}
	for _, name := range []string{"app.py", "main.py"} {
		if fileExists(filepath.Join(dir, name)) {
			return Detected{Command: "python " + name, Port: 5000}, nil
		}
	}
	return Detected{}, ErrNoCommand
}

// DetectTestCommand inspects a project tree for a test runner command.
func DetectTestCommand(dir string) (string, error) {
	if scripts := packageScripts(dir); scripts != nil {
		if _, ok := scripts["test"]; ok {
			return "npm test", nil
		}
	}
	if fileExists(filepath.Join(dir, "pytest.ini")) ||
		fileExists(filepath.Join(dir, "pyproject.toml")) ||
		dirExists(filepath.Join(dir, "tests")) {
		return "pytest", nil
	}
	return "", ErrNoCommand
}

func packageScripts(dir string) map[string]string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	return pkg.Scripts
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
