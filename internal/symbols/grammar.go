package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	homedir "github.com/mitchellh/go-homedir"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

// GrammarLoader resolves and dlopens tree-sitter grammar shared libraries.
// A grammar that fails to load is remembered and never retried within the
// process; the language is simply absent from that run.
type GrammarLoader struct {
	dirs    map[string]struct{}
	order   []string
	loaded  map[string]*sitter.Language
	failed  map[string]struct{}
	handles map[string]uintptr
	mu      sync.Mutex
}

// NewGrammarLoader builds a loader searching the given directories before
// the defaults. WORKBENCH_GRAMMAR_DIR is always searched first when set.
func NewGrammarLoader(dirs ...string) *GrammarLoader {
	gl := &GrammarLoader{
		dirs:    make(map[string]struct{}),
		loaded:  make(map[string]*sitter.Language),
		failed:  make(map[string]struct{}),
		handles: make(map[string]uintptr),
	}
	if env := os.Getenv("WORKBENCH_GRAMMAR_DIR"); env != "" {
		gl.addDir(env)
	}
	for _, dir := range dirs {
		gl.addDir(dir)
	}
	for _, dir := range defaultGrammarDirs() {
		gl.addDir(dir)
	}
	return gl
}

func (gl *GrammarLoader) addDir(dir string) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		expanded = dir
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return
	}
	if _, ok := gl.dirs[abs]; ok {
		return
	}
	gl.dirs[abs] = struct{}{}
	gl.order = append(gl.order, abs)
}

func defaultGrammarDirs() []string {
	return []string{
		"~/.nai-workbench/grammars",
		"/usr/local/lib/tree-sitter",
		"/usr/lib/tree-sitter",
		"/usr/local/lib",
		"/usr/lib",
	}
}

func grammarLibName(name string) string {
	switch runtime.GOOS {
	case "darwin":
		return "libtree-sitter-" + name + ".dylib"
	case "windows":
		return "tree-sitter-" + name + ".dll"
	default:
		return "libtree-sitter-" + name + ".so"
	}
}

func (gl *GrammarLoader) findLibrary(name string) string {
	lib := grammarLibName(name)
	for _, dir := range gl.order {
		for _, candidate := range []string{
			filepath.Join(dir, lib),
			filepath.Join(dir, name, lib),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// Available reports whether a grammar can be used without attempting a load.
func (gl *GrammarLoader) Available(name string) bool {
	gl.mu.Lock()
	defer gl.mu.Unlock()
	if _, ok := gl.loaded[name]; ok {
		return true
	}
	if _, ok := gl.failed[name]; ok {
		return false
	}
	return gl.findLibrary(name) != ""
}

// Load returns the language for a grammar name, dlopening the shared
// library on first use.
func (gl *GrammarLoader) Load(name string) (*sitter.Language, error) {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if lang, ok := gl.loaded[name]; ok {
		return lang, nil
	}
	if _, ok := gl.failed[name]; ok {
		return nil, fmt.Errorf("grammar %q unavailable", name)
	}

	lang, handle, err := gl.open(name)
	if err != nil {
		gl.failed[name] = struct{}{}
		common.Logger().Warn("grammar unavailable, language disabled for this run",
			"grammar", name, "error", err)
		return nil, err
	}
	gl.loaded[name] = lang
	gl.handles[name] = handle
	return lang, nil
}

func (gl *GrammarLoader) open(name string) (*sitter.Language, uintptr, error) {
	libPath := gl.findLibrary(name)
	if libPath == "" {
		return nil, 0, fmt.Errorf("%s not found in grammar directories", grammarLibName(name))
	}

	handle, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, 0, fmt.Errorf("dlopen %s: %w", libPath, err)
	}

	// RegisterLibFunc panics on a missing symbol, so probe first.
	if _, err := purego.Dlsym(handle, "tree_sitter_"+name); err != nil {
		purego.Dlclose(handle)
		return nil, 0, fmt.Errorf("dlsym tree_sitter_%s: %w", name, err)
	}
	var langFunc func() unsafe.Pointer
	purego.RegisterLibFunc(&langFunc, handle, "tree_sitter_"+name)

	ptr := langFunc()
	if ptr == nil {
		purego.Dlclose(handle)
		return nil, 0, fmt.Errorf("tree_sitter_%s returned null", name)
	}
	return sitter.NewLanguage(ptr), handle, nil
}

// Close releases every dlopened grammar handle.
func (gl *GrammarLoader) Close() error {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	var lastErr error
	for name, handle := range gl.handles {
		if handle != 0 {
			if err := purego.Dlclose(handle); err != nil {
				lastErr = err
			}
		}
		delete(gl.handles, name)
		delete(gl.loaded, name)
	}
	return lastErr
}
