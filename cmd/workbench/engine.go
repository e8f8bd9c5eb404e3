package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/llm"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

// engine bundles the collaborators the subcommands wire together: store,
// symbol indexer, and the pipeline manager.
type engine struct {
	store    *store.Store
	loader   *symbols.GrammarLoader
	indexer  *symbols.Indexer
	pipeline *pipeline.Manager
}

// openStore loads the layered store configuration and opens the database.
// The --store flag wins over STORE_PATH and the config file.
func openStore() (*store.Store, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}
	cfg = cfg.Merge(store.Config{Path: flagStore})
	st, err := store.OpenWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// openEngine builds the full stack. Close releases the store and any
// dlopened grammars.
func openEngine() (*engine, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	provider := llm.NewProvider()
	common.Logger().Info("workbench: transform provider ready", "provider", provider.Name())

	var extra []string
	if dir := strings.TrimSpace(flagGrammarDir); dir != "" {
		extra = append(extra, dir)
	}
	loader := symbols.NewGrammarLoader(extra...)
	indexer, err := symbols.NewIndexer(loader, nil)
	if err != nil {
		_ = loader.Close()
		_ = st.Close()
		return nil, fmt.Errorf("symbol indexer: %w", err)
	}

	return &engine{
		store:    st,
		loader:   loader,
		indexer:  indexer,
		pipeline: pipeline.NewManager(st, provider, indexer, dataDir()),
	}, nil
}

func (e *engine) Close() {
	if e.loader != nil {
		_ = e.loader.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// dataDir resolves the engine data directory, honoring WORKBENCH_DATA_DIR.
// The pipeline keeps run history and scratch space here; the default store
// path lives under it as well.
func dataDir() string {
	if dir := strings.TrimSpace(os.Getenv("WORKBENCH_DATA_DIR")); dir != "" {
		if expanded, err := homedir.Expand(dir); err == nil {
			return expanded
		}
		return dir
	}
	home, err := homedir.Dir()
	if err != nil {
		return ".nai-workbench"
	}
	return filepath.Join(home, ".nai-workbench")
}

// envOr returns the trimmed environment value, or fallback when unset. Flag
// values win over env; the root command loads .env before any RunE reads
// these.
func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
