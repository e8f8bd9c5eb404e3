package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	historyCommits = 20
	historyDiffs   = 5
)

// History is the best-effort version-control summary for one project.
type History struct {
	Commits []string `json:"commits"`
	Changed []string `json:"changed"`
}

// collectHistory reads the last commits and the files they touched. A
// project without a git repository yields an empty history, never an error.
func collectHistory(ctx context.Context, root string) History {
	repo, err := gogit.PlainOpen(root)
	if err != nil {
		return History{}
	}
	iter, err := repo.Log(&gogit.LogOptions{})
	if err != nil {
		return History{}
	}
	defer iter.Close()

	var hist History
	changed := make(map[string]struct{})
	count := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if count >= historyCommits {
			return io.EOF
		}
		subject := commit.Message
		if idx := strings.IndexByte(subject, '\n'); idx >= 0 {
			subject = subject[:idx]
		}
		hist.Commits = append(hist.Commits, fmt.Sprintf("%s %s %s %s",
			commit.Hash.String()[:7],
			commit.Author.When.Format("2006-01-02"),
			commit.Author.Name,
			strings.TrimSpace(subject)))
		if count < historyDiffs {
			if stats, statErr := commit.Stats(); statErr == nil {
				for _, stat := range stats {
					changed[stat.Name] = struct{}{}
				}
			}
		}
		count++
		return nil
	})
	if err != nil && err != io.EOF {
		return History{}
	}
	for name := range changed {
		hist.Changed = append(hist.Changed, name)
	}
	sort.Strings(hist.Changed)
	return hist
}
