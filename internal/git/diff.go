package git

import (
	"context"

	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
)

// Diff assembles the changed-file set of target..source. Items come out in the
// order their paths are first seen in the commit list; callers sort.
func (s *Service) Diff(ctx context.Context, source, target models.Branch) []models.DiffItem {
	commits := s.DiffCommits(ctx, target.Name, source.Name)

	var paths []string
	byPath := make(map[string][]models.Commit)
	for _, commit := range commits {
		if !commit.IsValid() {
			continue
		}
		for _, f := range commit.Files {
			if _, ok := byPath[f.Path]; !ok {
				paths = append(paths, f.Path)
			}
			byPath[f.Path] = append(byPath[f.Path], commit)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	statuses := s.Statuses(ctx, source.Name, target.Name)
	lastTarget := s.LastCommitForFiles(ctx, paths, target.Name)

	items := make([]models.DiffItem, 0, len(paths))
	for _, path := range paths {
		status, ok := statuses[path]
		if !ok {
			log.Errorf("Failed to get status for file %s in %s..%s", path, target.Name, source.Name)
			status = models.StatusNone
		}
		items = append(items, models.DiffItem{
			Path:             path,
			Status:           status,
			Asset:            s.cfg.IsAsset(path),
			LastTargetCommit: lastTarget[path],
			Commits:          byPath[path],
		})
	}
	return items
}
