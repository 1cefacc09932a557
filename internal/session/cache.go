package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/utils"
)

// BranchCache remembers the last source and target branch names of a repository.
// A disabled cache never reads or writes the disk.
type BranchCache struct {
	mu      sync.Mutex
	path    string
	enabled bool
	data    branchCacheData
}

type branchCacheData struct {
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
}

// LoadBranchCache reads <stateDir>/<repoKey>/branch-cache.json. A missing or
// corrupt file yields an empty cache.
func LoadBranchCache(stateDir, repoKey string, enabled bool) *BranchCache {
	c := &BranchCache{
		path:    filepath.Join(stateDir, repoKey, models.BranchCacheFilename),
		enabled: enabled && stateDir != "",
	}
	if !c.enabled {
		return c
	}

	// #nosec G304 -- path is built from the configured state directory and a constant filename
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("branch cache: read %s: %v", c.path, err)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.data); err != nil {
		log.Printf("branch cache: ignoring corrupt %s: %v", c.path, err)
		c.data = branchCacheData{}
	}
	return c
}

// Enabled reports whether the cache persists anything.
func (c *BranchCache) Enabled() bool {
	return c.enabled
}

// Path returns the backing file.
func (c *BranchCache) Path() string {
	return c.path
}

// Source returns the cached source branch name.
func (c *BranchCache) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.SourceBranch
}

// Target returns the cached target branch name.
func (c *BranchCache) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.TargetBranch
}

// SetSource records and persists the source branch.
func (c *BranchCache) SetSource(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.SourceBranch = name
	return c.saveLocked()
}

// SetTarget records and persists the target branch.
func (c *BranchCache) SetTarget(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.TargetBranch = name
	return c.saveLocked()
}

func (c *BranchCache) saveLocked() error {
	if !c.enabled {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), utils.DefaultDirPerms); err != nil {
		return err
	}
	data, err := json.Marshal(c.data)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, utils.DefaultFilePerms)
}
