// Package picker chooses the source and target branches of a diff and opens
// the session for the pair.
package picker

import (
	"context"
	"errors"
	"fmt"

	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
	"github.com/chmouel/lazydiff/internal/session"
	"github.com/chmouel/lazydiff/internal/tab"
)

// Gateway lists the branches of the repository.
type Gateway interface {
	Branches(ctx context.Context) []models.Branch
	CurrentBranch(ctx context.Context) models.Branch
}

// TabFactory builds the controller of a new session.
type TabFactory func(id string, source, target models.Branch) (*tab.Controller, error)

// ErrIncomplete is returned by Open when source or target is missing.
var ErrIncomplete = errors.New("pick a source and a target branch first")

// Controller is the revision picker state.
type Controller struct {
	gateway  Gateway
	cache    *session.BranchCache
	sessions *session.Manager[*tab.Controller]
	factory  TabFactory

	branches []models.Branch
	source   models.Branch
	target   models.Branch
}

// New returns a picker. cache may be nil.
func New(gateway Gateway, cache *session.BranchCache, sessions *session.Manager[*tab.Controller], factory TabFactory) *Controller {
	return &Controller{gateway: gateway, cache: cache, sessions: sessions, factory: factory}
}

// SetCache attaches the branch cache once the repository is known.
func (c *Controller) SetCache(cache *session.BranchCache) {
	c.cache = cache
}

// Load reads the branch list and restores the cached pair. Without a cached
// source the checked-out branch is picked.
func (c *Controller) Load(ctx context.Context) {
	c.SetBranches(c.gateway.Branches(ctx))
	c.RestoreCached()
	c.DefaultSource(c.gateway.CurrentBranch(ctx))
}

// Refresh reloads the branch list.
func (c *Controller) Refresh(ctx context.Context) {
	c.SetBranches(c.gateway.Branches(ctx))
}

// SetBranches replaces the branch list, keeping the picked branches that
// still exist with their new revisions.
func (c *Controller) SetBranches(branches []models.Branch) {
	c.branches = branches
	c.source = c.refreshed(c.source)
	c.target = c.refreshed(c.target)
}

// RestoreCached picks the cached branch names. Names missing from the branch
// list are ignored.
func (c *Controller) RestoreCached() {
	if c.cache == nil || !c.cache.Enabled() {
		return
	}
	if b, ok := c.Find(c.cache.Source()); ok {
		c.source = b
	}
	if b, ok := c.Find(c.cache.Target()); ok {
		c.target = b
	}
}

// DefaultSource picks current as the source when none is picked yet. The
// choice is not written to the cache.
func (c *Controller) DefaultSource(current models.Branch) {
	if c.source.IsValid() {
		return
	}
	if b, ok := c.Find(current.Name); ok {
		c.source = b
	}
}

func (c *Controller) refreshed(b models.Branch) models.Branch {
	if !b.IsValid() {
		return b
	}
	if found, ok := c.Find(b.Name); ok {
		return found
	}
	log.Printf("picker: branch %s disappeared", b.Name)
	return models.Branch{}
}

// Branches returns the branch list, HEAD first.
func (c *Controller) Branches() []models.Branch {
	return c.branches
}

// Find returns the branch called name.
func (c *Controller) Find(name string) (models.Branch, bool) {
	if name == "" {
		return models.Branch{}, false
	}
	for _, b := range c.branches {
		if b.Name == name {
			return b, true
		}
	}
	return models.Branch{}, false
}

// Source returns the picked source branch.
func (c *Controller) Source() models.Branch {
	return c.source
}

// Target returns the picked target branch.
func (c *Controller) Target() models.Branch {
	return c.target
}

// SetSource picks the source branch and remembers it.
func (c *Controller) SetSource(b models.Branch) error {
	c.source = b
	if c.cache == nil {
		return nil
	}
	if err := c.cache.SetSource(b.Name); err != nil {
		return fmt.Errorf("save source branch: %w", err)
	}
	return nil
}

// SetTarget picks the target branch and remembers it.
func (c *Controller) SetTarget(b models.Branch) error {
	c.target = b
	if c.cache == nil {
		return nil
	}
	if err := c.cache.SetTarget(b.Name); err != nil {
		return fmt.Errorf("save target branch: %w", err)
	}
	return nil
}

// CanOpen reports whether both branches are picked.
func (c *Controller) CanOpen() bool {
	return c.source.IsValid() && c.target.IsValid()
}

// Open returns the session for the picked pair. An open session for the same
// pair is returned when the manager reuses sessions; created tells them apart.
func (c *Controller) Open() (*session.Session[*tab.Controller], bool, error) {
	if !c.CanOpen() {
		return nil, false, ErrIncomplete
	}
	source, target := c.source, c.target
	key := session.Key{Source: source.Name, Target: target.Name}
	s, created, err := c.sessions.Open(key, func(id string) (*tab.Controller, error) {
		return c.factory(id, source, target)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Printf("picker: opened session %s for %s", s.ID, key)
	}
	return s, created, nil
}
