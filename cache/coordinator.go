// Package cache coordinates everything that must be invalidated or
// reused across an edit: the per-document injection map and its
// interval tree, the per-region and per-document semantic-token caches,
// and the request-id supersession tracker.
package cache

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/injection"
)

type injectionMap struct {
	regions  []injection.Region
	interval *injection.IntervalTree
}

// Coordinator is the single owner of cross-cutting cache/invalidation
// state; the document store owns text/tree, the coordinator owns
// everything derived from them.
type Coordinator struct {
	mu   sync.RWMutex
	maps map[string]*injectionMap

	tracker   *injection.Tracker
	Semantic  *SemanticCache
	PerRegion *InjectionCache
	Requests  *RequestTracker
	ResultIDs *ResultIDs
}

// NewCoordinator creates an empty Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		maps:      make(map[string]*injectionMap),
		tracker:   injection.NewTracker(),
		Semantic:  NewSemanticCache(),
		PerRegion: NewInjectionCache(),
		Requests:  NewRequestTracker(),
		ResultIDs: &ResultIDs{},
	}
}

// InvalidateByEdits must be called before reparsing, with the edits
// about to be applied. For each edit it purges per-region token-cache
// entries for every region whose effective range overlaps
// [StartByte, OldEndByte).
func (c *Coordinator) InvalidateByEdits(uri string, edits []tree_sitter.InputEdit) {
	c.mu.RLock()
	m, ok := c.maps[uri]
	c.mu.RUnlock()
	if !ok {
		return
	}

	for _, e := range edits {
		for _, region := range m.interval.Overlapping(e.StartByte, e.OldEndByte) {
			c.PerRegion.InvalidateRegion(uri, region.RegionID)
		}
	}

	// Any edit invalidates the document's own full-token cache; the
	// semantic pipeline always recomputes host tokens on didChange.
	c.Semantic.Invalidate(uri)
}

// PopulateAfterReparse replaces uri's region set with the freshly
// discovered regions: assigns stable RegionIDs (reusing ids whose
// (language, content_hash) key matches the previous parse), rebuilds
// the interval tree, and purges per-region cache entries for any region
// that existed before but did not survive this parse.
func (c *Coordinator) PopulateAfterReparse(uri string, regions []injection.Region) []injection.Region {
	retired := c.tracker.Assign(uri, regions)
	injection.ResolveParents(regions)

	for _, id := range retired {
		c.PerRegion.InvalidateRegion(uri, id)
	}

	c.mu.Lock()
	c.maps[uri] = &injectionMap{
		regions:  regions,
		interval: injection.NewIntervalTree(regions),
	}
	c.mu.Unlock()

	return regions
}

// Regions returns uri's current region set, if any.
func (c *Coordinator) Regions(uri string) ([]injection.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.maps[uri]
	if !ok {
		return nil, false
	}
	return m.regions, true
}

// Interval returns uri's current interval tree, if any.
func (c *Coordinator) Interval(uri string) (*injection.IntervalTree, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.maps[uri]
	if !ok {
		return nil, false
	}
	return m.interval, true
}

// Close drops every cache entry associated with uri.
func (c *Coordinator) Close(uri string) {
	c.mu.Lock()
	delete(c.maps, uri)
	c.mu.Unlock()

	c.tracker.Forget(uri)
	c.Semantic.Invalidate(uri)
	c.PerRegion.InvalidateDocument(uri)
	c.Requests.Forget(uri)
}
