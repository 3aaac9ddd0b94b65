package semantic

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/treesitter-ls/injection"
)

// CollectDocumentParallel is the work-stealing substitute for
// CollectDocument: top-level injection regions are processed
// concurrently via an errgroup-bounded worker pool (Go's closest
// equivalent to a thread-local work-stealing pool — each goroutine
// acquires its own parser from the pool rather than sharing one),
// while nested injections inside a given top-level region are still
// processed sequentially on whichever goroutine is handling that
// region, exactly as the sequential path does. Results are merged and
// returned unsorted; Finalize performs the global sort.
func CollectDocumentParallel(ctx context.Context, cc CollectContext, regions []injection.Region) []RawToken {
	hostTokens := Collect(cc.HostGrammar.Highlights, cc.HostRoot, cc.HostText, cc.HostIndex, 0, cc.Mapper(cc.HostLanguageID), cc.MultilineSupport, 0)

	top := topLevel(regions)
	if len(top) == 0 {
		return hostTokens
	}

	var mu sync.Mutex
	merged := append([]RawToken{}, hostTokens...)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workerLimit(len(top)))

	for _, region := range top {
		region := region
		group.Go(func() error {
			tokens := collectRegionRecursive(gctx, cc, region, regions, 1)
			mu.Lock()
			merged = append(merged, tokens...)
			mu.Unlock()
			return nil
		})
	}

	// Errors are impossible here — collectRegionRecursive never returns
	// one — but Wait also blocks until every goroutine has merged its
	// tokens, which is the only thing this call site actually needs.
	_ = group.Wait()

	return merged
}

func workerLimit(n int) int {
	const maxWorkers = 8
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
