package geometry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultPrefetchLimit = 8

// ResultSet holds the outcome of prefetching a batch of references. Each
// reference resolves at most once per run.
type ResultSet struct {
	mu          sync.Mutex
	resolutions map[string]Resolution
	failures    map[string]error
}

// Resolution returns the resolution for a reference if it succeeded.
func (rs *ResultSet) Resolution(ref string) (Resolution, bool) {
	if rs == nil {
		return Resolution{}, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	res, ok := rs.resolutions[ref]
	return res, ok
}

// Failure returns the resolution error for a reference if it failed.
func (rs *ResultSet) Failure(ref string) (error, bool) {
	if rs == nil {
		return nil, false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	err, ok := rs.failures[ref]
	return err, ok
}

// FailureCount returns the number of references that failed to resolve.
func (rs *ResultSet) FailureCount() int {
	if rs == nil {
		return 0
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.failures)
}

// Prefetch resolves every distinct reference with bounded concurrency before
// the synchronous projection pass runs. Individual failures are recorded per
// reference and never abort the batch; retries belong to the resolver.
func Prefetch(ctx context.Context, resolver Resolver, refs []string, limit int) (*ResultSet, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if limit <= 0 {
		limit = defaultPrefetchLimit
	}

	distinct := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		distinct = append(distinct, ref)
	}
	sort.Strings(distinct)

	set := &ResultSet{
		resolutions: make(map[string]Resolution, len(distinct)),
		failures:    make(map[string]error),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, ref := range distinct {
		ref := ref
		group.Go(func() error {
			res, err := resolver.Resolve(groupCtx, ref)
			set.mu.Lock()
			defer set.mu.Unlock()
			if err != nil {
				set.failures[ref] = err
				return nil
			}
			set.resolutions[ref] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}
