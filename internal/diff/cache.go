package diff

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes a Source per file. Concurrent lookups of the same file share
// one invocation. A failed lookup is reported on the warn writer and cached as
// an empty set, so findings in that file count as unchanged.
type Cache struct {
	src  Source
	warn io.Writer

	g    singleflight.Group
	data sync.Map // file -> Set
	mu   sync.Mutex
}

func NewCache(src Source, warn io.Writer) *Cache {
	if warn == nil {
		warn = io.Discard
	}
	return &Cache{src: src, warn: warn}
}

// Get returns the changed ranges of file.
func (c *Cache) Get(ctx context.Context, file string) Set {
	if v, ok := c.data.Load(file); ok {
		return v.(Set)
	}

	v, _, _ := c.g.Do(file, func() (interface{}, error) {
		if v, ok := c.data.Load(file); ok {
			return v, nil
		}
		set, err := c.src.Ranges(ctx, file)
		if err != nil {
			c.mu.Lock()
			fmt.Fprintf(c.warn, "Error getting changed lines for %s: %v\n", file, err)
			c.mu.Unlock()
			set = Set{}
		}
		c.data.Store(file, set)
		return set, nil
	})
	return v.(Set)
}

// Prefetch fills the cache for files using at most limit concurrent lookups.
// done, if non-nil, is called once per file after its lookup finished.
func (c *Cache) Prefetch(ctx context.Context, files []string, limit int, done func(file string)) error {
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, file := range files {
		file := file
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			c.Get(gctx, file)
			if done != nil {
				done(file)
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
