package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cached wraps an Oracle with an LRU answer cache and singleflight
// deduplication. Oracle calls are stateless, so identical questions always
// admit the cached answer; this matters because provenance search asks the
// same pick-simplest question once per parent that resolves into the same
// ambiguity. Errors are never cached.
type Cached struct {
	inner Oracle
	cache *lru.Cache[string, any]
	group singleflight.Group
}

// NewCached wraps inner with a cache of the given size.
func NewCached(inner Oracle, size int) (*Cached, error) {
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) IdentifyTarget(ctx context.Context, goal string, candidates []string) (string, error) {
	key := digest("target", goal, strings.Join(candidates, "\n"))
	v, err := c.do(key, func() (any, error) {
		return c.inner.IdentifyTarget(ctx, goal, candidates)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cached) IdentifyDynamicParts(ctx context.Context, replayForm string) ([]string, error) {
	key := digest("parts", replayForm)
	v, err := c.do(key, func() (any, error) {
		return c.inner.IdentifyDynamicParts(ctx, replayForm)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *Cached) IdentifyBoundInputs(ctx context.Context, replayForm string, candidates map[string]string) (map[string]string, error) {
	pairs := make([]string, 0, len(candidates))
	for name, value := range candidates {
		pairs = append(pairs, name+"="+value)
	}
	sort.Strings(pairs)
	key := digest(append([]string{"inputs", replayForm}, pairs...)...)
	v, err := c.do(key, func() (any, error) {
		return c.inner.IdentifyBoundInputs(ctx, replayForm, candidates)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (c *Cached) PickSimplest(ctx context.Context, replayForms []string) (int, error) {
	key := digest(append([]string{"pick"}, replayForms...)...)
	v, err := c.do(key, func() (any, error) {
		return c.inner.PickSimplest(ctx, replayForms)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// do answers from cache, collapsing concurrent identical calls.
func (c *Cached) do(key string, fn func() (any, error)) (any, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn()
		if err == nil {
			c.cache.Add(key, v)
		}
		return v, err
	})
	return v, err
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
