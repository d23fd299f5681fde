package loader

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"atomcss/css"
)

// DefaultCacheSize is number of selector lists kept by the shared cache.
const DefaultCacheSize = 1024

// SelectorCache memoizes parsed selector lists by their text. Callers always
// receive clones, so cached values stay intact.
type SelectorCache struct {
	lists *lru.Cache[string, []css.Selector]
}

// NewSelectorCache creates cache holding up to size selector lists.
func NewSelectorCache(size int) (*SelectorCache, error) {
	lists, err := lru.New[string, []css.Selector](size)
	if err != nil {
		return nil, err
	}
	return &SelectorCache{lists: lists}, nil
}

var sharedCache = func() *SelectorCache {
	c, err := NewSelectorCache(DefaultCacheSize)
	if err != nil {
		// only happens with non-positive size
		panic(err)
	}
	return c
}()

// Selectors parses comma separated selector list.
func (c *SelectorCache) Selectors(text string) []css.Selector {
	list, ok := c.lists.Get(text)
	if !ok {
		list = css.SplitSelectors(text)
		c.lists.Add(text, list)
	}
	out := make([]css.Selector, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}

// Len returns number of cached lists.
func (c *SelectorCache) Len() int {
	return c.lists.Len()
}
