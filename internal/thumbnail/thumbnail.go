// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package thumbnail computes Commons thumbnail redirect URLs and keeps a
// process-wide cache of resolved URLs keyed by (item id, language).
package thumbnail

import (
	"fmt"
	"strings"
	"sync"
)

// CommonsRedirectBase is the fixed prefix for sized media renditions.
const CommonsRedirectBase = "https://commons.wikimedia.org/wiki/Special:Redirect/file/"

// DefaultWidth is the pixel width used for claim and traversal thumbnails.
const DefaultWidth = 100

// ResolveURL maps a raw picture reference (".../Special:FilePath/<filename>")
// to a redirect-style thumbnail URL at the given pixel width. The filename's
// casing and percent-encoding pass through untouched.
func ResolveURL(picture string, width int) string {
	filename := picture[strings.LastIndex(picture, "/")+1:]
	return fmt.Sprintf("%s%s?width=%dpx", CommonsRedirectBase, filename, width)
}

// Cache stores resolved thumbnail URLs keyed by (item id, language).
// Writes happen on every aggregation pass; last writer wins, and identical
// resolutions always produce the same value, so overwrite races are benign.
// There is no eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]string
}

type cacheKey struct {
	itemID string
	lang   string
}

// NewCache creates an empty thumbnail cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]string)}
}

// Set records the thumbnail URL for an item in a language.
func (c *Cache) Set(itemID, lang, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{itemID: itemID, lang: lang}] = url
}

// Get returns the cached thumbnail URL for an item in a language, if any.
func (c *Cache) Get(itemID, lang string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.entries[cacheKey{itemID: itemID, lang: lang}]
	return url, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
