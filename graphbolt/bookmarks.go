/*
 * Copyright (c) "GraphBolt"
 * GraphBolt Project [https://github.com/graphbolt]
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package graphbolt

import (
	"sync"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/collections"
)

// Bookmarks is a holder for the causal chaining tokens handed out by the
// server. Treat the contents as opaque.
type Bookmarks []string

// BookmarksFromRawValues creates Bookmarks from raw server values.
func BookmarksFromRawValues(values ...string) Bookmarks {
	return values
}

// CombineBookmarks merges the given sets into one. Duplicates are kept.
func CombineBookmarks(bookmarks ...Bookmarks) Bookmarks {
	var count int
	for _, b := range bookmarks {
		count += len(b)
	}
	combined := make(Bookmarks, 0, count)
	for _, b := range bookmarks {
		combined = append(combined, b...)
	}
	return combined
}

// sessionBookmarks tracks all bookmarks a session has seen. Bookmarks
// accumulate instead of being replaced: passing the union to the server is
// never wrong, the server reduces it to the latest point in the causal
// chain, and keeping every token means no causal dependency is lost when
// transactions complete on different cluster members.
type sessionBookmarks struct {
	bookmarks collections.Set[string]
	mut       sync.Mutex
}

func newSessionBookmarks(bookmarks Bookmarks) *sessionBookmarks {
	return &sessionBookmarks{
		bookmarks: collections.NewSet(cleanupBookmarks(bookmarks)),
	}
}

func (sb *sessionBookmarks) currentBookmarks() Bookmarks {
	sb.mut.Lock()
	defer sb.mut.Unlock()
	return sb.bookmarks.Values()
}

// noteBookmark adds the bookmark received after a completed transaction
// to the set. Empty bookmarks are ignored.
func (sb *sessionBookmarks) noteBookmark(bookmark string) {
	if bookmark == "" {
		return
	}
	sb.mut.Lock()
	defer sb.mut.Unlock()
	sb.bookmarks.Add(bookmark)
}

func cleanupBookmarks(bookmarks Bookmarks) Bookmarks {
	result := make(Bookmarks, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		if bookmark != "" {
			result = append(result, bookmark)
		}
	}
	return result
}
