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

package testutil

import "context"

// RouterFake is a scriptable stand-in for the cluster router.
type RouterFake struct {
	Readers            []string
	ReadersErr         error
	ReadersHook        func(bookmarks []string, database string) ([]string, error)
	Writers            []string
	WritersErr         error
	WritersHook        func(bookmarks []string, database string) ([]string, error)
	Invalidated        bool
	InvalidatedDb      string
	InvalidateCalls    int
	CleanUpCalls       int
	InvalidatedServers []string
}

func (r *RouterFake) GetOrUpdateReaders(_ context.Context, bookmarks []string, database string) ([]string, error) {
	if r.ReadersHook != nil {
		return r.ReadersHook(bookmarks, database)
	}
	return r.Readers, r.ReadersErr
}

func (r *RouterFake) GetOrUpdateWriters(_ context.Context, bookmarks []string, database string) ([]string, error) {
	if r.WritersHook != nil {
		return r.WritersHook(bookmarks, database)
	}
	return r.Writers, r.WritersErr
}

func (r *RouterFake) Invalidate(database string) {
	r.Invalidated = true
	r.InvalidatedDb = database
	r.InvalidateCalls++
}

func (r *RouterFake) InvalidateServer(server string) {
	r.InvalidatedServers = append(r.InvalidatedServers, server)
}

func (r *RouterFake) CleanUp() {
	r.CleanUpCalls++
}
