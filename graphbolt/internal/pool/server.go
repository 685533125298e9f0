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

package pool

import (
	"container/list"
	"context"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
)

// Represents a server with a number of connections that either are in use
// (borrowed) or are ready for use.
// Not thread safe.
type server struct {
	idle list.List
	busy list.List
}

// getIdle returns an idle connection if any, moving it to the busy list.
func (s *server) getIdle() db.Connection {
	e := s.idle.Front()
	if e != nil {
		c := s.idle.Remove(e)
		s.busy.PushFront(c)
		return c.(db.Connection)
	}
	return nil
}

// returnBusy moves a busy connection back to the idle list.
func (s *server) returnBusy(c db.Connection) {
	s.unregisterBusy(c)
	s.idle.PushFront(c)
}

func (s *server) unregisterBusy(c db.Connection) {
	for e := s.busy.Front(); e != nil; e = e.Next() {
		x := e.Value.(db.Connection)
		if x == c {
			s.busy.Remove(e)
			return
		}
	}
}

func (s *server) registerBusy(c db.Connection) {
	s.busy.PushFront(c)
}

func (s *server) size() int {
	return s.busy.Len() + s.idle.Len()
}

func (s *server) numIdle() int {
	return s.idle.Len()
}

func (s *server) numBusy() int {
	return s.busy.Len()
}

// prune removes idle connections not accepted by keep and closes them on a
// separate goroutine to avoid a potentially long blocking close.
func (s *server) prune(ctx context.Context, keep func(c db.Connection) bool) {
	e := s.idle.Front()
	for e != nil {
		n := e.Next()
		c := e.Value.(db.Connection)
		if !keep(c) {
			s.idle.Remove(e)
			go c.Close(ctx)
		}
		e = n
	}
}

// keepAlive accepts connections that are alive and younger than maxAge.
func keepAlive(now time.Time, maxAge time.Duration) func(c db.Connection) bool {
	return func(c db.Connection) bool {
		return c.IsAlive() && now.Sub(c.Birthdate()) < maxAge
	}
}

func (s *server) closeAll(ctx context.Context) {
	closeAndEmptyConnections(ctx, &s.idle)
	// Closing the busy connections means closing connections that another
	// goroutine considers borrowed.
	closeAndEmptyConnections(ctx, &s.busy)
}

func closeAndEmptyConnections(ctx context.Context, l *list.List) {
	for e := l.Front(); e != nil; e = e.Next() {
		c := e.Value.(db.Connection)
		go c.Close(ctx)
	}
	l.Init()
}
