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

// Package pool handles the database connection pool.
package pool

import (
	"container/list"
	"context"
	"math"
	"sync"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

// DefaultLivenessCheckThreshold disables the liveness probe on borrow.
const DefaultLivenessCheckThreshold = time.Duration(math.MaxInt64)

// Connect establishes a connection to the named server.
type Connect func(ctx context.Context, address string) (db.Connection, error)

type qitem struct {
	servers []string
	wakeup  chan bool
	conn    db.Connection
}

// Pool is a blocking, capacity bounded pool of connections kept per server.
// Thread safe.
type Pool struct {
	maxSize    int
	maxAge     time.Duration
	connect    Connect
	servers    map[string]*server
	serversMut sync.Mutex
	queueMut   sync.Mutex
	queue      list.List
	now        func() time.Time
	closed     bool
	log        log.Logger
	logId      string
}

func New(maxSize int, maxAge time.Duration, connect Connect, logger log.Logger, logId string) *Pool {
	p := &Pool{
		maxSize: maxSize,
		maxAge:  maxAge,
		connect: connect,
		servers: make(map[string]*server),
		now:     time.Now,
		log:     logger,
		logId:   logId,
	}
	p.log.Infof(log.Pool, p.logId, "Created")
	return p
}

func (p *Pool) Close(ctx context.Context) {
	p.queueMut.Lock()
	p.closed = true
	for e := p.queue.Front(); e != nil; e = e.Next() {
		q := e.Value.(*qitem)
		q.wakeup <- true
	}
	p.queue.Init()
	p.queueMut.Unlock()

	p.serversMut.Lock()
	for n, s := range p.servers {
		if busy := s.numBusy(); busy > 0 {
			p.log.Warnf(log.Pool, p.logId, "Closing with %d borrowed connection(s) towards %s", busy, n)
		}
		s.closeAll(ctx)
		delete(p.servers, n)
	}
	p.serversMut.Unlock()
	p.log.Infof(log.Pool, p.logId, "Closed")
}

// Borrow acquires a connection to one of the given servers, preferring
// servers in the given order. If the pool is at capacity and wait is true
// the call blocks until a connection is returned or ctx expires.
func (p *Pool) Borrow(ctx context.Context, servers []string, wait bool, livenessCheckThreshold time.Duration) (db.Connection, error) {
	for {
		if p.isClosed() {
			return nil, &errorutil.PoolClosed{}
		}

		conn, err := p.tryBorrow(ctx, servers, livenessCheckThreshold)
		if conn != nil || err != nil {
			return conn, err
		}

		if !wait {
			return nil, &errorutil.PoolFull{Servers: servers}
		}

		// Wait for a matching connection to be returned.
		q := &qitem{
			servers: servers,
			wakeup:  make(chan bool, 1),
		}
		p.queueMut.Lock()
		if p.closed {
			p.queueMut.Unlock()
			return nil, &errorutil.PoolClosed{}
		}
		e := p.queue.PushBack(q)
		p.queueMut.Unlock()

		p.log.Warnf(log.Pool, p.logId, "Borrow queued")
		select {
		case <-q.wakeup:
			if q.conn != nil {
				return q.conn, nil
			}
			// Capacity freed up without a usable connection, try again.
		case <-ctx.Done():
			p.queueMut.Lock()
			p.queue.Remove(e)
			p.queueMut.Unlock()
			// The queue entry might have been served between expiry and removal.
			select {
			case <-q.wakeup:
				if q.conn != nil {
					return q.conn, nil
				}
			default:
			}
			return nil, &errorutil.PoolTimeout{Err: ctx.Err(), Servers: servers}
		}
	}
}

func (p *Pool) tryBorrow(ctx context.Context, servers []string, livenessCheckThreshold time.Duration) (db.Connection, error) {
	// Try to reuse an idle connection on any of the servers.
	for _, serverName := range servers {
		if c := p.tryExistingConnection(ctx, serverName, livenessCheckThreshold); c != nil {
			return c, nil
		}
	}

	// No reusable connection, establish a new one where capacity allows.
	var connectErr error
	for _, serverName := range servers {
		p.serversMut.Lock()
		srv := p.servers[serverName]
		if srv == nil {
			srv = &server{}
			p.servers[serverName] = srv
		}
		if srv.size() >= p.maxSize {
			p.serversMut.Unlock()
			continue
		}
		// Reserve a slot while connecting, otherwise a burst of borrowers
		// could overshoot the capacity limit.
		placeholder := &pendingConnection{}
		srv.registerBusy(placeholder)
		p.serversMut.Unlock()

		c, err := p.connect(ctx, serverName)

		p.serversMut.Lock()
		srv.unregisterBusy(placeholder)
		if err == nil {
			srv.registerBusy(c)
		}
		p.serversMut.Unlock()

		if err != nil {
			p.log.Warnf(log.Pool, p.logId, "Failed to connect to %s: %s", serverName, err)
			connectErr = err
			continue
		}
		return c, nil
	}

	return nil, connectErr
}

// tryExistingConnection pops idle connections off the named server until a
// healthy one is found. Unhealthy connections are destroyed.
func (p *Pool) tryExistingConnection(ctx context.Context, serverName string, livenessCheckThreshold time.Duration) db.Connection {
	for {
		p.serversMut.Lock()
		srv := p.servers[serverName]
		if srv == nil {
			p.serversMut.Unlock()
			return nil
		}
		c := srv.getIdle()
		p.serversMut.Unlock()
		if c == nil {
			return nil
		}

		if p.healthCheck(ctx, c, livenessCheckThreshold) {
			return c
		}
		p.unreg(ctx, serverName, c)
	}
}

func (p *Pool) healthCheck(ctx context.Context, c db.Connection, livenessCheckThreshold time.Duration) bool {
	now := p.now()
	if !c.IsAlive() || now.Sub(c.Birthdate()) >= p.maxAge {
		return false
	}
	if now.Sub(c.IdleDate()) > livenessCheckThreshold {
		// Probe the server to make sure the connection did not go stale
		// while idle.
		c.ForceReset(ctx)
		return c.IsAlive()
	}
	return true
}

// Return hands a borrowed connection back to the pool. Dead or aged out
// connections are destroyed and a queued borrower, if any, is woken up to
// use the freed capacity.
func (p *Pool) Return(ctx context.Context, c db.Connection) {
	serverName := c.ServerName()

	age := p.now().Sub(c.Birthdate())
	if !c.IsAlive() || age >= p.maxAge {
		p.log.Debugf(log.Pool, p.logId, "Connection to %s dropped (alive:%t, age:%s)", serverName, c.IsAlive(), age)
		p.unreg(ctx, serverName, c)
		p.wakeup(serverName, nil)
		return
	}

	// Clear any remaining state before the connection is handed to someone
	// else.
	c.Reset(ctx)
	if !c.IsAlive() {
		p.unreg(ctx, serverName, c)
		p.wakeup(serverName, nil)
		return
	}

	if p.wakeup(serverName, c) {
		return
	}

	closed := p.isClosed()
	p.serversMut.Lock()
	defer p.serversMut.Unlock()
	srv := p.servers[serverName]
	if srv == nil || closed {
		// Pool closed while the connection was borrowed.
		go c.Close(ctx)
		return
	}
	srv.returnBusy(c)
}

// wakeup serves the first queued borrower waiting for the given server.
// A nil connection wakes the borrower to retry on the freed capacity.
func (p *Pool) wakeup(serverName string, c db.Connection) bool {
	p.queueMut.Lock()
	defer p.queueMut.Unlock()
	for e := p.queue.Front(); e != nil; e = e.Next() {
		q := e.Value.(*qitem)
		for _, s := range q.servers {
			if s == serverName {
				q.conn = c
				p.queue.Remove(e)
				q.wakeup <- true
				return c != nil
			}
		}
	}
	return false
}

func (p *Pool) unreg(ctx context.Context, serverName string, c db.Connection) {
	p.serversMut.Lock()
	defer p.serversMut.Unlock()
	srv := p.servers[serverName]
	if srv != nil {
		srv.unregisterBusy(c)
		if srv.size() == 0 {
			delete(p.servers, serverName)
		}
	}
	// Closing the connection might block so do it in the background.
	go c.Close(ctx)
}

// CleanUp prunes dead and aged out idle connections.
func (p *Pool) CleanUp(ctx context.Context) {
	p.serversMut.Lock()
	defer p.serversMut.Unlock()
	keep := keepAlive(p.now(), p.maxAge)
	for n, s := range p.servers {
		s.prune(ctx, keep)
		if s.size() == 0 {
			delete(p.servers, n)
		}
	}
}

func (p *Pool) isClosed() bool {
	p.queueMut.Lock()
	defer p.queueMut.Unlock()
	return p.closed
}

// pendingConnection reserves a pool slot while the real connection is being
// established. Only size accounting ever touches it.
type pendingConnection struct {
	db.Connection
}

func (pendingConnection) IsAlive() bool { return false }
