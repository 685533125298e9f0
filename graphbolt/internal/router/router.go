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

// Package router handles routing of commands to the appropriate member of
// a cluster, based on cached routing tables kept per database.
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

// Pool is the connection pool as the router needs it.
type Pool interface {
	Borrow(ctx context.Context, servers []string, wait bool, livenessCheckThreshold time.Duration) (db.Connection, error)
	Return(ctx context.Context, c db.Connection)
}

type databaseRouter struct {
	dueUnix int64
	table   *db.RoutingTable
	// Rotation offsets give each borrower a different starting point in the
	// reader and router lists, spreading load over the cluster.
	readerOffset uint32
	routerOffset uint32
}

// Router keeps one routing table per database and refreshes a table from
// the cluster when it has expired or been invalidated. Thread safe.
type Router struct {
	routerContext map[string]string
	pool          Pool
	dbRouters     map[string]*databaseRouter
	dbRoutersMut  sync.Mutex
	now           func() time.Time
	sleep         func(time.Duration)
	rootRouter    string
	resolver      func(address string) []string
	log           log.Logger
	logId         string
}

// Grace period before refetching a table that arrived without writers,
// giving a leader election a chance to complete.
const missingWriterRetryWait = 100 * time.Millisecond

func New(rootRouter string, resolver func(address string) []string, routerContext map[string]string, pool Pool, logger log.Logger, logId string) *Router {
	r := &Router{
		rootRouter:    rootRouter,
		resolver:      resolver,
		routerContext: routerContext,
		pool:          pool,
		dbRouters:     make(map[string]*databaseRouter),
		now:           time.Now,
		sleep:         time.Sleep,
		log:           logger,
		logId:         logId,
	}
	r.log.Infof(log.Router, r.logId, "Created with context %v", routerContext)
	return r
}

func (r *Router) readTable(ctx context.Context, dbRouter *databaseRouter, database string, bookmarks []string) (*db.RoutingTable, error) {
	// Try the routers of the last known table first, the root router is the
	// fallback when the whole known cluster has become unreachable.
	var routers []string
	if dbRouter != nil && len(dbRouter.table.Routers) > 0 {
		routers = append(routers, dbRouter.rotate(dbRouter.table.Routers, &dbRouter.routerOffset)...)
	}
	for _, address := range r.resolver(r.rootRouter) {
		if !contains(routers, address) {
			routers = append(routers, address)
		}
	}

	table, err := readTable(ctx, r.pool, database, routers, r.routerContext, bookmarks, r.log, r.logId)
	if err != nil {
		r.log.Error(log.Router, r.logId, err)
		return nil, err
	}
	return table, nil
}

func (r *Router) getOrUpdateTable(ctx context.Context, bookmarks []string, database string) (*db.RoutingTable, *databaseRouter, error) {
	r.dbRoutersMut.Lock()
	defer r.dbRoutersMut.Unlock()

	dbRouter := r.dbRouters[database]
	if dbRouter != nil && r.now().Unix() < dbRouter.dueUnix {
		return dbRouter.table, dbRouter, nil
	}

	table, err := r.readTable(ctx, dbRouter, database, bookmarks)
	if err != nil {
		return nil, nil, err
	}

	dbRouter = r.storeRoutingTable(database, table)
	return table, dbRouter, nil
}

func (r *Router) storeRoutingTable(database string, table *db.RoutingTable) *databaseRouter {
	dbRouter := &databaseRouter{
		table:   table,
		dueUnix: r.now().Add(time.Duration(table.TimeToLive) * time.Second).Unix(),
	}
	r.dbRouters[database] = dbRouter
	r.log.Debugf(log.Router, r.logId, "New routing table for '%s', TTL %d", database, table.TimeToLive)
	return dbRouter
}

// GetOrUpdateReaders returns the addresses of the servers that can serve
// reads on the database, ordered so that consecutive calls start at
// consecutive servers.
func (r *Router) GetOrUpdateReaders(ctx context.Context, bookmarks []string, database string) ([]string, error) {
	table, dbRouter, err := r.getOrUpdateTable(ctx, bookmarks, database)
	if err != nil {
		return nil, err
	}
	return dbRouter.rotate(table.Readers, &dbRouter.readerOffset), nil
}

// GetOrUpdateWriters returns the addresses of the servers that can serve
// writes on the database. An empty writer list usually means a leader
// election is in progress, so the table is refetched once before the
// condition is reported, as retryable, to the caller.
func (r *Router) GetOrUpdateWriters(ctx context.Context, bookmarks []string, database string) ([]string, error) {
	table, _, err := r.getOrUpdateTable(ctx, bookmarks, database)
	if err != nil {
		return nil, err
	}
	if len(table.Writers) == 0 {
		r.Invalidate(database)
		r.sleep(missingWriterRetryWait)
		table, _, err = r.getOrUpdateTable(ctx, bookmarks, database)
		if err != nil {
			return nil, err
		}
	}
	if len(table.Writers) == 0 {
		return nil, &errorutil.NoWritersError{Database: database}
	}
	return table.Writers, nil
}

func (r *Router) GetOrUpdateRouters(ctx context.Context, bookmarks []string, database string) ([]string, error) {
	table, dbRouter, err := r.getOrUpdateTable(ctx, bookmarks, database)
	if err != nil {
		return nil, err
	}
	return dbRouter.rotate(table.Routers, &dbRouter.routerOffset), nil
}

// Invalidate discards the cached routing table of the database so that the
// next acquisition fetches a fresh one.
func (r *Router) Invalidate(database string) {
	r.log.Infof(log.Router, r.logId, "Invalidating routing table for '%s'", database)
	r.dbRoutersMut.Lock()
	defer r.dbRoutersMut.Unlock()
	delete(r.dbRouters, database)
}

// InvalidateServer removes the server from all cached routing tables, used
// when the server turned out to be unreachable.
func (r *Router) InvalidateServer(server string) {
	r.log.Infof(log.Router, r.logId, "Invalidating server %s", server)
	r.dbRoutersMut.Lock()
	defer r.dbRoutersMut.Unlock()
	for _, dbRouter := range r.dbRouters {
		t := dbRouter.table
		t.Routers = remove(t.Routers, server)
		t.Readers = remove(t.Readers, server)
		t.Writers = remove(t.Writers, server)
	}
}

// CleanUp removes expired routing tables.
func (r *Router) CleanUp() {
	now := r.now().Unix()
	r.dbRoutersMut.Lock()
	defer r.dbRoutersMut.Unlock()
	for database, dbRouter := range r.dbRouters {
		if now > dbRouter.dueUnix {
			delete(r.dbRouters, database)
		}
	}
}

// rotate returns hosts reordered to start at the next round robin position.
func (dbRouter *databaseRouter) rotate(hosts []string, offset *uint32) []string {
	if len(hosts) < 2 {
		return hosts
	}
	i := int(atomic.AddUint32(offset, 1)-1) % len(hosts)
	rotated := make([]string, 0, len(hosts))
	rotated = append(rotated, hosts[i:]...)
	rotated = append(rotated, hosts[:i]...)
	return rotated
}

func contains(hosts []string, host string) bool {
	for _, h := range hosts {
		if h == host {
			return true
		}
	}
	return false
}

func remove(hosts []string, host string) []string {
	kept := hosts[:0]
	for _, h := range hosts {
		if h != host {
			kept = append(kept, h)
		}
	}
	return kept
}
