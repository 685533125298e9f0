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

package router

import (
	"context"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	ipool "github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/pool"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

// readTable tries to fetch a routing table for the database from the given
// routers in order. Failure to reach or query one router is no reason to
// give up, only when all of them failed is the service unavailable.
func readTable(
	ctx context.Context,
	pool Pool,
	database string,
	routers []string,
	routerContext map[string]string,
	bookmarks []string,
	logger log.Logger,
	logId string,
) (*db.RoutingTable, error) {
	var errs []error

	for _, router := range routers {
		table, err := readTableFromRouter(ctx, pool, database, router, routerContext, bookmarks)
		if err == nil {
			logger.Debugf(log.Router, logId, "Read routing table from %s: %+v", router, table)
			return table, nil
		}
		if ctx.Err() != nil {
			return nil, wrapError(router, ctx.Err())
		}
		logger.Warnf(log.Router, logId, "Failed to read routing table from %s: %s", router, err)
		errs = append(errs, wrapError(router, err))
	}

	if len(routers) == 0 {
		return nil, &errorutil.ReadRoutingTableError{}
	}
	return nil, errorutil.CombineAllErrors(errs...)
}

func readTableFromRouter(
	ctx context.Context,
	pool Pool,
	database string,
	router string,
	routerContext map[string]string,
	bookmarks []string,
) (*db.RoutingTable, error) {
	conn, err := pool.Borrow(ctx, []string{router}, true, ipool.DefaultLivenessCheckThreshold)
	if err != nil {
		return nil, err
	}
	defer pool.Return(ctx, conn)
	return conn.GetRoutingTable(ctx, routerContext, bookmarks, database)
}

func wrapError(server string, err error) error {
	// Authentication problems are fatal for the whole driver, not just for
	// this router, surface them as is.
	if serverErr, ok := err.(*db.ServerError); ok && serverErr.IsAuthentication() {
		return serverErr
	}
	return &errorutil.ReadRoutingTableError{Server: server, Err: err}
}
