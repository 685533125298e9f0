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
	"context"
	"sort"
	"testing"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/testutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

func newTestSession(sessConfig SessionConfig, router *testutil.RouterFake, pool *testutil.PoolFake) *sessionWithContext {
	config := defaultConfig()
	s := newSessionWithContext(config, sessConfig, router, pool, log.Void{})
	s.sleep = func(time.Duration) {}
	return s
}

func singleServerRouter() *testutil.RouterFake {
	return &testutil.RouterFake{
		Readers: []string{"reader1:7687"},
		Writers: []string{"writer1:7687"},
	}
}

func TestExecuteWriteRetriesUntilSuccess(t *testing.T) {
	ctx := context.Background()
	transientErr := &db.ServerError{Code: "Vendor.TransientError.Some.Busy", Msg: "Busy"}
	var conns []*testutil.ConnFake
	pool := &testutil.PoolFake{BorrowHook: func([]string) (db.Connection, error) {
		conn := &testutil.ConnFake{Alive: true}
		conns = append(conns, conn)
		return conn, nil
	}}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	attempts := 0
	x, err := s.ExecuteWrite(ctx, func(tx ManagedTransaction) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, transientErr
		}
		return 42, nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertIntEqual(t, x.(int), 42)
	testutil.AssertIntEqual(t, attempts, 3)
	// Every borrowed connection went back to the pool.
	testutil.AssertLen(t, pool.Returned, 3)
	// Each failed attempt was rolled back, the successful one was not.
	testutil.AssertLen(t, conns, 3)
	testutil.AssertIntEqual(t, conns[0].RollbackCalls, 1)
	testutil.AssertIntEqual(t, conns[1].RollbackCalls, 1)
	testutil.AssertIntEqual(t, conns[2].RollbackCalls, 0)
}

func TestExecuteWriteNonRetryableFailsOnce(t *testing.T) {
	ctx := context.Background()
	clientErr := &db.ServerError{Code: "Vendor.ClientError.Statement.SyntaxError", Msg: "Syntax"}
	pool := &testutil.PoolFake{BorrowHook: func([]string) (db.Connection, error) {
		return &testutil.ConnFake{Alive: true}, nil
	}}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	attempts := 0
	_, err := s.ExecuteWrite(ctx, func(ManagedTransaction) (any, error) {
		attempts++
		return nil, clientErr
	})
	testutil.AssertIntEqual(t, attempts, 1)
	// The work function's own error comes back unchanged.
	if err != error(clientErr) {
		t.Errorf("Expected the original error, got %v", err)
	}
}

func TestExecuteReadRoutesToReaders(t *testing.T) {
	ctx := context.Background()
	router := singleServerRouter()
	var requested []string
	pool := &testutil.PoolFake{BorrowHook: func(servers []string) (db.Connection, error) {
		requested = servers
		return &testutil.ConnFake{Alive: true}, nil
	}}
	s := newTestSession(SessionConfig{}, router, pool)

	_, err := s.ExecuteRead(ctx, func(ManagedTransaction) (any, error) {
		return nil, nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEquals(t, requested, router.Readers)
}

func TestBookmarksAccumulate(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{Alive: true, Bookm: "bm:new"}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{Bookmarks: Bookmarks{"bm:old"}}, singleServerRouter(), pool)

	_, err := s.ExecuteWrite(ctx, func(ManagedTransaction) (any, error) {
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	// The session keeps the union of all bookmarks it has seen, the old one
	// is not replaced by the new one.
	bookmarks := s.LastBookmarks()
	sort.Strings(bookmarks)
	testutil.AssertDeepEquals(t, []string(bookmarks), []string{"bm:new", "bm:old"})
}

func TestBookmarksPassedToTransaction(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{Alive: true}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{Bookmarks: Bookmarks{"bm:1"}}, singleServerRouter(), pool)

	tx, err := s.BeginTransaction(ctx)
	testutil.AssertNoError(t, err)
	defer tx.Close(ctx)

	testutil.AssertLen(t, conn.RecordedTxs, 1)
	testutil.AssertDeepEquals(t, conn.RecordedTxs[0].Bookmarks, []string{"bm:1"})
}

func TestBeginTransactionWhilePending(t *testing.T) {
	ctx := context.Background()
	pool := &testutil.PoolFake{BorrowConn: &testutil.ConnFake{Alive: true}}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	tx, err := s.BeginTransaction(ctx)
	testutil.AssertNoError(t, err)

	_, err = s.BeginTransaction(ctx)
	testutil.AssertErrorMessageContains(t, err, "pending transaction")
	if !IsUsageError(err) {
		t.Errorf("Expected UsageError, got %v", err)
	}

	testutil.AssertNoError(t, tx.Commit(ctx))
	_, err = s.BeginTransaction(ctx)
	testutil.AssertNoError(t, err)
}

func TestExplicitTransactionReleasesConnection(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{Alive: true, Bookm: "bm:9"}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	tx, err := s.BeginTransaction(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, tx.Commit(ctx))

	testutil.AssertLen(t, pool.Returned, 1)
	testutil.AssertDeepEquals(t, []string(s.LastBookmarks()), []string{"bm:9"})
}

func TestRunAutoCommit(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{
		Alive: true,
		Bookm: "bm:3",
		Nexts: []testutil.Next{
			{Record: &db.Record{Keys: []string{"n"}, Values: []any{int64(1)}}},
			{Summary: &db.Summary{}},
		},
	}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{AccessMode: AccessModeRead}, singleServerRouter(), pool)

	res, err := s.Run(ctx, "RETURN 1", nil)
	testutil.AssertNoError(t, err)

	testutil.AssertLen(t, conn.RecordedTxs, 1)
	recorded := conn.RecordedTxs[0]
	testutil.AssertStringEqual(t, recorded.Origin, "Run")
	if recorded.Mode != db.ReadMode {
		t.Error("Expected read mode")
	}

	testutil.AssertTrue(t, res.Next(ctx))
	testutil.AssertFalse(t, res.Next(ctx))
	testutil.AssertNoError(t, res.Err())

	// The stream ended, so the connection went back and the bookmark stuck.
	testutil.AssertLen(t, pool.Returned, 1)
	testutil.AssertDeepEquals(t, []string(s.LastBookmarks()), []string{"bm:3"})
}

func TestSessionCloseDiscardsAutoCommitStream(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{
		Alive:      true,
		Bookm:      "bm:7",
		ConsumeSum: &db.Summary{},
	}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	_, err := s.Run(ctx, "RETURN 1", nil)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Close(ctx))
	// Consuming the pending stream completes the transaction on its own, the
	// connection still goes back exactly once.
	testutil.AssertLen(t, pool.Returned, 1)
	testutil.AssertDeepEquals(t, []string(s.LastBookmarks()), []string{"bm:7"})
}

func TestSessionCloseRollsBackPendingTransaction(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{Alive: true}
	pool := &testutil.PoolFake{BorrowConn: conn}
	router := singleServerRouter()
	s := newTestSession(SessionConfig{}, router, pool)

	_, err := s.BeginTransaction(ctx)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Close(ctx))
	testutil.AssertIntEqual(t, conn.RollbackCalls, 1)
	testutil.AssertLen(t, pool.Returned, 1)
	testutil.AssertIntEqual(t, pool.CleanUps, 1)
	testutil.AssertIntEqual(t, router.CleanUpCalls, 1)
}

func TestGetServerInfo(t *testing.T) {
	ctx := context.Background()
	conn := &testutil.ConnFake{
		Alive:       true,
		Name:        "reader1:7687",
		ConnVersion: db.ProtocolVersion{Major: 5, Minor: 0},
	}
	pool := &testutil.PoolFake{BorrowConn: conn}
	s := newTestSession(SessionConfig{}, singleServerRouter(), pool)

	info, err := s.getServerInfo(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertStringEqual(t, info.Address(), "reader1:7687")
	testutil.AssertIntEqual(t, info.ProtocolVersion().Major, 5)
	testutil.AssertLen(t, pool.Returned, 1)
}
