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

package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/testutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

type TStateInvocation struct {
	conn                    db.Connection
	err                     error
	isCommitting            bool
	expectContinued         bool
	expectRouterInvalidated bool
	expectLastErrType       any
}

func TestState(outer *testing.T) {
	var (
		baseTime      = time.Now()
		maxRetryTime  = 30 * time.Second
		overflowTime  = baseTime.Add(maxRetryTime).Add(1 * time.Second)
		dbName        = "thedb"
		serverName    = "a.server:7687"
		transientErr  = &db.ServerError{Code: "Vendor.TransientError.Some.Busy", Msg: "Busy"}
		terminatedErr = &db.ServerError{Code: "Vendor.TransientError.Transaction.Terminated", Msg: "T"}
		clusterErr    = &db.ServerError{Code: "Vendor.ClientError.Cluster.NotALeader", Msg: "NotALeader"}
		clientErr     = &db.ServerError{Code: "Vendor.ClientError.Statement.SyntaxError", Msg: "Syntax"}
		connectivity  = &errorutil.ConnectivityError{Inner: errors.New("no route")}
		plainErr      = errors.New("sorry")
	)

	testCases := map[string]struct {
		invocations []TStateInvocation
		overflow    bool
	}{
		"Retryable transient errors are continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: transientErr, expectContinued: true},
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: transientErr, expectContinued: true},
			},
		},
		"Terminated transaction is not continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: terminatedErr, expectContinued: false},
			},
		},
		"Client errors are not continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: clientErr, expectContinued: false},
			},
		},
		"Arbitrary work function errors are not continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: plainErr, expectContinued: false},
			},
		},
		"Cluster error invalidates the routing table and continues": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: clusterErr,
					expectContinued: true, expectRouterInvalidated: true},
			},
		},
		"Failure to acquire a connection is continued when retryable": {
			invocations: []TStateInvocation{
				{conn: nil, err: connectivity, expectContinued: true},
			},
		},
		"Dead connection is continued without delay": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: false}, err: plainErr, expectContinued: true},
			},
		},
		"Dead connection during commit is never continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: false}, err: plainErr, isCommitting: true,
					expectContinued: false, expectLastErrType: &errorutil.CommitFailedDeadError{}},
			},
		},
		"Retry time budget overflow is not continued": {
			invocations: []TStateInvocation{
				{conn: &testutil.ConnFake{Name: serverName, Alive: true}, err: transientErr, expectContinued: false},
			},
			overflow: true,
		},
	}

	for name, testCase := range testCases {
		outer.Run(name, func(t *testing.T) {
			now := baseTime
			router := &testutil.RouterFake{}
			state := State{
				MaxTransactionRetryTime: maxRetryTime,
				Log:                     log.Void{},
				LogName:                 log.Session,
				LogId:                   "1",
				Now:                     func() time.Time { return now },
				Sleep:                   func(time.Duration) {},
				Throttle:                Throttler(1 * time.Millisecond),
				MaxDeadConnections:      2,
				Router:                  router,
				DatabaseName:            dbName,
			}

			// The first call of Continue always succeeds.
			testutil.AssertTrue(t, state.Continue())

			for _, invocation := range testCase.invocations {
				if testCase.overflow {
					now = overflowTime
				}
				state.OnFailure(invocation.conn, invocation.err, invocation.isCommitting)
				continued := state.Continue()
				if continued != invocation.expectContinued {
					t.Errorf("Expected continued to be %t", invocation.expectContinued)
				}
				if router.Invalidated != invocation.expectRouterInvalidated {
					t.Errorf("Expected router invalidated to be %t", invocation.expectRouterInvalidated)
				}
				if invocation.expectRouterInvalidated {
					testutil.AssertStringEqual(t, router.InvalidatedDb, dbName)
				}
				if invocation.expectLastErrType != nil {
					testutil.AssertSameType(t, state.ProduceError(), invocation.expectLastErrType)
				}
			}
		})
	}
}

func TestStateProducesLastError(t *testing.T) {
	first := &db.ServerError{Code: "Vendor.TransientError.Some.Busy", Msg: "Busy"}
	last := &db.ServerError{Code: "Vendor.ClientError.Statement.SyntaxError", Msg: "Syntax"}
	state := State{
		MaxTransactionRetryTime: time.Second,
		Log:                     log.Void{},
		Now:                     time.Now,
		Sleep:                   func(time.Duration) {},
		Throttle:                Throttler(1 * time.Millisecond),
		Router:                  &testutil.RouterFake{},
	}
	state.OnFailure(&testutil.ConnFake{Alive: true}, first, false)
	state.Continue()
	state.OnFailure(&testutil.ConnFake{Alive: true}, last, false)
	state.Continue()

	// The error handed to the caller is the underlying failure itself, not
	// a wrapper around the whole attempt history.
	if state.ProduceError() != error(last) {
		t.Errorf("Expected the last error unchanged, got %v", state.ProduceError())
	}
}

func TestStateDeadConnectionBudget(t *testing.T) {
	state := State{
		MaxTransactionRetryTime: time.Hour,
		Log:                     log.Void{},
		Now:                     time.Now,
		Sleep:                   func(time.Duration) {},
		Throttle:                Throttler(1 * time.Millisecond),
		MaxDeadConnections:      1,
		Router:                  &testutil.RouterFake{},
	}
	err := errors.New("lost")

	state.OnFailure(&testutil.ConnFake{Alive: false}, err, false)
	testutil.AssertTrue(t, state.Continue())
	state.OnFailure(&testutil.ConnFake{Alive: false}, err, false)
	testutil.AssertFalse(t, state.Continue())
}
