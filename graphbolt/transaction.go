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

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
)

// ManagedTransaction is the view of a transaction given to the transaction
// functions passed to Session.ExecuteRead and ExecuteWrite. The driver owns
// the transaction lifecycle, which is why commit and rollback are absent:
// the work function reports its outcome through its return values instead
// of driving the transaction itself.
type ManagedTransaction interface {
	// Run executes a statement on this transaction and returns a result.
	Run(ctx context.Context, query string, params map[string]any) (Result, error)
}

// ExplicitTransaction is a transaction whose lifetime the application
// controls.
type ExplicitTransaction interface {
	// Run executes a statement on this transaction and returns a result.
	Run(ctx context.Context, query string, params map[string]any) (Result, error)
	// Commit commits the transaction.
	Commit(ctx context.Context) error
	// Rollback rolls back the transaction.
	Rollback(ctx context.Context) error
	// Close rolls back the transaction unless it has already been committed
	// or rolled back.
	Close(ctx context.Context) error
}

// explicitTransaction keeps hold of a connection for its whole lifetime.
// Once completed, every result it handed out stops serving records.
type explicitTransaction struct {
	conn      db.Connection
	fetchSize int
	txHandle  db.TxHandle
	done      bool
	err       error
	results   []*resultWithContext
	onClosed  func(tx *explicitTransaction)
}

func (tx *explicitTransaction) Run(ctx context.Context, query string, params map[string]any) (Result, error) {
	if tx.done {
		return nil, &UsageError{Message: "Cannot run statement on a completed transaction"}
	}
	stream, err := tx.conn.RunTx(ctx, tx.txHandle, db.Command{
		Query:     query,
		Params:    params,
		FetchSize: tx.fetchSize,
	})
	if err != nil {
		return nil, errorutil.WrapError(err)
	}
	res := newResultWithContext(tx.conn, stream, nil)
	tx.results = append(tx.results, res)
	return res, nil
}

func (tx *explicitTransaction) Commit(ctx context.Context) error {
	if tx.done {
		return &UsageError{Message: "Cannot commit a completed transaction"}
	}
	tx.err = errorutil.WrapError(tx.conn.TxCommit(ctx, tx.txHandle))
	tx.finish()
	return tx.err
}

func (tx *explicitTransaction) Rollback(ctx context.Context) error {
	if tx.done {
		return &UsageError{Message: "Cannot rollback a completed transaction"}
	}
	if !tx.conn.IsAlive() || tx.conn.HasFailed() {
		// The server already rolled the transaction back.
		tx.err = nil
	} else {
		tx.err = errorutil.WrapError(tx.conn.TxRollback(ctx, tx.txHandle))
	}
	tx.finish()
	return tx.err
}

func (tx *explicitTransaction) Close(ctx context.Context) error {
	if tx.done {
		return nil
	}
	return tx.Rollback(ctx)
}

func (tx *explicitTransaction) finish() {
	tx.done = true
	for _, res := range tx.results {
		res.markConsumed()
	}
	if tx.onClosed != nil {
		tx.onClosed(tx)
	}
}

// managedTransaction implements the restricted transaction interface handed
// to transaction functions.
type managedTransaction struct {
	conn      db.Connection
	fetchSize int
	txHandle  db.TxHandle
}

func (tx *managedTransaction) Run(ctx context.Context, query string, params map[string]any) (Result, error) {
	stream, err := tx.conn.RunTx(ctx, tx.txHandle, db.Command{
		Query:     query,
		Params:    params,
		FetchSize: tx.fetchSize,
	})
	if err != nil {
		return nil, errorutil.WrapError(err)
	}
	return newResultWithContext(tx.conn, stream, nil), nil
}

// autocommitTransaction wraps the result of Session.Run. The transaction
// commits when its stream ends, so completing the result is what completes
// the transaction.
type autocommitTransaction struct {
	conn     db.Connection
	res      *resultWithContext
	closed   bool
	onClosed func()
}

// done buffers the remaining records client-side and releases the
// connection. The result stays readable.
func (tx *autocommitTransaction) done(ctx context.Context) {
	if tx.closed {
		return
	}
	tx.res.buffer(ctx)
	tx.closed = true
	tx.onClosed()
}

// discard throws away the remaining records and releases the connection.
func (tx *autocommitTransaction) discard(ctx context.Context) {
	if tx.closed {
		return
	}
	if tx.res.err != nil || tx.res.summary != nil {
		tx.closed = true
		tx.onClosed()
		return
	}
	_, _ = tx.res.Consume(ctx)
	// Receiving the summary completes the transaction through the stream
	// hook, the connection must not be released a second time.
	if tx.closed {
		return
	}
	tx.closed = true
	tx.onClosed()
}
