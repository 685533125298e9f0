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

const consumedResultError = "result consumed"

// Result is a lazy cursor over the stream of records produced by one
// statement. It is fetched from the server as the application iterates.
// Not safe for concurrent use.
type Result interface {
	// Keys returns the keys available on the result set.
	Keys() ([]string, error)
	// Next advances the result to the next record, returning true when there
	// is one. When it returns false, check Err to distinguish the normal end
	// of the stream from a failure.
	Next(ctx context.Context) bool
	// NextRecord advances like Next and stores the new current record in the
	// provided pointer, nil when the stream is done.
	NextRecord(ctx context.Context, record **Record) bool
	// PeekRecord returns the next record without moving the cursor, true when
	// there is one.
	PeekRecord(ctx context.Context, record **Record) bool
	// Record returns the current record.
	Record() *Record
	// Err returns the latest error that caused this Result to become invalid.
	Err() error
	// Collect fetches all remaining records and returns them.
	Collect(ctx context.Context) ([]*Record, error)
	// Single returns the only record left in the stream, failing when the
	// stream holds zero or more than one.
	Single(ctx context.Context) (*Record, error)
	// Consume discards all remaining records and returns the summary. The
	// result can not be used afterwards.
	Consume(ctx context.Context) (ResultSummary, error)
	// IsOpen reports whether the result can still serve records.
	IsOpen() bool
	// Closed reports whether the result is done serving records, either
	// because it was consumed or because its transaction completed. Unlike
	// the reading functions it never turns the question into an error.
	Closed() bool
}

type resultWithContext struct {
	conn                 db.Connection
	streamHandle         db.StreamHandle
	record               *Record
	peeked               *Record
	summary              *db.Summary
	err                  error
	consumed             bool
	hookFired            bool
	afterConsumptionHook func()
}

func newResultWithContext(conn db.Connection, streamHandle db.StreamHandle, afterConsumptionHook func()) *resultWithContext {
	return &resultWithContext{
		conn:                 conn,
		streamHandle:         streamHandle,
		afterConsumptionHook: afterConsumptionHook,
	}
}

func (r *resultWithContext) Keys() ([]string, error) {
	return r.conn.Keys(r.streamHandle)
}

func (r *resultWithContext) Next(ctx context.Context) bool {
	if r.consumed {
		r.record = nil
		r.err = &UsageError{Message: consumedResultError}
		return false
	}
	if r.peeked != nil {
		r.record = r.peeked
		r.peeked = nil
		return true
	}
	r.advance(ctx)
	return r.record != nil
}

func (r *resultWithContext) NextRecord(ctx context.Context, record **Record) bool {
	hasNext := r.Next(ctx)
	if record != nil {
		*record = r.record
	}
	return hasNext
}

func (r *resultWithContext) PeekRecord(ctx context.Context, record **Record) bool {
	if r.consumed {
		r.err = &UsageError{Message: consumedResultError}
		return false
	}
	if r.peeked == nil && r.summary == nil && r.err == nil {
		current := r.record
		r.advance(ctx)
		r.peeked = r.record
		r.record = current
	}
	if record != nil {
		*record = r.peeked
	}
	return r.peeked != nil
}

func (r *resultWithContext) advance(ctx context.Context) {
	if r.summary != nil || r.err != nil {
		r.record = nil
		return
	}
	var sum *db.Summary
	r.record, sum, r.err = r.conn.Next(ctx, r.streamHandle)
	r.err = errorutil.WrapError(r.err)
	if sum != nil {
		r.summary = sum
		r.streamCompleted()
	}
}

func (r *resultWithContext) Record() *Record {
	return r.record
}

func (r *resultWithContext) Err() error {
	return r.err
}

func (r *resultWithContext) Collect(ctx context.Context) ([]*Record, error) {
	records := make([]*Record, 0, 1024)
	for r.Next(ctx) {
		records = append(records, r.record)
	}
	if r.err != nil {
		return nil, r.err
	}
	return records, nil
}

func (r *resultWithContext) Single(ctx context.Context) (*Record, error) {
	if !r.Next(ctx) {
		if r.err != nil {
			return nil, r.err
		}
		return nil, &UsageError{Message: "Result contains no more records"}
	}
	single := r.record
	if r.Next(ctx) {
		r.record = nil
		return nil, &UsageError{Message: "Result contains more than one record"}
	}
	if r.err != nil {
		return nil, r.err
	}
	return single, nil
}

func (r *resultWithContext) Consume(ctx context.Context) (ResultSummary, error) {
	if r.consumed {
		if r.summary != nil {
			return &resultSummary{sum: r.summary}, nil
		}
		return nil, &UsageError{Message: consumedResultError}
	}
	r.record = nil
	r.peeked = nil
	sum, err := r.conn.Consume(ctx, r.streamHandle)
	if err != nil {
		r.err = errorutil.WrapError(err)
		r.consumed = true
		return nil, r.err
	}
	r.summary = sum
	r.streamCompleted()
	r.consumed = true
	return &resultSummary{sum: sum}, nil
}

func (r *resultWithContext) IsOpen() bool {
	return !r.consumed
}

func (r *resultWithContext) Closed() bool {
	return r.consumed
}

// buffer pulls the rest of the stream into client memory, the result stays
// iterable without its connection.
func (r *resultWithContext) buffer(ctx context.Context) {
	if err := r.conn.Buffer(ctx, r.streamHandle); err != nil && r.err == nil {
		r.err = errorutil.WrapError(err)
	}
}

// markConsumed shuts the result down for further reading, used when the
// owning transaction completes.
func (r *resultWithContext) markConsumed() {
	r.consumed = true
	r.record = nil
	r.peeked = nil
}

func (r *resultWithContext) streamCompleted() {
	if r.hookFired || r.afterConsumptionHook == nil {
		return
	}
	r.hookFired = true
	r.afterConsumptionHook()
}
