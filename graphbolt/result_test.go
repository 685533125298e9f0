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
	"testing"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/testutil"
)

func recordOf(value int64) testutil.Next {
	return testutil.Next{Record: &db.Record{Keys: []string{"n"}, Values: []any{value}}}
}

func summaryEnd() testutil.Next {
	return testutil.Next{Summary: &db.Summary{}}
}

func streamingConn(nexts ...testutil.Next) *testutil.ConnFake {
	return &testutil.ConnFake{
		Alive:      true,
		KeyList:    []string{"n"},
		Nexts:      nexts,
		ConsumeSum: &db.Summary{},
	}
}

func TestResultIteration(t *testing.T) {
	ctx := context.Background()
	conn := streamingConn(recordOf(1), recordOf(2), summaryEnd())
	res := newResultWithContext(conn, nil, nil)

	keys, err := res.Keys()
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEquals(t, keys, []string{"n"})

	var values []int64
	for res.Next(ctx) {
		value, ok := GetRecordValue[int64](res.Record(), "n")
		testutil.AssertTrue(t, ok)
		values = append(values, value)
	}
	testutil.AssertNoError(t, res.Err())
	testutil.AssertDeepEquals(t, values, []int64{1, 2})
}

func TestResultPeekDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	res := newResultWithContext(streamingConn(recordOf(1), recordOf(2), summaryEnd()), nil, nil)

	var peeked *Record
	testutil.AssertTrue(t, res.PeekRecord(ctx, &peeked))
	testutil.AssertDeepEquals(t, peeked.Values, []any{int64(1)})
	testutil.AssertNil(t, res.Record())

	// The peeked record is served again by the next advance.
	var record *Record
	testutil.AssertTrue(t, res.NextRecord(ctx, &record))
	testutil.AssertDeepEquals(t, record.Values, []any{int64(1)})
	testutil.AssertTrue(t, res.Next(ctx))
	testutil.AssertDeepEquals(t, res.Record().Values, []any{int64(2)})
	testutil.AssertFalse(t, res.PeekRecord(ctx, &peeked))
	testutil.AssertNoError(t, res.Err())
}

func TestResultCollect(t *testing.T) {
	ctx := context.Background()
	conn := streamingConn(recordOf(1), recordOf(2), summaryEnd())
	res := newResultWithContext(conn, nil, nil)

	records, err := res.Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, records, 2)
}

func TestResultSingle(t *testing.T) {
	ctx := context.Background()
	res := newResultWithContext(streamingConn(recordOf(1), summaryEnd()), nil, nil)

	record, err := res.Single(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEquals(t, record.Values, []any{int64(1)})
}

func TestResultSingleOnEmptyStream(t *testing.T) {
	ctx := context.Background()
	res := newResultWithContext(streamingConn(summaryEnd()), nil, nil)

	_, err := res.Single(ctx)
	testutil.AssertErrorMessageContains(t, err, "no more records")
}

func TestResultSingleOnBiggerStream(t *testing.T) {
	ctx := context.Background()
	res := newResultWithContext(streamingConn(recordOf(1), recordOf(2), summaryEnd()), nil, nil)

	_, err := res.Single(ctx)
	testutil.AssertErrorMessageContains(t, err, "more than one record")
}

func TestResultConsume(t *testing.T) {
	ctx := context.Background()
	conn := streamingConn(recordOf(1), summaryEnd())
	res := newResultWithContext(conn, nil, nil)

	summary, err := res.Consume(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertNotNil(t, summary)
	testutil.AssertTrue(t, res.Closed())

	// Reading a consumed result is an error, asking about its state is not.
	testutil.AssertFalse(t, res.Next(ctx))
	testutil.AssertErrorMessageContains(t, res.Err(), consumedResultError)
	if !IsUsageError(res.Err()) {
		t.Errorf("Expected UsageError, got %v", res.Err())
	}
	testutil.AssertTrue(t, res.Closed())
}

func TestResultAfterTransactionCompleted(t *testing.T) {
	ctx := context.Background()
	conn := streamingConn(recordOf(1), summaryEnd())
	tx := &explicitTransaction{conn: conn, txHandle: 1}

	res, err := tx.Run(ctx, "RETURN 1", nil)
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, res.Closed())

	testutil.AssertNoError(t, tx.Commit(ctx))

	testutil.AssertTrue(t, res.Closed())
	testutil.AssertFalse(t, res.Next(ctx))
	testutil.AssertErrorMessageContains(t, res.Err(), consumedResultError)
}

func TestResultClosedReportsWithoutRaising(t *testing.T) {
	res := newResultWithContext(streamingConn(summaryEnd()), nil, nil)

	testutil.AssertFalse(t, res.Closed())
	testutil.AssertNil(t, res.Err())
	res.markConsumed()
	testutil.AssertTrue(t, res.Closed())
	// Closed alone never sets an error on the result.
	testutil.AssertNil(t, res.Err())
}
