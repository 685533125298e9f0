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

import (
	"context"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
)

// Next is one scripted outcome of ConnFake.Next.
type Next struct {
	Record  *db.Record
	Summary *db.Summary
	Err     error
}

// RecordedTx is the transaction configuration that a ConnFake observed.
type RecordedTx struct {
	Origin    string
	Mode      db.AccessMode
	Bookmarks []string
	Timeout   time.Duration
	Meta      map[string]any
}

// ConnFake is a scriptable db.Connection.
type ConnFake struct {
	Name          string
	ConnVersion   db.ProtocolVersion
	Alive         bool
	Birth         time.Time
	Idle          time.Time
	Table         *db.RoutingTable
	TableErr      error
	TxBeginErr    error
	TxBeginHandle db.TxHandle
	TxBeginHook   func()
	TxCommitErr   error
	TxCommitHook  func()
	TxRollbackErr error
	RollbackCalls int
	RunErr        error
	RunStream     db.StreamHandle
	RunHook       func()
	RunTxErr      error
	RunTxStream   db.StreamHandle
	RunTxHook     func()
	Nexts         []Next
	nextPos       int
	KeyList       []string
	KeysErr       error
	ConsumeSum    *db.Summary
	ConsumeErr    error
	ConsumeHook   func()
	BufferErr     error
	BufferHook    func()
	Bookm         string
	DatabaseName  string
	ResetCalls    int
	ForceResets   int
	CloseCalls    int
	RecordedTxs   []RecordedTx
}

func (c *ConnFake) TxBegin(_ context.Context, txConfig db.TxConfig) (db.TxHandle, error) {
	c.recordTx("TxBegin", txConfig)
	if c.TxBeginHook != nil {
		c.TxBeginHook()
	}
	return c.TxBeginHandle, c.TxBeginErr
}

func (c *ConnFake) TxRollback(context.Context, db.TxHandle) error {
	c.RollbackCalls++
	return c.TxRollbackErr
}

func (c *ConnFake) TxCommit(context.Context, db.TxHandle) error {
	if c.TxCommitHook != nil {
		c.TxCommitHook()
	}
	return c.TxCommitErr
}

func (c *ConnFake) Run(_ context.Context, _ db.Command, txConfig db.TxConfig) (db.StreamHandle, error) {
	c.recordTx("Run", txConfig)
	if c.RunHook != nil {
		c.RunHook()
	}
	return c.RunStream, c.RunErr
}

func (c *ConnFake) RunTx(context.Context, db.TxHandle, db.Command) (db.StreamHandle, error) {
	if c.RunTxHook != nil {
		c.RunTxHook()
	}
	return c.RunTxStream, c.RunTxErr
}

func (c *ConnFake) Keys(db.StreamHandle) ([]string, error) {
	return c.KeyList, c.KeysErr
}

func (c *ConnFake) Next(context.Context, db.StreamHandle) (*db.Record, *db.Summary, error) {
	if c.nextPos >= len(c.Nexts) {
		return nil, &db.Summary{}, nil
	}
	next := c.Nexts[c.nextPos]
	c.nextPos++
	return next.Record, next.Summary, next.Err
}

func (c *ConnFake) Consume(context.Context, db.StreamHandle) (*db.Summary, error) {
	if c.ConsumeHook != nil {
		c.ConsumeHook()
	}
	return c.ConsumeSum, c.ConsumeErr
}

func (c *ConnFake) Buffer(context.Context, db.StreamHandle) error {
	if c.BufferHook != nil {
		c.BufferHook()
	}
	return c.BufferErr
}

func (c *ConnFake) Bookmark() string {
	return c.Bookm
}

func (c *ConnFake) ServerName() string {
	return c.Name
}

func (c *ConnFake) ServerVersion() string {
	return "serverFake/1.0"
}

func (c *ConnFake) Version() db.ProtocolVersion {
	return c.ConnVersion
}

func (c *ConnFake) IsAlive() bool {
	return c.Alive
}

func (c *ConnFake) HasFailed() bool {
	return false
}

func (c *ConnFake) Birthdate() time.Time {
	return c.Birth
}

func (c *ConnFake) IdleDate() time.Time {
	return c.Idle
}

func (c *ConnFake) Reset(context.Context) {
	c.ResetCalls++
}

func (c *ConnFake) ForceReset(context.Context) {
	c.ForceResets++
}

func (c *ConnFake) SelectDatabase(database string) {
	c.DatabaseName = database
}

func (c *ConnFake) GetRoutingTable(context.Context, map[string]string, []string, string) (*db.RoutingTable, error) {
	return c.Table, c.TableErr
}

func (c *ConnFake) Close(context.Context) {
	c.CloseCalls++
	c.Alive = false
}

func (c *ConnFake) recordTx(origin string, txConfig db.TxConfig) {
	c.RecordedTxs = append(c.RecordedTxs, RecordedTx{
		Origin:    origin,
		Mode:      txConfig.Mode,
		Bookmarks: txConfig.Bookmarks,
		Timeout:   txConfig.Timeout,
		Meta:      txConfig.Meta,
	})
}
