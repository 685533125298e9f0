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

// Package bolt implements the Bolt connection state machine on top of a
// message codec, keeping track of the server-side protocol state so that
// requests are only issued when the server can serve them.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

type connState int

// Mirrors the server-side states of the protocol. Failed is recoverable
// through a reset, dead is not.
const (
	connUnauthorized connState = iota
	connReady
	connStreaming
	connTx
	connStreamingTx
	connFailed
	connDead
)

// All records of the stream in one batch.
const fetchAll = -1

// stream is the client side of one result stream. Records arrive in
// batches; a batch is buffered in fifo and handed out record by record.
type stream struct {
	keys      []string
	fifo      []*db.Record
	sum       *db.Summary
	err       error
	fetchSize int
	hasMore   bool
	tfirst    int64
}

func (s *stream) pop() *db.Record {
	if len(s.fifo) == 0 {
		return nil
	}
	rec := s.fifo[0]
	s.fifo = s.fifo[1:]
	return rec
}

// done reports that nothing more will arrive on the stream.
func (s *stream) done() bool {
	return s.sum != nil || s.err != nil
}

type boltConn struct {
	state        connState
	conn         net.Conn
	codec        wire.Codec
	serverName   string
	connId       string
	serverAgent  string
	version      db.ProtocolVersion
	err          error
	currStream   *stream
	txId         db.TxHandle
	bookmark     string
	databaseName string
	birthDate    time.Time
	idleDate     time.Time
	log          log.Logger
	logId        string
}

// setError transitions the connection into failed or dead state. Any error
// coming out of the codec means the exchange is in an unknown position and
// the connection can not be trusted anymore.
func (b *boltConn) setError(err error, fatal bool) {
	b.err = err
	if fatal {
		b.state = connDead
		b.log.Error(log.Bolt, b.logId, err)
		return
	}
	b.state = connFailed
	b.log.Debugf(log.Bolt, b.logId, "Server failure: %s", err)
}

func (b *boltConn) send(ctx context.Context, msg *wire.Message) {
	if b.state == connDead {
		return
	}
	if err := b.codec.Send(ctx, msg); err != nil {
		b.setError(err, true)
	}
}

func (b *boltConn) receive(ctx context.Context) *wire.Message {
	if b.state == connDead {
		return nil
	}
	msg, err := b.codec.Receive(ctx)
	if err != nil {
		b.setError(err, true)
		return nil
	}
	b.idleDate = time.Now()
	return msg
}

// receiveSuccess receives the response to a request that only ever succeeds
// or fails. Returns the success metadata or nil after setting the error.
func (b *boltConn) receiveSuccess(ctx context.Context) map[string]any {
	msg := b.receive(ctx)
	if msg == nil {
		return nil
	}
	switch msg.Tag {
	case wire.TagSuccess:
		return successMetadata(msg)
	case wire.TagFailure:
		b.setError(failureError(msg), false)
		return nil
	case wire.TagIgnored:
		// Only happens when a request is issued on a failed server, which
		// the state machine should have prevented.
		b.setError(errors.New("server ignored the request"), true)
		return nil
	default:
		b.setError(fmt.Errorf("protocol violation, expected success or failure but got message tag %#02x", byte(msg.Tag)), true)
		return nil
	}
}

func (b *boltConn) hello(ctx context.Context, auth map[string]any, userAgent string, routingContext map[string]string) error {
	extra := map[string]any{
		"user_agent": userAgent,
	}
	if routingContext != nil {
		routing := make(map[string]any, len(routingContext))
		for k, v := range routingContext {
			routing[k] = v
		}
		extra["routing"] = routing
	}
	for k, v := range auth {
		extra[k] = v
	}

	b.send(ctx, &wire.Message{Tag: wire.TagHello, Fields: []any{extra}})
	meta := b.receiveSuccess(ctx)
	if meta == nil {
		// Failed authentication leaves the server expecting another HELLO,
		// but the driver never retries credentials on the same socket.
		b.state = connDead
		return b.err
	}
	b.serverAgent, _ = meta["server"].(string)
	b.connId, _ = meta["connection_id"].(string)
	b.state = connReady
	return nil
}

func (b *boltConn) TxBegin(ctx context.Context, txConfig db.TxConfig) (db.TxHandle, error) {
	if err := b.assertState(connReady); err != nil {
		return 0, err
	}

	b.send(ctx, &wire.Message{Tag: wire.TagBegin, Fields: []any{b.txExtra(txConfig)}})
	if b.receiveSuccess(ctx) == nil {
		return 0, b.err
	}
	b.state = connTx
	b.txId = db.TxHandle(time.Now().UnixNano())
	return b.txId, nil
}

func (b *boltConn) TxCommit(ctx context.Context, txh db.TxHandle) error {
	if err := b.assertTxHandle(txh); err != nil {
		return err
	}
	// A still open stream belongs to this transaction, get it out of the
	// way before the commit request.
	if b.currStream != nil {
		if err := b.bufferStream(ctx, b.currStream); err != nil {
			return err
		}
	}

	b.send(ctx, &wire.Message{Tag: wire.TagCommit, Fields: []any{}})
	meta := b.receiveSuccess(ctx)
	if meta == nil {
		return b.err
	}
	if bookmark, ok := meta["bookmark"].(string); ok && bookmark != "" {
		b.bookmark = bookmark
	}
	b.state = connReady
	return nil
}

func (b *boltConn) TxRollback(ctx context.Context, txh db.TxHandle) error {
	if err := b.assertTxHandle(txh); err != nil {
		return err
	}
	if b.currStream != nil {
		if err := b.bufferStream(ctx, b.currStream); err != nil {
			return err
		}
	}

	b.send(ctx, &wire.Message{Tag: wire.TagRollback, Fields: []any{}})
	if b.receiveSuccess(ctx) == nil {
		return b.err
	}
	b.state = connReady
	return nil
}

func (b *boltConn) Run(ctx context.Context, cmd db.Command, txConfig db.TxConfig) (db.StreamHandle, error) {
	if err := b.assertState(connReady); err != nil {
		return nil, err
	}
	s, err := b.run(ctx, cmd, b.txExtra(txConfig))
	if err != nil {
		return nil, err
	}
	b.state = connStreaming
	return s, nil
}

func (b *boltConn) RunTx(ctx context.Context, txh db.TxHandle, cmd db.Command) (db.StreamHandle, error) {
	if err := b.assertTxHandle(txh); err != nil {
		return nil, err
	}
	// A transaction can only stream one result at a time, buffer the
	// previous one client-side to let the new one through.
	if b.currStream != nil {
		if err := b.bufferStream(ctx, b.currStream); err != nil {
			return nil, err
		}
	}
	s, err := b.run(ctx, cmd, map[string]any{})
	if err != nil {
		return nil, err
	}
	b.state = connStreamingTx
	return s, nil
}

func (b *boltConn) run(ctx context.Context, cmd db.Command, extra map[string]any) (*stream, error) {
	params := cmd.Params
	if params == nil {
		params = map[string]any{}
	}
	b.send(ctx, &wire.Message{Tag: wire.TagRun, Fields: []any{cmd.Query, params, extra}})
	meta := b.receiveSuccess(ctx)
	if meta == nil {
		return nil, b.err
	}

	s := &stream{hasMore: true, fetchSize: cmd.FetchSize, tfirst: asInt64(meta["t_first"])}
	if s.fetchSize <= 0 {
		s.fetchSize = fetchAll
	}
	if fields, ok := meta["fields"].([]any); ok {
		s.keys = make([]string, len(fields))
		for i, f := range fields {
			s.keys[i], _ = f.(string)
		}
	}
	b.currStream = s
	return s, nil
}

func (b *boltConn) asStream(streamHandle db.StreamHandle) (*stream, error) {
	s, ok := streamHandle.(*stream)
	if !ok || s == nil {
		return nil, errors.New("invalid stream handle")
	}
	return s, nil
}

func (b *boltConn) Keys(streamHandle db.StreamHandle) ([]string, error) {
	s, err := b.asStream(streamHandle)
	if err != nil {
		return nil, err
	}
	return s.keys, nil
}

func (b *boltConn) Next(ctx context.Context, streamHandle db.StreamHandle) (*db.Record, *db.Summary, error) {
	s, err := b.asStream(streamHandle)
	if err != nil {
		return nil, nil, err
	}

	for {
		if rec := s.pop(); rec != nil {
			return rec, nil, nil
		}
		if s.err != nil {
			return nil, nil, s.err
		}
		if s.sum != nil {
			return nil, s.sum, nil
		}
		if err := b.pullBatch(ctx, s, s.fetchSize); err != nil {
			return nil, nil, err
		}
	}
}

func (b *boltConn) Consume(ctx context.Context, streamHandle db.StreamHandle) (*db.Summary, error) {
	s, err := b.asStream(streamHandle)
	if err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.sum != nil {
		return s.sum, nil
	}
	if s != b.currStream {
		return nil, errors.New("stream no longer attached to the connection")
	}

	// Already buffered records are of no interest when consuming.
	s.fifo = nil

	b.send(ctx, &wire.Message{Tag: wire.TagDiscard, Fields: []any{map[string]any{"n": int64(fetchAll)}}})
	meta := b.receiveSuccess(ctx)
	if meta == nil {
		b.detachStream(s, b.err)
		return nil, b.err
	}
	b.endOfStream(s, meta)
	return s.sum, nil
}

func (b *boltConn) Buffer(ctx context.Context, streamHandle db.StreamHandle) error {
	s, err := b.asStream(streamHandle)
	if err != nil {
		return err
	}
	return b.bufferStream(ctx, s)
}

// bufferStream pulls what is left of the stream into client memory, leaving
// the connection free for other work. The stream remains iterable.
func (b *boltConn) bufferStream(ctx context.Context, s *stream) error {
	for !s.done() {
		if err := b.pullBatch(ctx, s, fetchAll); err != nil {
			return err
		}
	}
	return s.err
}

// pullBatch requests the next n records of the current stream and buffers
// them, finalizing the stream when the server reports the end of it.
func (b *boltConn) pullBatch(ctx context.Context, s *stream, n int) error {
	if s != b.currStream {
		return errors.New("stream no longer attached to the connection")
	}

	b.send(ctx, &wire.Message{Tag: wire.TagPull, Fields: []any{map[string]any{"n": int64(n)}}})
	for {
		msg := b.receive(ctx)
		if msg == nil {
			b.detachStream(s, b.err)
			return b.err
		}
		switch msg.Tag {
		case wire.TagRecord:
			values, _ := msg.Fields[0].([]any)
			s.fifo = append(s.fifo, &db.Record{Keys: s.keys, Values: values})
		case wire.TagSuccess:
			meta := successMetadata(msg)
			if hasMore, _ := meta["has_more"].(bool); hasMore {
				s.hasMore = true
				return nil
			}
			b.endOfStream(s, meta)
			return nil
		case wire.TagFailure:
			err := failureError(msg)
			b.setError(err, false)
			b.detachStream(s, err)
			return err
		default:
			err := fmt.Errorf("protocol violation, unexpected message tag %#02x while streaming", byte(msg.Tag))
			b.setError(err, true)
			b.detachStream(s, err)
			return err
		}
	}
}

// endOfStream finalizes the stream with its summary and hands the
// connection back to the surrounding state.
func (b *boltConn) endOfStream(s *stream, meta map[string]any) {
	s.hasMore = false
	s.sum = b.summary(meta)
	s.sum.TFirst = s.tfirst
	b.currStream = nil
	if b.state == connStreamingTx {
		b.state = connTx
		return
	}
	b.state = connReady
	// An auto-commit stream commits when it ends.
	if bookmark := s.sum.Bookmark; bookmark != "" {
		b.bookmark = bookmark
	}
}

// detachStream cuts the stream loose after a failure, subsequent reads on
// it keep reporting the error.
func (b *boltConn) detachStream(s *stream, err error) {
	if s != nil {
		s.err = err
		s.hasMore = false
	}
	if s == b.currStream {
		b.currStream = nil
	}
}

func (b *boltConn) summary(meta map[string]any) *db.Summary {
	sum := &db.Summary{
		ServerName: b.serverName,
		Agent:      b.serverAgent,
		Version:    b.version,
		Database:   b.databaseName,
		TLast:      asInt64(meta["t_last"]),
	}
	sum.Bookmark, _ = meta["bookmark"].(string)
	sum.StmntType, _ = meta["type"].(string)
	if database, ok := meta["db"].(string); ok {
		sum.Database = database
	}
	if stats, ok := meta["stats"].(map[string]any); ok {
		sum.Counters = make(map[string]int, len(stats))
		for k, v := range stats {
			sum.Counters[k] = int(asInt64(v))
		}
	}
	return sum
}

func (b *boltConn) Bookmark() string {
	return b.bookmark
}

func (b *boltConn) ServerName() string {
	return b.serverName
}

func (b *boltConn) ServerVersion() string {
	return b.serverAgent
}

func (b *boltConn) Version() db.ProtocolVersion {
	return b.version
}

func (b *boltConn) IsAlive() bool {
	return b.state != connDead
}

func (b *boltConn) HasFailed() bool {
	return b.state == connFailed
}

func (b *boltConn) Birthdate() time.Time {
	return b.birthDate
}

func (b *boltConn) IdleDate() time.Time {
	return b.idleDate
}

func (b *boltConn) Reset(ctx context.Context) {
	defer func() {
		b.err = nil
		b.currStream = nil
		b.bookmark = ""
		b.databaseName = db.DefaultDatabase
	}()
	if b.state == connReady || b.state == connDead {
		return
	}
	b.ForceReset(ctx)
}

func (b *boltConn) ForceReset(ctx context.Context) {
	if b.state == connDead {
		return
	}
	if b.currStream != nil {
		b.detachStream(b.currStream, errors.New("stream interrupted by connection reset"))
	}
	b.send(ctx, &wire.Message{Tag: wire.TagReset, Fields: []any{}})
	msg := b.receive(ctx)
	if msg == nil {
		return
	}
	if msg.Tag != wire.TagSuccess {
		b.setError(fmt.Errorf("protocol violation, reset failed with message tag %#02x", byte(msg.Tag)), true)
		return
	}
	b.err = nil
	b.state = connReady
}

func (b *boltConn) SelectDatabase(database string) {
	b.databaseName = database
}

func (b *boltConn) GetRoutingTable(ctx context.Context, routingContext map[string]string, bookmarks []string, database string) (*db.RoutingTable, error) {
	if err := b.assertState(connReady); err != nil {
		return nil, err
	}

	routing := make(map[string]any, len(routingContext))
	for k, v := range routingContext {
		routing[k] = v
	}
	bms := make([]any, len(bookmarks))
	for i, bm := range bookmarks {
		bms[i] = bm
	}
	extra := map[string]any{}
	if database != db.DefaultDatabase {
		extra["db"] = database
	}

	b.send(ctx, &wire.Message{Tag: wire.TagRoute, Fields: []any{routing, bms, extra}})
	meta := b.receiveSuccess(ctx)
	if meta == nil {
		return nil, b.err
	}
	rt, ok := meta["rt"].(map[string]any)
	if !ok {
		err := errors.New("no routing table in route response")
		b.setError(err, true)
		return nil, err
	}
	return parseRoutingTable(rt, database)
}

func parseRoutingTable(rt map[string]any, requestedDatabase string) (*db.RoutingTable, error) {
	table := &db.RoutingTable{
		TimeToLive:   int(asInt64(rt["ttl"])),
		DatabaseName: requestedDatabase,
	}
	if database, ok := rt["db"].(string); ok {
		table.DatabaseName = database
	}
	servers, _ := rt["servers"].([]any)
	for _, server := range servers {
		entry, _ := server.(map[string]any)
		role, _ := entry["role"].(string)
		rawAddresses, _ := entry["addresses"].([]any)
		addresses := make([]string, 0, len(rawAddresses))
		for _, a := range rawAddresses {
			if address, ok := a.(string); ok {
				addresses = append(addresses, address)
			}
		}
		switch role {
		case "ROUTE":
			table.Routers = addresses
		case "READ":
			table.Readers = addresses
		case "WRITE":
			table.Writers = addresses
		default:
			return nil, fmt.Errorf("unknown role '%s' in routing table", role)
		}
	}
	return table, nil
}

func (b *boltConn) Close(ctx context.Context) {
	if b.state != connDead && b.state != connUnauthorized {
		// Best effort, the socket is going away regardless.
		b.send(ctx, &wire.Message{Tag: wire.TagGoodbye, Fields: []any{}})
	}
	b.state = connDead
	if err := b.conn.Close(); err != nil {
		b.log.Debugf(log.Bolt, b.logId, "Failed to close socket: %s", err)
	}
	b.log.Infof(log.Bolt, b.logId, "Disconnected from %s", b.serverName)
}

func (b *boltConn) assertState(allowed connState) error {
	if b.state == allowed {
		return nil
	}
	if b.state == connDead || b.state == connFailed {
		return b.err
	}
	err := fmt.Errorf("invalid connection state %d, expected %d", b.state, allowed)
	b.setError(err, true)
	return err
}

func (b *boltConn) assertTxHandle(txh db.TxHandle) error {
	if b.state != connTx && b.state != connStreamingTx {
		return b.assertState(connTx)
	}
	if txh != b.txId {
		err := errors.New("invalid transaction handle")
		b.setError(err, true)
		return err
	}
	return nil
}

// txExtra builds the extra map sent with BEGIN and auto-commit RUN.
func (b *boltConn) txExtra(txConfig db.TxConfig) map[string]any {
	extra := map[string]any{}
	if len(txConfig.Bookmarks) > 0 {
		bms := make([]any, len(txConfig.Bookmarks))
		for i, bm := range txConfig.Bookmarks {
			bms[i] = bm
		}
		extra["bookmarks"] = bms
	}
	if txConfig.Timeout > 0 {
		extra["tx_timeout"] = txConfig.Timeout.Milliseconds()
	}
	if len(txConfig.Meta) > 0 {
		extra["tx_metadata"] = txConfig.Meta
	}
	if txConfig.Mode == db.ReadMode {
		extra["mode"] = "r"
	}
	if b.databaseName != db.DefaultDatabase {
		extra["db"] = b.databaseName
	}
	return extra
}

func successMetadata(msg *wire.Message) map[string]any {
	if len(msg.Fields) == 0 {
		return map[string]any{}
	}
	if meta, ok := msg.Fields[0].(map[string]any); ok {
		return meta
	}
	return map[string]any{}
}

func failureError(msg *wire.Message) error {
	meta := successMetadata(msg)
	code, _ := meta["code"].(string)
	message, _ := meta["message"].(string)
	return &db.ServerError{Code: code, Msg: message}
}

func asInt64(x any) int64 {
	switch v := x.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
