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

// Package db defines generic database functionality, freeing the rest of
// the driver core from any dependency on a specific protocol handler.
package db

import (
	"context"
	"time"
)

// Definitions of these should correspond to public API
type AccessMode int

const (
	WriteMode AccessMode = 0
	ReadMode  AccessMode = 1
)

// Marker for using the default database instance.
const DefaultDatabase = ""

// TxHandle is an opaque handle to a transaction living on a Connection.
type TxHandle uint64

// StreamHandle is an opaque handle to a result stream living on a Connection.
type StreamHandle any

type Command struct {
	Query     string
	Params    map[string]any
	FetchSize int
}

type TxConfig struct {
	Mode      AccessMode
	Bookmarks []string
	Timeout   time.Duration
	Meta      map[string]any
}

// Counter key names reported in Summary.Counters.
const (
	NodesCreated         = "nodes-created"
	NodesDeleted         = "nodes-deleted"
	RelationshipsCreated = "relationships-created"
	RelationshipsDeleted = "relationships-deleted"
	PropertiesSet        = "properties-set"
	LabelsAdded          = "labels-added"
	LabelsRemoved        = "labels-removed"
	IndexesAdded         = "indexes-added"
	IndexesRemoved       = "indexes-removed"
	ConstraintsAdded     = "constraints-added"
	ConstraintsRemoved   = "constraints-removed"
	SystemUpdates        = "system-updates"
)

// ProtocolVersion is the raw major.minor agreed upon during the handshake.
// Not a semantic version.
type ProtocolVersion struct {
	Major int
	Minor int
}

type Summary struct {
	Bookmark   string
	StmntType  string
	ServerName string
	Agent      string
	Version    ProtocolVersion
	Counters   map[string]int
	TFirst     int64
	TLast      int64
	Database   string
}

type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value corresponding to the given key along with a boolean
// that indicates whether the key was found.
func (r *Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// RoutingTable is the cluster topology for one database as reported by a
// routing server, valid for TimeToLive seconds from the moment it was read.
type RoutingTable struct {
	TimeToLive   int
	DatabaseName string
	Routers      []string
	Readers      []string
	Writers      []string
}

// Connection is an abstract database server connection. Instances are not
// safe for concurrent use and are owned by at most one transaction at a
// time. All blocking operations take a context; expiry or cancellation of
// the context while an exchange is in flight leaves the connection dead.
type Connection interface {
	TxBegin(ctx context.Context, txConfig TxConfig) (TxHandle, error)
	TxRollback(ctx context.Context, tx TxHandle) error
	TxCommit(ctx context.Context, tx TxHandle) error
	Run(ctx context.Context, cmd Command, txConfig TxConfig) (StreamHandle, error)
	RunTx(ctx context.Context, tx TxHandle, cmd Command) (StreamHandle, error)
	// Keys returns the keys of the records of the stream, valid regardless of
	// the position in the stream.
	Keys(streamHandle StreamHandle) ([]string, error)
	// Next moves to the next item in the stream.
	// If error is nil, either Record or Summary has a value; if Record is nil
	// there are no more records. If error is non nil, neither has a value.
	Next(ctx context.Context, streamHandle StreamHandle) (*Record, *Summary, error)
	// Consume discards all records of the stream and returns the summary,
	// pulling it from the server if not already received.
	Consume(ctx context.Context, streamHandle StreamHandle) (*Summary, error)
	// Buffer pulls all remaining records of the stream into driver memory so
	// that the connection can be used for something else.
	Buffer(ctx context.Context, streamHandle StreamHandle) error
	// Bookmark returns the bookmark from the last committed transaction or
	// last finished auto-commit stream. Empty string if no bookmark.
	Bookmark() string
	// ServerName returns the address of the remote server.
	ServerName() string
	// ServerVersion returns the agent string reported by the server,
	// for example "GraphServer/5.12.0".
	ServerVersion() string
	// Version returns the negotiated protocol version.
	Version() ProtocolVersion
	// IsAlive returns true if the connection is fully functional. The
	// implementation is passive, no pinging or similar.
	IsAlive() bool
	// HasFailed returns true if the connection is in a recoverable failed
	// state, pending a reset.
	HasFailed() bool
	// Birthdate returns the point in time when this connection was established.
	Birthdate() time.Time
	// IdleDate returns the point in time when this connection was last used.
	IdleDate() time.Time
	// Reset returns the connection to the same state as directly after
	// connect, discarding any pending transaction or stream server-side.
	Reset(ctx context.Context)
	// ForceReset is like Reset but performs the server roundtrip even when
	// the connection looks clean, probing that it is in fact alive.
	ForceReset(ctx context.Context)
	// SelectDatabase targets the given database for the next unit of work.
	// Should be called directly after a reset.
	SelectDatabase(database string)
	// GetRoutingTable invokes the routing procedure on the server. The
	// routing context is forwarded verbatim, never interpreted.
	GetRoutingTable(ctx context.Context, routingContext map[string]string, bookmarks []string, database string) (*RoutingTable, error)
	// Close closes the database connection as well as any underlying socket.
	// The instance should not be used afterwards.
	Close(ctx context.Context)
}
