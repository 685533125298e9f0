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

// Package wire defines the boundary between the driver core and the Bolt
// message encoding. The driver itself never serializes bytes; it exchanges
// Message values through a Codec that a codec implementation provides for
// the protocol version agreed upon during the handshake.
package wire

import (
	"context"
	"net"
)

// Tag identifies the kind of a Bolt message. Values follow the Bolt
// protocol message signatures.
type Tag byte

const (
	TagHello    Tag = 0x01
	TagGoodbye  Tag = 0x02
	TagReset    Tag = 0x0f
	TagRun      Tag = 0x10
	TagBegin    Tag = 0x11
	TagCommit   Tag = 0x12
	TagRollback Tag = 0x13
	TagDiscard  Tag = 0x2f
	TagPull     Tag = 0x3f
	TagRoute    Tag = 0x66
	TagSuccess  Tag = 0x70
	TagRecord   Tag = 0x71
	TagIgnored  Tag = 0x7e
	TagFailure  Tag = 0x7f
)

// Message is one Bolt message with its decoded fields. Field values are
// plain Go values: bool, int64, float64, string, []any and map[string]any.
// Richer value types are the codec's concern and pass through the driver
// untouched.
type Message struct {
	Tag    Tag
	Fields []any
}

// Codec sends and receives messages over one connection. Implementations
// are not required to be safe for concurrent use; the owning connection
// serializes access. Send and Receive must honor the context deadline and
// return an error when it expires; after any returned error the codec is
// in an undefined state and the connection is abandoned.
type Codec interface {
	Send(ctx context.Context, msg *Message) error
	Receive(ctx context.Context) (*Message, error)
}

// Factory creates a Codec for the protocol version negotiated during the
// handshake on conn.
type Factory func(conn net.Conn, major, minor int) Codec
