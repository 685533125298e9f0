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

package bolt

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

// Handshake preamble identifying the protocol to the server.
var handshakeMagic = [4]byte{0x60, 0x60, 0xb0, 0x17}

// Protocol versions offered to the server, most preferred first. Each entry
// is encoded as four bytes: two zero bytes, minor, major.
var versionProposals = [4]db.ProtocolVersion{
	{Major: 5, Minor: 0},
	{Major: 4, Minor: 4},
	{Major: 4, Minor: 3},
	{Major: 3, Minor: 0},
}

// Connect negotiates a protocol version on an established network
// connection, wraps it in a codec for that version and authenticates.
// On error the network connection is NOT closed, that is the caller's
// responsibility.
func Connect(
	ctx context.Context,
	serverName string,
	conn net.Conn,
	codecFactory wire.Factory,
	auth map[string]any,
	userAgent string,
	routingContext map[string]string,
	logger log.Logger,
) (db.Connection, error) {
	version, err := handshake(ctx, conn)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &boltConn{
		state:      connUnauthorized,
		conn:       conn,
		codec:      codecFactory(conn, version.Major, version.Minor),
		serverName: serverName,
		version:    version,
		birthDate:  now,
		idleDate:   now,
		log:        logger,
		logId:      log.NewId(),
	}
	if err := b.hello(ctx, auth, userAgent, routingContext); err != nil {
		return nil, err
	}
	b.log.Infof(log.Bolt, b.logId, "Connected to %s with protocol %d.%d", serverName, version.Major, version.Minor)
	return b, nil
}

// handshake writes the magic preamble and the version proposals, then reads
// the version selected by the server.
func handshake(ctx context.Context, conn net.Conn) (db.ProtocolVersion, error) {
	none := db.ProtocolVersion{}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return none, err
		}
		defer conn.SetDeadline(time.Time{})
	}

	request := make([]byte, 0, 4*5)
	request = append(request, handshakeMagic[:]...)
	for _, v := range versionProposals {
		request = append(request, 0x00, 0x00, byte(v.Minor), byte(v.Major))
	}
	if _, err := conn.Write(request); err != nil {
		return none, err
	}

	var response [4]byte
	if _, err := io.ReadFull(conn, response[:]); err != nil {
		return none, err
	}

	selected := db.ProtocolVersion{Major: int(response[3]), Minor: int(response[2])}
	for _, v := range versionProposals {
		if v == selected {
			return selected, nil
		}
	}
	return none, fmt.Errorf("server did not accept any of the proposed protocol versions, responded with % x", response)
}
