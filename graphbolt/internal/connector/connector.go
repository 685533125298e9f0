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

// Package connector is responsible for connecting to a database server.
package connector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/bolt"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

type Connector struct {
	SkipEncryption       bool
	SkipVerify           bool
	RootCAs              *x509.CertPool
	SocketConnectTimeout time.Duration
	SocketKeepAlive      bool
	Auth                 map[string]any
	UserAgent            string
	RoutingContext       map[string]string
	CodecFactory         wire.Factory
	Network              string
	Log                  log.Logger
}

// Connect dials the address, upgrades to TLS unless encryption is off and
// runs the protocol handshake and authentication.
func (c Connector) Connect(ctx context.Context, address string) (db.Connection, error) {
	dialer := net.Dialer{Timeout: c.SocketConnectTimeout}
	if !c.SocketKeepAlive {
		dialer.KeepAlive = -1
	}
	conn, err := dialer.DialContext(ctx, c.Network, address)
	if err != nil {
		return nil, err
	}

	if !c.SkipEncryption {
		serverName, _, err := net.SplitHostPort(address)
		if err != nil {
			conn.Close()
			return nil, err
		}
		tlsConn := tls.Client(conn, &tls.Config{
			InsecureSkipVerify: c.SkipVerify,
			RootCAs:            c.RootCAs,
			ServerName:         serverName,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, &errorutil.TlsError{Inner: err}
		}
		conn = tlsConn
	}

	connection, err := bolt.Connect(ctx, address, conn, c.CodecFactory, c.Auth, c.UserAgent, c.RoutingContext, c.Log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return connection, nil
}
