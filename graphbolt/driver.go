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

// Package graphbolt provides the required functionality to connect and
// execute statements against a graph database over the Bolt protocol.
package graphbolt

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/connector"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/pool"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/racing"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/router"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

const driverVersion = "1.0.0"

const defaultPort = "7687"

const livenessDisabled = pool.DefaultLivenessCheckThreshold

// AccessMode defines modes that routing drivers use to route queries to
// different cluster members.
type AccessMode int

const (
	// AccessModeWrite routes to the leader of the cluster.
	AccessModeWrite = AccessMode(db.WriteMode)
	// AccessModeRead routes to the followers and read replicas.
	AccessModeRead = AccessMode(db.ReadMode)
)

// Driver represents a pool of connections towards a server or a cluster of
// servers. Safe for concurrent use.
type Driver interface {
	// Target returns the url this driver is bootstrapped with.
	Target() url.URL
	// NewSession creates a new session based on the specified session
	// configuration.
	NewSession(ctx context.Context, config SessionConfig) Session
	// VerifyConnectivity checks that the driver can connect to a remote
	// server or a cluster by establishing a network connection with the
	// remote. Returns nil when successful.
	VerifyConnectivity(ctx context.Context) error
	// GetServerInfo fetches basic information of the server or the cluster
	// member a read would be routed to.
	GetServerInfo(ctx context.Context) (ServerInfo, error)
	// IsEncrypted reports whether the driver communicates over TLS.
	IsEncrypted() bool
	// Close the driver and all underlying connections. The driver cannot be
	// used after this point.
	Close(ctx context.Context) error
}

// sessionRouter gives a session the cluster members that can serve it.
// The direct driver and the routing driver provide different
// implementations.
type sessionRouter interface {
	// GetOrUpdateReaders returns the list of servers that can serve reads on
	// the requested database.
	GetOrUpdateReaders(ctx context.Context, bookmarks []string, database string) ([]string, error)
	// GetOrUpdateWriters returns the list of servers that can serve writes
	// on the requested database.
	GetOrUpdateWriters(ctx context.Context, bookmarks []string, database string) ([]string, error)
	// Invalidate the routing table of the requested database.
	Invalidate(database string)
	// InvalidateServer removes the server from all routing tables.
	InvalidateServer(server string)
	CleanUp()
}

// NewDriver is the entry point to the driver. It creates a driver instance
// based on a target URL and authentication credentials.
//
// The scheme of the URL decides the transport security and whether the
// driver routes over a cluster:
//
//	bolt://          a single server, unencrypted
//	bolt+s://        a single server, TLS
//	bolt+ssc://      a single server, TLS without certificate verification
//	graphbolt://     a cluster, unencrypted
//	graphbolt+s://   a cluster, TLS
//	graphbolt+ssc:// a cluster, TLS without certificate verification
//
// The returned instance is expensive to create and cheap to share, create
// one driver per application and target.
func NewDriver(target string, auth AuthToken, configurers ...func(*Config)) (Driver, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, &UsageError{Message: fmt.Sprintf("Failed to parse target URL: %s", err)}
	}

	d := &driver{target: *parsed, log: log.Void{}}

	routing := false
	switch parsed.Scheme {
	case "bolt":
		d.connector.SkipEncryption = true
	case "bolt+s":
	case "bolt+ssc":
		d.connector.SkipVerify = true
	case "graphbolt":
		routing = true
		d.connector.SkipEncryption = true
	case "graphbolt+s":
		routing = true
	case "graphbolt+ssc":
		routing = true
		d.connector.SkipVerify = true
	default:
		return nil, &UsageError{Message: fmt.Sprintf(
			"URL scheme %s is not supported, expected bolt, bolt+s, bolt+ssc, graphbolt, graphbolt+s or graphbolt+ssc", parsed.Scheme)}
	}

	if parsed.Host == "" {
		return nil, &UsageError{Message: "URL needs a host"}
	}
	if strings.Contains(parsed.Host, ",") {
		return nil, &UsageError{Message: "URL must contain a single host"}
	}
	address := parsed.Host
	if parsed.Port() == "" {
		address += ":" + defaultPort
	}

	config := defaultConfig()
	for _, configurer := range configurers {
		configurer(config)
	}
	if err := validateAndNormaliseConfig(config); err != nil {
		return nil, err
	}
	d.config = config
	d.log = config.Log
	d.logId = log.NewId()

	routingContext, err := routingContextFromUrl(routing, parsed, address, d.log, d.logId)
	if err != nil {
		return nil, err
	}

	d.connector.Network = "tcp"
	d.connector.Auth = auth.tokens
	d.connector.UserAgent = config.UserAgent
	d.connector.RootCAs = config.RootCAs
	d.connector.SocketConnectTimeout = config.SocketConnectTimeout
	d.connector.SocketKeepAlive = config.SocketKeepalive
	d.connector.CodecFactory = config.Codec
	d.connector.RoutingContext = routingContext
	d.connector.Log = d.log

	d.pool = pool.New(config.MaxConnectionPoolSize, config.MaxConnectionLifetime, d.connector.Connect, d.log, d.logId)

	if !routing {
		d.router = &directRouter{address: address}
	} else {
		resolver := config.AddressResolver
		if resolver == nil {
			resolver = func(address string) []string { return []string{address} }
		}
		d.router = router.New(address, resolver, routingContext, d.pool, d.log, d.logId)
	}

	d.mut = racing.NewMutex()
	d.log.Infof(log.Driver, d.logId, "Created { target: %s }", address)
	return d, nil
}

// routingContextFromUrl extracts the routing context from the query part of
// the URL. Query parameters on a direct (bolt) URL have no routing to feed
// into, they are ignored with a warning instead of failing driver creation.
func routingContextFromUrl(useRouting bool, u *url.URL, address string, logger log.Logger, logId string) (map[string]string, error) {
	queryValues := u.Query()
	if !useRouting {
		if len(queryValues) > 0 {
			logger.Warnf(log.Driver, logId, "Ignoring routing context %s on direct connection URL", u.RawQuery)
		}
		return nil, nil
	}
	routingContext := make(map[string]string, len(queryValues)+1)
	for k, vs := range queryValues {
		if len(vs) > 1 {
			return nil, &UsageError{Message: fmt.Sprintf("Duplicated routing context key '%s'", k)}
		}
		routingContext[k] = vs[0]
	}
	if _, exists := routingContext["address"]; exists {
		return nil, &UsageError{Message: "The routing context key 'address' is reserved"}
	}
	routingContext["address"] = address
	return routingContext, nil
}

type driver struct {
	target    url.URL
	config    *Config
	pool      *pool.Pool
	router    sessionRouter
	connector connector.Connector
	logId     string
	log       log.Logger
	mut       *racing.Mutex
	closed    bool
}

func (d *driver) Target() url.URL {
	return d.target
}

func (d *driver) IsEncrypted() bool {
	return !d.connector.SkipEncryption
}

func (d *driver) NewSession(ctx context.Context, config SessionConfig) Session {
	if config.DatabaseName == "" {
		config.DatabaseName = db.DefaultDatabase
	}

	if !d.mut.TryLock(ctx) {
		return &erroredSession{err: racing.LockTimeoutError("could not acquire lock in time when creating session")}
	}
	defer d.mut.Unlock()
	if d.closed {
		return &erroredSession{err: &UsageError{Message: "Trying to create session on closed driver"}}
	}
	return newSessionWithContext(d.config, config, d.router, d.pool, d.log)
}

func (d *driver) VerifyConnectivity(ctx context.Context) error {
	_, err := d.GetServerInfo(ctx)
	return err
}

func (d *driver) GetServerInfo(ctx context.Context) (ServerInfo, error) {
	session := d.NewSession(ctx, SessionConfig{AccessMode: AccessModeRead})
	defer session.Close(ctx)
	return session.getServerInfo(ctx)
}

func (d *driver) Close(ctx context.Context) error {
	if !d.mut.TryLock(ctx) {
		return racing.LockTimeoutError("could not acquire lock in time when closing driver")
	}
	defer d.mut.Unlock()
	// Safeguard against closing more than once
	if !d.closed {
		d.closed = true
		d.pool.Close(ctx)
		d.log.Infof(log.Driver, d.logId, "Closed")
	}
	return nil
}

// directRouter is the single server variant of the cluster router, always
// returning the bootstrap address.
type directRouter struct {
	address string
}

func (r *directRouter) GetOrUpdateReaders(context.Context, []string, string) ([]string, error) {
	return []string{r.address}, nil
}

func (r *directRouter) GetOrUpdateWriters(context.Context, []string, string) ([]string, error) {
	return []string{r.address}, nil
}

func (r *directRouter) Invalidate(string) {}

func (r *directRouter) InvalidateServer(string) {}

func (r *directRouter) CleanUp() {}

var _ sessionRouter = &directRouter{}
