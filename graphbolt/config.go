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
	"crypto/x509"
	"fmt"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

const (
	// FetchDefault lets the driver decide the fetch size.
	FetchDefault = 0
	// FetchAll pulls all records of a stream in one batch.
	FetchAll = -1
)

// Config holds the settings of a driver. An instance is passed to every
// configurer given to NewDriver.
type Config struct {
	// Codec provides the Bolt message encoder/decoder for the negotiated
	// protocol version. Required.
	Codec wire.Factory
	// RootCAs defines the set of certificate authorities the driver trusts
	// when connecting over TLS. nil means the host's root CA set.
	RootCAs *x509.CertPool
	// Log is the target of all driver logging. Defaults to no logging.
	Log log.Logger
	// AddressResolver is an optional hook that expands the initial address
	// into one or more addresses to contact. Only used by routing drivers.
	AddressResolver func(address string) []string
	// MaxTransactionRetryTime is the longest time the managed transaction
	// functions keep retrying a failed transaction before giving up.
	//
	// Default: 30s
	MaxTransactionRetryTime time.Duration
	// MaxConnectionPoolSize is the largest number of connections the driver
	// keeps per server, busy and idle combined. Must be positive.
	//
	// Default: 100
	MaxConnectionPoolSize int
	// MaxConnectionLifetime is the age at which a pooled connection is no
	// longer reused and gets closed instead.
	//
	// Default: 1h
	MaxConnectionLifetime time.Duration
	// ConnectionAcquisitionTimeout is the longest a session waits for a
	// connection when the pool is at capacity. Zero or negative means wait
	// for the passed context only.
	//
	// Default: 1m
	ConnectionAcquisitionTimeout time.Duration
	// ConnectionLivenessCheckTimeout is the idle time after which a pooled
	// connection is probed with a server roundtrip before being reused.
	// Disabled by default.
	ConnectionLivenessCheckTimeout time.Duration
	// SocketConnectTimeout is the dial timeout for new connections.
	//
	// Default: 5s
	SocketConnectTimeout time.Duration
	// SocketKeepalive enables TCP keepalive on the sockets.
	//
	// Default: true
	SocketKeepalive bool
	// UserAgent is reported to the server during authentication.
	UserAgent string
	// FetchSize is the number of records to stream per request. FetchAll
	// streams everything in one batch.
	//
	// Default: 1000
	FetchSize int
}

const defaultUserAgent = "graphbolt-go/" + driverVersion

func defaultConfig() *Config {
	return &Config{
		RootCAs:                        nil,
		Log:                            log.Void{},
		AddressResolver:                nil,
		MaxTransactionRetryTime:        30 * time.Second,
		MaxConnectionPoolSize:          100,
		MaxConnectionLifetime:          1 * time.Hour,
		ConnectionAcquisitionTimeout:   1 * time.Minute,
		ConnectionLivenessCheckTimeout: livenessDisabled,
		SocketConnectTimeout:           5 * time.Second,
		SocketKeepalive:                true,
		UserAgent:                      defaultUserAgent,
		FetchSize:                      1000,
	}
}

func validateAndNormaliseConfig(config *Config) error {
	if config.Codec == nil {
		return &UsageError{Message: "Configuration contains no Codec factory"}
	}
	if config.MaxConnectionPoolSize == 0 {
		return &UsageError{Message: "Configuration contains a MaxConnectionPoolSize of 0, the pool must allow at least 1 connection"}
	}
	if config.MaxConnectionPoolSize < 0 {
		return &UsageError{Message: fmt.Sprintf(
			"Configuration contains a negative MaxConnectionPoolSize (%d)", config.MaxConnectionPoolSize)}
	}
	if config.MaxTransactionRetryTime < 0 {
		config.MaxTransactionRetryTime = 0
	}
	if config.MaxConnectionLifetime <= 0 {
		config.MaxConnectionLifetime = 1<<63 - 1
	}
	if config.ConnectionLivenessCheckTimeout <= 0 {
		config.ConnectionLivenessCheckTimeout = livenessDisabled
	}
	if config.FetchSize == FetchDefault {
		config.FetchSize = 1000
	}
	if config.Log == nil {
		config.Log = log.Void{}
	}
	return nil
}
