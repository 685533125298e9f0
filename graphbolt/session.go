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
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/retry"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

// Initial delay between retries of a failed managed transaction, grows
// exponentially with every retry.
const initialRetryDelay = 1 * time.Second

// TransactionWork is the signature of the work functions passed to
// ExecuteRead and ExecuteWrite. The function can be invoked more than once
// when the transaction is retried, so it must not have side effects beyond
// the transaction itself.
type TransactionWork func(tx ManagedTransaction) (any, error)

// SessionConfig is used to create a new session.
type SessionConfig struct {
	// AccessMode used when using Session.Run or an explicit transaction.
	// Used to route query to the leader or to the followers of a cluster.
	// Not used when a transaction function is used, since that is specified
	// by the function call itself.
	AccessMode AccessMode
	// Bookmarks are the initial references to some previous transactions,
	// making this session wait until the server has caught up with them.
	Bookmarks Bookmarks
	// DatabaseName sets the target database, empty string for the default
	// database.
	DatabaseName string
	// FetchSize overrides the driver-level fetch size for this session.
	FetchSize int
}

// TransactionConfig holds the settings applied to one transaction.
type TransactionConfig struct {
	// Timeout is the server-side execution limit for the transaction.
	// Zero means the server default.
	Timeout time.Duration
	// Metadata is attached to the transaction and visible in server-side
	// monitoring.
	Metadata map[string]any
}

// WithTxTimeout returns a transaction configurer that sets the server-side
// transaction timeout.
func WithTxTimeout(timeout time.Duration) func(*TransactionConfig) {
	return func(config *TransactionConfig) {
		config.Timeout = timeout
	}
}

// WithTxMetadata returns a transaction configurer that attaches metadata to
// the transaction.
func WithTxMetadata(metadata map[string]any) func(*TransactionConfig) {
	return func(config *TransactionConfig) {
		config.Metadata = metadata
	}
}

// Session is a logical sequence of transactions on one database, chained
// causally through bookmarks. Not safe for concurrent use.
type Session interface {
	// LastBookmarks returns the bookmarks received following the last
	// completed transactions, to be passed along to a later session.
	LastBookmarks() Bookmarks
	// BeginTransaction starts a new explicit transaction on this session.
	BeginTransaction(ctx context.Context, configurers ...func(*TransactionConfig)) (ExplicitTransaction, error)
	// ExecuteRead executes the given unit of work in an AccessModeRead
	// transaction with retry logic in place.
	ExecuteRead(ctx context.Context, work TransactionWork, configurers ...func(*TransactionConfig)) (any, error)
	// ExecuteWrite executes the given unit of work in an AccessModeWrite
	// transaction with retry logic in place.
	ExecuteWrite(ctx context.Context, work TransactionWork, configurers ...func(*TransactionConfig)) (any, error)
	// Run executes an auto-commit statement and returns a result.
	Run(ctx context.Context, query string, params map[string]any, configurers ...func(*TransactionConfig)) (Result, error)
	// Close discards this session, rolling back any open transaction.
	Close(ctx context.Context) error

	getServerInfo(ctx context.Context) (ServerInfo, error)
}

// sessionPool is the connection pool as a session needs it.
type sessionPool interface {
	Borrow(ctx context.Context, servers []string, wait bool, livenessCheckThreshold time.Duration) (db.Connection, error)
	Return(ctx context.Context, c db.Connection)
	CleanUp(ctx context.Context)
}

type sessionWithContext struct {
	pool         sessionPool
	router       sessionRouter
	defaultMode  db.AccessMode
	bookmarks    *sessionBookmarks
	databaseName string
	config       *Config
	explicitTx   *explicitTransaction
	autocommitTx *autocommitTransaction
	fetchSize    int
	sleep        func(d time.Duration)
	now          func() time.Time
	logId        string
	log          log.Logger
	throttleTime time.Duration
}

func newSessionWithContext(
	config *Config,
	sessConfig SessionConfig,
	router sessionRouter,
	pool sessionPool,
	logger log.Logger,
) *sessionWithContext {
	logId := log.NewId()
	logger.Debugf(log.Session, logId, "Created")

	fetchSize := config.FetchSize
	if sessConfig.FetchSize != FetchDefault {
		fetchSize = sessConfig.FetchSize
	}

	return &sessionWithContext{
		pool:         pool,
		router:       router,
		defaultMode:  db.AccessMode(sessConfig.AccessMode),
		bookmarks:    newSessionBookmarks(sessConfig.Bookmarks),
		databaseName: sessConfig.DatabaseName,
		config:       config,
		fetchSize:    fetchSize,
		sleep:        time.Sleep,
		now:          time.Now,
		log:          logger,
		logId:        logId,
		throttleTime: initialRetryDelay,
	}
}

func (s *sessionWithContext) LastBookmarks() Bookmarks {
	return s.bookmarks.currentBookmarks()
}

func (s *sessionWithContext) BeginTransaction(ctx context.Context, configurers ...func(*TransactionConfig)) (ExplicitTransaction, error) {
	// Guard against a bad state: the current transaction has to be closed
	// before a new one is started.
	if s.explicitTx != nil {
		err := &UsageError{Message: "Session already has a pending transaction"}
		s.log.Error(log.Session, s.logId, err)
		return nil, err
	}
	// A pending auto-commit stream is simply buffered to get the connection
	// back.
	if s.autocommitTx != nil {
		s.autocommitTx.done(ctx)
	}

	config := TransactionConfig{}
	for _, configurer := range configurers {
		configurer(&config)
	}

	conn, err := s.getConnection(ctx, s.defaultMode)
	if err != nil {
		return nil, errorutil.WrapError(err)
	}

	txHandle, err := conn.TxBegin(ctx, db.TxConfig{
		Mode:      s.defaultMode,
		Bookmarks: s.bookmarks.currentBookmarks(),
		Timeout:   config.Timeout,
		Meta:      config.Metadata,
	})
	if err != nil {
		s.pool.Return(ctx, conn)
		return nil, errorutil.WrapError(err)
	}

	tx := &explicitTransaction{
		conn:      conn,
		fetchSize: s.fetchSize,
		txHandle:  txHandle,
		onClosed: func(tx *explicitTransaction) {
			s.retrieveBookmarks(tx.conn)
			s.pool.Return(ctx, tx.conn)
			s.explicitTx = nil
		},
	}
	s.explicitTx = tx
	return tx, nil
}

func (s *sessionWithContext) ExecuteRead(ctx context.Context, work TransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	return s.runRetriable(ctx, db.ReadMode, work, configurers...)
}

func (s *sessionWithContext) ExecuteWrite(ctx context.Context, work TransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	return s.runRetriable(ctx, db.WriteMode, work, configurers...)
}

func (s *sessionWithContext) runRetriable(ctx context.Context, mode db.AccessMode, work TransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	// Guard against a bad state
	if s.explicitTx != nil {
		err := &UsageError{Message: "Session already has a pending transaction"}
		s.log.Error(log.Session, s.logId, err)
		return nil, err
	}
	if s.autocommitTx != nil {
		s.autocommitTx.done(ctx)
	}

	config := TransactionConfig{}
	for _, configurer := range configurers {
		configurer(&config)
	}

	state := retry.State{
		MaxTransactionRetryTime: s.config.MaxTransactionRetryTime,
		Log:                     s.log,
		LogName:                 log.Session,
		LogId:                   s.logId,
		Now:                     s.now,
		Sleep:                   s.sleep,
		Throttle:                retry.Throttler(s.throttleTime),
		MaxDeadConnections:      s.config.MaxConnectionPoolSize,
		Router:                  s.router,
		DatabaseName:            s.databaseName,
	}
	for state.Continue() {
		if hasCompleted, result := s.executeTransactionFunction(ctx, mode, config, &state, work); hasCompleted {
			return result, nil
		}
	}
	return nil, errorutil.WrapError(state.ProduceError())
}

func (s *sessionWithContext) executeTransactionFunction(
	ctx context.Context,
	mode db.AccessMode,
	config TransactionConfig,
	state *retry.State,
	work TransactionWork,
) (bool, any) {
	conn, err := s.getConnection(ctx, mode)
	if err != nil {
		state.OnFailure(nil, err, false)
		return false, nil
	}
	// The connection is released back whatever the outcome, either for
	// reuse or for destruction when it died.
	defer s.pool.Return(ctx, conn)

	txHandle, err := conn.TxBegin(ctx, db.TxConfig{
		Mode:      mode,
		Bookmarks: s.bookmarks.currentBookmarks(),
		Timeout:   config.Timeout,
		Meta:      config.Metadata,
	})
	if err != nil {
		state.OnFailure(conn, err, false)
		return false, nil
	}

	tx := managedTransaction{conn: conn, fetchSize: s.fetchSize, txHandle: txHandle}
	x, err := work(&tx)
	if err != nil {
		// The transaction might have been explicitly rolled back by the
		// server already, otherwise roll it back here, ignoring any error
		// since the connection might be dead.
		if conn.IsAlive() && !conn.HasFailed() {
			conn.TxRollback(ctx, txHandle)
		}
		state.OnFailure(conn, err, false)
		return false, nil
	}

	if err = conn.TxCommit(ctx, txHandle); err != nil {
		state.OnFailure(conn, err, true)
		return false, nil
	}

	s.retrieveBookmarks(conn)
	return true, x
}

func (s *sessionWithContext) Run(ctx context.Context, query string, params map[string]any, configurers ...func(*TransactionConfig)) (Result, error) {
	if s.explicitTx != nil {
		err := &UsageError{Message: "Session already has a pending transaction"}
		s.log.Error(log.Session, s.logId, err)
		return nil, err
	}
	if s.autocommitTx != nil {
		s.autocommitTx.done(ctx)
	}

	config := TransactionConfig{}
	for _, configurer := range configurers {
		configurer(&config)
	}

	conn, err := s.getConnection(ctx, s.defaultMode)
	if err != nil {
		return nil, errorutil.WrapError(err)
	}

	stream, err := conn.Run(ctx,
		db.Command{Query: query, Params: params, FetchSize: s.fetchSize},
		db.TxConfig{
			Mode:      s.defaultMode,
			Bookmarks: s.bookmarks.currentBookmarks(),
			Timeout:   config.Timeout,
			Meta:      config.Metadata,
		})
	if err != nil {
		s.pool.Return(ctx, conn)
		return nil, errorutil.WrapError(err)
	}

	tx := &autocommitTransaction{
		conn: conn,
		onClosed: func() {
			s.retrieveBookmarks(conn)
			s.pool.Return(ctx, conn)
			s.autocommitTx = nil
		},
	}
	tx.res = newResultWithContext(conn, stream, func() {
		if tx.closed {
			return
		}
		tx.closed = true
		tx.onClosed()
	})
	s.autocommitTx = tx
	return tx.res, nil
}

func (s *sessionWithContext) Close(ctx context.Context) error {
	var txErr error
	if s.explicitTx != nil {
		txErr = s.explicitTx.Close(ctx)
	}
	if s.autocommitTx != nil {
		s.autocommitTx.discard(ctx)
	}

	// Schedule maintenance of the pool and the routing tables.
	s.pool.CleanUp(ctx)
	s.router.CleanUp()

	s.log.Debugf(log.Session, s.logId, "Closed")
	return txErr
}

func (s *sessionWithContext) getServerInfo(ctx context.Context) (ServerInfo, error) {
	conn, err := s.getConnection(ctx, db.ReadMode)
	if err != nil {
		return nil, errorutil.WrapError(err)
	}
	defer s.pool.Return(ctx, conn)
	version := conn.Version()
	return &serverInfo{
		address: conn.ServerName(),
		agent:   conn.ServerVersion(),
		version: version,
	}, nil
}

// getConnection resolves the servers able to serve mode on the session's
// database and borrows a connection to one of them, bounded by the
// configured acquisition timeout.
func (s *sessionWithContext) getConnection(ctx context.Context, mode db.AccessMode) (db.Connection, error) {
	timeout := s.config.ConnectionAcquisitionTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var servers []string
	var err error
	if mode == db.ReadMode {
		servers, err = s.router.GetOrUpdateReaders(ctx, s.bookmarks.currentBookmarks(), s.databaseName)
	} else {
		servers, err = s.router.GetOrUpdateWriters(ctx, s.bookmarks.currentBookmarks(), s.databaseName)
	}
	if err != nil {
		return nil, errorutil.WrapError(err)
	}

	conn, err := s.pool.Borrow(ctx, servers, timeout > 0, s.config.ConnectionLivenessCheckTimeout)
	if err != nil {
		return nil, errorutil.WrapError(err)
	}

	conn.SelectDatabase(s.databaseName)
	return conn, nil
}

func (s *sessionWithContext) retrieveBookmarks(conn db.Connection) {
	if conn == nil {
		return
	}
	s.bookmarks.noteBookmark(conn.Bookmark())
}

// erroredSession is handed out when a session could not be created, to let
// the error surface on first use instead of on creation.
type erroredSession struct {
	err error
}

func (s *erroredSession) LastBookmarks() Bookmarks {
	return nil
}

func (s *erroredSession) BeginTransaction(context.Context, ...func(*TransactionConfig)) (ExplicitTransaction, error) {
	return nil, s.err
}

func (s *erroredSession) ExecuteRead(context.Context, TransactionWork, ...func(*TransactionConfig)) (any, error) {
	return nil, s.err
}

func (s *erroredSession) ExecuteWrite(context.Context, TransactionWork, ...func(*TransactionConfig)) (any, error) {
	return nil, s.err
}

func (s *erroredSession) Run(context.Context, string, map[string]any, ...func(*TransactionConfig)) (Result, error) {
	return nil, s.err
}

func (s *erroredSession) Close(context.Context) error {
	return s.err
}

func (s *erroredSession) getServerInfo(context.Context) (ServerInfo, error) {
	return nil, s.err
}
