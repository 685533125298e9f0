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

// Package retry handles the state of retryable, managed transactions.
package retry

import (
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/log"
)

type Router interface {
	Invalidate(database string)
}

// State drives one managed transaction call. It is fed every failure
// through OnFailure and decides in Continue whether another attempt should
// be made. Ephemeral, lives only for the duration of one call.
type State struct {
	Errs                    []error
	MaxTransactionRetryTime time.Duration
	Log                     log.Logger
	LogName                 string
	LogId                   string
	Now                     func() time.Time
	Sleep                   func(time.Duration)
	Throttle                Throttler
	MaxDeadConnections      int
	Router                  Router
	DatabaseName            string

	start      time.Time
	cause      string
	deadErrors int
	skipSleep  bool
	retryable  bool
}

func (s *State) OnFailure(conn db.Connection, err error, isCommitting bool) {
	s.Errs = append(s.Errs, err)
	s.retryable = false
	s.cause = ""
	s.skipSleep = false

	// Check timeout
	if s.start.IsZero() {
		s.start = s.Now()
	}
	if s.Now().Sub(s.start) > s.MaxTransactionRetryTime {
		s.cause = "Timeout"
		return
	}

	// Failed to acquire a connection, nothing to clean up
	if conn == nil {
		if errorutil.IsRetryable(err) {
			s.retryable = true
			s.cause = "No available connection"
		}
		return
	}

	// Check if the connection died, if it died during commit it is not safe
	// to retry since the outcome of the commit is unknown.
	if !conn.IsAlive() {
		if isCommitting {
			s.Errs[len(s.Errs)-1] = &errorutil.CommitFailedDeadError{Inner: err}
			s.cause = "Connection lost during commit"
			return
		}
		s.deadErrors += 1
		s.retryable = s.deadErrors <= s.MaxDeadConnections
		s.cause = "Connection lost"
		s.skipSleep = true
		return
	}

	if !errorutil.IsRetryable(err) {
		return
	}

	if serverErr, ok := err.(*db.ServerError); ok && serverErr.IsRetryableCluster() {
		// Force routing table to be updated before trying again
		s.Router.Invalidate(s.DatabaseName)
		s.cause = "Cluster error"
		s.retryable = true
		return
	}

	s.cause = "Transient error"
	s.retryable = true
}

func (s *State) Continue() bool {
	if len(s.Errs) == 0 {
		return true
	}

	lastErr := s.Errs[len(s.Errs)-1]

	if !s.retryable {
		if s.cause != "" {
			s.Log.Error(s.LogName, s.LogId, lastErr)
		}
		return false
	}

	if s.skipSleep {
		s.Log.Debugf(s.LogName, s.LogId, "Retrying transaction (%s): %s", s.cause, lastErr)
	} else {
		sleepTime := s.Throttle.delay()
		s.Throttle = s.Throttle.next()
		s.Log.Debugf(s.LogName, s.LogId, "Retrying transaction (%s): %s [after %s]", s.cause, lastErr, sleepTime)
		s.Sleep(sleepTime)
	}
	return true
}

// ProduceError surfaces the last underlying error unchanged. No synthetic
// "retries exhausted" wrapper: diagnosability of the actual failure beats
// uniformity of the return type.
func (s *State) ProduceError() error {
	return s.Errs[len(s.Errs)-1]
}
