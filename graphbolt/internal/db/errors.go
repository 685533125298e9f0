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

package db

import (
	"fmt"
	"strings"
)

// ServerError is a failure that the server reported in response to a
// request. Codes are on the form <vendor>.<classification>.<category>.<title>
// and the driver only ever inspects the classification segment and a small
// set of well-known cluster codes, so new server codes classify without
// driver changes.
type ServerError struct {
	Code string
	Msg  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server error: [%s] %s", e.Code, e.Msg)
}

// Classification returns the classification segment of the code, for
// example "ClientError" or "TransientError". Empty string when the code is
// not on the expected form.
func (e *ServerError) Classification() string {
	parts := strings.Split(e.Code, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (e *ServerError) IsAuthentication() bool {
	return strings.HasSuffix(e.Code, ".Security.Unauthorized")
}

func (e *ServerError) IsClient() bool {
	return e.Classification() == "ClientError"
}

func (e *ServerError) IsTransient() bool {
	return e.Classification() == "TransientError"
}

// IsRetryableTransient reports whether this is a transient failure worth a
// new attempt. Terminations initiated by the client are transient on the
// wire but retrying them would resurrect work the client just aborted.
func (e *ServerError) IsRetryableTransient() bool {
	if !e.IsTransient() {
		return false
	}
	switch {
	case strings.HasSuffix(e.Code, ".Transaction.Terminated"),
		strings.HasSuffix(e.Code, ".Transaction.LockClientStopped"):
		return false
	}
	return true
}

// IsRetryableCluster reports whether the failure stems from a cluster role
// change, such as a leader election. The routing table should be refreshed
// before the next attempt.
func (e *ServerError) IsRetryableCluster() bool {
	switch {
	case strings.HasSuffix(e.Code, ".Cluster.NotALeader"),
		strings.HasSuffix(e.Code, ".General.ForbiddenOnReadOnlyDatabase"):
		return true
	}
	return false
}

// IsRetryable is the capability queried by the retry machinery. It holds
// for transient failures and cluster role changes alike.
func (e *ServerError) IsRetryable() bool {
	return e.IsRetryableTransient() || e.IsRetryableCluster()
}
