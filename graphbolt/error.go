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
	"errors"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/errorutil"
)

// ServerError is an error reported by the server in response to a request,
// for example a syntax error in a query. The Code carries the full
// server-side error code and Classification a coarse category such as
// "ClientError" or "TransientError".
type ServerError = db.ServerError

// UsageError is the result of incorrect usage of the driver API.
type UsageError = errorutil.UsageError

// ConnectivityError is returned when the driver could not reach a server or
// lost the connection to one mid-exchange.
type ConnectivityError = errorutil.ConnectivityError

// IsServerError reports whether err is an error reported by the server.
func IsServerError(err error) bool {
	var serverError *ServerError
	return errors.As(err, &serverError)
}

// IsUsageError reports whether err stems from incorrect API usage.
func IsUsageError(err error) bool {
	var usageError *UsageError
	return errors.As(err, &usageError)
}

// IsConnectivityError reports whether err is a network level failure.
func IsConnectivityError(err error) bool {
	var connectivityError *ConnectivityError
	return errors.As(err, &connectivityError)
}

// IsRetryable reports whether a new attempt of the failed operation might
// succeed. The managed transaction functions ExecuteRead and ExecuteWrite
// already retry on these, this is for callers managing retries themselves.
func IsRetryable(err error) bool {
	return errorutil.IsRetryable(err)
}
