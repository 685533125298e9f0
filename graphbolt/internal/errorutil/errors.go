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

package errorutil

import (
	"fmt"
	"io"
	"net"
)

// UsageError represents errors caused by incorrect usage of the driver API.
// This does not include query syntax errors (those are ServerError). Usage
// errors are never retried.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ConnectivityError represents errors caused by the driver not being able
// to connect to the server, or lost connections.
type ConnectivityError struct {
	Inner error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("ConnectivityError: %s", e.Inner.Error())
}

func (e *ConnectivityError) Unwrap() error {
	return e.Inner
}

// IsRetryable marks connectivity problems as worth a new attempt on a
// fresh connection.
func (e *ConnectivityError) IsRetryable() bool {
	return true
}

// retryable is the capability that classifies an error for the retry
// machinery. Classification is a property of the error value itself, not of
// its type, so new error kinds plug in without touching the retry loop.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable queries the retryability capability of err. Errors without
// the capability are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}
	return false
}

// CombineAllErrors combines the given errors, oldest first.
func CombineAllErrors(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}
	result := errs[0]
	for _, err := range errs[1:] {
		result = CombineErrors(result, err)
	}
	return result
}

func CombineErrors(err1, err2 error) error {
	if err2 == nil {
		return err1
	}
	if err1 == nil {
		return err2
	}
	return fmt.Errorf("error %v occurred after previous error %w", err2, err1)
}

// WrapError normalizes internal errors into the public error taxonomy at
// the API boundary. Server errors and usage errors pass through untouched.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		return &ConnectivityError{Inner: err}
	}
	switch err.(type) {
	case *TlsError, net.Error:
		return &ConnectivityError{Inner: err}
	case *PoolTimeout, *PoolFull:
		return &ConnectivityError{Inner: err}
	case *PoolClosed:
		return &UsageError{Message: err.Error()}
	case *ReadRoutingTableError, *NoWritersError:
		return &ConnectivityError{Inner: err}
	case *CommitFailedDeadError:
		return &ConnectivityError{Inner: err}
	}
	return err
}
