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
	"errors"
	"io"
	"testing"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
)

func TestWrapError(t *testing.T) {
	testCases := map[string]struct {
		in       error
		expected any
	}{
		"eof becomes connectivity":             {in: io.EOF, expected: &ConnectivityError{}},
		"tls error becomes connectivity":       {in: &TlsError{}, expected: &ConnectivityError{}},
		"pool timeout becomes connectivity":    {in: &PoolTimeout{}, expected: &ConnectivityError{}},
		"pool full becomes connectivity":       {in: &PoolFull{}, expected: &ConnectivityError{}},
		"pool closed becomes usage error":      {in: &PoolClosed{}, expected: &UsageError{}},
		"routing failure becomes connectivity": {in: &ReadRoutingTableError{}, expected: &ConnectivityError{}},
		"no writers becomes connectivity":      {in: &NoWritersError{}, expected: &ConnectivityError{}},
		"dead commit becomes connectivity":     {in: &CommitFailedDeadError{}, expected: &ConnectivityError{}},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			wrapped := WrapError(testCase.in)
			switch testCase.expected.(type) {
			case *ConnectivityError:
				var target *ConnectivityError
				if !errors.As(wrapped, &target) {
					t.Errorf("Expected ConnectivityError, got %T", wrapped)
				}
			case *UsageError:
				var target *UsageError
				if !errors.As(wrapped, &target) {
					t.Errorf("Expected UsageError, got %T", wrapped)
				}
			}
		})
	}
}

func TestWrapErrorPassesServerErrorsThrough(t *testing.T) {
	serverErr := &db.ServerError{Code: "Vendor.ClientError.Statement.SyntaxError", Msg: "Syntax"}
	if WrapError(serverErr) != error(serverErr) {
		t.Error("Expected server errors to pass through unchanged")
	}
	if WrapError(nil) != nil {
		t.Error("Expected nil to pass through")
	}
}

func TestIsRetryableCapability(t *testing.T) {
	if !IsRetryable(&ConnectivityError{Inner: errors.New("down")}) {
		t.Error("Expected connectivity errors to be retryable")
	}
	if !IsRetryable(&PoolTimeout{}) {
		t.Error("Expected pool timeouts to be retryable")
	}
	if IsRetryable(&CommitFailedDeadError{}) {
		t.Error("Expected dead commits to never be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("Expected plain errors to not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("Expected nil to not be retryable")
	}
}
