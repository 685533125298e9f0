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

import "fmt"

// ReadRoutingTableError indicates that a routing table could not be
// retrieved from any known router. The service is considered unavailable.
type ReadRoutingTableError struct {
	Err    error
	Server string
}

func (e *ReadRoutingTableError) Error() string {
	if e.Err != nil || len(e.Server) > 0 {
		return fmt.Sprintf("Unable to retrieve routing table from %s: %s", e.Server, e.Err)
	}
	return "Unable to retrieve routing table, no router provided"
}

func (e *ReadRoutingTableError) IsRetryable() bool {
	return true
}

// NoWritersError indicates that the current routing table holds no writer
// for the database, typically while a leader election is in progress.
type NoWritersError struct {
	Database string
}

func (e *NoWritersError) Error() string {
	return fmt.Sprintf("No writers available for database '%s'", e.Database)
}

func (e *NoWritersError) IsRetryable() bool {
	return true
}
