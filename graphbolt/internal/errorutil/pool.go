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

// PoolTimeout indicates that no connection to any of the requested servers
// could be acquired within the configured acquisition timeout.
type PoolTimeout struct {
	Err     error
	Servers []string
}

func (e *PoolTimeout) Error() string {
	return fmt.Sprintf("Timeout while waiting for connection to any of [%v]: %s", e.Servers, e.Err)
}

func (e *PoolTimeout) IsRetryable() bool {
	return true
}

// PoolFull indicates that the per-server connection cap was reached on all
// requested servers and waiting was not requested.
type PoolFull struct {
	Servers []string
}

func (e *PoolFull) Error() string {
	return fmt.Sprintf("No idle connections on any of [%v]", e.Servers)
}

func (e *PoolFull) IsRetryable() bool {
	return true
}

type PoolClosed struct {
}

func (e *PoolClosed) Error() string {
	return "Pool closed"
}
