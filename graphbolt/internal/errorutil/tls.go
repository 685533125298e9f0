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

// TlsError encapsulates all errors related to TLS connection creation.
// This is needed since the tls package does not provide a common error type
// à la net.Error, and a common type is needed to classify the error as a
// connectivity problem.
type TlsError struct {
	Inner error
}

func (e *TlsError) Error() string {
	return e.Inner.Error()
}
