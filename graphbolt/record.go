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

import "github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"

// Record contains ordered keys and values that are returned from a query.
type Record = db.Record

// GetRecordValue returns the value of the key for the record, when the
// value is of the expected type. If the key is unknown the zero value and
// false are returned.
func GetRecordValue[T any](record *Record, key string) (T, bool) {
	var zero T
	value, found := record.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
