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

package collections

type Set[T comparable] map[T]struct{}

func NewSet[T comparable](values []T) Set[T] {
	result := make(Set[T], len(values))
	result.AddAll(values)
	return result
}

func (set Set[T]) Add(value T) {
	set[value] = struct{}{}
}

func (set Set[T]) AddAll(values []T) {
	for _, value := range values {
		set.Add(value)
	}
}

func (set Set[T]) Contains(value T) bool {
	_, found := set[value]
	return found
}

func (set Set[T]) Values() []T {
	result := make([]T, 0, len(set))
	for value := range set {
		result = append(result, value)
	}
	return result
}
