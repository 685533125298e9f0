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

package log

// Void is a Logger implementation that discards everything. It is the
// default logger of a driver created without an explicit Config.Log.
type Void struct{}

func (v Void) Error(string, string, error)           {}
func (v Void) Warnf(string, string, string, ...any)  {}
func (v Void) Infof(string, string, string, ...any)  {}
func (v Void) Debugf(string, string, string, ...any) {}
