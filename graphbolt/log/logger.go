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

// Package log defines the logging facade used throughout the driver.
package log

import (
	"strconv"
	"sync/atomic"
)

// Names of the driver components that log, passed as the name parameter
// to all Logger functions.
const (
	Driver  = "driver"
	Session = "session"
	Pool    = "pool"
	Router  = "router"
	Bolt    = "bolt"
)

// Logger is used throughout the driver for logging purposes.
// Driver clients can implement this interface and provide an implementation
// upon driver creation.
//
// All logging functions take a name and an id that correspond to the name of
// the logging component and its identity, for example "router" and "1" to
// indicate who is logging and what instance.
type Logger interface {
	Error(name string, id string, err error)
	Warnf(name string, id string, msg string, args ...any)
	Infof(name string, id string, msg string, args ...any)
	Debugf(name string, id string, msg string, args ...any)
}

var idCounter uint64

// NewId returns a new, driver-process unique id to be used as the id
// parameter of Logger functions.
func NewId() string {
	return strconv.FormatUint(atomic.AddUint64(&idCounter, 1), 10)
}
