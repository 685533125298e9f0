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

import (
	"fmt"
	"os"
	"time"
)

const timeFormat = "2006-01-02 15:04:05.000"

// Console is a Logger implementation that writes to stdout/stderr.
// Levels are enabled individually:
//
//	driver, err := graphbolt.NewDriver(uri, auth, func(c *graphbolt.Config) {
//		c.Log = &log.Console{Errors: true, Warns: true}
//	})
type Console struct {
	Errors bool
	Warns  bool
	Infos  bool
	Debugs bool
}

func (l *Console) Error(name, id string, err error) {
	if !l.Errors {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s  ERROR  [%s %s] %s\n", time.Now().Format(timeFormat), name, id, err.Error())
}

func (l *Console) Warnf(name, id string, msg string, args ...any) {
	if !l.Warns {
		return
	}
	_, _ = fmt.Fprintf(os.Stdout, "%s   WARN  [%s %s] %s\n", time.Now().Format(timeFormat), name, id, fmt.Sprintf(msg, args...))
}

func (l *Console) Infof(name, id string, msg string, args ...any) {
	if !l.Infos {
		return
	}
	_, _ = fmt.Fprintf(os.Stdout, "%s   INFO  [%s %s] %s\n", time.Now().Format(timeFormat), name, id, fmt.Sprintf(msg, args...))
}

func (l *Console) Debugf(name, id string, msg string, args ...any) {
	if !l.Debugs {
		return
	}
	_, _ = fmt.Fprintf(os.Stdout, "%s  DEBUG  [%s %s] %s\n", time.Now().Format(timeFormat), name, id, fmt.Sprintf(msg, args...))
}
