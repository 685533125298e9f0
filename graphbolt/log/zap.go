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
	"go.uber.org/zap"
)

// ZapLogger adapts a zap logger to the driver's Logger interface so that
// applications already standardized on zap can route driver logs through
// their own sinks and encoders.
type ZapLogger struct {
	base *zap.SugaredLogger
}

// NewZapLogger wraps the provided zap logger. Component name and instance
// id are attached as structured fields.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{base: logger.Sugar()}
}

func (l *ZapLogger) Error(name, id string, err error) {
	l.named(name, id).Errorf("%s", err)
}

func (l *ZapLogger) Warnf(name, id string, msg string, args ...any) {
	l.named(name, id).Warnf(msg, args...)
}

func (l *ZapLogger) Infof(name, id string, msg string, args ...any) {
	l.named(name, id).Infof(msg, args...)
}

func (l *ZapLogger) Debugf(name, id string, msg string, args ...any) {
	l.named(name, id).Debugf(msg, args...)
}

func (l *ZapLogger) named(name, id string) *zap.SugaredLogger {
	return l.base.With("component", name, "id", id)
}
