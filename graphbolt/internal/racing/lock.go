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

// Package racing provides synchronization primitives that give up when the
// caller's context expires instead of blocking forever.
package racing

import "context"

// LockTimeoutError is returned by driver operations that could not acquire
// an internal lock before their context expired.
type LockTimeoutError string

func (e LockTimeoutError) Error() string {
	return string(e)
}

// Mutex is a mutual exclusion lock bounded by a context. The zero value is
// not usable, create instances with NewMutex.
type Mutex struct {
	ch chan struct{}
}

func NewMutex() *Mutex {
	return &Mutex{ch: make(chan struct{}, 1)}
}

// TryLock acquires the lock, giving up when ctx expires or is cancelled
// first. A context without a deadline blocks until the lock is free.
// Returns whether the lock was acquired.
func (m *Mutex) TryLock(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	// Fast path for the uncontended case, no timer involved.
	select {
	case m.ch <- struct{}{}:
		return true
	default:
	}
	select {
	case m.ch <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unlock releases the lock. Unlocking an unlocked mutex is a programming
// error and panics.
func (m *Mutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("unlock of an unlocked mutex")
	}
}
