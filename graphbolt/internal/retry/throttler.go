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

package retry

import (
	"math/rand"
	"time"
)

const (
	delayMultiplier = 2
	delayJitter     = 0.2
)

// Throttler computes the exponentially growing, jittered delays between
// retry attempts.
type Throttler time.Duration

func (t Throttler) next() Throttler {
	return Throttler(time.Duration(t) * delayMultiplier)
}

func (t Throttler) delay() time.Duration {
	delay := float64(t)
	jitter := delay * delayJitter
	return time.Duration(delay - jitter + 2*jitter*rand.Float64())
}
