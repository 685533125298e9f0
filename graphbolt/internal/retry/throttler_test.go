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
	"testing"
	"time"
)

func TestThrottlerGrowsExponentially(t *testing.T) {
	throttler := Throttler(1 * time.Second)
	for i := 0; i < 3; i++ {
		next := throttler.next()
		if time.Duration(next) != 2*time.Duration(throttler) {
			t.Errorf("Expected delay to double, got %s after %s",
				time.Duration(next), time.Duration(throttler))
		}
		throttler = next
	}
}

func TestThrottlerJittersAroundBase(t *testing.T) {
	base := 1 * time.Second
	throttler := Throttler(base)
	min := time.Duration(float64(base) * (1 - delayJitter))
	max := time.Duration(float64(base) * (1 + delayJitter))
	for i := 0; i < 100; i++ {
		delay := throttler.delay()
		if delay < min || delay > max {
			t.Fatalf("Delay %s outside of [%s, %s]", delay, min, max)
		}
	}
}
