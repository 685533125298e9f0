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

// Package testutil contains shared test utilities.
package testutil

import (
	"reflect"
	"strings"
	"testing"
)

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got %s", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected an error")
	}
}

func AssertErrorMessageContains(t *testing.T, err error, sub string, args ...any) {
	t.Helper()
	AssertError(t, err)
	if !strings.Contains(err.Error(), sub) {
		t.Errorf("Expected error %q to contain %q", err.Error(), sub)
	}
}

func AssertTrue(t *testing.T, b bool) {
	t.Helper()
	if !b {
		t.Error("Expected true")
	}
}

func AssertFalse(t *testing.T, b bool) {
	t.Helper()
	if b {
		t.Error("Expected false")
	}
}

func AssertNil(t *testing.T, x any) {
	t.Helper()
	if x != nil && !reflect.ValueOf(x).IsNil() {
		t.Errorf("Expected nil, got %+v", x)
	}
}

func AssertNotNil(t *testing.T, x any) {
	t.Helper()
	if x == nil || (reflect.ValueOf(x).Kind() == reflect.Ptr && reflect.ValueOf(x).IsNil()) {
		t.Fatal("Expected not nil")
	}
}

func AssertIntEqual(t *testing.T, actual, expected int) {
	t.Helper()
	if actual != expected {
		t.Errorf("Expected %d, got %d", expected, actual)
	}
}

func AssertStringEqual(t *testing.T, actual, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("Expected %q, got %q", expected, actual)
	}
}

func AssertStringContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Errorf("Expected %q to contain %q", s, sub)
	}
}

func AssertLen(t *testing.T, x any, expected int) {
	t.Helper()
	actual := reflect.ValueOf(x).Len()
	if actual != expected {
		t.Errorf("Expected length %d, got %d", expected, actual)
	}
}

func AssertDeepEquals(t *testing.T, actual, expected any) {
	t.Helper()
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Expected\n%+v\nto equal\n%+v", actual, expected)
	}
}

func AssertSameType(t *testing.T, actual, expected any) {
	t.Helper()
	ta := reflect.TypeOf(actual)
	te := reflect.TypeOf(expected)
	if ta != te {
		t.Errorf("Expected type %s, got %s", te, ta)
	}
}
