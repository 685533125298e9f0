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

package testutil

import (
	"context"
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
)

// PoolFake is a scriptable stand-in for the connection pool.
type PoolFake struct {
	BorrowConn db.Connection
	BorrowErr  error
	BorrowHook func(servers []string) (db.Connection, error)
	Returned   []db.Connection
	ReturnHook func()
	CleanUps   int
	CloseCalls int
}

func (p *PoolFake) Borrow(_ context.Context, servers []string, _ bool, _ time.Duration) (db.Connection, error) {
	if p.BorrowHook != nil {
		return p.BorrowHook(servers)
	}
	return p.BorrowConn, p.BorrowErr
}

func (p *PoolFake) Return(_ context.Context, c db.Connection) {
	p.Returned = append(p.Returned, c)
	if p.ReturnHook != nil {
		p.ReturnHook()
	}
}

func (p *PoolFake) CleanUp(context.Context) {
	p.CleanUps++
}

func (p *PoolFake) Close(context.Context) {
	p.CloseCalls++
}
