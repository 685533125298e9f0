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
	"errors"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

// Response is one scripted outcome of CodecFake.Receive.
type Response struct {
	Msg *wire.Message
	Err error
}

func Success(meta map[string]any) Response {
	if meta == nil {
		meta = map[string]any{}
	}
	return Response{Msg: &wire.Message{Tag: wire.TagSuccess, Fields: []any{meta}}}
}

func Record(values ...any) Response {
	return Response{Msg: &wire.Message{Tag: wire.TagRecord, Fields: []any{values}}}
}

func Failure(code, message string) Response {
	return Response{Msg: &wire.Message{Tag: wire.TagFailure, Fields: []any{map[string]any{
		"code":    code,
		"message": message,
	}}}}
}

func Ignored() Response {
	return Response{Msg: &wire.Message{Tag: wire.TagIgnored, Fields: []any{}}}
}

func ReceiveError(err error) Response {
	return Response{Err: err}
}

// CodecFake is a scripted wire.Codec. Sent messages are recorded and
// receives are served from the Responses script in order.
type CodecFake struct {
	Sent      []*wire.Message
	SendErr   error
	Responses []Response
	pos       int
}

func (c *CodecFake) Send(_ context.Context, msg *wire.Message) error {
	c.Sent = append(c.Sent, msg)
	return c.SendErr
}

func (c *CodecFake) Receive(context.Context) (*wire.Message, error) {
	if c.pos >= len(c.Responses) {
		return nil, errors.New("codec script exhausted")
	}
	response := c.Responses[c.pos]
	c.pos++
	return response.Msg, response.Err
}

// LastSent returns the most recently sent message, nil when nothing has
// been sent.
func (c *CodecFake) LastSent() *wire.Message {
	if len(c.Sent) == 0 {
		return nil
	}
	return c.Sent[len(c.Sent)-1]
}
