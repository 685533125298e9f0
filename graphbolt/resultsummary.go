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

package graphbolt

import (
	"time"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/internal/db"
)

// StatementType defines the type of the statement.
type StatementType int

const (
	StatementTypeUnknown     StatementType = 0
	StatementTypeReadOnly    StatementType = 1
	StatementTypeReadWrite   StatementType = 2
	StatementTypeWriteOnly   StatementType = 3
	StatementTypeSchemaWrite StatementType = 4
)

// ServerInfo contains basic information of the server.
type ServerInfo interface {
	// Address returns the address of the server.
	Address() string
	// Agent returns the product name and version of the server.
	Agent() string
	// ProtocolVersion returns the protocol version negotiated with the server.
	ProtocolVersion() ProtocolVersion
}

// ProtocolVersion represents the protocol version negotiated during the
// handshake.
type ProtocolVersion struct {
	Major int
	Minor int
}

// Counters contains statistics about the changes that were made to the
// database made as part of the statement execution.
type Counters interface {
	// ContainsUpdates reports whether there were any updates at all.
	ContainsUpdates() bool
	NodesCreated() int
	NodesDeleted() int
	RelationshipsCreated() int
	RelationshipsDeleted() int
	PropertiesSet() int
	LabelsAdded() int
	LabelsRemoved() int
	IndexesAdded() int
	IndexesRemoved() int
	ConstraintsAdded() int
	ConstraintsRemoved() int
	SystemUpdates() int
}

// ResultSummary contains information about statement execution.
type ResultSummary interface {
	// Server returns basic information about the server where the statement
	// is carried out.
	Server() ServerInfo
	// StatementType returns the type of the executed statement.
	StatementType() StatementType
	// Counters returns statistics counts for the statement.
	Counters() Counters
	// ResultAvailableAfter returns the time it took for the server to make
	// the result available for consumption. Zero when the server did not
	// report it.
	ResultAvailableAfter() time.Duration
	// ResultConsumedAfter returns the time it took the server to consume the
	// result. Zero when the server did not report it.
	ResultConsumedAfter() time.Duration
	// Database returns the name of the database where the statement ran.
	// Empty string for the default database.
	Database() string
}

type resultSummary struct {
	sum *db.Summary
}

func (s *resultSummary) Server() ServerInfo {
	return &serverInfo{
		address: s.sum.ServerName,
		agent:   s.sum.Agent,
		version: s.sum.Version,
	}
}

func (s *resultSummary) StatementType() StatementType {
	switch s.sum.StmntType {
	case "r":
		return StatementTypeReadOnly
	case "rw":
		return StatementTypeReadWrite
	case "w":
		return StatementTypeWriteOnly
	case "s":
		return StatementTypeSchemaWrite
	}
	return StatementTypeUnknown
}

func (s *resultSummary) Counters() Counters {
	return s
}

func (s *resultSummary) count(key string) int {
	return s.sum.Counters[key]
}

func (s *resultSummary) ContainsUpdates() bool {
	for _, count := range s.sum.Counters {
		if count > 0 {
			return true
		}
	}
	return false
}

func (s *resultSummary) NodesCreated() int         { return s.count(db.NodesCreated) }
func (s *resultSummary) NodesDeleted() int         { return s.count(db.NodesDeleted) }
func (s *resultSummary) RelationshipsCreated() int { return s.count(db.RelationshipsCreated) }
func (s *resultSummary) RelationshipsDeleted() int { return s.count(db.RelationshipsDeleted) }
func (s *resultSummary) PropertiesSet() int        { return s.count(db.PropertiesSet) }
func (s *resultSummary) LabelsAdded() int          { return s.count(db.LabelsAdded) }
func (s *resultSummary) LabelsRemoved() int        { return s.count(db.LabelsRemoved) }
func (s *resultSummary) IndexesAdded() int         { return s.count(db.IndexesAdded) }
func (s *resultSummary) IndexesRemoved() int       { return s.count(db.IndexesRemoved) }
func (s *resultSummary) ConstraintsAdded() int     { return s.count(db.ConstraintsAdded) }
func (s *resultSummary) ConstraintsRemoved() int   { return s.count(db.ConstraintsRemoved) }
func (s *resultSummary) SystemUpdates() int        { return s.count(db.SystemUpdates) }

func (s *resultSummary) ResultAvailableAfter() time.Duration {
	return time.Duration(s.sum.TFirst) * time.Millisecond
}

func (s *resultSummary) ResultConsumedAfter() time.Duration {
	return time.Duration(s.sum.TLast) * time.Millisecond
}

func (s *resultSummary) Database() string {
	return s.sum.Database
}

type serverInfo struct {
	address string
	agent   string
	version db.ProtocolVersion
}

func (s *serverInfo) Address() string {
	return s.address
}

func (s *serverInfo) Agent() string {
	return s.agent
}

func (s *serverInfo) ProtocolVersion() ProtocolVersion {
	return ProtocolVersion{Major: s.version.Major, Minor: s.version.Minor}
}
