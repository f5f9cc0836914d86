// Package model defines the typed data model shared across the
// pipeline: roles, normalized values, raw board rows, and snapshots.
package model

import "time"

// RawRow is one board row as exported by the source: raw column name
// to raw cell text. A missing key means the cell was null. RawRows are
// produced by the fetch layer and discarded after normalization.
type RawRow map[string]string

// Record is one normalized row. Every declared role is present as a
// key, with the missing marker standing in for absent or unusable
// data, so downstream code never probes for key absence.
type Record map[Role]Value

// Snapshot is one fetched-and-normalized board. Snapshots are rebuilt
// from scratch on every fetch; the record set is the durable artifact
// handed to aggregation and the LLM context builder.
type Snapshot struct {
	ID        string        `json:"id"`
	BoardID   string        `json:"board_id"`
	BoardName string        `json:"board_name"`
	Headers   []string      `json:"headers"`
	Mapping   ColumnMapping `json:"mapping"`
	Records   []Record      `json:"records"`
	FetchedAt time.Time     `json:"fetched_at"`
}
