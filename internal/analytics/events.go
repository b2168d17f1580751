package analytics

import "time"

// EventType tags a command event.
type EventType string

const (
	EventDocumentIndexed EventType = "document_indexed"
	EventDocumentDeleted EventType = "document_deleted"
	EventSearchExecuted  EventType = "search_executed"
	EventKeywordCounted  EventType = "keyword_counted"
)

// CommandEvent is one served command, published to the event topic when
// analytics is enabled.
type CommandEvent struct {
	Type      EventType `json:"type"`
	Opcode    string    `json:"opcode"`
	Key       int32     `json:"key,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	CacheHit  bool      `json:"cache_hit,omitempty"`
	Hits      int       `json:"hits,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregatedStats is the rolling aggregate snapshotted to PostgreSQL.
type AggregatedStats struct {
	TotalDocsIndexed int64            `json:"total_docs_indexed"`
	TotalDocsDeleted int64            `json:"total_docs_deleted"`
	TotalSearches    int64            `json:"total_searches"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	CommandCounts    map[string]int64 `json:"command_counts"`
}
