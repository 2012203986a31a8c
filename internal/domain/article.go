package domain

import "time"

// RawArticle is the not-yet-persisted record emitted by a source collector.
// ID may already carry the title hash computed by the collector.
type RawArticle struct {
	ID       string
	Title    string
	Summary  string
	Link     string
	Image    string
	Category string
	Source   string
}

// Article is a persisted news record. SerialNumber is unique within its
// category and strictly increasing in insertion order.
type Article struct {
	ID           string    `json:"id"`
	SerialNumber int       `json:"serialNumber"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Link         string    `json:"link"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Digest is the AI-generated cross-article summary for one category on one
// calendar day. SerialNumbers reference the contributing articles.
type Digest struct {
	ID                   string    `json:"id"`
	Category             string    `json:"category"`
	Timestamp            time.Time `json:"timestamp"`
	KeyInsights          string    `json:"keyInsights"`
	ComprehensiveSummary string    `json:"comprehensiveSummary"`
	SerialNumbers        []int     `json:"serialNumbers"`
	DayBucket            string    `json:"-"`
}

// IngestResult reports the outcome of a single ingestion attempt.
type IngestResult struct {
	SerialNumber int
	// Skipped is true when the article was already present and no row
	// was written; SerialNumber then carries the existing value.
	Skipped bool
	// Dropped is true when a configured filter rejected the record
	// before insert.
	Dropped bool
}

// DigestOutcome reports the outcome of one digest build.
type DigestOutcome struct {
	Digest *Digest
	// Created is false when a same-day digest already existed (or the
	// category had no articles) and nothing was persisted.
	Created bool
}
