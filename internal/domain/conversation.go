package domain

import "time"

// CallRecord is the persisted closed-call archive: the full transcript plus
// the final cart and outcome. Written once when a call leaves active memory.
type CallRecord struct {
	PK            string
	SK            string
	CallID        string
	RestaurantID  string
	CustomerPhone string
	Language      Language
	FinalState    CallState
	Outcome       string
	Items         []OrderItem
	SubtotalCents int64
	Transcript    []TranscriptEntry
	StartedAt     time.Time
	EndedAt       time.Time
	TTL           int64
}

// CallMeta stores aggregate per-call state alongside the record.
type CallMeta struct {
	PK           string
	SK           string
	CallID       string
	LastActivity string
	Turns        int
	TTL          int64
}
