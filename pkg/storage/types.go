package storage

import "time"

// Run is one execution of the collection pipeline.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      int
	Rows       int
}

// ItemStats summarises the mirrored measurements of a single item.
type ItemStats struct {
	ItemName     string
	Samples      int
	FirstDate    string
	LastDate     string
	PeakWeb      int
	PeakSocial   int
	AvgSentiment float64
}
