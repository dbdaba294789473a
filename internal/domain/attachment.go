package domain

import "time"

// Attachment stores metadata for a ticket file attachment. StorageKey is the
// generated name under which the blob lives in the attachment store;
// ContentHash (hex sha-256 of the bytes) deduplicates uploads per ticket.
type Attachment struct {
	ID          string
	TicketID    string
	StorageKey  string
	FileName    string
	ContentHash string
	SizeBytes   int64
	CreatedAt   time.Time
}
